// orders.go — сервис заказов: оформление, поиск, смена статуса.
package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gregory1175/bad-server/internal/domain/model"
	"github.com/gregory1175/bad-server/internal/repository"
)

// OrderInput — входные данные оформления заказа.
type OrderInput struct {
	Items   []string `json:"items"`
	Payment string   `json:"payment"`
	Total   float64  `json:"total"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone"`
	Address string   `json:"address"`
	Comment string   `json:"comment"`
}

// OrderList — страница списка заказов с пагинацией.
type OrderList struct {
	Orders     []*model.Order  `json:"orders"`
	Pagination OrderPagination `json:"pagination"`
}

// OrderPagination — сведения о странице списка заказов.
type OrderPagination struct {
	TotalOrders int `json:"totalOrders"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
}

// txRunner выполняет функцию в транзакции. Реализуется repository.TxRunner.
type txRunner interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// OrderService — бизнес-логика заказов.
type OrderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	customers repository.CustomerRepository
	txRunner  txRunner
	// ordersInTx создаёт репозиторий заказов поверх транзакции
	ordersInTx func(tx pgx.Tx) repository.OrderRepository
	logger     *slog.Logger
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	customers repository.CustomerRepository,
	runner *repository.TxRunner,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		customers: customers,
		txRunner:  runner,
		ordersInTx: func(tx pgx.Tx) repository.OrderRepository {
			return repository.NewOrderRepository(tx)
		},
		logger: logger.With(slog.String("component", "order_service")),
	}
}

// Create оформляет заказ покупателя.
// Каждый товар корзины обязан существовать и продаваться,
// а заявленная сумма — совпадать с суммой цен товаров.
func (s *OrderService) Create(ctx context.Context, customerID string, input OrderInput) (*model.Order, error) {
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: корзина пуста", ErrValidation)
	}
	if input.Payment != model.PaymentCard && input.Payment != model.PaymentOnline {
		return nil, fmt.Errorf("%w: неизвестный способ оплаты %q", ErrValidation, input.Payment)
	}
	if input.Email == "" || input.Phone == "" {
		return nil, fmt.Errorf("%w: не указаны email или телефон", ErrValidation)
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь по заданному id отсутствует в базе", ErrNotFound)
		}
		return nil, err
	}

	products, err := s.products.GetByIDs(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// Собираем корзину в порядке запроса и проверяем сумму
	basket := make([]*model.Product, 0, len(input.Items))
	var totalBasket float64
	for _, id := range input.Items {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: товар с id %s не найден", ErrValidation, id)
		}
		if p.Price == nil {
			return nil, fmt.Errorf("%w: товар с id %s не продается", ErrValidation, id)
		}
		basket = append(basket, p)
		totalBasket += *p.Price
	}
	if totalBasket != input.Total {
		return nil, fmt.Errorf("%w: неверная сумма заказа", ErrValidation)
	}

	order := &model.Order{
		ID:          uuid.New().String(),
		Status:      model.StatusNew,
		TotalAmount: input.Total,
		PaymentType: input.Payment,
		Email:       input.Email,
		Phone:       input.Phone,
		// Комментарий попадает в админку как есть, поэтому экранируем
		Comment:         html.EscapeString(input.Comment),
		DeliveryAddress: input.Address,
		Customer:        customer,
		Products:        basket,
	}

	// Заказ и его состав пишутся атомарно
	err = s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		return s.ordersInTx(tx).Create(ctx, order, input.Items)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Заказ оформлен",
		slog.Int64("order_number", order.OrderNumber),
		slog.String("customer_id", customerID),
		slog.Float64("total", order.TotalAmount),
	)
	return order, nil
}

// Search возвращает страницу заказов по фильтрам (админский список).
func (s *OrderService) Search(ctx context.Context, params repository.OrderSearchParams, page int) (*OrderList, error) {
	orders, total, err := s.orders.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*model.Order{}
	}
	return &OrderList{
		Orders: orders,
		Pagination: OrderPagination{
			TotalOrders: total,
			TotalPages:  totalPages(total, params.Limit),
			CurrentPage: page,
			PageSize:    params.Limit,
		},
	}, nil
}

// ListForCustomer возвращает страницу заказов текущего покупателя.
func (s *OrderService) ListForCustomer(ctx context.Context, customerID, search string, page, limit int) (*OrderList, error) {
	params := repository.OrderSearchParams{
		CustomerID: customerID,
		Search:     search,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	if n, err := strconv.ParseInt(search, 10, 64); err == nil && n > 0 {
		params.SearchNumber = n
	}
	return s.Search(ctx, params, page)
}

// GetByNumber возвращает заказ по номеру (админский доступ).
func (s *OrderService) GetByNumber(ctx context.Context, number int64) (*model.Order, error) {
	order, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: заказ по заданному id отсутствует в базе", ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}

// GetForCustomerByNumber возвращает заказ покупателя по номеру.
// Чужой заказ неотличим от несуществующего: в обоих случаях 404,
// чтобы не подтверждать его существование.
func (s *OrderService) GetForCustomerByNumber(ctx context.Context, customerID string, number int64) (*model.Order, error) {
	order, err := s.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if order.Customer == nil || order.Customer.ID != customerID {
		return nil, fmt.Errorf("%w: заказ по заданному id отсутствует в базе", ErrNotFound)
	}
	return order, nil
}

// UpdateStatus изменяет статус заказа.
func (s *OrderService) UpdateStatus(ctx context.Context, number int64, status string) (*model.Order, error) {
	if !model.ValidStatus(status) {
		return nil, fmt.Errorf("%w: неизвестный статус заказа %q", ErrValidation, status)
	}

	order, err := s.orders.UpdateStatus(ctx, number, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: заказ по заданному id отсутствует в базе", ErrNotFound)
		}
		return nil, err
	}

	s.logger.Info("Статус заказа изменён",
		slog.Int64("order_number", number),
		slog.String("status", status),
	)
	return order, nil
}

// Delete удаляет заказ. Возвращает удалённый заказ.
func (s *OrderService) Delete(ctx context.Context, number int64) (*model.Order, error) {
	order, err := s.orders.Delete(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: заказ по заданному id отсутствует в базе", ErrNotFound)
		}
		return nil, err
	}

	s.logger.Info("Заказ удалён", slog.Int64("order_number", number))
	return order, nil
}
