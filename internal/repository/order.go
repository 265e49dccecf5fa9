package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gregory1175/bad-server/internal/domain/model"
)

// orderSortColumns — разрешённые поля сортировки заказов.
// Ключ — имя поля в API, значение — столбец SQL.
var orderSortColumns = map[string]string{
	"createdAt":   "o.created_at",
	"totalAmount": "o.total_amount",
	"orderNumber": "o.order_number",
	"status":      "o.status",
}

// ValidOrderSortField сообщает, допустимо ли поле сортировки заказов.
func ValidOrderSortField(field string) bool {
	_, ok := orderSortColumns[field]
	return ok
}

// OrderSearchParams — параметры фильтрации и пагинации списка заказов.
// Nil-указатель означает отсутствие фильтра.
type OrderSearchParams struct {
	// Фильтр по статусу заказа
	Status *string
	// Нижняя граница суммы заказа
	TotalFrom *float64
	// Верхняя граница суммы заказа
	TotalTo *float64
	// Нижняя граница даты создания
	DateFrom *time.Time
	// Верхняя граница даты создания
	DateTo *time.Time
	// Поисковая строка: подстрока названия товара либо точный номер заказа
	Search string
	// Номер заказа для точного совпадения при числовом Search (0 — не задан)
	SearchNumber int64
	// Ограничение выборки владельцем (пусто — все заказы)
	CustomerID string
	// Поле сортировки (ключ orderSortColumns)
	SortField string
	// Направление сортировки: asc или desc
	SortOrder string

	Limit  int
	Offset int
}

// OrderRepository — интерфейс доступа к заказам.
type OrderRepository interface {
	// Create создаёт заказ и его состав. Номер заказа присваивается базой.
	Create(ctx context.Context, o *model.Order, productIDs []string) error
	// GetByNumber возвращает заказ по сквозному номеру вместе с покупателем и товарами.
	GetByNumber(ctx context.Context, number int64) (*model.Order, error)
	// Search возвращает страницу заказов по фильтрам и общее количество
	// подходящих заказов до пагинации.
	Search(ctx context.Context, params OrderSearchParams) ([]*model.Order, int, error)
	// UpdateStatus изменяет статус заказа по номеру.
	UpdateStatus(ctx context.Context, number int64, status string) (*model.Order, error)
	// Delete удаляет заказ по номеру. Возвращает удалённый заказ.
	Delete(ctx context.Context, number int64) (*model.Order, error)
}

// orderRepo — реализация OrderRepository.
type orderRepo struct {
	db DBTX
}

// NewOrderRepository создаёт репозиторий заказов.
// Для создания заказа в транзакции передайте pgx.Tx вместо пула.
func NewOrderRepository(db DBTX) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, o *model.Order, productIDs []string) error {
	query := `
		INSERT INTO orders (id, status, total_amount, payment_type,
			email, phone, comment, delivery_address, customer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING order_number, created_at, updated_at`

	customerID := ""
	if o.Customer != nil {
		customerID = o.Customer.ID
	}

	err := r.db.QueryRow(ctx, query,
		o.ID, o.Status, o.TotalAmount, o.PaymentType,
		o.Email, o.Phone, o.Comment, o.DeliveryAddress, customerID,
	).Scan(&o.OrderNumber, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания заказа: %w", err)
	}

	for i, productID := range productIDs {
		_, err := r.db.Exec(ctx,
			`INSERT INTO order_products (order_id, product_id, position) VALUES ($1, $2, $3)`,
			o.ID, productID, i,
		)
		if err != nil {
			return fmt.Errorf("ошибка добавления товара в заказ: %w", err)
		}
	}
	return nil
}

const orderColumns = `
	o.id, o.order_number, o.status, o.total_amount, o.payment_type,
	o.email, o.phone, o.comment, o.delivery_address,
	o.created_at, o.updated_at,
	c.id, c.email, c.name, c.roles, c.created_at, c.updated_at`

// scanOrder читает строку join-а orders + customers.
func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{Customer: &model.Customer{}}
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.Status, &o.TotalAmount, &o.PaymentType,
		&o.Email, &o.Phone, &o.Comment, &o.DeliveryAddress,
		&o.CreatedAt, &o.UpdatedAt,
		&o.Customer.ID, &o.Customer.Email, &o.Customer.Name, &o.Customer.Roles,
		&o.Customer.CreatedAt, &o.Customer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepo) GetByNumber(ctx context.Context, number int64) (*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.order_number = $1`

	o, err := scanOrder(r.db.QueryRow(ctx, query, number))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения заказа: %w", err)
	}

	if err := r.loadProducts(ctx, []*model.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// buildOrderWhere строит WHERE-часть запроса списка заказов
// с позиционными аргументами.
func buildOrderWhere(params OrderSearchParams) (string, []any) {
	var conditions []string
	var args []any
	argNum := 1

	add := func(cond string, val any) {
		conditions = append(conditions, fmt.Sprintf(cond, argNum))
		args = append(args, val)
		argNum++
	}

	if params.CustomerID != "" {
		add("o.customer_id = $%d", params.CustomerID)
	}
	if params.Status != nil {
		add("o.status = $%d", *params.Status)
	}
	if params.TotalFrom != nil {
		add("o.total_amount >= $%d", *params.TotalFrom)
	}
	if params.TotalTo != nil {
		add("o.total_amount <= $%d", *params.TotalTo)
	}
	if params.DateFrom != nil {
		add("o.created_at >= $%d", *params.DateFrom)
	}
	if params.DateTo != nil {
		add("o.created_at <= $%d", *params.DateTo)
	}

	if params.Search != "" {
		// Поиск по подстроке названия товара; числовой запрос
		// дополнительно совпадает с точным номером заказа.
		titleCond := fmt.Sprintf(`EXISTS (
			SELECT 1 FROM order_products op
			JOIN products p ON p.id = op.product_id
			WHERE op.order_id = o.id AND p.title ILIKE $%d
		)`, argNum)
		args = append(args, "%"+params.Search+"%")
		argNum++

		if params.SearchNumber > 0 {
			conditions = append(conditions,
				fmt.Sprintf("(%s OR o.order_number = $%d)", titleCond, argNum))
			args = append(args, params.SearchNumber)
			argNum++
		} else {
			conditions = append(conditions, titleCond)
		}
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}

func (r *orderRepo) Search(ctx context.Context, params OrderSearchParams) ([]*model.Order, int, error) {
	where, args := buildOrderWhere(params)

	// Общее количество считается по отфильтрованному набору до пагинации
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM orders o %s`, where)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта заказов: %w", err)
	}

	sortColumn, ok := orderSortColumns[params.SortField]
	if !ok {
		sortColumn = "o.created_at"
	}
	sortDir := "DESC"
	if strings.EqualFold(params.SortOrder, "asc") {
		sortDir = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT `+orderColumns+`
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d`, where, sortColumn, sortDir, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка заказов: %w", err)
	}
	defer rows.Close()

	var result []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования заказа: %w", err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.loadProducts(ctx, result); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, number int64, status string) (*model.Order, error) {
	query := `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE order_number = $1`

	tag, err := r.db.Exec(ctx, query, number, status)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления статуса заказа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByNumber(ctx, number)
}

func (r *orderRepo) Delete(ctx context.Context, number int64) (*model.Order, error) {
	o, err := r.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE order_number = $1`, number)
	if err != nil {
		return nil, fmt.Errorf("ошибка удаления заказа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return o, nil
}

// loadProducts загружает состав заказов одним запросом
// и раскладывает товары по заказам в порядке корзины.
func (r *orderRepo) loadProducts(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*model.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	query := `
		SELECT op.order_id,
			p.id, p.title, p.image_file, p.image_orig,
			p.category, p.description, p.price, p.created_at, p.updated_at
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = ANY($1)
		ORDER BY op.order_id, op.position`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("ошибка получения состава заказов: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		p := &model.Product{}
		var imageFile, imageOrig string
		if err := rows.Scan(
			&orderID, &p.ID, &p.Title, &imageFile, &imageOrig,
			&p.Category, &p.Description, &p.Price, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return fmt.Errorf("ошибка сканирования состава заказа: %w", err)
		}
		if imageFile != "" {
			p.Image = &model.ProductImage{FileName: imageFile, OriginalName: imageOrig}
		}
		if o, ok := byID[orderID]; ok {
			o.Products = append(o.Products, p)
		}
	}
	return rows.Err()
}
