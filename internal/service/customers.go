// customers.go — сервис администрирования покупателей.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gregory1175/bad-server/internal/domain/model"
	"github.com/gregory1175/bad-server/internal/repository"
)

// CustomerList — страница списка покупателей.
type CustomerList struct {
	Customers  []*model.Customer `json:"customers"`
	Pagination Pagination        `json:"pagination"`
}

// CustomerUpdate — изменяемые поля покупателя.
type CustomerUpdate struct {
	Name  *string  `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// CustomerService — бизнес-логика покупателей.
type CustomerService struct {
	repo   repository.CustomerRepository
	tokens repository.RefreshTokenRepository
	logger *slog.Logger
}

// NewCustomerService создаёт сервис покупателей.
func NewCustomerService(
	repo repository.CustomerRepository,
	tokens repository.RefreshTokenRepository,
	logger *slog.Logger,
) *CustomerService {
	return &CustomerService{
		repo:   repo,
		tokens: tokens,
		logger: logger.With(slog.String("component", "customer_service")),
	}
}

// List возвращает страницу покупателей.
func (s *CustomerService) List(ctx context.Context, page, limit int) (*CustomerList, error) {
	customers, err := s.repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if customers == nil {
		customers = []*model.Customer{}
	}
	return &CustomerList{
		Customers: customers,
		Pagination: Pagination{
			Total:       total,
			TotalPages:  totalPages(total, limit),
			CurrentPage: page,
			PageSize:    limit,
		},
	}, nil
}

// GetByID возвращает покупателя.
func (s *CustomerService) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь по заданному id отсутствует в базе", ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

// Update изменяет имя и роли покупателя.
func (s *CustomerService) Update(ctx context.Context, id string, update CustomerUpdate) (*model.Customer, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		c.Name = *update.Name
	}
	if update.Roles != nil {
		for _, role := range update.Roles {
			if role != model.RoleCustomer && role != model.RoleAdmin {
				return nil, fmt.Errorf("%w: некорректная роль %q", ErrValidation, role)
			}
		}
		c.Roles = update.Roles
	}

	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь по заданному id отсутствует в базе", ErrNotFound)
		}
		return nil, err
	}

	s.logger.Info("Покупатель обновлён", slog.String("customer_id", id))
	return c, nil
}

// Delete удаляет покупателя вместе с его refresh-токенами.
// Возвращает удалённую запись.
func (s *CustomerService) Delete(ctx context.Context, id string) (*model.Customer, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.DeleteByCustomer(ctx, id); err != nil {
		s.logger.Warn("Не удалось отозвать токены покупателя",
			slog.String("customer_id", id),
			slog.String("error", err.Error()),
		)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь по заданному id отсутствует в базе", ErrNotFound)
		}
		return nil, err
	}

	s.logger.Info("Покупатель удалён", slog.String("customer_id", id))
	return c, nil
}
