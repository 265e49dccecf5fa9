package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gregory1175/bad-server/internal/domain/model"
)

// CustomerRepository — интерфейс CRUD для таблицы customers.
type CustomerRepository interface {
	// Create создаёт нового покупателя.
	Create(ctx context.Context, c *model.Customer) error
	// GetByID возвращает покупателя по UUID.
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	// GetByEmail возвращает покупателя по email.
	GetByEmail(ctx context.Context, email string) (*model.Customer, error)
	// List возвращает страницу покупателей, отсортированных по дате регистрации.
	List(ctx context.Context, limit, offset int) ([]*model.Customer, error)
	// Update обновляет имя и роли покупателя.
	Update(ctx context.Context, c *model.Customer) error
	// Delete удаляет покупателя.
	Delete(ctx context.Context, id string) error
	// Count возвращает общее количество покупателей.
	Count(ctx context.Context) (int, error)
}

// customerRepo — реализация CustomerRepository.
type customerRepo struct {
	db DBTX
}

// NewCustomerRepository создаёт репозиторий покупателей.
func NewCustomerRepository(db DBTX) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	query := `
		INSERT INTO customers (id, email, password_hash, name, roles)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		c.ID, c.Email, c.PasswordHash, c.Name, c.Roles,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email уже зарегистрирован", ErrConflict)
		}
		return fmt.Errorf("ошибка создания покупателя: %w", err)
	}
	return nil
}

func (r *customerRepo) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	query := `
		SELECT id, email, password_hash, name, roles, created_at, updated_at
		FROM customers
		WHERE id = $1`

	c := &model.Customer{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Email, &c.PasswordHash, &c.Name, &c.Roles, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения покупателя: %w", err)
	}
	return c, nil
}

func (r *customerRepo) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	query := `
		SELECT id, email, password_hash, name, roles, created_at, updated_at
		FROM customers
		WHERE email = $1`

	c := &model.Customer{}
	err := r.db.QueryRow(ctx, query, email).Scan(
		&c.ID, &c.Email, &c.PasswordHash, &c.Name, &c.Roles, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения покупателя: %w", err)
	}
	return c, nil
}

func (r *customerRepo) List(ctx context.Context, limit, offset int) ([]*model.Customer, error) {
	query := `
		SELECT id, email, password_hash, name, roles, created_at, updated_at
		FROM customers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка покупателей: %w", err)
	}
	defer rows.Close()

	var result []*model.Customer
	for rows.Next() {
		c := &model.Customer{}
		if err := rows.Scan(
			&c.ID, &c.Email, &c.PasswordHash, &c.Name, &c.Roles, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования покупателя: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *customerRepo) Update(ctx context.Context, c *model.Customer) error {
	query := `
		UPDATE customers
		SET name = $2, roles = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query, c.ID, c.Name, c.Roles).Scan(&c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления покупателя: %w", err)
	}
	return nil
}

func (r *customerRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления покупателя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *customerRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта покупателей: %w", err)
	}
	return count, nil
}
