package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// RefreshToken — выданный refresh-токен покупателя.
type RefreshToken struct {
	Token      string
	CustomerID string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// RefreshTokenRepository — хранилище refresh-токенов.
type RefreshTokenRepository interface {
	// Save сохраняет выданный токен.
	Save(ctx context.Context, token *RefreshToken) error
	// Get возвращает токен по значению.
	Get(ctx context.Context, token string) (*RefreshToken, error)
	// Delete отзывает токен. Отсутствующий токен — не ошибка.
	Delete(ctx context.Context, token string) error
	// DeleteByCustomer отзывает все токены покупателя.
	DeleteByCustomer(ctx context.Context, customerID string) error
	// DeleteExpired удаляет просроченные токены, возвращает количество.
	DeleteExpired(ctx context.Context) (int64, error)
}

// refreshTokenRepo — реализация RefreshTokenRepository.
type refreshTokenRepo struct {
	db DBTX
}

// NewRefreshTokenRepository создаёт хранилище refresh-токенов.
func NewRefreshTokenRepository(db DBTX) RefreshTokenRepository {
	return &refreshTokenRepo{db: db}
}

func (r *refreshTokenRepo) Save(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, customer_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		token.Token, token.CustomerID, token.ExpiresAt,
	).Scan(&token.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: токен уже выдан", ErrConflict)
		}
		return fmt.Errorf("ошибка сохранения refresh-токена: %w", err)
	}
	return nil
}

func (r *refreshTokenRepo) Get(ctx context.Context, token string) (*RefreshToken, error) {
	query := `
		SELECT token, customer_id, expires_at, created_at
		FROM refresh_tokens
		WHERE token = $1`

	rt := &RefreshToken{}
	err := r.db.QueryRow(ctx, query, token).Scan(
		&rt.Token, &rt.CustomerID, &rt.ExpiresAt, &rt.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения refresh-токена: %w", err)
	}
	return rt, nil
}

func (r *refreshTokenRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("ошибка удаления refresh-токена: %w", err)
	}
	return nil
}

func (r *refreshTokenRepo) DeleteByCustomer(ctx context.Context, customerID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE customer_id = $1`, customerID)
	if err != nil {
		return fmt.Errorf("ошибка отзыва refresh-токенов: %w", err)
	}
	return nil
}

func (r *refreshTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления просроченных токенов: %w", err)
	}
	return tag.RowsAffected(), nil
}
