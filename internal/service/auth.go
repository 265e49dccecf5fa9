// auth.go — регистрация, вход и выдача токенов.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gregory1175/bad-server/internal/config"
	"github.com/gregory1175/bad-server/internal/domain/model"
	"github.com/gregory1175/bad-server/internal/repository"
)

// TokenPair — access-токен и refresh-токен.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult — результат входа или регистрации.
type AuthResult struct {
	User   *model.Customer `json:"user"`
	Tokens TokenPair       `json:"tokens"`
}

// AuthService — регистрация и аутентификация покупателей.
type AuthService struct {
	cfg       *config.Config
	customers repository.CustomerRepository
	tokens    repository.RefreshTokenRepository
	logger    *slog.Logger
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(
	cfg *config.Config,
	customers repository.CustomerRepository,
	tokens repository.RefreshTokenRepository,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		cfg:       cfg,
		customers: customers,
		tokens:    tokens,
		logger:    logger.With(slog.String("component", "auth_service")),
	}
}

// Register создаёт покупателя и выдаёт пару токенов.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: некорректный email", ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: пароль должен быть не короче 6 символов", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	customer := &model.Customer{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Roles:        []string{model.RoleCustomer},
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: пользователь с таким email уже существует", ErrConflict)
		}
		return nil, err
	}

	pair, err := s.issueTokens(ctx, customer)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Пользователь зарегистрирован",
		slog.String("customer_id", customer.ID),
		slog.String("email", email),
	)
	return &AuthResult{User: customer, Tokens: *pair}, nil
}

// Login проверяет учётные данные и выдаёт пару токенов.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: неправильные почта или пароль", ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: неправильные почта или пароль", ErrUnauthorized)
	}

	pair, err := s.issueTokens(ctx, customer)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Пользователь вошёл", slog.String("customer_id", customer.ID))
	return &AuthResult{User: customer, Tokens: *pair}, nil
}

// Refresh обменивает refresh-токен на новую пару токенов.
// Использованный токен отзывается (ротация).
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	stored, err := s.tokens.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: невалидный токен", ErrUnauthorized)
		}
		return nil, err
	}
	if time.Now().UTC().After(stored.ExpiresAt) {
		_ = s.tokens.Delete(ctx, refreshToken)
		return nil, fmt.Errorf("%w: истек срок действия токена", ErrUnauthorized)
	}

	customer, err := s.customers.GetByID(ctx, stored.CustomerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: невалидный токен", ErrUnauthorized)
		}
		return nil, err
	}

	if err := s.tokens.Delete(ctx, refreshToken); err != nil {
		return nil, err
	}

	pair, err := s.issueTokens(ctx, customer)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: customer, Tokens: *pair}, nil
}

// Logout отзывает refresh-токен. Неизвестный токен — не ошибка.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Delete(ctx, refreshToken)
}

// PurgeExpiredTokens удаляет просроченные refresh-токены из базы.
// Вызывается фоновой задачей по расписанию.
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("очистка просроченных refresh-токенов: %w", err)
	}
	if n > 0 {
		s.logger.Info("Просроченные refresh-токены удалены", slog.Int64("count", n))
	}
	return n, nil
}

// issueTokens выпускает подписанный access-токен и refresh-токен.
func (s *AuthService) issueTokens(ctx context.Context, customer *model.Customer) (*TokenPair, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   customer.ID,
		"email": customer.Email,
		"name":  customer.Name,
		"roles": customer.Roles,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.AccessTokenTTL).Unix(),
	}
	if s.cfg.JWTIssuer != "" {
		claims["iss"] = s.cfg.JWTIssuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("ошибка подписи access-токена: %w", err)
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	err = s.tokens.Save(ctx, &repository.RefreshToken{
		Token:      refreshToken,
		CustomerID: customer.ID,
		ExpiresAt:  now.Add(s.cfg.RefreshTokenTTL),
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// newRefreshToken генерирует криптослучайный токен.
func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("ошибка генерации refresh-токена: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
