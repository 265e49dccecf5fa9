// auth.go — JWT middleware для аутентификации и авторизации.
// По умолчанию подпись проверяется общим секретом (HS256);
// при настроенном внешнем IdP — через его JWKS (RS256).
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/gregory1175/bad-server/internal/api/errors"
	"github.com/gregory1175/bad-server/internal/domain/model"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeyClaims — извлечённые claims в контексте запроса.
	ContextKeyClaims contextKey = "jwt_claims"
)

// AuthClaims — извлечённые claims access-токена.
// Помещаются в контекст запроса для downstream handlers.
type AuthClaims struct {
	// Subject — sub из JWT (UUID покупателя).
	Subject string
	// Email — email из JWT.
	Email string
	// Name — имя покупателя.
	Name string
	// Roles — роли покупателя.
	Roles []string
}

// HasRole проверяет наличие роли у субъекта.
func (c *AuthClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin — есть ли у субъекта роль администратора.
func (c *AuthClaims) IsAdmin() bool {
	return c.HasRole(model.RoleAdmin)
}

// rawClaims — raw claims access-токена для парсинга.
type rawClaims struct {
	jwt.RegisteredClaims
	// Email — электронная почта.
	Email string `json:"email"`
	// Name — имя покупателя.
	Name string `json:"name"`
	// Roles — роли покупателя.
	Roles []string `json:"roles"`
}

// JWTAuth — middleware для JWT-аутентификации.
type JWTAuth struct {
	keyfunc jwt.Keyfunc
	methods []string
	issuer  string
	logger  *slog.Logger
}

// NewJWTAuth создаёт JWT middleware с проверкой подписи общим секретом.
func NewJWTAuth(secret, issuer string, logger *slog.Logger) *JWTAuth {
	return &JWTAuth{
		keyfunc: func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		methods: []string{"HS256"},
		issuer:  issuer,
		logger:  logger.With(slog.String("component", "jwt_auth")),
	}
}

// NewJWTAuthJWKS создаёт JWT middleware с проверкой подписи через JWKS
// внешнего IdP. Ключи обновляются фоном.
func NewJWTAuthJWKS(jwksURL, issuer string, refreshInterval time.Duration, logger *slog.Logger) (*JWTAuth, error) {
	// NoErrorReturnFirstHTTPReq — стартуем даже если IdP ещё недоступен
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return &JWTAuth{
		keyfunc: k.Keyfunc,
		methods: []string{"RS256"},
		issuer:  issuer,
		logger:  logger.With(slog.String("component", "jwt_auth")),
	}, nil
}

// Middleware возвращает HTTP middleware для JWT-аутентификации.
// Извлекает Bearer token, валидирует подпись и срок действия,
// помещает claims в контекст запроса.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Необходима авторизация")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				apierrors.Unauthorized(w, "Необходима авторизация")
				return
			}

			raw := &rawClaims{}
			parserOpts := []jwt.ParserOption{
				jwt.WithValidMethods(j.methods),
				jwt.WithExpirationRequired(),
			}
			if j.issuer != "" {
				parserOpts = append(parserOpts, jwt.WithIssuer(j.issuer))
			}

			token, err := jwt.ParseWithClaims(parts[1], raw, j.keyfunc, parserOpts...)
			if err != nil {
				j.logger.Debug("JWT валидация не пройдена",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				if errors.Is(err, jwt.ErrTokenExpired) {
					apierrors.Unauthorized(w, "Истек срок действия токена")
					return
				}
				apierrors.Unauthorized(w, "Невалидный токен")
				return
			}
			if !token.Valid || raw.Subject == "" {
				apierrors.Unauthorized(w, "Невалидный токен")
				return
			}

			claims := &AuthClaims{
				Subject: raw.Subject,
				Email:   raw.Email,
				Name:    raw.Name,
				Roles:   raw.Roles,
			}
			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole возвращает middleware, требующий одну из указанных ролей.
// Должен использоваться ПОСЛЕ JWTAuth.Middleware().
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				apierrors.Unauthorized(w, "Необходима авторизация")
				return
			}

			for _, role := range roles {
				if claims.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			apierrors.Forbidden(w, "Доступ запрещен")
		})
	}
}

// RequireAdmin — middleware, пропускающий только администраторов.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)
}

// ClaimsFromContext извлекает AuthClaims из контекста запроса.
// Возвращает nil, если claims не найдены.
func ClaimsFromContext(ctx context.Context) *AuthClaims {
	claims, _ := ctx.Value(ContextKeyClaims).(*AuthClaims)
	return claims
}

// SubjectFromContext извлекает sub из контекста запроса.
// Возвращает пустую строку, если claims не найдены.
func SubjectFromContext(ctx context.Context) string {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return ""
	}
	return claims.Subject
}
