// ratelimit.go — ограничение частоты запросов по IP клиента.
package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	apierrors "github.com/gregory1175/bad-server/internal/api/errors"
)

// RateLimiter отслеживает лимитеры по IP. Простаивающие записи
// вытесняются по TTL, чтобы таблица не росла бесконечно.
type RateLimiter struct {
	limiters  *expirable.LRU[string, *rate.Limiter]
	perMinute int
	logger    *slog.Logger
}

// NewRateLimiter создаёт ограничитель: perMinute запросов в минуту с каждого IP.
func NewRateLimiter(perMinute int, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		limiters:  expirable.NewLRU[string, *rate.Limiter](4096, nil, 3*time.Minute),
		perMinute: perMinute,
		logger:    logger.With(slog.String("component", "rate_limiter")),
	}
}

// limiterFor возвращает лимитер для IP, создавая его при первом обращении.
func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	if l, ok := rl.limiters.Get(ip); ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(time.Minute/time.Duration(rl.perMinute)), rl.perMinute)
	rl.limiters.Add(ip, l)
	return l
}

// Middleware возвращает HTTP middleware, отвечающий 429 при превышении лимита.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !rl.limiterFor(ip).Allow() {
				rl.logger.Warn("Превышен лимит запросов",
					slog.String("ip", ip),
					slog.String("path", r.URL.Path),
				)
				apierrors.TooManyRequests(w, "Too many requests, please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP извлекает IP клиента из RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
