// Пакет server — HTTP-сервер магазина с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/gregory1175/bad-server/internal/api/handlers"
	"github.com/gregory1175/bad-server/internal/api/middleware"
	"github.com/gregory1175/bad-server/internal/config"
)

// Server — HTTP-сервер магазина.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
// static может быть nil — тогда раздача /public/* отключена.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	api *handlers.APIHandler,
	static *handlers.StaticHandler,
	jwtAuth *middleware.JWTAuth,
	limiter *middleware.RateLimiter,
) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	authed := jwtAuth.Middleware()
	admin := middleware.RequireAdmin()

	// Служебные endpoints — без аутентификации
	router.Get("/health/live", api.HealthLive)
	router.Get("/health/ready", api.HealthReady)
	router.Get("/metrics", api.GetMetrics)

	// Аутентификация
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", api.Register)
		r.Post("/login", api.Login)
		r.Post("/token", api.RefreshToken)
		r.Post("/logout", api.Logout)
	})

	// Каталог: чтение публичное, изменение — админ
	router.Route("/product", func(r chi.Router) {
		r.Get("/", api.ListProducts)
		r.Get("/{id}", api.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(authed, admin)
			r.Post("/", api.CreateProduct)
			r.Patch("/{id}", api.UpdateProduct)
			r.Delete("/{id}", api.DeleteProduct)
		})
	})

	// Загруженные файлы
	if static != nil {
		router.Get("/public/*", static.ServeHTTP)
	}

	// Загрузка изображений — любой аутентифицированный пользователь
	router.Group(func(r chi.Router) {
		r.Use(authed)
		r.Post("/upload", api.UploadFile)
	})

	// Заказы
	router.Route("/order", func(r chi.Router) {
		r.Use(authed)

		r.Post("/", api.CreateOrder)
		r.Get("/me", api.ListMyOrders)
		r.Get("/me/{number}", api.GetMyOrder)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Get("/", api.SearchOrders)
			r.Get("/{number}", api.GetOrder)
			r.Patch("/{number}", api.UpdateOrderStatus)
			r.Delete("/{number}", api.DeleteOrder)
		})
	})

	// Покупатели: список — только админ, с ограничением по частоте;
	// операции по id — сам покупатель или админ (проверка в обработчиках)
	router.Route("/customers", func(r chi.Router) {
		r.Use(authed)

		r.With(admin, limiter.Middleware()).Get("/", api.ListCustomers)
		r.Get("/{id}", api.GetCustomer)
		r.Patch("/{id}", api.UpdateCustomer)
		r.Delete("/{id}", api.DeleteCustomer)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Handler возвращает корневой обработчик сервера (для тестов).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
