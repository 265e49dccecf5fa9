// Точка входа HTTP-бэкенда магазина web-larёk.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// собирает репозитории, сервисный слой и API handlers, запускает
// topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/gregory1175/bad-server/internal/api/handlers"
	"github.com/gregory1175/bad-server/internal/api/middleware"
	"github.com/gregory1175/bad-server/internal/config"
	"github.com/gregory1175/bad-server/internal/database"
	"github.com/gregory1175/bad-server/internal/repository"
	"github.com/gregory1175/bad-server/internal/server"
	"github.com/gregory1175/bad-server/internal/service"
	"github.com/gregory1175/bad-server/internal/storage/filestore"
)

// Период фоновой очистки просроченных refresh-токенов.
const tokenPurgeInterval = time.Hour

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Сервер магазина запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Файловое хранилище загрузок
	store, err := filestore.New(cfg.TempUploadDir(), cfg.PermUploadDir())
	if err != nil {
		logger.Error("Ошибка инициализации файлового хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Repositories
	customerRepo := repository.NewCustomerRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	tokenRepo := repository.NewRefreshTokenRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	// 7. Services
	productCache := service.NewProductCache(cfg.ProductCacheSize, cfg.ProductCacheTTL)
	authSvc := service.NewAuthService(cfg, customerRepo, tokenRepo, logger)
	productSvc := service.NewProductService(productRepo, store, productCache, logger)
	orderSvc := service.NewOrderService(orderRepo, productRepo, customerRepo, txRunner, logger)
	customerSvc := service.NewCustomerService(customerRepo, tokenRepo, logger)
	uploadSvc := service.NewUploadService(cfg, store, logger)

	// 7.1 Фоновая очистка просроченных refresh-токенов
	purgeCtx, purgeCancel := context.WithCancel(ctx)
	defer purgeCancel()
	go func() {
		ticker := time.NewTicker(tokenPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-purgeCtx.Done():
				return
			case <-ticker.C:
				if _, err := authSvc.PurgeExpiredTokens(purgeCtx); err != nil {
					logger.Warn("Очистка refresh-токенов не удалась",
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}()

	// 8. Health + API handlers
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool))
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		authSvc,
		productSvc,
		orderSvc,
		customerSvc,
		uploadSvc,
		logger,
	)

	staticHandler, err := handlers.NewStaticHandler(cfg.PublicDir)
	if err != nil {
		logger.Error("Ошибка инициализации раздачи статики", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. JWT middleware: общий секрет или JWKS внешнего IdP
	var jwtAuth *middleware.JWTAuth
	if cfg.JWTJWKSURL != "" {
		jwtAuth, err = middleware.NewJWTAuthJWKS(cfg.JWTJWKSURL, cfg.JWTIssuer, cfg.JWTJWKSRefreshInterval, logger)
		if err != nil {
			logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("JWT middleware инициализирован",
			slog.String("jwks_url", cfg.JWTJWKSURL),
			slog.String("issuer", cfg.JWTIssuer),
		)
	} else {
		jwtAuth = middleware.NewJWTAuth(cfg.JWTSecret, cfg.JWTIssuer, logger)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, logger)

	// 10. topologymetrics — мониторинг зависимостей (PostgreSQL, опционально IdP)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"bad-server",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.JWTJWKSURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 11. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, staticHandler, jwtAuth, limiter)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Сервер магазина остановлен")
}
