// Пакет config — загрузка и валидация конфигурации сервера магазина
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации сервера.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Разрешённые CORS origins (через запятую)
	CORSOrigins []string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Максимальный размер пула подключений pgxpool
	DBMaxConns int

	// --- JWT ---

	// Секрет подписи access-токенов (HS256). Обязателен,
	// если не задан JWTJWKSURL.
	JWTSecret string
	// URL JWKS endpoint внешнего IdP (опционально; включает
	// валидацию по ключам IdP вместо локального секрета)
	JWTJWKSURL string
	// Ожидаемый issuer JWT (проверяется только если задан)
	JWTIssuer string
	// Интервал фонового обновления JWKS-ключей (только с JWTJWKSURL)
	JWTJWKSRefreshInterval time.Duration
	// Время жизни access-токена
	AccessTokenTTL time.Duration
	// Время жизни refresh-токена
	RefreshTokenTTL time.Duration

	// --- Загрузка файлов ---

	// Корневая директория публичных файлов
	PublicDir string
	// Поддиректория временных загрузок (относительно PublicDir)
	UploadPathTemp string
	// Поддиректория постоянного хранения (относительно PublicDir)
	UploadPath string
	// Минимальный размер загружаемого файла в байтах
	UploadMinSize int64
	// Максимальный размер загружаемого файла в байтах
	UploadMaxSize int64

	// --- Кэш каталога ---

	// Максимальное количество товаров в LRU-кэше
	ProductCacheSize int
	// Время жизни записи кэша
	ProductCacheTTL time.Duration

	// --- Ограничение частоты запросов ---

	// Максимум запросов в минуту с одного IP (админские списки)
	RateLimitPerMinute int

	// --- Мониторинг зависимостей ---

	// Имя группы topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
//
//nolint:cyclop // последовательная загрузка множества параметров
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// BS_PORT — порт HTTP-сервера (по умолчанию 3000)
	cfg.Port, err = getEnvInt("BS_PORT", 3000)
	if err != nil {
		return nil, fmt.Errorf("BS_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("BS_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// BS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("BS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("BS_LOG_LEVEL: %w", err)
	}

	// BS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("BS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("BS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// BS_CORS_ORIGINS — разрешённые origins (по умолчанию *)
	cfg.CORSOrigins = parseCSV(getEnvDefault("BS_CORS_ORIGINS", "*"))

	// --- PostgreSQL ---

	// BS_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("BS_DB_HOST")
	if err != nil {
		return nil, err
	}

	// BS_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("BS_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("BS_DB_PORT: %w", err)
	}

	// BS_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("BS_DB_NAME")
	if err != nil {
		return nil, err
	}

	// BS_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("BS_DB_USER")
	if err != nil {
		return nil, err
	}

	// BS_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("BS_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// BS_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("BS_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("BS_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// BS_DB_MAX_CONNS — размер пула подключений (по умолчанию 10)
	cfg.DBMaxConns, err = getEnvInt("BS_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("BS_DB_MAX_CONNS: %w", err)
	}
	if cfg.DBMaxConns < 1 {
		return nil, fmt.Errorf("BS_DB_MAX_CONNS: значение должно быть положительным, получено %d", cfg.DBMaxConns)
	}

	// --- JWT ---

	// BS_JWT_JWKS_URL — опциональный (режим внешнего IdP)
	cfg.JWTJWKSURL = getEnvDefault("BS_JWT_JWKS_URL", "")

	// BS_JWT_SECRET — обязателен без JWKS
	cfg.JWTSecret = getEnvDefault("BS_JWT_SECRET", "")
	if cfg.JWTSecret == "" && cfg.JWTJWKSURL == "" {
		return nil, fmt.Errorf("BS_JWT_SECRET: обязательная переменная окружения не задана (либо задайте BS_JWT_JWKS_URL)")
	}

	// BS_JWT_ISSUER — опциональный
	cfg.JWTIssuer = getEnvDefault("BS_JWT_ISSUER", "")

	// BS_JWT_JWKS_REFRESH_INTERVAL — интервал обновления JWKS-ключей (по умолчанию 5m)
	cfg.JWTJWKSRefreshInterval, err = getEnvDuration("BS_JWT_JWKS_REFRESH_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("BS_JWT_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// BS_ACCESS_TOKEN_TTL — время жизни access-токена (по умолчанию 10m)
	cfg.AccessTokenTTL, err = getEnvDuration("BS_ACCESS_TOKEN_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("BS_ACCESS_TOKEN_TTL: %w", err)
	}

	// BS_REFRESH_TOKEN_TTL — время жизни refresh-токена (по умолчанию 7 суток)
	cfg.RefreshTokenTTL, err = getEnvDuration("BS_REFRESH_TOKEN_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("BS_REFRESH_TOKEN_TTL: %w", err)
	}

	// --- Загрузка файлов ---

	// BS_PUBLIC_DIR — корень публичных файлов (по умолчанию public)
	cfg.PublicDir = getEnvDefault("BS_PUBLIC_DIR", "public")

	// BS_UPLOAD_PATH_TEMP — поддиректория временных загрузок (по умолчанию temp)
	cfg.UploadPathTemp = getEnvDefault("BS_UPLOAD_PATH_TEMP", "temp")

	// BS_UPLOAD_PATH — поддиректория постоянного хранения (по умолчанию images)
	cfg.UploadPath = getEnvDefault("BS_UPLOAD_PATH", "images")

	// BS_UPLOAD_MIN_SIZE — минимальный размер файла (по умолчанию 2 KiB)
	cfg.UploadMinSize, err = getEnvInt64("BS_UPLOAD_MIN_SIZE", 2*1024)
	if err != nil {
		return nil, fmt.Errorf("BS_UPLOAD_MIN_SIZE: %w", err)
	}

	// BS_UPLOAD_MAX_SIZE — максимальный размер файла (по умолчанию 10 MiB)
	cfg.UploadMaxSize, err = getEnvInt64("BS_UPLOAD_MAX_SIZE", 10*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("BS_UPLOAD_MAX_SIZE: %w", err)
	}
	if cfg.UploadMinSize >= cfg.UploadMaxSize {
		return nil, fmt.Errorf("BS_UPLOAD_MIN_SIZE: минимальный размер %d не меньше максимального %d", cfg.UploadMinSize, cfg.UploadMaxSize)
	}

	// --- Кэш каталога ---

	// BS_PRODUCT_CACHE_SIZE — размер LRU-кэша товаров (по умолчанию 256)
	cfg.ProductCacheSize, err = getEnvInt("BS_PRODUCT_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("BS_PRODUCT_CACHE_SIZE: %w", err)
	}

	// BS_PRODUCT_CACHE_TTL — TTL записи кэша (по умолчанию 5m)
	cfg.ProductCacheTTL, err = getEnvDuration("BS_PRODUCT_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("BS_PRODUCT_CACHE_TTL: %w", err)
	}

	// --- Ограничение частоты запросов ---

	// BS_RATE_LIMIT_PER_MINUTE — запросов в минуту с IP (по умолчанию 10)
	cfg.RateLimitPerMinute, err = getEnvInt("BS_RATE_LIMIT_PER_MINUTE", 10)
	if err != nil {
		return nil, fmt.Errorf("BS_RATE_LIMIT_PER_MINUTE: %w", err)
	}

	// --- Мониторинг зависимостей ---

	// BS_DEPHEALTH_GROUP — группа topologymetrics (по умолчанию shop)
	cfg.DephealthGroup = getEnvDefault("BS_DEPHEALTH_GROUP", "shop")

	// BS_DEPHEALTH_CHECK_INTERVAL — интервал проверки (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("BS_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BS_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// BS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("BS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// TempUploadDir возвращает директорию временных загрузок.
func (c *Config) TempUploadDir() string {
	return filepath.Join(c.PublicDir, c.UploadPathTemp)
}

// PermUploadDir возвращает директорию постоянного хранения изображений.
func (c *Config) PermUploadDir() string {
	return filepath.Join(c.PublicDir, c.UploadPath)
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает подключение к PostgreSQL в URL-форме
// (для topologymetrics).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64-значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
