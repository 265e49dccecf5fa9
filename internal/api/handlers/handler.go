// handler.go — основной обработчик API магазина.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	apierrors "github.com/gregory1175/bad-server/internal/api/errors"
	"github.com/gregory1175/bad-server/internal/service"
)

// APIHandler — основной обработчик API.
type APIHandler struct {
	health    *HealthHandler
	auth      *service.AuthService
	products  *service.ProductService
	orders    *service.OrderService
	customers *service.CustomerService
	upload    *service.UploadService
	logger    *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	auth *service.AuthService,
	products *service.ProductService,
	orders *service.OrderService,
	customers *service.CustomerService,
	upload *service.UploadService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:    health,
		auth:      auth,
		products:  products,
		orders:    orders,
		customers: customers,
		upload:    upload,
		logger:    logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON разбирает тело запроса. При ошибке отвечает 400 и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, "Невалидное тело запроса")
		return false
	}
	return true
}

// parsePageLimit разбирает параметры page и limit из query.
// Нечисловые значения — ошибка, отсутствующие получают значения
// по умолчанию. maxLimit > 0 ограничивает limit сверху.
func parsePageLimit(r *http.Request, defaultLimit, maxLimit int) (page, limit int, err error) {
	page = 1
	limit = defaultLimit

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, err
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, err
		}
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return page, limit, nil
}

// writeServiceError маппит ошибку сервисного слоя в HTTP-ответ.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error) {
	message := serviceMessage(err)
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, message)
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, message)
	case errors.Is(err, service.ErrUnauthorized):
		apierrors.Unauthorized(w, message)
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, message)
	default:
		h.logger.Error("Внутренняя ошибка", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}

// serviceMessage извлекает человекочитаемую часть ошибки сервиса:
// отрезает префикс сторожевой ошибки и поднимает первую букву.
func serviceMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{
		service.ErrValidation, service.ErrNotFound,
		service.ErrUnauthorized, service.ErrConflict,
	} {
		prefix := sentinel.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			msg = msg[len(prefix):]
			break
		}
	}
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
