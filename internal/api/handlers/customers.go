// customers.go — обработчики покупателей. Список доступен только
// администратору; операции по id — самому покупателю или администратору.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/gregory1175/bad-server/internal/api/errors"
	"github.com/gregory1175/bad-server/internal/api/middleware"
	"github.com/gregory1175/bad-server/internal/service"
)

const customersPageLimit = 10

// ListCustomers — GET /customers. Список покупателей (админ).
func (h *APIHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePageLimit(r, customersPageLimit, customersPageLimit)
	if err != nil {
		apierrors.ValidationError(w, "Invalid page or limit")
		return
	}

	list, err := h.customers.List(r.Context(), page, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetCustomer — GET /customers/{id}. Покупатель по UUID (сам или админ).
func (h *APIHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerIDParam(w, r)
	if !ok {
		return
	}
	if !h.customerAccess(w, r, id) {
		return
	}

	customer, err := h.customers.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// UpdateCustomer — PATCH /customers/{id}. Имя и роли покупателя.
// Роли разрешено менять только администратору.
func (h *APIHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerIDParam(w, r)
	if !ok {
		return
	}
	if !h.customerAccess(w, r, id) {
		return
	}

	var input service.CustomerUpdate
	if !decodeJSON(w, r, &input) {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if input.Roles != nil && (claims == nil || !claims.IsAdmin()) {
		apierrors.Forbidden(w, "Доступ запрещен")
		return
	}

	customer, err := h.customers.Update(r.Context(), id, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// DeleteCustomer — DELETE /customers/{id}. Удаление покупателя (сам или админ).
func (h *APIHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerIDParam(w, r)
	if !ok {
		return
	}
	if !h.customerAccess(w, r, id) {
		return
	}

	customer, err := h.customers.Delete(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// customerAccess проверяет право доступа к записи покупателя:
// администратор или владелец. Чужой id для не-админа неотличим
// от несуществующего — 404.
func (h *APIHandler) customerAccess(w http.ResponseWriter, r *http.Request, id string) bool {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Необходима авторизация")
		return false
	}
	if claims.IsAdmin() || claims.Subject == id {
		return true
	}
	apierrors.NotFound(w, "Пользователь по заданному id отсутствует в базе")
	return false
}

// customerIDParam разбирает UUID покупателя из пути.
func customerIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		apierrors.ValidationError(w, "Передан не валидный ID пользователя")
		return "", false
	}
	return id, true
}
