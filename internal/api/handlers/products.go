// products.go — обработчики каталога товаров.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/gregory1175/bad-server/internal/api/errors"
	"github.com/gregory1175/bad-server/internal/service"
)

const productsPageLimit = 5

// ListProducts — GET /product. Публичный список каталога.
// Нечисловые page/limit не отклоняются, а заменяются значениями
// по умолчанию; limit не превышает 5.
func (h *APIHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = productsPageLimit
	}
	if limit > productsPageLimit {
		limit = productsPageLimit
	}

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	list, err := h.products.List(r.Context(), page, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetProduct — GET /product/{id}. Карточка товара.
func (h *APIHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r)
	if !ok {
		return
	}

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// CreateProduct — POST /product. Создание товара (админ).
func (h *APIHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input service.ProductInput
	if !decodeJSON(w, r, &input) {
		return
	}

	product, err := h.products.Create(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// UpdateProduct — PATCH /product/{id}. Обновление товара (админ).
func (h *APIHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var input service.ProductInput
	if !decodeJSON(w, r, &input) {
		return
	}

	product, err := h.products.Update(r.Context(), id, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct — DELETE /product/{id}. Удаление товара (админ).
func (h *APIHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r)
	if !ok {
		return
	}

	product, err := h.products.Delete(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// productIDParam разбирает UUID товара из пути.
func productIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		apierrors.ValidationError(w, "Передан не валидный ID товара")
		return "", false
	}
	return id, true
}
