// orders.go — обработчики заказов: оформление, списки, поиск, администрирование.
package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/gregory1175/bad-server/internal/api/errors"
	"github.com/gregory1175/bad-server/internal/api/middleware"
	"github.com/gregory1175/bad-server/internal/repository"
	"github.com/gregory1175/bad-server/internal/service"
)

const ordersPageLimit = 10

// CreateOrder — POST /order. Оформление заказа текущим покупателем.
func (h *APIHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var input service.OrderInput
	if !decodeJSON(w, r, &input) {
		return
	}

	order, err := h.orders.Create(r.Context(), middleware.SubjectFromContext(r.Context()), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// ListMyOrders — GET /order/me. Заказы текущего покупателя.
func (h *APIHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePageLimit(r, ordersPageLimit, ordersPageLimit)
	if err != nil {
		apierrors.ValidationError(w, "Invalid page or limit")
		return
	}

	list, err := h.orders.ListForCustomer(
		r.Context(),
		middleware.SubjectFromContext(r.Context()),
		r.URL.Query().Get("search"),
		page, limit,
	)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetMyOrder — GET /order/me/{number}. Заказ текущего покупателя по номеру.
func (h *APIHandler) GetMyOrder(w http.ResponseWriter, r *http.Request) {
	number, ok := orderNumberParam(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetForCustomerByNumber(r.Context(), middleware.SubjectFromContext(r.Context()), number)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// SearchOrders — GET /order. Админский поиск с фильтрами и сортировкой.
func (h *APIHandler) SearchOrders(w http.ResponseWriter, r *http.Request) {
	params, page, ok := h.parseOrderSearchQuery(w, r)
	if !ok {
		return
	}

	list, err := h.orders.Search(r.Context(), *params, page)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetOrder — GET /order/{number}. Заказ по номеру (админский доступ).
func (h *APIHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	number, ok := orderNumberParam(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetByNumber(r.Context(), number)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateOrderStatus — PATCH /order/{number}. Смена статуса заказа.
func (h *APIHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	number, ok := orderNumberParam(w, r)
	if !ok {
		return
	}

	var input struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), number, input.Status)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// DeleteOrder — DELETE /order/{number}. Удаление заказа.
func (h *APIHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	number, ok := orderNumberParam(w, r)
	if !ok {
		return
	}

	order, err := h.orders.Delete(r.Context(), number)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// orderNumberParam разбирает номер заказа из пути.
func orderNumberParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	number, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 64)
	if err != nil || number < 1 {
		apierrors.ValidationError(w, "Передан не валидный ID заказа")
		return 0, false
	}
	return number, true
}

// parseOrderSearchQuery разбирает query-параметры админского поиска.
// Любой некорректный параметр — 400 без обращения к базе.
func (h *APIHandler) parseOrderSearchQuery(w http.ResponseWriter, r *http.Request) (*repository.OrderSearchParams, int, bool) {
	q := r.URL.Query()

	page, limit, err := parsePageLimit(r, ordersPageLimit, ordersPageLimit)
	if err != nil {
		apierrors.ValidationError(w, "Invalid page or limit")
		return nil, 0, false
	}

	sortField, ok := singleParam(q, "sortField")
	if !ok {
		apierrors.ValidationError(w, "Invalid sortField")
		return nil, 0, false
	}
	if sortField == "" {
		sortField = "createdAt"
	}
	if !repository.ValidOrderSortField(sortField) {
		apierrors.ValidationError(w, "Invalid sortField")
		return nil, 0, false
	}

	sortOrder, ok := singleParam(q, "sortOrder")
	if !ok {
		apierrors.ValidationError(w, "Invalid sortOrder")
		return nil, 0, false
	}
	if sortOrder == "" {
		sortOrder = "desc"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		apierrors.ValidationError(w, "Invalid sortOrder")
		return nil, 0, false
	}

	params := &repository.OrderSearchParams{
		SortField: sortField,
		SortOrder: sortOrder,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}

	status, ok := singleParam(q, "status")
	if !ok {
		apierrors.ValidationError(w, "Invalid status value")
		return nil, 0, false
	}
	if status != "" {
		params.Status = &status
	}

	raw, ok := singleParam(q, "totalAmountFrom")
	if !ok {
		apierrors.ValidationError(w, "Invalid totalAmountFrom")
		return nil, 0, false
	}
	if raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			apierrors.ValidationError(w, "Invalid totalAmountFrom")
			return nil, 0, false
		}
		params.TotalFrom = &v
	}
	raw, ok = singleParam(q, "totalAmountTo")
	if !ok {
		apierrors.ValidationError(w, "Invalid totalAmountTo")
		return nil, 0, false
	}
	if raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			apierrors.ValidationError(w, "Invalid totalAmountTo")
			return nil, 0, false
		}
		params.TotalTo = &v
	}

	raw, ok = singleParam(q, "orderDateFrom")
	if !ok {
		apierrors.ValidationError(w, "Invalid orderDateFrom")
		return nil, 0, false
	}
	if raw != "" {
		v, err := parseOrderDate(raw)
		if err != nil {
			apierrors.ValidationError(w, "Invalid orderDateFrom")
			return nil, 0, false
		}
		params.DateFrom = &v
	}
	raw, ok = singleParam(q, "orderDateTo")
	if !ok {
		apierrors.ValidationError(w, "Invalid orderDateTo")
		return nil, 0, false
	}
	if raw != "" {
		v, err := parseOrderDate(raw)
		if err != nil {
			apierrors.ValidationError(w, "Invalid orderDateTo")
			return nil, 0, false
		}
		params.DateTo = &v
	}

	if search := q.Get("search"); search != "" {
		params.Search = search
		if n, err := strconv.ParseInt(search, 10, 64); err == nil && n > 0 {
			params.SearchNumber = n
		}
	}

	return params, page, true
}

// singleParam возвращает значение query-параметра, если тот
// встретился не более одного раза. Повторённый параметр приходит
// массивом — такой запрос структурно некорректен.
func singleParam(q url.Values, key string) (string, bool) {
	vals := q[key]
	if len(vals) > 1 {
		return "", false
	}
	if len(vals) == 0 {
		return "", true
	}
	return vals[0], true
}

// parseOrderDate принимает дату с временем или без.
func parseOrderDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
