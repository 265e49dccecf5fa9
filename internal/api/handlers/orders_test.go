package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testHandler — обработчик без сервисов: валидация query и path
// обязана отклонять запрос до первого обращения к сервисному слою,
// иначе тест упадёт с nil dereference.
func testHandler() *APIHandler {
	return &APIHandler{logger: testLogger()}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("разбор тела ошибки: %v (%s)", err, rec.Body.String())
	}
	return body.Error.Message
}

func TestSearchOrders_InvalidQuery(t *testing.T) {
	h := testHandler()

	tests := []struct {
		name    string
		query   string
		message string
	}{
		{"нечисловой page", "?page=abc", "Invalid page or limit"},
		{"нечисловой limit", "?limit=xyz", "Invalid page or limit"},
		{"чужое поле сортировки", "?sortField=email", "Invalid sortField"},
		{"SQL в поле сортировки", "?sortField=created_at%3BDROP%20TABLE%20orders", "Invalid sortField"},
		{"неизвестный порядок", "?sortOrder=sideways", "Invalid sortOrder"},
		{"status массивом", "?status=new&status=completed", "Invalid status value"},
		{"повторённый totalAmountFrom", "?totalAmountFrom=100&totalAmountFrom=200", "Invalid totalAmountFrom"},
		{"повторённый sortField", "?sortField=createdAt&sortField=status", "Invalid sortField"},
		{"нечисловой totalAmountFrom", "?totalAmountFrom=дорого", "Invalid totalAmountFrom"},
		{"нечисловой totalAmountTo", "?totalAmountTo=x", "Invalid totalAmountTo"},
		{"кривая дата от", "?orderDateFrom=вчера", "Invalid orderDateFrom"},
		{"кривая дата до", "?orderDateTo=2024-13-45", "Invalid orderDateTo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/order"+tt.query, nil)
			rec := httptest.NewRecorder()
			h.SearchOrders(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("код ответа %d, хотели 400", rec.Code)
			}
			if msg := errorMessage(t, rec); msg != tt.message {
				t.Errorf("message = %q, хотели %q", msg, tt.message)
			}
		})
	}
}

func TestParseOrderSearchQuery_Defaults(t *testing.T) {
	h := testHandler()

	req := httptest.NewRequest(http.MethodGet, "/order", nil)
	rec := httptest.NewRecorder()
	params, page, ok := h.parseOrderSearchQuery(rec, req)
	if !ok {
		t.Fatalf("parseOrderSearchQuery() отклонил пустой запрос: %s", rec.Body.String())
	}
	if page != 1 || params.Limit != 10 || params.Offset != 0 {
		t.Errorf("page=%d limit=%d offset=%d, хотели 1/10/0", page, params.Limit, params.Offset)
	}
	if params.SortField != "createdAt" || params.SortOrder != "desc" {
		t.Errorf("сортировка %s/%s, хотели createdAt/desc", params.SortField, params.SortOrder)
	}
}

func TestParseOrderSearchQuery_LimitClamp(t *testing.T) {
	h := testHandler()

	req := httptest.NewRequest(http.MethodGet, "/order?limit=100&page=3", nil)
	rec := httptest.NewRecorder()
	params, page, ok := h.parseOrderSearchQuery(rec, req)
	if !ok {
		t.Fatalf("parseOrderSearchQuery() отклонил запрос: %s", rec.Body.String())
	}
	if params.Limit != 10 {
		t.Errorf("Limit = %d, хотели 10 (clamp)", params.Limit)
	}
	if params.Offset != 20 {
		t.Errorf("Offset = %d, хотели 20", params.Offset)
	}
	if page != 3 {
		t.Errorf("page = %d, хотели 3", page)
	}
}

func TestParseOrderSearchQuery_Filters(t *testing.T) {
	h := testHandler()

	req := httptest.NewRequest(http.MethodGet,
		"/order?status=delivering&totalAmountFrom=100&totalAmountTo=1000&orderDateFrom=2024-07-01&search=150", nil)
	rec := httptest.NewRecorder()
	params, _, ok := h.parseOrderSearchQuery(rec, req)
	if !ok {
		t.Fatalf("parseOrderSearchQuery() отклонил запрос: %s", rec.Body.String())
	}

	if params.Status == nil || *params.Status != "delivering" {
		t.Error("фильтр status не разобран")
	}
	if params.TotalFrom == nil || *params.TotalFrom != 100 {
		t.Error("фильтр totalAmountFrom не разобран")
	}
	if params.TotalTo == nil || *params.TotalTo != 1000 {
		t.Error("фильтр totalAmountTo не разобран")
	}
	if params.DateFrom == nil {
		t.Error("фильтр orderDateFrom не разобран")
	}
	if params.Search != "150" || params.SearchNumber != 150 {
		t.Errorf("поиск %q/%d, хотели 150/150", params.Search, params.SearchNumber)
	}
}

func TestOrderNumberParam_Invalid(t *testing.T) {
	h := testHandler()
	router := chi.NewRouter()
	router.Get("/order/{number}", h.GetOrder)

	for _, raw := range []string{"abc", "-5", "0", "12.5"} {
		req := httptest.NewRequest(http.MethodGet, "/order/"+raw, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("номер %q: код %d, хотели 400", raw, rec.Code)
			continue
		}
		if msg := errorMessage(t, rec); msg != "Передан не валидный ID заказа" {
			t.Errorf("номер %q: message = %q", raw, msg)
		}
	}
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	h := testHandler()

	req := httptest.NewRequest(http.MethodPost, "/order", nil)
	rec := httptest.NewRecorder()
	h.CreateOrder(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("код ответа %d, хотели 400", rec.Code)
	}
}
