package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newStaticRouter(t *testing.T) (*chi.Mux, string) {
	t.Helper()

	baseDir := t.TempDir()
	static, err := NewStaticHandler(baseDir)
	if err != nil {
		t.Fatalf("NewStaticHandler() ошибка: %v", err)
	}

	router := chi.NewRouter()
	router.Get("/public/*", static.ServeHTTP)
	return router, baseDir
}

func TestStatic_ServesFile(t *testing.T) {
	router, baseDir := newStaticRouter(t)

	if err := os.MkdirAll(filepath.Join(baseDir, "images"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := []byte("картинка")
	if err := os.WriteFile(filepath.Join(baseDir, "images", "a.png"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/public/images/a.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("код %d, хотели 200", rec.Code)
	}
	if rec.Body.String() != string(content) {
		t.Errorf("тело = %q", rec.Body.String())
	}
}

func TestStatic_MissingFile(t *testing.T) {
	router, _ := newStaticRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/public/images/ghost.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("код %d, хотели 404", rec.Code)
	}
}

func TestStatic_DirectoryNotServed(t *testing.T) {
	router, baseDir := newStaticRouter(t)

	if err := os.MkdirAll(filepath.Join(baseDir, "images"), 0o755); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/public/images", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("код %d, хотели 404", rec.Code)
	}
}

func TestStatic_TraversalBlocked(t *testing.T) {
	router, baseDir := newStaticRouter(t)

	// Файл за пределами публичной директории
	secret := filepath.Join(filepath.Dir(baseDir), "secret.txt")
	if err := os.WriteFile(secret, []byte("секрет"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/public/"+filepath.Base(secret), nil)
	req.URL.Path = "/public/../" + filepath.Base(secret)
	req.URL.RawPath = "/public/..%2F" + filepath.Base(secret)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK && rec.Body.String() == "секрет" {
		t.Fatal("файл за пределами публичной директории отдан клиенту")
	}
}
