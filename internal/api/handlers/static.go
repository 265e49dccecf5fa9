// static.go — раздача загруженных файлов из публичной директории.
package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// StaticHandler раздаёт файлы из baseDir по пути /public/*.
// Запросы, выходящие за пределы директории, отклоняются.
type StaticHandler struct {
	baseDir string
}

// NewStaticHandler создаёт обработчик статики.
func NewStaticHandler(baseDir string) (*StaticHandler, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	return &StaticHandler{baseDir: abs}, nil
}

// ServeHTTP отдаёт запрошенный файл или 404.
func (s *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")

	resolved := filepath.Join(s.baseDir, filepath.FromSlash(rel))
	// Путь не должен выходить за пределы baseDir
	if !strings.HasPrefix(resolved, s.baseDir+string(filepath.Separator)) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, resolved)
}
