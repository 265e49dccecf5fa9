// Пакет service — бизнес-логика сервера магазина.
// upload.go — конвейер загрузки изображений с проверкой содержимого.
package service

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	apierrors "github.com/gregory1175/bad-server/internal/api/errors"
	"github.com/gregory1175/bad-server/internal/api/middleware"
	"github.com/gregory1175/bad-server/internal/config"
	"github.com/gregory1175/bad-server/internal/storage/filestore"
	"github.com/gregory1175/bad-server/internal/storage/sniff"
)

// allowedImageTypes — допустимые MIME-типы загружаемых изображений.
var allowedImageTypes = map[string]bool{
	"image/png":     true,
	"image/jpg":     true,
	"image/jpeg":    true,
	"image/gif":     true,
	"image/svg+xml": true,
}

// UploadParams — параметры загрузки файла.
type UploadParams struct {
	// Reader — поток данных файла
	Reader io.Reader
	// OriginalFilename — оригинальное имя файла
	OriginalFilename string
	// ContentType — заявленный MIME-тип файла
	ContentType string
}

// UploadResult — результат принятой загрузки.
type UploadResult struct {
	// FileName — путь файла во временной директории (для ссылки в товаре)
	FileName string `json:"fileName"`
	// OriginalName — оригинальное имя файла клиента
	OriginalName string `json:"originalName"`
	// Width, Height — размеры растрового изображения (для SVG отсутствуют)
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// UploadError — ошибка загрузки с HTTP-кодом.
type UploadError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// UploadService — сервис загрузки изображений.
type UploadService struct {
	cfg    *config.Config
	store  *filestore.FileStore
	logger *slog.Logger
}

// NewUploadService создаёт сервис загрузки изображений.
func NewUploadService(cfg *config.Config, store *filestore.FileStore, logger *slog.Logger) *UploadService {
	return &UploadService{
		cfg:    cfg,
		store:  store,
		logger: logger.With(slog.String("component", "upload_service")),
	}
}

// Upload проводит файл через конвейер проверок и сохраняет его
// во временную директорию.
//
// Поток:
//  1. Наличие файла
//  2. Минимальный размер (2 KiB)
//  3. Максимальный размер (10 MiB)
//  4. Заявленный MIME-тип из списка изображений
//  5. Сигнатура содержимого совпадает с заявленным типом
//  6. Сохранение под случайным именем + чтение размеров изображения
//
// Любой отказ после записи на диск удаляет временный файл.
func (s *UploadService) Upload(params UploadParams) (*UploadResult, *UploadError) {
	// 1. Проверяем наличие файла
	if params.Reader == nil {
		return nil, s.reject("missing", 400, apierrors.CodeValidationError, "Файл не загружен")
	}

	// Читаем не больше максимума + 1 байт, чтобы распознать превышение
	data, err := io.ReadAll(io.LimitReader(params.Reader, s.cfg.UploadMaxSize+1))
	if err != nil {
		s.logger.Error("Ошибка чтения загружаемого файла", slog.String("error", err.Error()))
		return nil, &UploadError{
			StatusCode: 500,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка чтения загружаемого файла",
		}
	}

	if len(data) == 0 {
		return nil, s.reject("empty", 400, apierrors.CodeValidationError, "Файл не загружен")
	}

	// 2. Минимальный размер
	if int64(len(data)) < s.cfg.UploadMinSize {
		return nil, s.reject("too_small", 400, apierrors.CodeValidationError,
			"Файл слишком маленький (минимум 2 KB)")
	}

	// 3. Максимальный размер
	if int64(len(data)) > s.cfg.UploadMaxSize {
		return nil, s.reject("too_large", 413, apierrors.CodeFileTooLarge,
			"Размер файла слишком большой")
	}

	// 4. Заявленный MIME-тип
	contentType := normalizeContentType(params.ContentType)
	if !allowedImageTypes[contentType] {
		return nil, s.reject("bad_mime", 400, apierrors.CodeValidationError,
			"Загружаемый файл должен быть изображением")
	}

	// 5. Сигнатура содержимого. Заголовки клиента не заслуживают доверия.
	if !sniff.MatchesDeclared(data, contentType) {
		return nil, s.reject("spoofed", 400, apierrors.CodeValidationError,
			"Файл повреждён или не является валидным изображением")
	}

	// 6. Сохраняем во временную директорию
	saved, err := s.store.SaveTemp(bytes.NewReader(data), params.OriginalFilename)
	if err != nil {
		s.logger.Error("Ошибка сохранения файла",
			slog.String("filename", params.OriginalFilename),
			slog.String("error", err.Error()),
		)
		return nil, &UploadError{
			StatusCode: 500,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка сохранения файла на диск",
		}
	}

	result := &UploadResult{
		FileName:     "/" + path.Join(s.cfg.UploadPathTemp, saved.FileName),
		OriginalName: params.OriginalFilename,
	}

	// Для растровых форматов изображение обязано декодироваться
	// и иметь ненулевые размеры. SVG размеров не имеет.
	if contentType != "image/svg+xml" {
		imgCfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil || imgCfg.Width == 0 || imgCfg.Height == 0 {
			if delErr := s.store.DeleteTemp(saved.FileName); delErr != nil {
				s.logger.Warn("Не удалось удалить отклонённый файл",
					slog.String("file", saved.FileName),
					slog.String("error", delErr.Error()),
				)
			}
			return nil, s.reject("corrupt", 400, apierrors.CodeValidationError,
				"Изображение не содержит валидных метаданных (ширина/высота)")
		}
		result.Width = imgCfg.Width
		result.Height = imgCfg.Height
	}

	middleware.UploadsTotal.WithLabelValues("accepted").Inc()

	s.logger.Info("Файл загружен",
		slog.String("file", saved.FileName),
		slog.String("filename", params.OriginalFilename),
		slog.Int64("size", saved.Size),
		slog.String("content_type", contentType),
	)

	return result, nil
}

// reject фиксирует отказ в метриках и возвращает ошибку загрузки.
func (s *UploadService) reject(reason string, statusCode int, code, message string) *UploadError {
	middleware.UploadsTotal.WithLabelValues("rejected_" + reason).Inc()
	s.logger.Info("Загрузка отклонена", slog.String("reason", reason))
	return &UploadError{StatusCode: statusCode, Code: code, Message: message}
}

// normalizeContentType убирает параметры MIME-типа (charset и т.д.).
func normalizeContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
