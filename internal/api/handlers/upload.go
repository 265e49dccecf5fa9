// upload.go — обработчик загрузки изображений.
package handlers

import (
	"net/http"

	apierrors "github.com/gregory1175/bad-server/internal/api/errors"
	"github.com/gregory1175/bad-server/internal/service"
)

// UploadFile — POST /upload. Приём изображения multipart/form-data
// (поле "file"). Проверки размера, типа и содержимого выполняет
// сервис загрузки.
func (h *APIHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Файл не загружен")
		return
	}
	defer file.Close()

	result, uploadErr := h.upload.Upload(service.UploadParams{
		Reader:           file,
		OriginalFilename: header.Filename,
		ContentType:      header.Header.Get("Content-Type"),
	})
	if uploadErr != nil {
		apierrors.WriteError(w, uploadErr.StatusCode, uploadErr.Code, uploadErr.Message)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
