package service

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gregory1175/bad-server/internal/config"
	"github.com/gregory1175/bad-server/internal/storage/filestore"
)

// newUploadService создаёт сервис с хранилищем во временных директориях.
func newUploadService(t *testing.T, cfg *config.Config) (*UploadService, string, string) {
	t.Helper()

	tempDir := filepath.Join(t.TempDir(), "temp")
	permDir := filepath.Join(t.TempDir(), "images")
	store, err := filestore.New(tempDir, permDir)
	if err != nil {
		t.Fatalf("filestore.New() ошибка: %v", err)
	}

	if cfg == nil {
		cfg = &config.Config{}
	}
	if cfg.UploadMinSize == 0 {
		cfg.UploadMinSize = 2 * 1024
	}
	if cfg.UploadMaxSize == 0 {
		cfg.UploadMaxSize = 10 * 1024 * 1024
	}
	if cfg.UploadPathTemp == "" {
		cfg.UploadPathTemp = "temp"
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewUploadService(cfg, store, logger), tempDir, permDir
}

// genPNG кодирует шумовое изображение PNG размером больше 2 KiB.
func genPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rnd := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rnd.Intn(256))
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() ошибка: %v", err)
	}
	return buf.Bytes()
}

// genJPEG кодирует шумовое изображение JPEG.
func genJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	rnd := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rnd.Intn(256))
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("jpeg.Encode() ошибка: %v", err)
	}
	return buf.Bytes()
}

// dirEntries возвращает количество файлов в директории.
func dirEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s) ошибка: %v", dir, err)
	}
	return len(entries)
}

func TestUpload_MissingFile(t *testing.T) {
	svc, _, _ := newUploadService(t, nil)

	_, uploadErr := svc.Upload(UploadParams{Reader: nil})
	if uploadErr == nil {
		t.Fatal("Upload() без файла не вернул ошибку")
	}
	if uploadErr.StatusCode != 400 {
		t.Errorf("StatusCode = %d, хотели 400", uploadErr.StatusCode)
	}
	if uploadErr.Message != "Файл не загружен" {
		t.Errorf("Message = %q", uploadErr.Message)
	}
}

func TestUpload_TooSmall(t *testing.T) {
	svc, tempDir, _ := newUploadService(t, nil)

	// Валидный PNG размером меньше 2 KiB
	data := genPNG(t, 4, 4)
	if len(data) >= 2*1024 {
		t.Fatalf("тестовый PNG слишком большой: %d байт", len(data))
	}

	_, uploadErr := svc.Upload(UploadParams{
		Reader:           bytes.NewReader(data),
		OriginalFilename: "tiny.png",
		ContentType:      "image/png",
	})
	if uploadErr == nil {
		t.Fatal("Upload() маленького файла не вернул ошибку")
	}
	if uploadErr.StatusCode != 400 {
		t.Errorf("StatusCode = %d, хотели 400", uploadErr.StatusCode)
	}
	if !strings.Contains(uploadErr.Message, "слишком маленький") {
		t.Errorf("Message = %q", uploadErr.Message)
	}
	if n := dirEntries(t, tempDir); n != 0 {
		t.Errorf("во временной директории %d файлов, хотели 0", n)
	}
}

func TestUpload_TooLarge(t *testing.T) {
	svc, tempDir, _ := newUploadService(t, &config.Config{
		UploadMinSize: 10,
		UploadMaxSize: 100,
	})

	data := make([]byte, 200)
	_, uploadErr := svc.Upload(UploadParams{
		Reader:           bytes.NewReader(data),
		OriginalFilename: "big.png",
		ContentType:      "image/png",
	})
	if uploadErr == nil {
		t.Fatal("Upload() большого файла не вернул ошибку")
	}
	if uploadErr.StatusCode != 413 {
		t.Errorf("StatusCode = %d, хотели 413", uploadErr.StatusCode)
	}
	if uploadErr.Message != "Размер файла слишком большой" {
		t.Errorf("Message = %q", uploadErr.Message)
	}
	if n := dirEntries(t, tempDir); n != 0 {
		t.Errorf("во временной директории %d файлов, хотели 0", n)
	}
}

func TestUpload_DisallowedMIME(t *testing.T) {
	svc, tempDir, _ := newUploadService(t, nil)

	data := make([]byte, 4*1024)
	_, uploadErr := svc.Upload(UploadParams{
		Reader:           bytes.NewReader(data),
		OriginalFilename: "notes.txt",
		ContentType:      "text/plain",
	})
	if uploadErr == nil {
		t.Fatal("Upload() не-изображения не вернул ошибку")
	}
	if uploadErr.Message != "Загружаемый файл должен быть изображением" {
		t.Errorf("Message = %q", uploadErr.Message)
	}
	if n := dirEntries(t, tempDir); n != 0 {
		t.Errorf("во временной директории %d файлов, хотели 0", n)
	}
}

func TestUpload_SpoofedContent(t *testing.T) {
	svc, tempDir, _ := newUploadService(t, nil)

	// Настоящий PNG, заявленный как JPEG — подмена типа
	data := genPNG(t, 64, 64)
	_, uploadErr := svc.Upload(UploadParams{
		Reader:           bytes.NewReader(data),
		OriginalFilename: "photo.jpg",
		ContentType:      "image/jpeg",
	})
	if uploadErr == nil {
		t.Fatal("Upload() подменённого файла не вернул ошибку")
	}
	if uploadErr.StatusCode != 400 {
		t.Errorf("StatusCode = %d, хотели 400", uploadErr.StatusCode)
	}
	if n := dirEntries(t, tempDir); n != 0 {
		t.Errorf("отклонённый файл остался на диске: %d файлов", n)
	}
}

func TestUpload_CorruptImageCleanedUp(t *testing.T) {
	svc, tempDir, _ := newUploadService(t, nil)

	// Сигнатура PNG валидна, но декодироваться файл не может.
	// Отказ происходит после записи на диск — файл обязан быть удалён.
	data := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 4*1024)...)
	_, uploadErr := svc.Upload(UploadParams{
		Reader:           bytes.NewReader(data),
		OriginalFilename: "broken.png",
		ContentType:      "image/png",
	})
	if uploadErr == nil {
		t.Fatal("Upload() битого файла не вернул ошибку")
	}
	if !strings.Contains(uploadErr.Message, "метаданных") {
		t.Errorf("Message = %q", uploadErr.Message)
	}
	if n := dirEntries(t, tempDir); n != 0 {
		t.Errorf("битый файл не удалён из временной директории: %d файлов", n)
	}
}

func TestUpload_PNGAccepted(t *testing.T) {
	svc, tempDir, _ := newUploadService(t, nil)

	data := genPNG(t, 64, 48)
	result, uploadErr := svc.Upload(UploadParams{
		Reader:           bytes.NewReader(data),
		OriginalFilename: "картинка.png",
		ContentType:      "image/png",
	})
	if uploadErr != nil {
		t.Fatalf("Upload() ошибка: %v", uploadErr)
	}

	if !strings.HasPrefix(result.FileName, "/temp/") {
		t.Errorf("FileName = %q, хотели префикс /temp/", result.FileName)
	}
	if !strings.HasSuffix(result.FileName, ".png") {
		t.Errorf("FileName = %q, хотели расширение .png", result.FileName)
	}
	if result.OriginalName != "картинка.png" {
		t.Errorf("OriginalName = %q", result.OriginalName)
	}
	if result.Width != 64 || result.Height != 48 {
		t.Errorf("размеры %dx%d, хотели 64x48", result.Width, result.Height)
	}
	if n := dirEntries(t, tempDir); n != 1 {
		t.Errorf("во временной директории %d файлов, хотели 1", n)
	}
}

func TestUpload_JPEGAccepted(t *testing.T) {
	svc, _, _ := newUploadService(t, nil)

	data := genJPEG(t, 32, 32)
	if len(data) < 2*1024 {
		data = genJPEG(t, 128, 128)
	}
	result, uploadErr := svc.Upload(UploadParams{
		Reader:           bytes.NewReader(data),
		OriginalFilename: "photo.jpeg",
		ContentType:      "image/jpeg; charset=binary",
	})
	if uploadErr != nil {
		t.Fatalf("Upload() ошибка: %v", uploadErr)
	}
	if result.Width == 0 || result.Height == 0 {
		t.Errorf("размеры %dx%d, хотели ненулевые", result.Width, result.Height)
	}
}

func TestUpload_SVGAcceptedWithoutDimensions(t *testing.T) {
	svc, tempDir, _ := newUploadService(t, nil)

	svg := "<svg xmlns=\"http://www.w3.org/2000/svg\"><!--" +
		strings.Repeat("x", 4*1024) + "--></svg>"
	result, uploadErr := svc.Upload(UploadParams{
		Reader:           strings.NewReader(svg),
		OriginalFilename: "logo.svg",
		ContentType:      "image/svg+xml",
	})
	if uploadErr != nil {
		t.Fatalf("Upload() ошибка: %v", uploadErr)
	}
	if result.Width != 0 || result.Height != 0 {
		t.Errorf("размеры SVG %dx%d, хотели нулевые", result.Width, result.Height)
	}
	if n := dirEntries(t, tempDir); n != 1 {
		t.Errorf("во временной директории %d файлов, хотели 1", n)
	}
}

func TestNormalizeContentType(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"image/png", "image/png"},
		{"IMAGE/PNG", "image/png"},
		{"image/jpeg; charset=binary", "image/jpeg"},
		{"  image/gif  ", "image/gif"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeContentType(tt.input); got != tt.expected {
			t.Errorf("normalizeContentType(%q) = %q, хотели %q", tt.input, got, tt.expected)
		}
	}
}
