// Пакет filestore — операции с файлами изображений на диске.
// Временная директория принимает свежезагруженные файлы; при привязке
// изображения к товару файл переносится в постоянную директорию.
// Директории создаются явным шагом инициализации New, а не при
// загрузке пакета.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrSourceMissing — исходный файл отсутствует при переносе.
// Повтор операции не поможет: источника просто нет.
var ErrSourceMissing = errors.New("ошибка при сохранении файла")

// FileStore — управление файлами изображений на диске.
type FileStore struct {
	// tempDir — директория временных загрузок
	tempDir string
	// permDir — директория постоянного хранения
	permDir string
}

// SaveResult — результат записи файла во временную директорию.
type SaveResult struct {
	// FileName — присвоенное имя файла (UUID + расширение)
	FileName string
	// FullPath — абсолютный путь временного файла
	FullPath string
	// Size — размер записанных данных в байтах
	Size int64
}

// New создаёт FileStore и директории, если они не существуют.
func New(tempDir, permDir string) (*FileStore, error) {
	for _, dir := range []string{tempDir, permDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
		}
	}
	return &FileStore{tempDir: tempDir, permDir: permDir}, nil
}

// TempDir возвращает путь директории временных загрузок.
func (fs *FileStore) TempDir() string { return fs.tempDir }

// PermDir возвращает путь директории постоянного хранения.
func (fs *FileStore) PermDir() string { return fs.permDir }

// SaveTemp записывает данные из reader во временную директорию под
// новым именем UUID + расширение оригинального имени. Имя клиента в
// путь не попадает — только расширение.
// При ошибке записи частичный файл удаляется.
func (fs *FileStore) SaveTemp(reader io.Reader, originalFilename string) (*SaveResult, error) {
	fileName := newStorageName(originalFilename)
	fullPath := filepath.Join(fs.tempDir, fileName)

	f, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	size, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		os.Remove(fullPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	return &SaveResult{
		FileName: fileName,
		FullPath: fullPath,
		Size:     size,
	}, nil
}

// Move переносит файл из временной директории в постоянную, присваивая
// новое имя UUID + расширение. Возвращает новое имя для сохранения в
// записи товара.
//
// От имени, управляемого клиентом, остаётся только базовое имя
// (filepath.Base) и расширение. Отсутствующий источник — ErrSourceMissing.
// После успеха файла во временной директории больше нет.
func (fs *FileStore) Move(fileName string) (string, error) {
	base := filepath.Base(fileName)
	srcPath := filepath.Join(fs.tempDir, base)

	if _, err := os.Stat(srcPath); err != nil {
		if os.IsNotExist(err) {
			return "", ErrSourceMissing
		}
		return "", fmt.Errorf("ошибка проверки исходного файла %s: %w", base, err)
	}

	newName := newStorageName(base)
	dstPath := filepath.Join(fs.permDir, newName)

	if err := os.Rename(srcPath, dstPath); err != nil {
		return "", fmt.Errorf("ошибка переноса файла %s: %w", base, err)
	}

	return newName, nil
}

// DeleteTemp удаляет файл из временной директории.
// Возвращает nil, если файл уже не существует.
func (fs *FileStore) DeleteTemp(fileName string) error {
	fullPath := filepath.Join(fs.tempDir, filepath.Base(fileName))

	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления временного файла %s: %w", fileName, err)
	}
	return nil
}

// TempPath возвращает абсолютный путь файла во временной директории.
func (fs *FileStore) TempPath(fileName string) string {
	return filepath.Join(fs.tempDir, filepath.Base(fileName))
}

// newStorageName формирует имя хранения: UUID + расширение оригинала.
func newStorageName(originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	return uuid.New().String() + ext
}
