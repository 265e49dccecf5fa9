// products.go — сервис каталога товаров.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/gregory1175/bad-server/internal/domain/model"
	"github.com/gregory1175/bad-server/internal/repository"
	"github.com/gregory1175/bad-server/internal/storage/filestore"
)

// ProductList — страница каталога с пагинацией.
type ProductList struct {
	Items      []*model.Product `json:"items"`
	Pagination Pagination       `json:"pagination"`
}

// Pagination — сведения о странице списка.
type Pagination struct {
	Total       int `json:"total"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
}

// ProductInput — входные данные создания/обновления товара.
type ProductInput struct {
	Title       string              `json:"title"`
	Image       *model.ProductImage `json:"image,omitempty"`
	Category    string              `json:"category"`
	Description string              `json:"description"`
	Price       *float64            `json:"price"`
}

// ProductService — бизнес-логика каталога.
type ProductService struct {
	repo   repository.ProductRepository
	store  *filestore.FileStore
	cache  *ProductCache
	logger *slog.Logger
}

// NewProductService создаёт сервис каталога.
func NewProductService(
	repo repository.ProductRepository,
	store *filestore.FileStore,
	cache *ProductCache,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		repo:   repo,
		store:  store,
		cache:  cache,
		logger: logger.With(slog.String("component", "product_service")),
	}
}

// List возвращает страницу каталога.
// limit уже нормализован обработчиком (не больше 5).
func (s *ProductService) List(ctx context.Context, page, limit int) (*ProductList, error) {
	items, err := s.repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*model.Product{}
	}
	return &ProductList{
		Items: items,
		Pagination: Pagination{
			Total:       total,
			TotalPages:  totalPages(total, limit),
			CurrentPage: page,
			PageSize:    limit,
		},
	}, nil
}

// GetByID возвращает товар, используя кэш.
func (s *ProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if p, ok := s.cache.Get(id); ok {
		return p, nil
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: нет товара по заданному id", ErrNotFound)
		}
		return nil, err
	}
	s.cache.Put(p)
	return p, nil
}

// Create создаёт товар. Если указано изображение — переносит файл
// из временной директории в постоянную.
func (s *ProductService) Create(ctx context.Context, input ProductInput) (*model.Product, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: не указано название товара", ErrValidation)
	}

	image, err := s.relocateImage(input.Image)
	if err != nil {
		return nil, err
	}

	p := &model.Product{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Image:       image,
		Category:    input.Category,
		Description: input.Description,
		Price:       input.Price,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: товар с таким заголовком уже существует", ErrConflict)
		}
		return nil, err
	}

	s.cache.Put(p)
	s.logger.Info("Товар создан",
		slog.String("product_id", p.ID),
		slog.String("title", p.Title),
	)
	return p, nil
}

// Update обновляет товар. Новое изображение переносится из временной
// директории; отсутствие price в запросе делает товар бесценным.
func (s *ProductService) Update(ctx context.Context, id string, input ProductInput) (*model.Product, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: нет товара по заданному id", ErrNotFound)
		}
		return nil, err
	}

	if input.Image != nil {
		image, err := s.relocateImage(input.Image)
		if err != nil {
			return nil, err
		}
		existing.Image = image
	}
	if input.Title != "" {
		existing.Title = input.Title
	}
	if input.Category != "" {
		existing.Category = input.Category
	}
	if input.Description != "" {
		existing.Description = input.Description
	}
	existing.Price = input.Price

	if err := s.repo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: товар с таким заголовком уже существует", ErrConflict)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: нет товара по заданному id", ErrNotFound)
		}
		return nil, err
	}

	s.cache.Invalidate(id)
	s.logger.Info("Товар обновлён", slog.String("product_id", id))
	return existing, nil
}

// Delete удаляет товар. Возвращает удалённую карточку.
func (s *ProductService) Delete(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: нет товара по заданному id", ErrNotFound)
		}
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: нет товара по заданному id", ErrNotFound)
		}
		return nil, err
	}

	s.cache.Invalidate(id)
	s.logger.Info("Товар удалён", slog.String("product_id", id))
	return p, nil
}

// relocateImage переносит загруженное изображение из временной
// директории в постоянную и возвращает описание с новым именем.
func (s *ProductService) relocateImage(image *model.ProductImage) (*model.ProductImage, error) {
	if image == nil || image.FileName == "" {
		return nil, nil
	}

	// fileName приходит как путь вида /temp/<uuid>.<ext>
	newName, err := s.store.Move(filepath.Base(image.FileName))
	if err != nil {
		if errors.Is(err, filestore.ErrSourceMissing) {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
		return nil, err
	}

	return &model.ProductImage{
		FileName:     newName,
		OriginalName: image.OriginalName,
	}, nil
}

// totalPages считает количество страниц при заданном размере.
func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
