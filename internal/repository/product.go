package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gregory1175/bad-server/internal/domain/model"
)

// ProductRepository — интерфейс CRUD для таблицы products.
type ProductRepository interface {
	// Create создаёт новый товар.
	Create(ctx context.Context, p *model.Product) error
	// GetByID возвращает товар по UUID.
	GetByID(ctx context.Context, id string) (*model.Product, error)
	// GetByIDs возвращает товары по списку UUID. Порядок не гарантируется.
	GetByIDs(ctx context.Context, ids []string) ([]*model.Product, error)
	// List возвращает страницу каталога, отсортированную по дате добавления.
	List(ctx context.Context, limit, offset int) ([]*model.Product, error)
	// Update обновляет товар.
	Update(ctx context.Context, p *model.Product) error
	// Delete удаляет товар.
	Delete(ctx context.Context, id string) error
	// Count возвращает общее количество товаров.
	Count(ctx context.Context) (int, error)
}

// productRepo — реализация ProductRepository.
type productRepo struct {
	db DBTX
}

// NewProductRepository создаёт репозиторий товаров.
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepo{db: db}
}

// scanProduct читает строку products в model.Product,
// собирая вложенную структуру изображения.
func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	var imageFile, imageOrig string
	err := row.Scan(
		&p.ID, &p.Title, &imageFile, &imageOrig,
		&p.Category, &p.Description, &p.Price, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if imageFile != "" {
		p.Image = &model.ProductImage{FileName: imageFile, OriginalName: imageOrig}
	}
	return p, nil
}

const productColumns = `id, title, image_file, image_orig, category, description, price, created_at, updated_at`

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (id, title, image_file, image_orig, category, description, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	var imageFile, imageOrig string
	if p.Image != nil {
		imageFile, imageOrig = p.Image.FileName, p.Image.OriginalName
	}

	err := r.db.QueryRow(ctx, query,
		p.ID, p.Title, imageFile, imageOrig, p.Category, p.Description, p.Price,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: товар с таким названием уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания товара: %w", err)
	}
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения товара: %w", err)
	}
	return p, nil
}

func (r *productRepo) GetByIDs(ctx context.Context, ids []string) ([]*model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения товаров: %w", err)
	}
	defer rows.Close()

	var result []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования товара: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *productRepo) List(ctx context.Context, limit, offset int) ([]*model.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения каталога: %w", err)
	}
	defer rows.Close()

	var result []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования товара: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET title = $2, image_file = $3, image_orig = $4,
			category = $5, description = $6, price = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	var imageFile, imageOrig string
	if p.Image != nil {
		imageFile, imageOrig = p.Image.FileName, p.Image.OriginalName
	}

	err := r.db.QueryRow(ctx, query,
		p.ID, p.Title, imageFile, imageOrig, p.Category, p.Description, p.Price,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: товар с таким названием уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка обновления товара: %w", err)
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления товара: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта товаров: %w", err)
	}
	return count, nil
}
