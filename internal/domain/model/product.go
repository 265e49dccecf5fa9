package model

import "time"

// ProductImage — ссылка на изображение товара в постоянном хранилище.
type ProductImage struct {
	// FileName — имя файла, присвоенное при загрузке (UUID + расширение).
	FileName string `json:"fileName"`
	// OriginalName — оригинальное имя файла, присланное клиентом.
	OriginalName string `json:"originalName"`
}

// Product — товар каталога (таблица products).
type Product struct {
	// ID — UUID товара.
	ID string `json:"id"`
	// Title — название товара (уникальное).
	Title string `json:"title"`
	// Image — изображение товара (может отсутствовать).
	Image *ProductImage `json:"image,omitempty"`
	// Category — категория товара.
	Category string `json:"category"`
	// Description — описание товара.
	Description string `json:"description"`
	// Price — цена. nil означает, что товар не продаётся.
	Price *float64 `json:"price"`
	// CreatedAt — момент создания.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt — момент последнего изменения.
	UpdatedAt time.Time `json:"updatedAt"`
}
