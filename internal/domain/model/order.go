package model

import "time"

// Статусы заказа.
const (
	// StatusNew — новый заказ.
	StatusNew = "new"
	// StatusDelivering — заказ в доставке.
	StatusDelivering = "delivering"
	// StatusCompleted — заказ выполнен.
	StatusCompleted = "completed"
	// StatusCancelled — заказ отменён.
	StatusCancelled = "cancelled"
)

// ValidStatus проверяет, является ли строка допустимым статусом заказа.
func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusDelivering, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Способы оплаты.
const (
	// PaymentCard — оплата картой онлайн.
	PaymentCard = "card"
	// PaymentOnline — онлайн-оплата.
	PaymentOnline = "online"
)

// Order — заказ (таблица orders + order_products).
type Order struct {
	// ID — UUID заказа.
	ID string `json:"id"`
	// OrderNumber — последовательный номер заказа (уникальный).
	OrderNumber int64 `json:"orderNumber"`
	// Status — статус заказа.
	Status string `json:"status"`
	// TotalAmount — сумма заказа.
	TotalAmount float64 `json:"totalAmount"`
	// PaymentType — способ оплаты.
	PaymentType string `json:"payment"`
	// Email — почта получателя.
	Email string `json:"email"`
	// Phone — телефон получателя.
	Phone string `json:"phone"`
	// Comment — комментарий к заказу (экранированный).
	Comment string `json:"comment,omitempty"`
	// DeliveryAddress — адрес доставки.
	DeliveryAddress string `json:"deliveryAddress"`
	// Customer — покупатель, оформивший заказ.
	Customer *Customer `json:"customer,omitempty"`
	// Products — товарные позиции заказа.
	Products []*Product `json:"products"`
	// CreatedAt — момент оформления.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt — момент последнего изменения.
	UpdatedAt time.Time `json:"updatedAt"`
}
