// Пакет model — доменные модели интернет-магазина.
package model

import "time"

// Роли покупателей.
const (
	// RoleCustomer — обычный покупатель.
	RoleCustomer = "customer"
	// RoleAdmin — администратор магазина.
	RoleAdmin = "admin"
)

// Customer — покупатель (таблица customers).
type Customer struct {
	// ID — UUID покупателя.
	ID string `json:"id"`
	// Email — электронная почта (уникальная).
	Email string `json:"email"`
	// PasswordHash — bcrypt-хэш пароля. Никогда не сериализуется.
	PasswordHash string `json:"-"`
	// Name — имя покупателя.
	Name string `json:"name"`
	// Roles — роли (customer, admin).
	Roles []string `json:"roles"`
	// CreatedAt — момент регистрации.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt — момент последнего изменения.
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasRole проверяет наличие роли у покупателя.
func (c *Customer) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin проверяет, является ли покупатель администратором.
func (c *Customer) IsAdmin() bool {
	return c.HasRole(RoleAdmin)
}
