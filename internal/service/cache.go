// cache.go — LRU-кэш товаров с TTL.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/gregory1175/bad-server/internal/domain/model"
)

// ProductCache — кэш карточек товаров поверх expirable LRU.
// Каталог читается намного чаще, чем меняется; записи живут
// ограниченное время и вытесняются по размеру.
type ProductCache struct {
	lru *expirable.LRU[string, *model.Product]
}

// NewProductCache создаёт кэш товаров на size записей с временем жизни ttl.
func NewProductCache(size int, ttl time.Duration) *ProductCache {
	return &ProductCache{
		lru: expirable.NewLRU[string, *model.Product](size, nil, ttl),
	}
}

// Get возвращает товар из кэша.
func (c *ProductCache) Get(id string) (*model.Product, bool) {
	return c.lru.Get(id)
}

// Put сохраняет товар в кэш.
func (c *ProductCache) Put(p *model.Product) {
	c.lru.Add(p.ID, p)
}

// Invalidate удаляет товар из кэша.
func (c *ProductCache) Invalidate(id string) {
	c.lru.Remove(id)
}

// Purge очищает кэш целиком.
func (c *ProductCache) Purge() {
	c.lru.Purge()
}
