package service

import (
	"testing"
	"time"

	"github.com/gregory1175/bad-server/internal/domain/model"
)

func TestProductCache_PutGet(t *testing.T) {
	cache := NewProductCache(4, time.Minute)

	p := &model.Product{ID: "p1", Title: "Мамка-таймер"}
	cache.Put(p)

	got, ok := cache.Get("p1")
	if !ok {
		t.Fatal("Get() не нашёл товар после Put()")
	}
	if got.Title != "Мамка-таймер" {
		t.Errorf("Title = %q", got.Title)
	}

	if _, ok := cache.Get("ghost"); ok {
		t.Error("Get() нашёл несуществующий товар")
	}
}

func TestProductCache_Invalidate(t *testing.T) {
	cache := NewProductCache(4, time.Minute)

	cache.Put(&model.Product{ID: "p1"})
	cache.Invalidate("p1")
	if _, ok := cache.Get("p1"); ok {
		t.Error("товар остался в кэше после Invalidate()")
	}

	// Инвалидация отсутствующего ключа безопасна
	cache.Invalidate("ghost")
}

func TestProductCache_TTL(t *testing.T) {
	cache := NewProductCache(4, 20*time.Millisecond)

	cache.Put(&model.Product{ID: "p1"})
	time.Sleep(50 * time.Millisecond)
	if _, ok := cache.Get("p1"); ok {
		t.Error("товар пережил свой TTL")
	}
}

func TestProductCache_Eviction(t *testing.T) {
	cache := NewProductCache(2, time.Minute)

	cache.Put(&model.Product{ID: "p1"})
	cache.Put(&model.Product{ID: "p2"})
	cache.Put(&model.Product{ID: "p3"})

	if _, ok := cache.Get("p1"); ok {
		t.Error("старейшая запись не вытеснена при переполнении")
	}
	if _, ok := cache.Get("p3"); !ok {
		t.Error("новая запись не попала в кэш")
	}
}

func TestProductCache_Purge(t *testing.T) {
	cache := NewProductCache(4, time.Minute)

	cache.Put(&model.Product{ID: "p1"})
	cache.Put(&model.Product{ID: "p2"})
	cache.Purge()

	if _, ok := cache.Get("p1"); ok {
		t.Error("кэш не пуст после Purge()")
	}
}
