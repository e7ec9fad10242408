package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Cache — in-memory реализация LocalOrderCache. Переживает рестарт только
// процесса-владельца, поэтому используется в тестах и dev-режиме, когда
// Redis не настроен.
type Cache struct {
	mu     sync.RWMutex
	orders []domain.Order
}

// NewCache возвращает пустой кэш.
func NewCache() *Cache {
	return &Cache{}
}

// Load возвращает снимок сохранённых заказов.
func (c *Cache) Load(_ context.Context) []domain.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Order, len(c.orders))
	copy(out, c.orders)
	return out
}

// Save заменяет содержимое кэша копией набора.
func (c *Cache) Save(_ context.Context, orders []domain.Order) {
	snapshot := make([]domain.Order, len(orders))
	copy(snapshot, orders)

	c.mu.Lock()
	c.orders = snapshot
	c.mu.Unlock()
}

var _ domain.LocalOrderCache = (*Cache)(nil)
