package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// orderStoreInMemory — in-memory реализация RemoteOrderStore для локальной
// разработки и тестов. Порядок вставки сохраняется, как у запроса к базе
// с сортировкой по времени создания.
type orderStoreInMemory struct {
	mu     sync.RWMutex
	orders []domain.Order
	index  map[string]int
}

// NewOrderStore возвращает пустое in-memory хранилище заказов.
func NewOrderStore() domain.RemoteOrderStore {
	return &orderStoreInMemory{index: make(map[string]int)}
}

// Query возвращает заказы по фильтру; пустой UserID означает все заказы.
func (s *orderStoreInMemory) Query(_ context.Context, q domain.OrderQuery) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if q.UserID != "" && order.UserID != q.UserID {
			continue
		}
		result = append(result, cloneOrder(order))
	}
	return result, nil
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (s *orderStoreInMemory) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[order.ID]; exists {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderExists, order.ID)
	}

	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	s.index[order.ID] = len(s.orders)
	s.orders = append(s.orders, cloneOrder(order))
	return order, nil
}

// Update накладывает патч и возвращает авторитетную строку с обновлённым
// updated_at.
func (s *orderStoreInMemory) Update(_ context.Context, orderID string, patch domain.OrderPatch) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[orderID]
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}

	updated := patch.ApplyTo(s.orders[idx])
	updated.UpdatedAt = time.Now().UTC()
	s.orders[idx] = cloneOrder(updated)
	return updated, nil
}

// cloneOrder копирует заказ вместе с позициями, чтобы мутации извне не
// просачивались в хранилище.
func cloneOrder(order domain.Order) domain.Order {
	clone := order
	if order.Items != nil {
		clone.Items = make([]domain.OrderItem, len(order.Items))
		copy(clone.Items, order.Items)
	}
	return clone
}

var _ domain.RemoteOrderStore = (*orderStoreInMemory)(nil)
