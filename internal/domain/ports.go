package domain

import (
	"context"
	"time"
)

// OrderQuery задаёт фильтр выборки заказов из удалённого хранилища.
// Пустой UserID означает "все заказы".
type OrderQuery struct {
	UserID string
}

// RemoteOrderStore описывает durable-хранилище заказов.
type RemoteOrderStore interface {
	// Query возвращает заказы по фильтру. Транспортные сбои приходят как
	// ErrStoreUnavailable.
	Query(ctx context.Context, q OrderQuery) ([]Order, error)
	// Create сохраняет новый заказ; ErrOrderExists при занятом ID.
	Create(ctx context.Context, order Order) (Order, error)
	// Update применяет патч к заказу и возвращает авторитетную строку
	// хранилища. Возможны ErrOrderNotFound, ErrStoreUnavailable и
	// ErrPermissionDenied.
	Update(ctx context.Context, orderID string, patch OrderPatch) (Order, error)
}

// LocalOrderCache — локальное зеркало заказов для офлайн-континуитета.
// Обе операции best-effort: ошибки гасятся и логируются внутри реализации,
// наружу не выходят.
type LocalOrderCache interface {
	Load(ctx context.Context) []Order
	Save(ctx context.Context, orders []Order)
}

// NotificationDispatcher доставляет события автоматизации. С точки зрения
// ядра вызов fire-and-forget: ошибку логирует вызывающая сторона и не
// распространяет дальше.
type NotificationDispatcher interface {
	Trigger(ctx context.Context, event AutomationEvent) error
}

// DispatchTask — единица очереди отложенной доставки уведомлений.
type DispatchTask struct {
	ID         string
	Event      AutomationEvent
	EnqueuedAt time.Time
	Attempts   int
}

// DispatchStats описывает текущий backlog очереди.
type DispatchStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// DispatchQueue хранит события до передачи диспетчеру уведомлений.
type DispatchQueue interface {
	Enqueue(task DispatchTask) (DispatchTask, error)
	PullPending(limit int) ([]DispatchTask, error)
	Stats() (DispatchStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}
