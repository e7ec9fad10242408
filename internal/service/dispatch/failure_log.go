package dispatch

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const defaultFailureLogCapacity = 128

// Failure — одна неудачная доставка уведомления.
type Failure struct {
	TaskID   string           `json:"task_id"`
	Event    domain.EventName `json:"event"`
	OrderID  string           `json:"order_id"`
	Error    string           `json:"error"`
	FailedAt time.Time        `json:"failed_at"`
}

// FailureLog — ограниченный журнал терминальных сбоев доставки. Старые
// записи вытесняются новыми; журнал наблюдаем через Recent, но никогда не
// блокирует критический путь.
type FailureLog struct {
	mu       sync.Mutex
	entries  []Failure
	capacity int
}

// NewFailureLog создаёт журнал на capacity записей (<=0 — значение по умолчанию).
func NewFailureLog(capacity int) *FailureLog {
	if capacity <= 0 {
		capacity = defaultFailureLogCapacity
	}
	return &FailureLog{capacity: capacity}
}

// Record добавляет запись о сбое, вытесняя самую старую при переполнении.
func (l *FailureLog) Record(f Failure) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, f)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
}

// Recent возвращает копию журнала от старых записей к новым.
func (l *FailureLog) Recent() []Failure {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Failure, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len возвращает текущее число записей.
func (l *FailureLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
