package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type queuedTask struct {
	task   domain.DispatchTask
	status string // pending | sent | failed
}

// dispatchQueueInMemory — in-memory очередь доставки уведомлений.
type dispatchQueueInMemory struct {
	mu    sync.Mutex
	tasks []*queuedTask
	byID  map[string]*queuedTask
}

// NewDispatchQueue возвращает пустую очередь доставки.
func NewDispatchQueue() domain.DispatchQueue {
	return &dispatchQueueInMemory{byID: make(map[string]*queuedTask)}
}

// Enqueue ставит задачу в очередь, присваивая ID и время при их отсутствии.
func (q *dispatchQueueInMemory) Enqueue(task domain.DispatchTask) (domain.DispatchTask, error) {
	if task.Event == nil {
		return domain.DispatchTask{}, fmt.Errorf("dispatch task event is nil")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}
	if _, exists := q.byID[task.ID]; exists {
		return domain.DispatchTask{}, fmt.Errorf("dispatch task %s already queued", task.ID)
	}

	entry := &queuedTask{task: task, status: "pending"}
	q.tasks = append(q.tasks, entry)
	q.byID[task.ID] = entry
	return task, nil
}

// PullPending возвращает до limit pending-задач в порядке постановки,
// увеличивая счётчик попыток.
func (q *dispatchQueueInMemory) PullPending(limit int) ([]domain.DispatchTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	result := make([]domain.DispatchTask, 0, limit)
	for _, entry := range q.tasks {
		if entry.status != "pending" {
			continue
		}
		entry.task.Attempts++
		result = append(result, entry.task)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// Stats возвращает размер и возраст backlog.
func (q *dispatchQueueInMemory) Stats() (domain.DispatchStats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := domain.DispatchStats{}
	for _, entry := range q.tasks {
		if entry.status != "pending" {
			continue
		}
		stats.PendingCount++
		if stats.OldestPendingAt.IsZero() || entry.task.EnqueuedAt.Before(stats.OldestPendingAt) {
			stats.OldestPendingAt = entry.task.EnqueuedAt
		}
	}
	return stats, nil
}

// MarkSent помечает задачу доставленной.
func (q *dispatchQueueInMemory) MarkSent(id string) error {
	return q.setStatus(id, "sent")
}

// MarkFailed помечает задачу терминально неудачной.
func (q *dispatchQueueInMemory) MarkFailed(id string) error {
	return q.setStatus(id, "failed")
}

func (q *dispatchQueueInMemory) setStatus(id, status string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.byID[id]
	if !ok {
		return fmt.Errorf("dispatch task %s not found", id)
	}
	entry.status = status
	return nil
}

var _ domain.DispatchQueue = (*dispatchQueueInMemory)(nil)
