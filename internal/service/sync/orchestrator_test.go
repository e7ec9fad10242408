package sync_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/sync"
)

// scriptedStore позволяет тестам задавать поведение durable-записи.
type scriptedStore struct {
	updateFn    func(orderID string, patch domain.OrderPatch) (domain.Order, error)
	updateCalls int
}

func (s *scriptedStore) Query(context.Context, domain.OrderQuery) ([]domain.Order, error) {
	return nil, nil
}

func (s *scriptedStore) Create(_ context.Context, o domain.Order) (domain.Order, error) {
	return o, nil
}

func (s *scriptedStore) Update(_ context.Context, orderID string, patch domain.OrderPatch) (domain.Order, error) {
	s.updateCalls++
	return s.updateFn(orderID, patch)
}

// recordingQueue собирает поставленные события.
type recordingQueue struct {
	tasks      []domain.DispatchTask
	enqueueErr error
}

func (q *recordingQueue) Enqueue(task domain.DispatchTask) (domain.DispatchTask, error) {
	if q.enqueueErr != nil {
		return domain.DispatchTask{}, q.enqueueErr
	}
	q.tasks = append(q.tasks, task)
	return task, nil
}

func (q *recordingQueue) PullPending(int) ([]domain.DispatchTask, error) { return nil, nil }
func (q *recordingQueue) Stats() (domain.DispatchStats, error)           { return domain.DispatchStats{}, nil }
func (q *recordingQueue) MarkSent(string) error                          { return nil }
func (q *recordingQueue) MarkFailed(string) error                        { return nil }

func (q *recordingQueue) eventNames() []domain.EventName {
	names := make([]domain.EventName, 0, len(q.tasks))
	for _, task := range q.tasks {
		names = append(names, task.Event.Name())
	}
	return names
}

func seededOrchestrator(t *testing.T, store *scriptedStore) (*sync.Orchestrator, *staticCache, *recordingQueue) {
	t.Helper()

	cache := &staticCache{}
	queue := &recordingQueue{}
	book := sync.NewOrchestrator(store, cache, queue, nil, sync.WithEstimatedTime("25 минут"))
	book.Seed([]domain.Order{
		{
			ID:          "o1",
			OrderNumber: "1042",
			UserID:      "user-1",
			Status:      domain.OrderStatusPending,
			OrderType:   domain.OrderTypeDelivery,
			TotalMinor:  114000,
		},
	})
	return book, cache, queue
}

func statusPatch(status domain.OrderStatus) domain.OrderPatch {
	return domain.OrderPatch{Status: &status}
}

func TestApplyUpdate_NotFound(t *testing.T) {
	store := &scriptedStore{updateFn: func(string, domain.OrderPatch) (domain.Order, error) {
		t.Fatal("store must not be called for unknown order")
		return domain.Order{}, nil
	}}
	book, cache, queue := seededOrchestrator(t, store)

	_, err := book.ApplyUpdate(context.Background(), "missing", statusPatch(domain.OrderStatusReady))

	require.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Zero(t, store.updateCalls, "durable write must not happen")
	assert.Empty(t, cache.saved, "cache must not be touched when the order is unknown")
	assert.Empty(t, queue.tasks)
}

func TestApplyUpdate_StoreWins(t *testing.T) {
	// Хранилище возвращает строку, отличающуюся от оптимистичного слияния:
	// конкурентный податчик успел сменить номер и updated_at.
	storeRow := domain.Order{
		ID:          "o1",
		OrderNumber: "1042-r",
		UserID:      "user-1",
		Status:      domain.OrderStatusConfirmed,
		OrderType:   domain.OrderTypeDelivery,
		TotalMinor:  114000,
		UpdatedAt:   time.Now().UTC().Add(time.Minute),
	}
	store := &scriptedStore{updateFn: func(string, domain.OrderPatch) (domain.Order, error) {
		return storeRow, nil
	}}
	book, cache, queue := seededOrchestrator(t, store)

	final, err := book.ApplyUpdate(context.Background(), "o1", statusPatch(domain.OrderStatusConfirmed))

	require.NoError(t, err)
	assert.Equal(t, storeRow, final, "returned record must be the store's row")

	stored, err := book.Get("o1")
	require.NoError(t, err)
	assert.Equal(t, storeRow, stored, "in-memory record must be replaced by the store's row")

	assert.Equal(t,
		[]domain.EventName{domain.EventOrderStatusChanged, domain.EventOrderConfirmed},
		queue.eventNames())
	assert.Len(t, cache.saved, 1, "cache must be saved exactly once")
}

func TestApplyUpdate_WriteFailureKeepsOptimistic(t *testing.T) {
	store := &scriptedStore{updateFn: func(string, domain.OrderPatch) (domain.Order, error) {
		return domain.Order{}, fmt.Errorf("update: %w", domain.ErrStoreUnavailable)
	}}
	book, cache, queue := seededOrchestrator(t, store)

	// preparing → ready по сценарию: сначала доводим заказ до preparing
	// напрямую через Seed.
	book.Seed([]domain.Order{{
		ID:        "o1",
		Status:    domain.OrderStatusPreparing,
		OrderType: domain.OrderTypeDelivery,
	}})

	final, err := book.ApplyUpdate(context.Background(), "o1", statusPatch(domain.OrderStatusReady))

	var updateErr *domain.UpdateFailedError
	require.ErrorAs(t, err, &updateErr)
	assert.Equal(t, "o1", updateErr.OrderID)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)

	// Оптимистичная запись не откатывается.
	assert.Equal(t, domain.OrderStatusReady, final.Status)
	stored, getErr := book.Get("o1")
	require.NoError(t, getErr)
	assert.Equal(t, domain.OrderStatusReady, stored.Status)

	// События перехода всё равно срабатывают: before/after снимаются
	// независимо от исхода durable-записи.
	assert.Equal(t,
		[]domain.EventName{domain.EventOrderStatusChanged, domain.EventOrderReady},
		queue.eventNames())

	// Кэш сохраняется безусловно.
	assert.Len(t, cache.saved, 1)
}

func TestApplyUpdate_IdempotentResaveFiresNothing(t *testing.T) {
	store := &scriptedStore{updateFn: func(_ string, patch domain.OrderPatch) (domain.Order, error) {
		return domain.Order{
			ID:        "o1",
			Status:    *patch.Status,
			OrderType: domain.OrderTypeDelivery,
		}, nil
	}}
	book, cache, queue := seededOrchestrator(t, store)

	// Первый перевод в confirmed.
	_, err := book.ApplyUpdate(context.Background(), "o1", statusPatch(domain.OrderStatusConfirmed))
	require.NoError(t, err)
	require.Len(t, queue.tasks, 2)

	// Повторный патч тем же статусом: ноль событий, но кэш снова сохранён.
	_, err = book.ApplyUpdate(context.Background(), "o1", statusPatch(domain.OrderStatusConfirmed))
	require.NoError(t, err)

	assert.Len(t, queue.tasks, 2, "no events for old == new")
	assert.Len(t, cache.saved, 2, "every invocation saves the cache once")
}

func TestApplyUpdate_NonStatusPatchFiresNothing(t *testing.T) {
	store := &scriptedStore{updateFn: func(_ string, patch domain.OrderPatch) (domain.Order, error) {
		return domain.Order{
			ID:           "o1",
			Status:       domain.OrderStatusPending,
			OrderType:    domain.OrderTypeDelivery,
			CustomerName: *patch.CustomerName,
		}, nil
	}}
	book, _, queue := seededOrchestrator(t, store)

	name := "Данияр"
	final, err := book.ApplyUpdate(context.Background(), "o1", domain.OrderPatch{CustomerName: &name})

	require.NoError(t, err)
	assert.Equal(t, name, final.CustomerName)
	assert.Empty(t, queue.tasks, "detail edit without status change fires no events")
}

func TestApplyUpdate_QueueFailureIsNotFatal(t *testing.T) {
	store := &scriptedStore{updateFn: func(_ string, patch domain.OrderPatch) (domain.Order, error) {
		return domain.Order{ID: "o1", Status: *patch.Status, OrderType: domain.OrderTypeDelivery}, nil
	}}
	book, cache, queue := seededOrchestrator(t, store)
	queue.enqueueErr = fmt.Errorf("queue full")

	final, err := book.ApplyUpdate(context.Background(), "o1", statusPatch(domain.OrderStatusReady))

	require.NoError(t, err, "enqueue failure must not fail the update")
	assert.Equal(t, domain.OrderStatusReady, final.Status)
	assert.Len(t, cache.saved, 1)
}

func TestApplyUpdate_ScenarioPendingToConfirmed(t *testing.T) {
	// Сценарий: {id:o1, status:pending} + {status:confirmed}, запись
	// успешна → события order_status_changed и order_confirmed.
	store := &scriptedStore{updateFn: func(_ string, patch domain.OrderPatch) (domain.Order, error) {
		return domain.Order{
			ID:        "o1",
			Status:    *patch.Status,
			OrderType: domain.OrderTypeDelivery,
			UpdatedAt: time.Now().UTC(),
		}, nil
	}}
	book, _, queue := seededOrchestrator(t, store)

	final, err := book.ApplyUpdate(context.Background(), "o1", statusPatch(domain.OrderStatusConfirmed))

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, final.Status)
	require.Len(t, queue.tasks, 2)

	confirmed, ok := queue.tasks[1].Event.(domain.ConfirmedEvent)
	require.True(t, ok, "second event must be ConfirmedEvent")
	assert.Equal(t, "25 минут", confirmed.EstimatedTime)
}

func TestCreate_AddsToAuthoritativeSet(t *testing.T) {
	store := &scriptedStore{updateFn: func(string, domain.OrderPatch) (domain.Order, error) {
		return domain.Order{}, nil
	}}
	book, cache, queue := seededOrchestrator(t, store)

	created, err := book.Create(context.Background(), domain.Order{
		ID:          "o2",
		OrderNumber: "1043",
		Status:      domain.OrderStatusPending,
		OrderType:   domain.OrderTypePickup,
		Items:       []domain.OrderItem{{ID: "i1", Name: "Лимонад", Qty: 1, PriceMinor: 9000}},
	})

	require.NoError(t, err)
	assert.Equal(t, "o2", created.ID)

	list := book.List()
	require.Len(t, list, 2)
	assert.Equal(t, "o2", list[1].ID, "new order is appended after existing ones")

	assert.Empty(t, queue.tasks, "creation has no prior status and fires no transition events")
	assert.Len(t, cache.saved, 1)
}

func TestCreate_RejectsInvalidOrder(t *testing.T) {
	store := &scriptedStore{updateFn: func(string, domain.OrderPatch) (domain.Order, error) {
		return domain.Order{}, nil
	}}
	book, cache, _ := seededOrchestrator(t, store)

	_, err := book.Create(context.Background(), domain.Order{ID: "", Status: "bogus"})

	require.Error(t, err)
	assert.Empty(t, cache.saved)
}

func TestListReturnsCopy(t *testing.T) {
	store := &scriptedStore{updateFn: func(string, domain.OrderPatch) (domain.Order, error) {
		return domain.Order{}, nil
	}}
	book, _, _ := seededOrchestrator(t, store)

	list := book.List()
	require.Len(t, list, 1)
	list[0].Status = domain.OrderStatusCancelled

	stored, err := book.Get("o1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, stored.Status, "mutating the listed copy must not leak inside")
}

func TestSeed_DropsDuplicateIDs(t *testing.T) {
	store := &scriptedStore{updateFn: func(string, domain.OrderPatch) (domain.Order, error) {
		return domain.Order{}, nil
	}}
	book, _, _ := seededOrchestrator(t, store)

	book.Seed([]domain.Order{
		{ID: "x", Status: domain.OrderStatusReady, OrderType: domain.OrderTypePickup},
		{ID: "x", Status: domain.OrderStatusPending, OrderType: domain.OrderTypePickup},
	})

	list := book.List()
	require.Len(t, list, 1)
	assert.Equal(t, domain.OrderStatusReady, list[0].Status, "first entry wins on duplicate seed")
}
