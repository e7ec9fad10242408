package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Orchestrator владеет авторитетным набором заказов в памяти и является его
// единственным мутатором. Наружу набор виден только через Get/List/
// ApplyUpdate, сырой срез не отдаётся.
type Orchestrator struct {
	mu     stdsync.Mutex
	orders []domain.Order
	index  map[string]int

	store   domain.RemoteOrderStore
	cache   domain.LocalOrderCache
	queue   domain.DispatchQueue
	logger  *log.Entry
	metrics *metrics.SyncMetrics

	// estimatedTime — настроенная оценка приготовления, попадает в
	// payload события order_confirmed.
	estimatedTime string
}

// Option настраивает Orchestrator.
type Option func(*Orchestrator)

// WithMetrics подключает метрики конвейера.
func WithMetrics(m *metrics.SyncMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithEstimatedTime задаёт оценку времени приготовления для уведомлений.
func WithEstimatedTime(estimate string) Option {
	return func(o *Orchestrator) { o.estimatedTime = estimate }
}

// NewOrchestrator создаёт оркестратор обновлений заказов.
func NewOrchestrator(
	store domain.RemoteOrderStore,
	cache domain.LocalOrderCache,
	queue domain.DispatchQueue,
	logger *log.Entry,
	options ...Option,
) *Orchestrator {
	if logger == nil {
		logger = log.WithField("component", "orchestrator")
	}
	o := &Orchestrator{
		index:  make(map[string]int),
		store:  store,
		cache:  cache,
		queue:  queue,
		logger: logger,
	}
	for _, option := range options {
		option(o)
	}
	return o
}

// Seed заменяет авторитетный набор результатом реконсиляции. Вызывается
// один раз на старте, до приёма обновлений.
func (o *Orchestrator) Seed(orders []domain.Order) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.orders = make([]domain.Order, 0, len(orders))
	o.index = make(map[string]int, len(orders))
	for _, order := range orders {
		if _, dup := o.index[order.ID]; dup {
			continue
		}
		o.index[order.ID] = len(o.orders)
		o.orders = append(o.orders, order)
	}
}

// Get возвращает заказ из авторитетного набора.
func (o *Orchestrator) Get(id string) (domain.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	idx, ok := o.index[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o.orders[idx], nil
}

// List возвращает копию авторитетного набора в его текущем порядке.
func (o *Orchestrator) List() []domain.Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() []domain.Order {
	snapshot := make([]domain.Order, len(o.orders))
	copy(snapshot, o.orders)
	return snapshot
}

// Create сохраняет новый заказ в хранилище и добавляет его в авторитетный
// набор. Политика переходов не вызывается: у нового заказа нет прежнего
// статуса.
func (o *Orchestrator) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, fmt.Errorf("order %s is invalid: %v", order.ID, errs)
	}

	created, err := o.store.Create(ctx, order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	o.mu.Lock()
	if _, exists := o.index[created.ID]; !exists {
		o.index[created.ID] = len(o.orders)
		o.orders = append(o.orders, created)
	}
	snapshot := o.snapshotLocked()
	o.mu.Unlock()

	o.saveCache(ctx, snapshot)
	o.logger.WithFields(log.Fields{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
	}).Info("заказ создан")
	return created, nil
}

// ApplyUpdate применяет частичное обновление к одному заказу.
//
// Последовательность фиксирована: проверка наличия, оптимистичное
// применение в память, durable-запись (store-wins при успехе, оптимизм
// сохраняется при сбое), детекция перехода по статусу, снятому до любой
// точки приостановки, и безусловная запись всего набора в локальный кэш.
// Откатов и повторов нет; сериализация повторных обновлений одного заказа —
// забота вызывающего.
func (o *Orchestrator) ApplyUpdate(ctx context.Context, orderID string, patch domain.OrderPatch) (domain.Order, error) {
	o.mu.Lock()
	idx, ok := o.index[orderID]
	if !ok {
		o.mu.Unlock()
		if o.metrics != nil {
			o.metrics.RecordUpdate("not_found")
		}
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}

	before := o.orders[idx]
	merged := patch.ApplyTo(before)
	merged.UpdatedAt = time.Now().UTC()
	o.orders[idx] = merged
	o.mu.Unlock()

	final := merged
	var updateErr error

	row, err := o.store.Update(ctx, orderID, patch)
	if err != nil {
		// Оптимистичная запись остаётся: доступность UI-состояния важнее
		// строгой консистентности численно на этом пути.
		updateErr = &domain.UpdateFailedError{OrderID: orderID, Cause: err}
		o.logger.WithError(err).WithField("order_id", orderID).Warn("durable write failed, keeping optimistic record")
		if o.metrics != nil {
			o.metrics.RecordUpdate("write_failed")
		}
	} else {
		final = row
		o.mu.Lock()
		if idx, ok := o.index[orderID]; ok {
			o.orders[idx] = row
		}
		o.mu.Unlock()
		if o.metrics != nil {
			o.metrics.RecordUpdate("ok")
		}
	}

	if before.Status != final.Status {
		o.emitTransition(before.Status, final.Status, final)
	}

	o.saveCache(ctx, o.List())

	return final, updateErr
}

// emitTransition прогоняет политику переходов и ставит события в очередь
// доставки. Сбои очереди не фатальны для обновления.
func (o *Orchestrator) emitTransition(oldStatus, newStatus domain.OrderStatus, order domain.Order) {
	ectx := domain.EventContext{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		TotalMinor:    order.TotalMinor,
		CustomerName:  order.CustomerName,
		UserID:        order.UserID,
		EstimatedTime: o.estimatedTime,
	}

	for _, event := range TransitionEvents(oldStatus, newStatus, ectx) {
		if o.metrics != nil {
			o.metrics.RecordTransitionEvent(string(event.Name()))
		}
		task := domain.DispatchTask{
			ID:         uuid.NewString(),
			Event:      event,
			EnqueuedAt: time.Now().UTC(),
		}
		if _, err := o.queue.Enqueue(task); err != nil {
			o.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"event":    event.Name(),
			}).Warn("failed to enqueue automation event")
			continue
		}
		if o.metrics != nil {
			o.metrics.RecordDispatchEnqueued()
		}
	}

	o.logger.WithFields(log.Fields{
		"order_id":   order.ID,
		"old_status": oldStatus,
		"new_status": newStatus,
	}).Info("статус заказа изменён")
}

func (o *Orchestrator) saveCache(ctx context.Context, orders []domain.Order) {
	o.cache.Save(ctx, orders)
	if o.metrics != nil {
		o.metrics.RecordCacheSave()
	}
}
