package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultBatchSize    = 64
	// Ядро не повторяет доставку уведомлений: одна попытка по умолчанию,
	// большее число попыток — осознанный выбор конфигурации.
	defaultMaxAttempts    = 1
	defaultRetryBaseDelay = 50 * time.Millisecond
)

var (
	dispatchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_dispatch_attempts_total",
		Help: "Notification dispatch attempts grouped by result.",
	}, []string{"result"})
	dispatchPendingTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_dispatch_pending_tasks",
		Help: "Current number of pending tasks in the dispatch queue.",
	})
	dispatchOldestPendingAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_dispatch_oldest_pending_age_seconds",
		Help: "Age in seconds of the oldest pending dispatch task.",
	})
)

// WorkerOptions задаёт параметры воркера доставки уведомлений.
type WorkerOptions struct {
	Logger         *log.Entry
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// Option настраивает Worker.
type Option func(*WorkerOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *WorkerOptions) { opts.Logger = logger }
}

// WithPollInterval задаёт частоту опроса очереди.
func WithPollInterval(interval time.Duration) Option {
	return func(opts *WorkerOptions) { opts.PollInterval = interval }
}

// WithBatchSize задаёт размер батча из очереди.
func WithBatchSize(batchSize int) Option {
	return func(opts *WorkerOptions) { opts.BatchSize = batchSize }
}

// WithMaxAttempts задаёт число попыток доставки до записи в журнал сбоев.
func WithMaxAttempts(maxAttempts int) Option {
	return func(opts *WorkerOptions) { opts.MaxAttempts = maxAttempts }
}

// WithRetryBaseDelay задаёт базовый delay для exponential backoff.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(opts *WorkerOptions) { opts.RetryBaseDelay = delay }
}

// Worker снимает события с очереди и передаёт их диспетчеру уведомлений.
// Доставка best-effort: критический путь обновления заказа не ждёт её
// исхода, терминальные сбои попадают в FailureLog.
type Worker struct {
	queue          domain.DispatchQueue
	dispatcher     domain.NotificationDispatcher
	failures       *FailureLog
	logger         *log.Entry
	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration
}

// NewWorker создаёт воркер доставки.
func NewWorker(queue domain.DispatchQueue, dispatcher domain.NotificationDispatcher, failures *FailureLog, options ...Option) *Worker {
	opts := WorkerOptions{
		PollInterval:   defaultPollInterval,
		BatchSize:      defaultBatchSize,
		MaxAttempts:    defaultMaxAttempts,
		RetryBaseDelay: defaultRetryBaseDelay,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "dispatch-worker")
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryBaseDelay < 0 {
		opts.RetryBaseDelay = 0
	}
	if failures == nil {
		failures = NewFailureLog(0)
	}

	return &Worker{
		queue:          queue,
		dispatcher:     dispatcher,
		failures:       failures,
		logger:         logger,
		pollInterval:   opts.PollInterval,
		batchSize:      opts.BatchSize,
		maxAttempts:    opts.MaxAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
	}
}

// Failures возвращает журнал терминальных сбоев доставки.
func (w *Worker) Failures() *FailureLog {
	return w.failures
}

// Run запускает периодический опрос очереди до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.queue == nil || w.dispatcher == nil {
		w.logger.Warn("dispatch worker is disabled: queue or dispatcher is nil")
		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce выполняет один цикл: снять батч, доставить, отметить исходы.
func (w *Worker) ProcessOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	w.refreshBacklogMetrics()

	tasks, err := w.queue.PullPending(w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending dispatch tasks")
		return
	}
	if len(tasks) == 0 {
		return
	}

	for _, task := range tasks {
		if ctx.Err() != nil {
			return
		}

		if err := w.dispatchWithRetry(ctx, task); err != nil {
			w.logger.WithError(err).WithFields(log.Fields{
				"task_id": task.ID,
				"event":   task.Event.Name(),
			}).Error("notification dispatch failed")
			dispatchAttempts.WithLabelValues("failed").Inc()

			w.failures.Record(Failure{
				TaskID:   task.ID,
				Event:    task.Event.Name(),
				OrderID:  task.Event.Context().OrderID,
				Error:    err.Error(),
				FailedAt: time.Now().UTC(),
			})
			if markErr := w.queue.MarkFailed(task.ID); markErr != nil {
				w.logger.WithError(markErr).WithField("task_id", task.ID).Warn("failed to mark task as failed")
			}
			continue
		}

		if err := w.queue.MarkSent(task.ID); err != nil {
			w.logger.WithError(err).WithField("task_id", task.ID).Warn("failed to mark task as sent")
		}
	}

	w.refreshBacklogMetrics()
}

func (w *Worker) dispatchWithRetry(ctx context.Context, task domain.DispatchTask) error {
	var lastErr error

	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.dispatcher.Trigger(ctx, task.Event)
		if err == nil {
			dispatchAttempts.WithLabelValues("sent").Inc()
			return nil
		}
		lastErr = err
		dispatchAttempts.WithLabelValues("retry_error").Inc()

		if attempt >= w.maxAttempts {
			break
		}

		delay := w.retryBackoff(attempt)
		if delay <= 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("dispatch failed after %d attempts: %w", w.maxAttempts, lastErr)
}

func (w *Worker) refreshBacklogMetrics() {
	stats, err := w.queue.Stats()
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect dispatch backlog stats")
		return
	}

	dispatchPendingTasks.Set(float64(stats.PendingCount))
	if stats.PendingCount == 0 || stats.OldestPendingAt.IsZero() {
		dispatchOldestPendingAge.Set(0)
		return
	}

	age := time.Since(stats.OldestPendingAt).Seconds()
	if age < 0 {
		age = 0
	}
	dispatchOldestPendingAge.Set(age)
}

func (w *Worker) retryBackoff(attempt int) time.Duration {
	if w.retryBaseDelay <= 0 {
		return 0
	}

	delay := w.retryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}
