package sync

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Merge сливает заказы из удалённого хранилища и локального кэша в один
// авторитетный набор. Правила: remote-записи идут первыми в исходном
// порядке, local-only добавляются следом в своём порядке, дубликаты по ID
// схлопываются в пользу remote целиком, без слияния отдельных полей.
// Пересортировки по времени нет — порядок источников сохраняется.
// Входные срезы не мутируются.
func Merge(remote, local []domain.Order) []domain.Order {
	merged := make([]domain.Order, 0, len(remote)+len(local))
	seen := make(map[string]struct{}, len(remote))

	for _, order := range remote {
		if _, dup := seen[order.ID]; dup {
			// Дубликат внутри самого remote-набора: первая запись побеждает.
			continue
		}
		seen[order.ID] = struct{}{}
		merged = append(merged, order)
	}

	for _, order := range local {
		if _, exists := seen[order.ID]; exists {
			continue
		}
		seen[order.ID] = struct{}{}
		merged = append(merged, order)
	}

	return merged
}

// Reconciler строит авторитетный набор заказов на старте приложения.
type Reconciler struct {
	store   domain.RemoteOrderStore
	cache   domain.LocalOrderCache
	logger  *log.Entry
	metrics *metrics.SyncMetrics
}

// NewReconciler создаёт реконсилятор. metrics может быть nil (тесты).
func NewReconciler(store domain.RemoteOrderStore, cache domain.LocalOrderCache, logger *log.Entry, m *metrics.SyncMetrics) *Reconciler {
	if logger == nil {
		logger = log.WithField("component", "reconciler")
	}
	return &Reconciler{store: store, cache: cache, logger: logger, metrics: m}
}

// Load запрашивает заказы из хранилища и кэша и возвращает слитый набор.
// Сбой удалённого запроса не является ошибкой: набор деградирует до
// cache-only. Сохранение результата обратно в кэш — забота вызывающего.
func (r *Reconciler) Load(ctx context.Context, userID string) []domain.Order {
	start := time.Now()
	if r.metrics != nil {
		r.metrics.RecordReconcileRun()
		defer func() {
			r.metrics.RecordReconcileDuration(time.Since(start))
		}()
	}

	local := r.cache.Load(ctx)

	remote, err := r.store.Query(ctx, domain.OrderQuery{UserID: userID})
	if err != nil {
		r.logger.WithError(err).Warn("remote query failed, serving cache-only orders")
		if r.metrics != nil {
			r.metrics.RecordReconcileDegraded()
		}
		remote = nil
	}

	merged := Merge(remote, local)
	r.logger.WithFields(log.Fields{
		"remote": len(remote),
		"local":  len(local),
		"merged": len(merged),
	}).Info("order reconciliation completed")

	return merged
}
