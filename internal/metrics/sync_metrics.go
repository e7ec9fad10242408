package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics содержит метрики конвейера синхронизации заказов.
type SyncMetrics struct {
	reconcileRuns     prometheus.Counter
	reconcileDegraded prometheus.Counter
	reconcileDuration prometheus.Histogram

	updates          *prometheus.CounterVec
	transitionEvents *prometheus.CounterVec
	cacheSaves       prometheus.Counter
	dispatchEnqueued prometheus.Counter
}

// NewSyncMetrics создаёт метрики на default registerer.
func NewSyncMetrics() *SyncMetrics {
	return newSyncMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newSyncMetricsWithRegisterer(registerer prometheus.Registerer) *SyncMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &SyncMetrics{
		reconcileRuns: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_reconcile_runs_total",
			Help: "Total number of reconciliation runs",
		}),
		reconcileDegraded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_reconcile_degraded_total",
			Help: "Reconciliation runs that fell back to cache-only data",
		}),
		reconcileDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "storefront_reconcile_duration_seconds",
			Help:    "Duration of reconciliation runs in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		updates: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_order_updates_total",
			Help: "Order updates grouped by result",
		}, []string{"result"}),
		transitionEvents: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_transition_events_total",
			Help: "Automation events produced by the transition policy",
		}, []string{"event"}),
		cacheSaves: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_cache_saves_total",
			Help: "Total number of local cache writebacks",
		}),
		dispatchEnqueued: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_dispatch_enqueued_total",
			Help: "Automation events placed on the dispatch queue",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordReconcileRun увеличивает счётчик запусков реконсиляции.
func (m *SyncMetrics) RecordReconcileRun() {
	m.reconcileRuns.Inc()
}

// RecordReconcileDegraded отмечает деградацию до cache-only.
func (m *SyncMetrics) RecordReconcileDegraded() {
	m.reconcileDegraded.Inc()
}

// RecordReconcileDuration записывает длительность реконсиляции.
func (m *SyncMetrics) RecordReconcileDuration(d time.Duration) {
	m.reconcileDuration.Observe(d.Seconds())
}

// RecordUpdate отмечает результат обновления заказа.
func (m *SyncMetrics) RecordUpdate(result string) {
	m.updates.WithLabelValues(result).Inc()
}

// RecordTransitionEvent отмечает событие, порождённое политикой переходов.
func (m *SyncMetrics) RecordTransitionEvent(event string) {
	m.transitionEvents.WithLabelValues(event).Inc()
}

// RecordCacheSave увеличивает счётчик записей локального кэша.
func (m *SyncMetrics) RecordCacheSave() {
	m.cacheSaves.Inc()
}

// RecordDispatchEnqueued увеличивает счётчик постановок в очередь доставки.
func (m *SyncMetrics) RecordDispatchEnqueued() {
	m.dispatchEnqueued.Inc()
}
