package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	apihttp "github.com/vladislavdragonenkov/storefront/internal/api/http"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/dispatch"
	"github.com/vladislavdragonenkov/storefront/internal/service/sync"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

// Run поднимает конвейер синхронизации заказов и HTTP-поверхности и
// блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	syncMetrics := metrics.NewSyncMetrics()

	// Стартовая реконсиляция: remote + cache → авторитетный набор.
	reconciler := sync.NewReconciler(deps.Store, deps.Cache, logger.WithField("component", "reconciler"), syncMetrics)
	orders := reconciler.Load(ctx, "")

	book := sync.NewOrchestrator(
		deps.Store,
		deps.Cache,
		deps.Queue,
		logger.WithField("component", "orchestrator"),
		sync.WithMetrics(syncMetrics),
		sync.WithEstimatedTime(cfg.EstimatedTime),
	)
	book.Seed(orders)
	// Слитый набор сразу возвращается в кэш для офлайн-континуитета.
	deps.Cache.Save(ctx, orders)

	worker := dispatch.NewWorker(deps.Queue, deps.Dispatcher, dispatch.NewFailureLog(0),
		dispatch.WithLogger(logger.WithField("component", "dispatch-worker")),
		dispatch.WithPollInterval(cfg.DispatchPollInterval),
		dispatch.WithMaxAttempts(cfg.DispatchMaxAttempts),
	)
	go worker.Run(ctx)

	healthHandler := healthcheck.NewHandler(version.String())
	healthHandler.Register("store", func() error {
		checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return deps.PingStore(checkCtx)
	})
	healthHandler.Register("cache", func() error {
		checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return deps.PingCache(checkCtx)
	})

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiMux := http.NewServeMux()
	apihttp.NewHandler(book, logger.WithField("component", "http-api")).Register(apiMux)
	apiSrv := &http.Server{Addr: cfg.APIAddr, Handler: apiMux}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("API сервер слушает %s", cfg.APIAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем сервис")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		// Последний шанс добросить накопленные уведомления.
		drainCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		worker.ProcessOnce(drainCtx)
		cancel()
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчики /metrics и health probes.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
