package app

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	cachememory "github.com/vladislavdragonenkov/storefront/internal/cache/memory"
	cacheredis "github.com/vladislavdragonenkov/storefront/internal/cache/redis"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/notify"
	notifykafka "github.com/vladislavdragonenkov/storefront/internal/notify/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// Dependencies содержит внешние коллабораторы конвейера синхронизации.
type Dependencies struct {
	Store      domain.RemoteOrderStore
	Cache      domain.LocalOrderCache
	Queue      domain.DispatchQueue
	Dispatcher domain.NotificationDispatcher
	Logger     *log.Entry

	pg          *postgres.Store
	redisClient *goredis.Client
	kafka       *notifykafka.Dispatcher
}

// NewDependencies собирает зависимости по конфигурации. Каждая внешняя
// подсистема опциональна: без DSN хранилище in-memory, без Redis кэш
// in-memory, без Kafka события уходят в лог.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		Queue:  memory.NewDispatchQueue(),
		Logger: logger,
	}

	if cfg.PostgresDSN != "" {
		pg, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		deps.pg = pg
		deps.Store = postgres.NewOrderStore(pg)
		logger.Info("postgres хранилище заказов инициализировано")
	} else {
		deps.Store = memory.NewOrderStore()
		logger.Warn("postgres DSN не задан, используется in-memory хранилище")
	}

	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		deps.redisClient = client
		deps.Cache = cacheredis.NewCache(client, logger.WithField("component", "redis-cache"),
			cacheredis.WithKey(cfg.CacheKey),
			cacheredis.WithTTL(cfg.CacheTTL),
		)
		logger.WithField("addr", cfg.RedisAddr).Info("redis кэш заказов инициализирован")
	} else {
		deps.Cache = cachememory.NewCache()
		logger.Warn("redis не задан, используется in-memory кэш")
	}

	if brokers := cfg.BrokerList(); len(brokers) > 0 {
		dispatcher, err := notifykafka.NewDispatcher(brokers, cfg.KafkaTopic)
		if err != nil {
			// Kafka опциональна: сервис продолжает работать на лог-диспетчере.
			logger.WithError(err).Warn("failed to create kafka dispatcher, falling back to log dispatcher")
		} else {
			deps.kafka = dispatcher
			deps.Dispatcher = dispatcher
			logger.WithField("brokers", brokers).Info("kafka диспетчер уведомлений инициализирован")
		}
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = notify.NewLogDispatcher(logger.WithField("component", "log-dispatcher"))
	}

	return deps, nil
}

// PingStore проверяет доступность durable-хранилища (для health check).
func (d *Dependencies) PingStore(ctx context.Context) error {
	if d.pg == nil {
		return nil
	}
	return d.pg.Ping(ctx)
}

// PingCache проверяет доступность Redis (для health check).
func (d *Dependencies) PingCache(ctx context.Context) error {
	if d.redisClient == nil {
		return nil
	}
	return d.redisClient.Ping(ctx).Err()
}

// Close освобождает внешние подключения.
func (d *Dependencies) Close() {
	if d.kafka != nil {
		if err := d.kafka.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close kafka dispatcher")
		}
	}
	if d.redisClient != nil {
		if err := d.redisClient.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close redis client")
		}
	}
	if d.pg != nil {
		if err := d.pg.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
