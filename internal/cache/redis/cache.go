package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultKey = "storefront:orders"
	// defaultTTL ограничивает время жизни зеркала: устаревший снимок
	// всё равно проиграет remote-записям при следующей реконсиляции.
	defaultTTL = 7 * 24 * time.Hour
)

// Cache хранит весь набор заказов одним JSON-снимком в Redis. Контракт
// LocalOrderCache: обе операции best-effort, ошибки логируются и гасятся.
type Cache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *log.Entry
}

// Option настраивает Cache.
type Option func(*Cache)

// WithKey задаёт ключ снимка.
func WithKey(key string) Option {
	return func(c *Cache) { c.key = key }
}

// WithTTL задаёт время жизни снимка; <=0 — без истечения.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// NewCache создаёт Redis-кэш поверх готового клиента.
func NewCache(client *redis.Client, logger *log.Entry, options ...Option) *Cache {
	if logger == nil {
		logger = log.WithField("component", "redis-cache")
	}
	c := &Cache{
		client: client,
		key:    defaultKey,
		ttl:    defaultTTL,
		logger: logger,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Load читает снимок; отсутствие ключа и любые ошибки дают пустой набор.
func (c *Cache) Load(ctx context.Context) []domain.Order {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).Warn("failed to load order cache snapshot")
		}
		return nil
	}

	var orders []domain.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		c.logger.WithError(err).Warn("order cache snapshot is corrupted, ignoring")
		return nil
	}
	return orders
}

// Save перезаписывает снимок целиком.
func (c *Cache) Save(ctx context.Context, orders []domain.Order) {
	raw, err := json.Marshal(orders)
	if err != nil {
		c.logger.WithError(err).Warn("failed to marshal order cache snapshot")
		return
	}

	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.key, raw, ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("failed to save order cache snapshot")
	}
}

var _ domain.LocalOrderCache = (*Cache)(nil)
