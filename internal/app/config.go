package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config описывает настройки запуска сервиса синхронизации заказов.
// Пустой адрес опциональной подсистемы (Postgres, Redis, Kafka) означает
// деградацию до in-memory/лог-реализации.
type Config struct {
	APIAddr     string
	MetricsAddr string

	PostgresDSN string
	RedisAddr   string
	// KafkaBrokers — список брокеров через запятую.
	KafkaBrokers string
	KafkaTopic   string

	CacheKey string
	CacheTTL time.Duration

	// EstimatedTime попадает в payload события order_confirmed.
	EstimatedTime string

	DispatchPollInterval time.Duration
	DispatchMaxAttempts  int
}

// DefaultConfig возвращает базовые значения для локального запуска.
func DefaultConfig() Config {
	return Config{
		APIAddr:              ":8080",
		MetricsAddr:          ":9090",
		CacheKey:             "storefront:orders",
		CacheTTL:             7 * 24 * time.Hour,
		EstimatedTime:        "30-40 минут",
		DispatchPollInterval: 500 * time.Millisecond,
		DispatchMaxAttempts:  1,
	}
}

// FromEnv накладывает переменные окружения на конфигурацию по умолчанию.
func FromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("STOREFRONT_API_ADDR"); v != "" {
		cfg.APIAddr = v
	}
	if v := os.Getenv("STOREFRONT_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("STOREFRONT_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("STOREFRONT_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("STOREFRONT_KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = v
	}
	if v := os.Getenv("STOREFRONT_KAFKA_TOPIC"); v != "" {
		cfg.KafkaTopic = v
	}
	if v := os.Getenv("STOREFRONT_CACHE_KEY"); v != "" {
		cfg.CacheKey = v
	}
	if v := os.Getenv("STOREFRONT_CACHE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = ttl
		}
	}
	if v := os.Getenv("STOREFRONT_ESTIMATED_TIME"); v != "" {
		cfg.EstimatedTime = v
	}
	if v := os.Getenv("STOREFRONT_DISPATCH_POLL_INTERVAL"); v != "" {
		if interval, err := time.ParseDuration(v); err == nil {
			cfg.DispatchPollInterval = interval
		}
	}
	if v := os.Getenv("STOREFRONT_DISPATCH_MAX_ATTEMPTS"); v != "" {
		if attempts, err := strconv.Atoi(v); err == nil && attempts > 0 {
			cfg.DispatchMaxAttempts = attempts
		}
	}
	return cfg
}

// BrokerList разбирает KafkaBrokers в срез адресов.
func (c Config) BrokerList() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}
