package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config — настройки запуска сервиса; читаются из переменных окружения.
type Config struct {
	HTTPAddr    string `env:"CHECKOUT_HTTP_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"CHECKOUT_METRICS_ADDR" envDefault:":9090"`

	// PostgresDSN пустой — работаем на in-memory хранилище (dev/demo режим).
	PostgresDSN string `env:"CHECKOUT_POSTGRES_DSN"`
	// RedisAddr пустой — каталог отдаётся без кэша.
	RedisAddr string `env:"CHECKOUT_REDIS_ADDR"`
	// KafkaBrokers пустой — уведомления уходят в лог вместо брокера.
	KafkaBrokers []string `env:"CHECKOUT_KAFKA_BROKERS" envSeparator:","`

	LockTimeout    time.Duration `env:"CHECKOUT_LOCK_TIMEOUT" envDefault:"2s"`
	ConfirmLatency time.Duration `env:"CHECKOUT_CONFIRM_LATENCY" envDefault:"1s"`
	CatalogTTL     time.Duration `env:"CHECKOUT_CATALOG_CACHE_TTL" envDefault:"5m"`

	LogLevel  string `env:"CHECKOUT_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"CHECKOUT_LOG_FORMAT" envDefault:"text"`
}

// LoadConfig парсит конфигурацию из окружения.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig возвращает конфигурацию по умолчанию (для тестов и dev-запуска).
func DefaultConfig() Config {
	return Config{
		HTTPAddr:       ":8080",
		MetricsAddr:    ":9090",
		LockTimeout:    2 * time.Second,
		ConfirmLatency: time.Second,
		CatalogTTL:     5 * time.Minute,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}
