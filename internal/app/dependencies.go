package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/checkout/internal/service/catalog"
	"github.com/vladislavdragonenkov/checkout/internal/service/notification"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
	"github.com/vladislavdragonenkov/checkout/internal/storage/postgres"
)

// Dependencies — собранные зависимости сервиса. Какие из них реальные,
// а какие in-memory, решает конфигурация: пустой DSN означает dev-режим.
type Dependencies struct {
	Store       *postgres.Store
	Ledger      domain.Ledger
	CatalogRepo domain.CatalogRepository
	Catalog     *catalog.Reader
	Redis       *redis.Client
	Kafka       *kafka.Producer
	Notifier    domain.NotificationDispatcher

	// dispatcher не nil, только когда уведомления идут через очередь.
	dispatcher *notification.Dispatcher
	logger     *log.Entry
}

// NewDependencies строит зависимости по конфигурации.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}
	deps := &Dependencies{logger: logger}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply schema migrations: %w", err)
		}
		deps.Store = store
		deps.Ledger = postgres.NewLedger(store, postgres.WithLockTimeout(cfg.LockTimeout))
		deps.CatalogRepo = postgres.NewCatalogRepository(store)
		logger.Info("хранилище: postgres")
	} else {
		deps.Ledger = memory.NewLedger()
		deps.CatalogRepo = memory.NewCatalogRepository()
		logger.Warn("хранилище: in-memory, данные не переживут рестарт")
	}

	if cfg.RedisAddr != "" {
		deps.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis недоступен, каталог работает без кэша")
			_ = deps.Redis.Close()
			deps.Redis = nil
		}
	}

	catalogOpts := []catalog.ReaderOption{catalog.WithCacheTTL(cfg.CatalogTTL)}
	if deps.Redis != nil {
		catalogOpts = append(catalogOpts, catalog.WithCache(catalog.NewRedisCache(deps.Redis)))
	}
	deps.Catalog = catalog.NewReader(deps.CatalogRepo, log.StandardLogger(), catalogOpts...)

	if producer := initKafkaProducer(cfg.KafkaBrokers, logger); producer != nil {
		deps.Kafka = producer
		dispatcher := notification.NewDispatcher(
			notification.NewKafkaPublisher(producer),
			notification.WithLogger(logger.WithField("component", "notification")),
		)
		deps.dispatcher = dispatcher
		deps.Notifier = dispatcher
	} else {
		deps.Notifier = notification.NewLogDispatcher(logger.WithField("component", "notification"))
	}

	return deps, nil
}

// StartNotifier запускает фоновую доставку уведомлений, когда она очередная.
func (d *Dependencies) StartNotifier(ctx context.Context) {
	if d.dispatcher != nil {
		d.dispatcher.Start(ctx)
	}
}

// Close освобождает внешние подключения в обратном порядке инициализации.
func (d *Dependencies) Close() {
	if d.dispatcher != nil {
		d.dispatcher.Wait()
	}
	closeKafka(d.Kafka, d.logger)
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.logger.WithError(err).Warn("ошибка закрытия redis")
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.logger.WithError(err).Warn("ошибка закрытия postgres")
		}
	}
}
