// Package catalog отдаёт каталожный read-path с кэшем поверх хранилища.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const (
	// keyCategoryProducts — catalog:category:{id}:{limit}:{offset} -> JSON-список товаров.
	keyCategoryProducts = "catalog:category:%s:%d:%d"

	defaultCacheTTL = 5 * time.Minute
)

// Cache — минимальный контракт кэша: пустая строка без ошибки означает промах.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache реализует Cache поверх go-redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache оборачивает клиент Redis в контракт Cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Reader выполняет листинги каталога по схеме cache-aside: сбой кэша не
// ломает запрос, а лишь уводит его в хранилище.
type Reader struct {
	repo   domain.CatalogRepository
	cache  Cache
	ttl    time.Duration
	logger *log.Entry
}

// ReaderOption настраивает Reader.
type ReaderOption func(*Reader)

// WithCache включает кэширование ответов листинга.
func WithCache(cache Cache) ReaderOption {
	return func(r *Reader) {
		r.cache = cache
	}
}

// WithCacheTTL задаёт срок жизни закэшированного листинга.
func WithCacheTTL(ttl time.Duration) ReaderOption {
	return func(r *Reader) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// NewReader создаёт каталожный сервис.
func NewReader(repo domain.CatalogRepository, logger *log.Logger, opts ...ReaderOption) *Reader {
	if logger == nil {
		logger = log.New()
	}
	r := &Reader{
		repo:   repo,
		ttl:    defaultCacheTTL,
		logger: logger.WithField("component", "catalog_reader"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListProductsByCategory возвращает товары категории, по возможности из кэша.
func (r *Reader) ListProductsByCategory(ctx context.Context, categoryID string, limit, offset int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	key := fmt.Sprintf(keyCategoryProducts, categoryID, limit, offset)

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, key)
		if err != nil {
			r.logger.WithError(err).WithField("key", key).Warn("ошибка чтения кэша каталога")
		} else if cached != "" {
			var products []domain.Product
			if err := json.Unmarshal([]byte(cached), &products); err == nil {
				return products, nil
			}
			r.logger.WithField("key", key).Warn("повреждённая запись кэша каталога, идём в хранилище")
		}
	}

	products, err := r.repo.ListProductsByCategory(ctx, categoryID, limit, offset)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		payload, err := json.Marshal(products)
		if err == nil {
			if err := r.cache.Set(ctx, key, string(payload), r.ttl); err != nil {
				r.logger.WithError(err).WithField("key", key).Warn("ошибка записи кэша каталога")
			}
		}
	}
	return products, nil
}
