package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

type stubRepo struct {
	mu       sync.Mutex
	calls    int
	products []domain.Product
	err      error
}

func (s *stubRepo) ListProductsByCategory(ctx context.Context, categoryID string, limit, offset int) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

func (s *stubRepo) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type mapCache struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
}

func newMapCache() *mapCache {
	return &mapCache{values: make(map[string]string)}
}

func (c *mapCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", c.getErr
	}
	return c.values[key], nil
}

func (c *mapCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func sampleProducts() []domain.Product {
	return []domain.Product{
		{
			ID:         "prod-1",
			CategoryID: "cat-1",
			StoreID:    "store-1",
			Name:       "Футболка",
			Variants: []domain.ProductVariant{
				{ID: "var-1", ProductID: "prod-1", StoreID: "store-1", Name: "Футболка", Size: "M", PriceMinor: 1500, Quantity: 5},
			},
		},
	}
}

func TestReaderCacheMissThenHit(t *testing.T) {
	repo := &stubRepo{products: sampleProducts()}
	cache := newMapCache()
	reader := NewReader(repo, nil, WithCache(cache))

	first, err := reader.ListProductsByCategory(context.Background(), "cat-1", 20, 0)
	if err != nil {
		t.Fatalf("ListProductsByCategory: %v", err)
	}
	if len(first) != 1 || first[0].ID != "prod-1" {
		t.Fatalf("unexpected products: %+v", first)
	}
	if repo.callCount() != 1 {
		t.Fatalf("expected 1 repo call, got %d", repo.callCount())
	}

	second, err := reader.ListProductsByCategory(context.Background(), "cat-1", 20, 0)
	if err != nil {
		t.Fatalf("ListProductsByCategory from cache: %v", err)
	}
	if repo.callCount() != 1 {
		t.Fatalf("cache hit must not touch repo, got %d calls", repo.callCount())
	}
	if len(second) != 1 || len(second[0].Variants) != 1 {
		t.Fatalf("cached products lost data: %+v", second)
	}
}

func TestReaderDistinctPagesCachedSeparately(t *testing.T) {
	repo := &stubRepo{products: sampleProducts()}
	cache := newMapCache()
	reader := NewReader(repo, nil, WithCache(cache))

	if _, err := reader.ListProductsByCategory(context.Background(), "cat-1", 10, 0); err != nil {
		t.Fatalf("first page: %v", err)
	}
	if _, err := reader.ListProductsByCategory(context.Background(), "cat-1", 10, 10); err != nil {
		t.Fatalf("second page: %v", err)
	}
	if repo.callCount() != 2 {
		t.Fatalf("expected 2 repo calls for distinct pages, got %d", repo.callCount())
	}
}

func TestReaderCacheErrorFallsThrough(t *testing.T) {
	repo := &stubRepo{products: sampleProducts()}
	cache := newMapCache()
	cache.getErr = errors.New("redis down")
	reader := NewReader(repo, nil, WithCache(cache))

	products, err := reader.ListProductsByCategory(context.Background(), "cat-1", 20, 0)
	if err != nil {
		t.Fatalf("cache failure must not fail the request: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("unexpected products: %+v", products)
	}
}

func TestReaderWithoutCache(t *testing.T) {
	repo := &stubRepo{products: sampleProducts()}
	reader := NewReader(repo, nil)

	if _, err := reader.ListProductsByCategory(context.Background(), "cat-1", 20, 0); err != nil {
		t.Fatalf("ListProductsByCategory: %v", err)
	}
	if _, err := reader.ListProductsByCategory(context.Background(), "cat-1", 20, 0); err != nil {
		t.Fatalf("ListProductsByCategory: %v", err)
	}
	if repo.callCount() != 2 {
		t.Fatalf("without cache every call hits repo, got %d", repo.callCount())
	}
}

func TestReaderPropagatesRepoError(t *testing.T) {
	repo := &stubRepo{err: domain.ErrCategoryNotFound}
	reader := NewReader(repo, nil, WithCache(newMapCache()))

	_, err := reader.ListProductsByCategory(context.Background(), "missing", 20, 0)
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}
