package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// CatalogRepository — in-memory каталог для тестов и локального запуска.
type CatalogRepository struct {
	mu         sync.Mutex
	categories map[string]string
	products   map[string]domain.Product
}

// NewCatalogRepository возвращает пустой каталог.
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		categories: make(map[string]string),
		products:   make(map[string]domain.Product),
	}
}

// SeedCategory добавляет категорию.
func (r *CatalogRepository) SeedCategory(id, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[id] = name
}

// SeedProduct добавляет товар вместе с вариантами.
func (r *CatalogRepository) SeedProduct(p domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

func (r *CatalogRepository) ListProductsByCategory(ctx context.Context, categoryID string, limit, offset int) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[categoryID]; !ok {
		return nil, fmt.Errorf("category %s: %w", categoryID, domain.ErrCategoryNotFound)
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	matched := make([]domain.Product, 0)
	for _, p := range r.products {
		if p.CategoryID == categoryID {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	if offset >= len(matched) {
		return []domain.Product{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

var _ domain.CatalogRepository = (*CatalogRepository)(nil)
