package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func seedCatalog() *CatalogRepository {
	repo := NewCatalogRepository()
	repo.SeedCategory("cat-1", "Одежда")
	repo.SeedProduct(domain.Product{ID: "prod-b", CategoryID: "cat-1", Name: "Худи"})
	repo.SeedProduct(domain.Product{ID: "prod-a", CategoryID: "cat-1", Name: "Футболка"})
	repo.SeedProduct(domain.Product{ID: "prod-c", CategoryID: "cat-2", Name: "Кроссовки"})
	return repo
}

func TestCatalogListByCategory(t *testing.T) {
	repo := seedCatalog()

	products, err := repo.ListProductsByCategory(context.Background(), "cat-1", 20, 0)
	if err != nil {
		t.Fatalf("ListProductsByCategory: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	// Отсортировано по имени.
	if products[0].ID != "prod-a" || products[1].ID != "prod-b" {
		t.Fatalf("unexpected order: %s, %s", products[0].ID, products[1].ID)
	}
}

func TestCatalogPagination(t *testing.T) {
	repo := seedCatalog()

	page, err := repo.ListProductsByCategory(context.Background(), "cat-1", 1, 1)
	if err != nil {
		t.Fatalf("ListProductsByCategory: %v", err)
	}
	if len(page) != 1 || page[0].ID != "prod-b" {
		t.Fatalf("unexpected page: %+v", page)
	}

	empty, err := repo.ListProductsByCategory(context.Background(), "cat-1", 10, 5)
	if err != nil {
		t.Fatalf("ListProductsByCategory: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty page, got %d", len(empty))
	}
}

func TestCatalogUnknownCategory(t *testing.T) {
	repo := seedCatalog()

	_, err := repo.ListProductsByCategory(context.Background(), "ghost", 20, 0)
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}
