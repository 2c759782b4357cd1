package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// catalogRepository — read-only выборки каталога для листинга товаров.
type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository создаёт PostgreSQL-реализацию CatalogRepository.
func NewCatalogRepository(store *Store) domain.CatalogRepository {
	return &catalogRepository{db: store.DB()}
}

func (r *catalogRepository) ListProductsByCategory(ctx context.Context, categoryID string, limit, offset int) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE id = $1`, categoryID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %s: %w", categoryID, domain.ErrCategoryNotFound)
		}
		return nil, fmt.Errorf("select category: %w", err)
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category_id, store_id, name, description
		FROM products
		WHERE category_id = $1
		ORDER BY name ASC, id ASC
		LIMIT $2 OFFSET $3
	`, categoryID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	index := make(map[string]int)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.StoreID, &p.Name, &p.Description); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		index[p.ID] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	if len(products) == 0 {
		return products, nil
	}

	if err := r.attachVariants(ctx, products, index); err != nil {
		return nil, err
	}
	return products, nil
}

// attachVariants догружает варианты одним запросом с IN по id товаров.
func (r *catalogRepository) attachVariants(ctx context.Context, products []domain.Product, index map[string]int) error {
	placeholders, args := inPlaceholders(products)
	query := fmt.Sprintf(`
		SELECT pv.id, pv.product_id, p.store_id, p.name, pv.size, pv.color, pv.price_minor, pv.quantity
		FROM product_variants pv
		JOIN products p ON p.id = pv.product_id
		WHERE pv.product_id IN (%s)
		ORDER BY pv.product_id ASC, pv.id ASC
	`, placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("list product variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.StoreID, &v.Name, &v.Size, &v.Color, &v.PriceMinor, &v.Quantity); err != nil {
			return fmt.Errorf("scan product variant: %w", err)
		}
		if i, ok := index[v.ProductID]; ok {
			products[i].Variants = append(products[i].Variants, v)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate product variants: %w", err)
	}
	return nil
}

func inPlaceholders(products []domain.Product) (string, []any) {
	placeholders := ""
	args := make([]any, 0, len(products))
	for i, p := range products {
		if i > 0 {
			placeholders += ","
		}
		placeholders += fmt.Sprintf("$%d", i+1)
		args = append(args, p.ID)
	}
	return placeholders, args
}

var _ domain.CatalogRepository = (*catalogRepository)(nil)
