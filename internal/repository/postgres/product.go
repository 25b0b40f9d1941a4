package postgres

import (
	"context"
	"fmt"

	"github.com/anmar534/loctah-sub000/pkg/database"
)

// ProductProjectionRepository maintains catalog_products, the local copy of
// which category each product belongs to.
type ProductProjectionRepository struct {
	pool database.DBTX
}

// NewProductProjectionRepository creates a new PostgreSQL-backed projection.
func NewProductProjectionRepository(pool database.DBTX) *ProductProjectionRepository {
	return &ProductProjectionRepository{pool: pool}
}

// Upsert records productID under categoryID, which may be nil.
func (r *ProductProjectionRepository) Upsert(ctx context.Context, productID string, categoryID *string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO catalog_products (product_id, category_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (product_id)
		DO UPDATE SET category_id = EXCLUDED.category_id, updated_at = NOW()`,
		productID, categoryID,
	)
	if err != nil {
		return fmt.Errorf("upsert catalog product: %w", err)
	}
	return nil
}

// Delete forgets productID. Deleting an unknown product is not an error.
func (r *ProductProjectionRepository) Delete(ctx context.Context, productID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM catalog_products WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("delete catalog product: %w", err)
	}
	return nil
}

// Exists reports whether productID is in the projection.
func (r *ProductProjectionRepository) Exists(ctx context.Context, productID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM catalog_products WHERE product_id = $1)`, productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check catalog product: %w", err)
	}
	return exists, nil
}
