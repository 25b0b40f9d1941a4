package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/anmar534/loctah-sub000/internal/domain"
	"github.com/anmar534/loctah-sub000/internal/repository"
	"github.com/anmar534/loctah-sub000/pkg/database"
	apperrors "github.com/anmar534/loctah-sub000/pkg/errors"
)

// categoryTreeLock is the advisory lock key that serializes hierarchy
// mutations.
const categoryTreeLock int64 = 0x6361745f74726565

const listCategoriesSQL = `
	SELECT c.id, c.name, c.slug, c.parent_id, c.description, c.image_url,
	       c.sort_order, COUNT(p.product_id) AS product_count, c.created_at, c.updated_at
	FROM categories c
	LEFT JOIN catalog_products p ON p.category_id = c.id
	GROUP BY c.id
	ORDER BY c.sort_order, c.name`

// CategoryRepository implements repository.CategoryRepository on PostgreSQL.
type CategoryRepository struct {
	pool database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool database.DBTX) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// ListAll returns every category ordered by sort_order and name. Levels are
// left at zero; callers derive them from the parent chain.
func (r *CategoryRepository) ListAll(ctx context.Context) ([]domain.Category, error) {
	return listCategories(ctx, r.pool)
}

// Mutate runs fn inside a transaction holding the hierarchy advisory lock,
// with a snapshot read after the lock was taken.
func (r *CategoryRepository) Mutate(ctx context.Context, fn repository.MutateFunc) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, categoryTreeLock); err != nil {
			return fmt.Errorf("lock category tree: %w", err)
		}
		snapshot, err := listCategories(ctx, tx)
		if err != nil {
			return err
		}
		return fn(ctx, snapshot, &categoryWriter{db: tx})
	})
}

func listCategories(ctx context.Context, db database.DBTX) (_ []domain.Category, err error) {
	ctx, end := database.TraceQuery(ctx, "ListCategories", listCategoriesSQL)
	defer func() { end(err) }()

	rows, err := db.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Slug,
			&c.ParentID,
			&c.Description,
			&c.ImageURL,
			&c.SortOrder,
			&c.ProductCount,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return categories, nil
}

type categoryWriter struct {
	db database.DBTX
}

func (w *categoryWriter) Create(ctx context.Context, c *domain.Category) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := w.db.Exec(ctx, `
		INSERT INTO categories (id, name, slug, parent_id, description, image_url,
			sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID,
		c.Name,
		c.Slug,
		c.ParentID,
		c.Description,
		c.ImageURL,
		c.SortOrder,
		c.CreatedAt,
		c.UpdatedAt,
	)
	switch {
	case isUniqueViolation(err):
		return domain.Reject(domain.CodeDuplicateSlug, "slug %q is already in use", c.Slug)
	case isForeignKeyViolation(err):
		return domain.Reject(domain.CodeParentNotFound, "parent category does not exist")
	case err != nil:
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (w *categoryWriter) Update(ctx context.Context, c *domain.Category) error {
	c.UpdatedAt = time.Now().UTC()

	ct, err := w.db.Exec(ctx, `
		UPDATE categories
		SET name = $1, slug = $2, parent_id = $3, description = $4, image_url = $5,
		    sort_order = $6, updated_at = $7
		WHERE id = $8`,
		c.Name,
		c.Slug,
		c.ParentID,
		c.Description,
		c.ImageURL,
		c.SortOrder,
		c.UpdatedAt,
		c.ID,
	)
	switch {
	case isUniqueViolation(err):
		return domain.Reject(domain.CodeDuplicateSlug, "slug %q is already in use", c.Slug)
	case isForeignKeyViolation(err):
		return domain.Reject(domain.CodeParentNotFound, "parent category does not exist")
	case err != nil:
		return fmt.Errorf("update category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", c.ID)
	}
	return nil
}

func (w *categoryWriter) Delete(ctx context.Context, id string) error {
	ct, err := w.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return domain.Reject(domain.CodeHasChildren, "category %s still has subcategories", id)
	}
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", id)
	}
	return nil
}
