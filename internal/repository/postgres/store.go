package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/anmar534/loctah-sub000/internal/domain"
	"github.com/anmar534/loctah-sub000/pkg/database"
	apperrors "github.com/anmar534/loctah-sub000/pkg/errors"
)

// StoreRepository reads the stores table. It also serves as the offer
// guard's store directory.
type StoreRepository struct {
	pool database.DBTX
}

// NewStoreRepository creates a new PostgreSQL-backed store repository.
func NewStoreRepository(pool database.DBTX) *StoreRepository {
	return &StoreRepository{pool: pool}
}

// GetByID returns the store or an error matching apperrors.ErrNotFound.
func (r *StoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	var s domain.Store
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_user_id, name FROM stores WHERE id = $1`, id,
	).Scan(&s.ID, &s.OwnerUserID, &s.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("store", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}
	return &s, nil
}

// StoreOwner returns the owning user id of store id.
func (r *StoreRepository) StoreOwner(ctx context.Context, id string) (string, error) {
	var owner string
	err := r.pool.QueryRow(ctx, `SELECT owner_user_id FROM stores WHERE id = $1`, id).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.NotFound("store", id)
	}
	if err != nil {
		return "", fmt.Errorf("get store owner: %w", err)
	}
	return owner, nil
}
