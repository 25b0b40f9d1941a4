package repository

import (
	"context"
	"time"

	"github.com/anmar534/loctah-sub000/internal/domain"
)

// CategoryWriter persists single category changes. It is only handed out
// inside CategoryRepository.Mutate.
type CategoryWriter interface {
	// Create inserts c and sets its timestamps.
	Create(ctx context.Context, c *domain.Category) error

	// Update overwrites the stored fields of c and refreshes UpdatedAt.
	Update(ctx context.Context, c *domain.Category) error

	// Delete removes the category. It fails if children or products still
	// reference it.
	Delete(ctx context.Context, id string) error
}

// MutateFunc validates against snapshot and writes through w.
type MutateFunc func(ctx context.Context, snapshot []domain.Category, w CategoryWriter) error

// CategoryRepository reads the hierarchy and serializes changes to it.
type CategoryRepository interface {
	// ListAll returns every category with its product count.
	ListAll(ctx context.Context) ([]domain.Category, error)

	// Mutate takes the hierarchy lock, reads a fresh snapshot and runs fn in
	// one transaction. Concurrent mutations never validate against the same
	// snapshot.
	Mutate(ctx context.Context, fn MutateFunc) error
}

// OfferFilter narrows an offer listing. Status is one of the offer statuses
// and is evaluated at Now.
type OfferFilter struct {
	StoreID   *string
	ProductID *string
	Status    *string
	Now       time.Time
	Page      int
	PerPage   int
}

// OfferRepository persists offers.
type OfferRepository interface {
	Create(ctx context.Context, o *domain.Offer) error
	GetByID(ctx context.Context, id string) (*domain.Offer, error)
	List(ctx context.Context, filter OfferFilter) ([]domain.Offer, int, error)
	Update(ctx context.Context, o *domain.Offer) error
	Delete(ctx context.Context, id string) error
}

// StoreRepository reads stores. Stores are owned by another service.
type StoreRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Store, error)
	StoreOwner(ctx context.Context, id string) (string, error)
}

// ProductProjectionRepository maintains the local copy of product to
// category assignments.
type ProductProjectionRepository interface {
	Upsert(ctx context.Context, productID string, categoryID *string) error
	Delete(ctx context.Context, productID string) error
	Exists(ctx context.Context, productID string) (bool, error)
}

// CategoryCache holds the last category snapshot for reads. Mutations never
// read from it.
type CategoryCache interface {
	// Get returns the cached snapshot; ok is false on a miss.
	Get(ctx context.Context) (snapshot []domain.Category, ok bool, err error)
	Set(ctx context.Context, snapshot []domain.Category) error
	Invalidate(ctx context.Context) error
}
