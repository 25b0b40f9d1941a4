package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/anmar534/loctah-sub000/internal/domain"
	"github.com/anmar534/loctah-sub000/internal/repository"
	apperrors "github.com/anmar534/loctah-sub000/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func strPtr(s string) *string { return &s }

// --- In-memory category repository ---

// memCategoryRepo applies a Mutate only when fn succeeds, like the
// transaction in the Postgres repository.
type memCategoryRepo struct {
	mu        sync.Mutex
	rows      []domain.Category
	listCalls int
	listErr   error
}

func (r *memCategoryRepo) ListAll(_ context.Context) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]domain.Category(nil), r.rows...), nil
}

func (r *memCategoryRepo) Mutate(ctx context.Context, fn repository.MutateFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := &memWriter{rows: append([]domain.Category(nil), r.rows...)}
	if err := fn(ctx, append([]domain.Category(nil), r.rows...), w); err != nil {
		return err
	}
	r.rows = w.rows
	return nil
}

// setProducts sets the projected product count of the category with slug.
func (r *memCategoryRepo) setProducts(slug string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].Slug == slug {
			r.rows[i].ProductCount = n
		}
	}
}

type memWriter struct {
	rows []domain.Category
}

func (w *memWriter) Create(_ context.Context, c *domain.Category) error {
	rec := *c
	rec.Level = 0
	w.rows = append(w.rows, rec)
	return nil
}

func (w *memWriter) Update(_ context.Context, c *domain.Category) error {
	for i := range w.rows {
		if w.rows[i].ID == c.ID {
			rec := *c
			rec.Level = 0
			rec.ProductCount = w.rows[i].ProductCount
			w.rows[i] = rec
			return nil
		}
	}
	return apperrors.NotFound("category", c.ID)
}

func (w *memWriter) Delete(_ context.Context, id string) error {
	for i := range w.rows {
		if w.rows[i].ID == id {
			w.rows = append(w.rows[:i], w.rows[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("category", id)
}

// --- Mocks ---

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context) ([]domain.Category, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]domain.Category), args.Bool(1), args.Error(2)
}

func (m *mockCache) Set(ctx context.Context, snapshot []domain.Category) error {
	return m.Called(ctx, snapshot).Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockCategoryEvents struct {
	mock.Mock
}

func (m *mockCategoryEvents) PublishCategoryCreated(ctx context.Context, c *domain.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCategoryEvents) PublishCategoryUpdated(ctx context.Context, c *domain.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCategoryEvents) PublishCategoryDeleted(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockOfferEvents struct {
	mock.Mock
}

func (m *mockOfferEvents) PublishOfferCreated(ctx context.Context, o *domain.Offer) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOfferEvents) PublishOfferUpdated(ctx context.Context, o *domain.Offer) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOfferEvents) PublishOfferDeleted(ctx context.Context, o *domain.Offer) error {
	return m.Called(ctx, o).Error(0)
}

type mockOfferRepo struct {
	mock.Mock
}

func (m *mockOfferRepo) Create(ctx context.Context, o *domain.Offer) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOfferRepo) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Offer), args.Error(1)
}

func (m *mockOfferRepo) List(ctx context.Context, filter repository.OfferFilter) ([]domain.Offer, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Offer), args.Int(1), args.Error(2)
}

func (m *mockOfferRepo) Update(ctx context.Context, o *domain.Offer) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOfferRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockStores struct {
	mock.Mock
}

func (m *mockStores) StoreOwner(ctx context.Context, storeID string) (string, error) {
	args := m.Called(ctx, storeID)
	return args.String(0), args.Error(1)
}

type mockProducts struct {
	mock.Mock
}

func (m *mockProducts) ProductExists(ctx context.Context, productID string) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}

type mockProjectionRepo struct {
	mock.Mock
}

func (m *mockProjectionRepo) Upsert(ctx context.Context, productID string, categoryID *string) error {
	return m.Called(ctx, productID, categoryID).Error(0)
}

func (m *mockProjectionRepo) Delete(ctx context.Context, productID string) error {
	return m.Called(ctx, productID).Error(0)
}

func (m *mockProjectionRepo) Exists(ctx context.Context, productID string) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}
