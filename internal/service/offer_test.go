package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anmar534/loctah-sub000/internal/domain"
	"github.com/anmar534/loctah-sub000/internal/offer"
	"github.com/anmar534/loctah-sub000/internal/repository"
	"github.com/anmar534/loctah-sub000/pkg/clock"
	apperrors "github.com/anmar534/loctah-sub000/pkg/errors"
)

const (
	storeID   = "5f1c2b7e-8a43-4c1d-9a51-3b0d2f6e7a10"
	productID = "9b2e4d61-1f7a-4e0c-b8d3-6a5c7e9f0b21"
	ownerID   = "vendor-1"
)

var (
	now      = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	owner    = domain.Actor{ID: ownerID, Role: domain.RoleVendor}
	stranger = domain.Actor{ID: "vendor-2", Role: domain.RoleVendor}
)

type offerFixture struct {
	svc      *OfferService
	repo     *mockOfferRepo
	stores   *mockStores
	products *mockProducts
	events   *mockOfferEvents
	clock    *clock.Fake
}

func newOfferFixture() *offerFixture {
	f := &offerFixture{
		repo:     new(mockOfferRepo),
		stores:   new(mockStores),
		products: new(mockProducts),
		events:   new(mockOfferEvents),
		clock:    clock.NewFake(now),
	}
	f.stores.On("StoreOwner", mock.Anything, storeID).Return(ownerID, nil)
	f.products.On("ProductExists", mock.Anything, productID).Return(true, nil)
	guard := offer.NewGuard(f.stores, f.products, offer.DefaultPolicy())
	f.svc = NewOfferService(f.repo, guard, f.clock, f.events, newTestLogger())
	return f
}

func storedOffer() *domain.Offer {
	return &domain.Offer{
		ID:              "o-1",
		ProductID:       productID,
		StoreID:         storeID,
		OriginalPrice:   decimal.NewFromInt(100),
		DiscountedPrice: decimal.NewFromInt(80),
		DiscountPercent: 20,
		StartDate:       now.Add(-24 * time.Hour),
		EndDate:         now.Add(72 * time.Hour),
		IsActive:        true,
	}
}

// ============================================================
// Reads
// ============================================================

func TestOfferService_ListClassifiesAtClockTime(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	expired := storedOffer()
	expired.ID = "o-2"
	expired.EndDate = now.Add(-time.Hour)

	f.repo.On("List", ctx, mock.MatchedBy(func(fl repository.OfferFilter) bool {
		return fl.Now.Equal(now) && fl.Page == 1 && fl.PerPage == 20
	})).Return([]domain.Offer{*storedOffer(), *expired}, 2, nil)

	views, total, err := f.svc.ListOffers(ctx, repository.OfferFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, offer.StatusActive, views[0].Status)
	assert.Equal(t, 3, views[0].Remaining.Days)
	assert.Equal(t, offer.StatusExpired, views[1].Status)
	assert.True(t, views[1].Remaining.IsExpired)
}

func TestOfferService_ListNormalizesStatus(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	f.repo.On("List", ctx, mock.MatchedBy(func(fl repository.OfferFilter) bool {
		return fl.Status != nil && *fl.Status == "scheduled"
	})).Return([]domain.Offer{}, 0, nil)

	_, _, err := f.svc.ListOffers(ctx, repository.OfferFilter{Status: strPtr(" Scheduled ")})
	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestOfferService_ListRejectsUnknownStatus(t *testing.T) {
	f := newOfferFixture()

	_, _, err := f.svc.ListOffers(context.Background(), repository.OfferFilter{Status: strPtr("paused")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	f.repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestOfferService_GetAdvancesWithClock(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	f.repo.On("GetByID", ctx, "o-1").Return(storedOffer(), nil)

	v, err := f.svc.GetOffer(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, offer.StatusActive, v.Status)
	require.NotNil(t, v.Discount)
	assert.True(t, v.Discount.Savings.Equal(decimal.NewFromInt(20)))

	f.clock.Advance(73 * time.Hour)
	v, err = f.svc.GetOffer(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, offer.StatusExpired, v.Status)
}

func TestOfferService_GetNotFound(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	f.repo.On("GetByID", ctx, "o-9").Return(nil, apperrors.NotFound("offer", "o-9"))

	_, err := f.svc.GetOffer(ctx, "o-9")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// ============================================================
// Mutations
// ============================================================

func validCreate() domain.CreateOfferInput {
	return domain.CreateOfferInput{
		ProductID:       productID,
		StoreID:         storeID,
		OriginalPrice:   decimal.RequireFromString("199.99"),
		DiscountedPrice: decimal.RequireFromString("149.99"),
		StartDate:       now.Add(24 * time.Hour),
		EndDate:         now.Add(8 * 24 * time.Hour),
	}
}

func TestOfferService_CreateScheduled(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	f.repo.On("Create", ctx, mock.AnythingOfType("*domain.Offer")).Return(nil)
	f.events.On("PublishOfferCreated", ctx, mock.Anything).Return(nil)

	v, err := f.svc.CreateOffer(ctx, owner, validCreate())

	require.NoError(t, err)
	assert.Equal(t, 25, v.DiscountPercent)
	assert.Equal(t, offer.StatusScheduled, v.Status)
	assert.True(t, v.IsActive)
	f.events.AssertExpectations(t)
}

func TestOfferService_CreateRejections(t *testing.T) {
	tests := []struct {
		name   string
		actor  domain.Actor
		mutate func(in *domain.CreateOfferInput)
		want   error
	}{
		{"not the owner", stranger, func(*domain.CreateOfferInput) {}, domain.ErrForbidden},
		{"price not discounted", owner, func(in *domain.CreateOfferInput) {
			in.DiscountedPrice = in.OriginalPrice
		}, domain.ErrInvalidPrice},
		{"window reversed", owner, func(in *domain.CreateOfferInput) {
			in.EndDate = in.StartDate.Add(-time.Hour)
		}, domain.ErrInvalidDateRange},
		{"window too short", owner, func(in *domain.CreateOfferInput) {
			in.EndDate = in.StartDate.Add(time.Hour)
		}, domain.ErrInvalidDateRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOfferFixture()
			in := validCreate()
			tt.mutate(&in)

			_, err := f.svc.CreateOffer(context.Background(), tt.actor, in)
			assert.ErrorIs(t, err, tt.want)
			f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestOfferService_CreateRepositoryError(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	f.repo.On("Create", ctx, mock.Anything).Return(errors.New("insert failed"))

	_, err := f.svc.CreateOffer(ctx, owner, validCreate())
	require.Error(t, err)
	f.events.AssertNotCalled(t, "PublishOfferCreated", mock.Anything, mock.Anything)
}

func TestOfferService_UpdateKeepsPercentUnlessPriceChanges(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	stored := storedOffer()
	stored.DiscountPercent = 21
	f.repo.On("GetByID", ctx, "o-1").Return(stored, nil)
	f.repo.On("Update", ctx, mock.Anything).Return(nil)
	f.events.On("PublishOfferUpdated", ctx, mock.Anything).Return(nil)

	inactive := false
	v, err := f.svc.UpdateOffer(ctx, owner, "o-1", domain.UpdateOfferInput{IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, 21, v.DiscountPercent)
	assert.Equal(t, offer.StatusInactive, v.Status)

	price := decimal.NewFromInt(50)
	v, err = f.svc.UpdateOffer(ctx, owner, "o-1", domain.UpdateOfferInput{DiscountedPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, 50, v.DiscountPercent)
}

func TestOfferService_UpdateByStranger(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	f.repo.On("GetByID", ctx, "o-1").Return(storedOffer(), nil)

	_, err := f.svc.UpdateOffer(ctx, stranger, "o-1", domain.UpdateOfferInput{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestOfferService_Delete(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	stored := storedOffer()
	f.repo.On("GetByID", ctx, "o-1").Return(stored, nil)
	f.repo.On("Delete", ctx, "o-1").Return(nil)
	f.events.On("PublishOfferDeleted", ctx, stored).Return(errors.New("broker down"))

	require.NoError(t, f.svc.DeleteOffer(ctx, owner, "o-1"))
	f.repo.AssertExpectations(t)
}

func TestOfferService_DeleteByStrangerAndAdmin(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	f.repo.On("GetByID", ctx, "o-1").Return(storedOffer(), nil)
	f.repo.On("Delete", ctx, "o-1").Return(nil)
	f.events.On("PublishOfferDeleted", ctx, mock.Anything).Return(nil)

	err := f.svc.DeleteOffer(ctx, stranger, "o-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	admin := domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	require.NoError(t, f.svc.DeleteOffer(ctx, admin, "o-1"))
}
