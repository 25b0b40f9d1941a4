package offer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anmar534/loctah-sub000/internal/domain"
	"github.com/anmar534/loctah-sub000/internal/pricing"
	apperrors "github.com/anmar534/loctah-sub000/pkg/errors"
)

// StoreDirectory resolves the owner of a store. It returns an error matching
// apperrors.ErrNotFound when the store does not exist.
type StoreDirectory interface {
	StoreOwner(ctx context.Context, storeID string) (string, error)
}

// ProductCatalog reports whether a product exists.
type ProductCatalog interface {
	ProductExists(ctx context.Context, productID string) (bool, error)
}

// Policy bounds the length of an offer window.
type Policy struct {
	EnforceDuration bool
	MinDuration     time.Duration
	MaxDuration     time.Duration
}

// DefaultPolicy allows windows from one day to one year.
func DefaultPolicy() Policy {
	return Policy{
		EnforceDuration: true,
		MinDuration:     24 * time.Hour,
		MaxDuration:     365 * 24 * time.Hour,
	}
}

// Guard validates offer mutations and checks that the actor owns the store.
// It returns a normalized offer ready to persist or a *domain.Rejection.
// Errors from the collaborators are returned wrapped and are not rejections.
type Guard struct {
	stores   StoreDirectory
	products ProductCatalog
	policy   Policy
}

// NewGuard creates a Guard.
func NewGuard(stores StoreDirectory, products ProductCatalog, policy Policy) *Guard {
	return &Guard{stores: stores, products: products, policy: policy}
}

// ValidateCreate checks a new offer in order: store, ownership, product,
// prices, window. The discount percent is always derived from the prices.
func (g *Guard) ValidateCreate(ctx context.Context, actor domain.Actor, in domain.CreateOfferInput) (*domain.Offer, error) {
	if err := g.authorize(ctx, actor, in.StoreID); err != nil {
		return nil, err
	}
	if err := g.requireProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}

	pct, err := derivePercent(in.OriginalPrice, in.DiscountedPrice)
	if err != nil {
		return nil, err
	}

	start, end := in.StartDate.UTC(), in.EndDate.UTC()
	if err := g.checkWindow(start, end); err != nil {
		return nil, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	return &domain.Offer{
		ID:              uuid.NewString(),
		ProductID:       in.ProductID,
		StoreID:         in.StoreID,
		OriginalPrice:   in.OriginalPrice,
		DiscountedPrice: in.DiscountedPrice,
		DiscountPercent: pct,
		StartDate:       start,
		EndDate:         end,
		IsActive:        active,
	}, nil
}

// ValidateUpdate merges patch into existing and re-checks what changed.
// Ownership is checked against the stored store, never a client value. The
// stored percent is kept unless a price is patched.
func (g *Guard) ValidateUpdate(ctx context.Context, actor domain.Actor, existing *domain.Offer, patch domain.UpdateOfferInput) (*domain.Offer, error) {
	if existing == nil {
		return nil, domain.Reject(domain.CodeNotFound, "offer not found")
	}
	if err := g.authorize(ctx, actor, existing.StoreID); err != nil {
		return nil, err
	}

	next := *existing

	if patch.ProductID != nil && *patch.ProductID != existing.ProductID {
		if err := g.requireProduct(ctx, *patch.ProductID); err != nil {
			return nil, err
		}
		next.ProductID = *patch.ProductID
	}

	if patch.ChangesPrice() {
		if patch.OriginalPrice != nil {
			next.OriginalPrice = *patch.OriginalPrice
		}
		if patch.DiscountedPrice != nil {
			next.DiscountedPrice = *patch.DiscountedPrice
		}
		pct, err := derivePercent(next.OriginalPrice, next.DiscountedPrice)
		if err != nil {
			return nil, err
		}
		next.DiscountPercent = pct
	}

	if patch.StartDate != nil || patch.EndDate != nil {
		if patch.StartDate != nil {
			next.StartDate = patch.StartDate.UTC()
		}
		if patch.EndDate != nil {
			next.EndDate = patch.EndDate.UTC()
		}
		if err := g.checkWindow(next.StartDate, next.EndDate); err != nil {
			return nil, err
		}
	}

	if patch.IsActive != nil {
		next.IsActive = *patch.IsActive
	}
	return &next, nil
}

// AuthorizeDelete checks only that the actor may manage the offer's store.
func (g *Guard) AuthorizeDelete(ctx context.Context, actor domain.Actor, existing *domain.Offer) error {
	if existing == nil {
		return domain.Reject(domain.CodeNotFound, "offer not found")
	}
	return g.authorize(ctx, actor, existing.StoreID)
}

func (g *Guard) authorize(ctx context.Context, actor domain.Actor, storeID string) error {
	owner, err := g.stores.StoreOwner(ctx, storeID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return domain.Reject(domain.CodeNotFound, "store %s not found", storeID)
	}
	if err != nil {
		return fmt.Errorf("resolve store owner: %w", err)
	}
	if !actor.CanManage(owner) {
		return domain.Reject(domain.CodeForbidden, "store %s is not managed by the caller", storeID)
	}
	return nil
}

func (g *Guard) requireProduct(ctx context.Context, productID string) error {
	ok, err := g.products.ProductExists(ctx, productID)
	if err != nil {
		return fmt.Errorf("resolve product: %w", err)
	}
	if !ok {
		return domain.Reject(domain.CodeNotFound, "product %s not found", productID)
	}
	return nil
}

func (g *Guard) checkWindow(start, end time.Time) error {
	if !end.After(start) {
		return domain.Reject(domain.CodeInvalidDateRange, "end date must be after start date")
	}
	if !g.policy.EnforceDuration {
		return nil
	}
	length := end.Sub(start)
	if length < g.policy.MinDuration {
		return domain.Reject(domain.CodeInvalidDateRange, "offer must run for at least %s", g.policy.MinDuration)
	}
	if length > g.policy.MaxDuration {
		return domain.Reject(domain.CodeInvalidDateRange, "offer must not run longer than %s", g.policy.MaxDuration)
	}
	return nil
}

// maxPrice is the largest amount the offers table holds (NUMERIC(12,2)).
var maxPrice = decimal.RequireFromString("9999999999.99")

// checkAmount rejects amounts the store would round or overflow, so the
// persisted prices are exactly the ones the percent was derived from.
func checkAmount(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(2)) {
		return domain.Reject(domain.CodeInvalidPrice, "%s %s has more than 2 decimal places", field, d)
	}
	if d.GreaterThan(maxPrice) {
		return domain.Reject(domain.CodeInvalidPrice, "%s %s exceeds %s", field, d, maxPrice)
	}
	return nil
}

func derivePercent(original, discounted decimal.Decimal) (int, error) {
	if err := checkAmount("original price", original); err != nil {
		return 0, err
	}
	if err := checkAmount("discounted price", discounted); err != nil {
		return 0, err
	}
	pct, ok := pricing.PercentFromPrices(original, discounted)
	if !ok {
		return 0, domain.Reject(domain.CodeInvalidPrice,
			"discounted price %s must be positive and below original price %s", discounted, original)
	}
	return pct, nil
}
