package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer is a time-bounded discount on a product in a store. Its effective
// status is computed on read from IsActive and the date window.
type Offer struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	StoreID         string          `json:"store_id"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	DiscountPercent int             `json:"discount_percent"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CreateOfferInput is the full payload for a new offer. DiscountPercent is
// accepted for compatibility but always recomputed from the prices.
type CreateOfferInput struct {
	ProductID       string          `json:"product_id" validate:"required,uuid"`
	StoreID         string          `json:"store_id" validate:"required,uuid"`
	OriginalPrice   decimal.Decimal `json:"original_price" validate:"gt=0"`
	DiscountedPrice decimal.Decimal `json:"discounted_price" validate:"gt=0"`
	DiscountPercent *int            `json:"discount_percent" validate:"omitempty,gte=0,lte=100"`
	StartDate       time.Time       `json:"start_date" validate:"required"`
	EndDate         time.Time       `json:"end_date" validate:"required"`
	IsActive        *bool           `json:"is_active"`
}

// UpdateOfferInput is a partial update. The store cannot be changed.
type UpdateOfferInput struct {
	ProductID       *string          `json:"product_id" validate:"omitempty,uuid"`
	OriginalPrice   *decimal.Decimal `json:"original_price" validate:"omitempty,gt=0"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price" validate:"omitempty,gt=0"`
	DiscountPercent *int             `json:"discount_percent" validate:"omitempty,gte=0,lte=100"`
	StartDate       *time.Time       `json:"start_date"`
	EndDate         *time.Time       `json:"end_date"`
	IsActive        *bool            `json:"is_active"`
}

// ChangesPrice reports whether either price is present in the patch.
func (in UpdateOfferInput) ChangesPrice() bool {
	return in.OriginalPrice != nil || in.DiscountedPrice != nil
}

// Store is the read-only view of a store used for ownership checks.
type Store struct {
	ID          string `json:"id"`
	OwnerUserID string `json:"owner_user_id"`
	Name        string `json:"name"`
}
