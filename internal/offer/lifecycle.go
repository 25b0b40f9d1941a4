package offer

import (
	"time"

	"github.com/anmar534/loctah-sub000/internal/domain"
	"github.com/anmar534/loctah-sub000/internal/pricing"
)

// Status is the effective state of an offer at a given instant. It is never
// stored; it is recomputed on every read.
type Status string

const (
	StatusInactive  Status = "inactive"
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
)

// ValidStatuses returns every status Classify can produce.
func ValidStatuses() []Status {
	return []Status{StatusInactive, StatusScheduled, StatusActive, StatusExpired}
}

// IsValidStatus checks whether s names a status.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses() {
		if string(v) == s {
			return true
		}
	}
	return false
}

// Classify returns the status of o at now. A disabled offer is inactive even
// when its window has passed, so operators can tell the two apart.
func Classify(o *domain.Offer, now time.Time) Status {
	switch {
	case !o.IsActive:
		return StatusInactive
	case now.After(o.EndDate):
		return StatusExpired
	case now.Before(o.StartDate):
		return StatusScheduled
	default:
		return StatusActive
	}
}

// Remaining is the time left until an offer ends.
type Remaining struct {
	Days      int  `json:"days"`
	Hours     int  `json:"hours"`
	Minutes   int  `json:"minutes"`
	IsExpired bool `json:"is_expired"`
}

// RemainingTime splits EndDate - now into whole days, hours and minutes.
func RemainingTime(o *domain.Offer, now time.Time) Remaining {
	left := o.EndDate.Sub(now)
	if left <= 0 {
		return Remaining{IsExpired: true}
	}
	return Remaining{
		Days:    int(left / (24 * time.Hour)),
		Hours:   int(left % (24 * time.Hour) / time.Hour),
		Minutes: int(left % time.Hour / time.Minute),
	}
}

// View is the read model returned by the API: the stored offer plus the
// values derived at read time.
type View struct {
	*domain.Offer
	Status    Status             `json:"status"`
	Remaining Remaining          `json:"remaining"`
	Discount  *pricing.Breakdown `json:"discount,omitempty"`
}

// Annotate builds the View of o at now.
func Annotate(o *domain.Offer, now time.Time) View {
	v := View{
		Offer:     o,
		Status:    Classify(o, now),
		Remaining: RemainingTime(o, now),
	}
	if b, ok := pricing.Summary(o.OriginalPrice, o.DiscountedPrice); ok {
		v.Discount = &b
	}
	return v
}
