package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anmar534/loctah-sub000/internal/domain"
	"github.com/anmar534/loctah-sub000/internal/offer"
	"github.com/anmar534/loctah-sub000/internal/repository"
	"github.com/anmar534/loctah-sub000/pkg/clock"
	"github.com/anmar534/loctah-sub000/pkg/logger"
)

// OfferEvents publishes offer changes.
type OfferEvents interface {
	PublishOfferCreated(ctx context.Context, o *domain.Offer) error
	PublishOfferUpdated(ctx context.Context, o *domain.Offer) error
	PublishOfferDeleted(ctx context.Context, o *domain.Offer) error
}

// OfferService implements offer reads and guarded mutations. Every read is
// classified at the clock's current time.
type OfferService struct {
	repo   repository.OfferRepository
	guard  *offer.Guard
	clock  clock.Clock
	events OfferEvents
	logger *slog.Logger
}

// NewOfferService creates an offer service.
func NewOfferService(repo repository.OfferRepository, guard *offer.Guard, clk clock.Clock, events OfferEvents, logger *slog.Logger) *OfferService {
	return &OfferService{
		repo:   repo,
		guard:  guard,
		clock:  clk,
		events: events,
		logger: logger,
	}
}

// ListOffers returns a page of offers and the total match count. An unknown
// status is rejected as invalid input.
func (s *OfferService) ListOffers(ctx context.Context, filter repository.OfferFilter) ([]offer.View, int, error) {
	if filter.Status != nil {
		st := strings.ToLower(strings.TrimSpace(*filter.Status))
		if !offer.IsValidStatus(st) {
			return nil, 0, domain.Reject(domain.CodeInvalidInput, "unknown offer status %q", *filter.Status)
		}
		filter.Status = &st
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	now := s.clock.Now()
	filter.Now = now

	offers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list offers: %w", err)
	}

	views := make([]offer.View, len(offers))
	for i := range offers {
		views[i] = offer.Annotate(&offers[i], now)
	}
	return views, total, nil
}

// GetOffer returns one offer with its derived status.
func (s *OfferService) GetOffer(ctx context.Context, id string) (*offer.View, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get offer by id: %w", err)
	}
	v := offer.Annotate(o, s.clock.Now())
	return &v, nil
}

// CreateOffer validates and stores a new offer for a store the actor manages.
func (s *OfferService) CreateOffer(ctx context.Context, actor domain.Actor, in domain.CreateOfferInput) (*offer.View, error) {
	o, err := s.guard.ValidateCreate(ctx, actor, in)
	if err != nil {
		observeRejection(ctx, s.logger, "offer.create", err)
		return nil, fmt.Errorf("validate offer: %w", err)
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}

	if err := s.events.PublishOfferCreated(ctx, o); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish offer.created event",
			slog.String("offer_id", o.ID),
			logger.Err(err),
		)
	}

	s.logger.InfoContext(ctx, "offer created",
		slog.String("offer_id", o.ID),
		slog.String("store_id", o.StoreID),
		slog.Int("discount_percent", o.DiscountPercent),
	)

	v := offer.Annotate(o, s.clock.Now())
	return &v, nil
}

// UpdateOffer applies a partial update to an offer of a store the actor
// manages.
func (s *OfferService) UpdateOffer(ctx context.Context, actor domain.Actor, id string, patch domain.UpdateOfferInput) (*offer.View, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get offer by id: %w", err)
	}

	next, err := s.guard.ValidateUpdate(ctx, actor, existing, patch)
	if err != nil {
		observeRejection(ctx, s.logger, "offer.update", err)
		return nil, fmt.Errorf("validate offer: %w", err)
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("update offer: %w", err)
	}

	if err := s.events.PublishOfferUpdated(ctx, next); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish offer.updated event",
			slog.String("offer_id", next.ID),
			logger.Err(err),
		)
	}

	s.logger.InfoContext(ctx, "offer updated", slog.String("offer_id", next.ID))

	v := offer.Annotate(next, s.clock.Now())
	return &v, nil
}

// DeleteOffer removes an offer of a store the actor manages.
func (s *OfferService) DeleteOffer(ctx context.Context, actor domain.Actor, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get offer by id: %w", err)
	}

	if err := s.guard.AuthorizeDelete(ctx, actor, existing); err != nil {
		observeRejection(ctx, s.logger, "offer.delete", err)
		return fmt.Errorf("authorize offer delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete offer: %w", err)
	}

	if err := s.events.PublishOfferDeleted(ctx, existing); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish offer.deleted event",
			slog.String("offer_id", id),
			logger.Err(err),
		)
	}

	s.logger.InfoContext(ctx, "offer deleted", slog.String("offer_id", id))
	return nil
}
