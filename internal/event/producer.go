package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anmar534/loctah-sub000/internal/domain"
	pkgkafka "github.com/anmar534/loctah-sub000/pkg/kafka"
	"github.com/anmar534/loctah-sub000/pkg/logger"
)

// Topics published by the catalog service.
const (
	TopicCategoryCreated = "catalog.category.created"
	TopicCategoryUpdated = "catalog.category.updated"
	TopicCategoryDeleted = "catalog.category.deleted"

	TopicOfferCreated = "catalog.offer.created"
	TopicOfferUpdated = "catalog.offer.updated"
	TopicOfferDeleted = "catalog.offer.deleted"
)

const (
	AggregateTypeCategory = "category"
	AggregateTypeOffer    = "offer"

	SourceCatalogService = "catalog-service"
)

// CategoryData is the payload of category created and updated events.
type CategoryData struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	ParentID  *string `json:"parent_id,omitempty"`
	Level     int     `json:"level"`
	SortOrder int     `json:"sort_order"`
}

// OfferData is the payload of offer created and updated events. Prices are
// decimal strings.
type OfferData struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"product_id"`
	StoreID         string    `json:"store_id"`
	OriginalPrice   string    `json:"original_price"`
	DiscountedPrice string    `json:"discounted_price"`
	DiscountPercent int       `json:"discount_percent"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	IsActive        bool      `json:"is_active"`
}

// DeletedData is the payload of every deleted event.
type DeletedData struct {
	ID      string `json:"id"`
	StoreID string `json:"store_id,omitempty"`
}

// Publisher is the part of *pkgkafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes catalog domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a catalog event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// PublishCategoryCreated publishes catalog.category.created.
func (p *Producer) PublishCategoryCreated(ctx context.Context, c *domain.Category) error {
	return p.publish(ctx, TopicCategoryCreated, c.ID, AggregateTypeCategory, categoryData(c))
}

// PublishCategoryUpdated publishes catalog.category.updated.
func (p *Producer) PublishCategoryUpdated(ctx context.Context, c *domain.Category) error {
	return p.publish(ctx, TopicCategoryUpdated, c.ID, AggregateTypeCategory, categoryData(c))
}

// PublishCategoryDeleted publishes catalog.category.deleted.
func (p *Producer) PublishCategoryDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicCategoryDeleted, id, AggregateTypeCategory, DeletedData{ID: id})
}

// PublishOfferCreated publishes catalog.offer.created.
func (p *Producer) PublishOfferCreated(ctx context.Context, o *domain.Offer) error {
	return p.publish(ctx, TopicOfferCreated, o.ID, AggregateTypeOffer, offerData(o))
}

// PublishOfferUpdated publishes catalog.offer.updated.
func (p *Producer) PublishOfferUpdated(ctx context.Context, o *domain.Offer) error {
	return p.publish(ctx, TopicOfferUpdated, o.ID, AggregateTypeOffer, offerData(o))
}

// PublishOfferDeleted publishes catalog.offer.deleted.
func (p *Producer) PublishOfferDeleted(ctx context.Context, o *domain.Offer) error {
	return p.publish(ctx, TopicOfferDeleted, o.ID, AggregateTypeOffer, DeletedData{ID: o.ID, StoreID: o.StoreID})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceCatalogService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	if actor := logger.ActorIDFromContext(ctx); actor != "" {
		event.WithMetadata("actor_id", actor)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

func categoryData(c *domain.Category) CategoryData {
	return CategoryData{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      c.Slug,
		ParentID:  c.ParentID,
		Level:     c.Level,
		SortOrder: c.SortOrder,
	}
}

func offerData(o *domain.Offer) OfferData {
	return OfferData{
		ID:              o.ID,
		ProductID:       o.ProductID,
		StoreID:         o.StoreID,
		OriginalPrice:   o.OriginalPrice.StringFixed(2),
		DiscountedPrice: o.DiscountedPrice.StringFixed(2),
		DiscountPercent: o.DiscountPercent,
		StartDate:       o.StartDate,
		EndDate:         o.EndDate,
		IsActive:        o.IsActive,
	}
}
