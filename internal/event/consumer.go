package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/anmar534/loctah-sub000/pkg/kafka"
)

// Product service topics feeding the local product projection.
const (
	TopicProductCreated = "ecommerce.product.created"
	TopicProductUpdated = "ecommerce.product.updated"
	TopicProductDeleted = "ecommerce.product.deleted"
)

// ProductTopics lists every topic the projection consumer subscribes to.
func ProductTopics() []string {
	return []string{TopicProductCreated, TopicProductUpdated, TopicProductDeleted}
}

// ProductEventData is the subset of the product payload the catalog needs.
type ProductEventData struct {
	ID         string  `json:"id"`
	CategoryID *string `json:"category_id,omitempty"`
}

// ProjectionSink applies product changes to the local projection.
type ProjectionSink interface {
	ProductUpserted(ctx context.Context, productID string, categoryID *string) error
	ProductDeleted(ctx context.Context, productID string) error
}

// Consumer routes product events to a ProjectionSink.
type Consumer struct {
	sink   ProjectionSink
	logger *slog.Logger
}

// NewConsumer creates a product event consumer.
func NewConsumer(sink ProjectionSink, logger *slog.Logger) *Consumer {
	return &Consumer{sink: sink, logger: logger}
}

// Handle processes one product event. Unknown event types are skipped.
// Payloads without a product id cannot be retried into validity, so they are
// logged and dropped.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductCreated, TopicProductUpdated, TopicProductDeleted:
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	var data ProductEventData
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}
	if data.ID == "" {
		c.logger.WarnContext(ctx, "product event without id dropped",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	if event.EventType == TopicProductDeleted {
		if err := c.sink.ProductDeleted(ctx, data.ID); err != nil {
			return fmt.Errorf("remove product %s from projection: %w", data.ID, err)
		}
	} else if err := c.sink.ProductUpserted(ctx, data.ID, data.CategoryID); err != nil {
		return fmt.Errorf("project product %s: %w", data.ID, err)
	}

	c.logger.DebugContext(ctx, "product projection updated",
		slog.String("event_type", event.EventType),
		slog.String("product_id", data.ID),
	)
	return nil
}
