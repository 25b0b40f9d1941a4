package event

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anmar534/loctah-sub000/internal/domain"
	pkgkafka "github.com/anmar534/loctah-sub000/pkg/kafka"
	"github.com/anmar534/loctah-sub000/pkg/logger"
)

// --- Mocks ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) ProductUpserted(ctx context.Context, productID string, categoryID *string) error {
	args := m.Called(ctx, productID, categoryID)
	return args.Error(0)
}

func (m *mockSink) ProductDeleted(ctx context.Context, productID string) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEvent(eventType string, data any) *pkgkafka.Event {
	raw, _ := json.Marshal(data)
	return &pkgkafka.Event{
		EventID:   "evt-1",
		EventType: eventType,
		Version:   1,
		Timestamp: time.Now().UTC(),
		Source:    "product-service",
		Data:      raw,
	}
}

// captured returns the event passed to the single Publish call.
func captured(t *testing.T, pub *mockPublisher) *pkgkafka.Event {
	t.Helper()
	require.Len(t, pub.Calls, 1)
	return pub.Calls[0].Arguments.Get(2).(*pkgkafka.Event)
}

// ============================================================
// Producer
// ============================================================

func TestProducer_CategoryCreated(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, newTestLogger())
	parent := "c-electronics"
	c := &domain.Category{ID: "c-phones", Name: "Phones", Slug: "phones", ParentID: &parent, Level: 1}

	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	ctx = logger.WithActorID(ctx, "admin-1")
	pub.On("Publish", ctx, TopicCategoryCreated, mock.AnythingOfType("*kafka.Event")).Return(nil)

	require.NoError(t, p.PublishCategoryCreated(ctx, c))

	ev := captured(t, pub)
	assert.Equal(t, TopicCategoryCreated, ev.EventType)
	assert.Equal(t, "c-phones", ev.AggregateID)
	assert.Equal(t, AggregateTypeCategory, ev.AggregateType)
	assert.Equal(t, SourceCatalogService, ev.Source)
	assert.Equal(t, "corr-1", ev.CorrelationID)
	assert.Equal(t, "admin-1", ev.Metadata["actor_id"])

	var data CategoryData
	require.NoError(t, ev.UnmarshalData(&data))
	assert.Equal(t, "phones", data.Slug)
	assert.Equal(t, 1, data.Level)
	require.NotNil(t, data.ParentID)
	assert.Equal(t, parent, *data.ParentID)
}

func TestProducer_OfferPricesAreFixedPoint(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, newTestLogger())
	ctx := context.Background()
	o := &domain.Offer{
		ID:              "o-1",
		StoreID:         "s-1",
		OriginalPrice:   decimal.NewFromInt(100),
		DiscountedPrice: decimal.RequireFromString("79.5"),
		DiscountPercent: 21,
	}
	pub.On("Publish", ctx, TopicOfferUpdated, mock.Anything).Return(nil)

	require.NoError(t, p.PublishOfferUpdated(ctx, o))

	var data OfferData
	require.NoError(t, captured(t, pub).UnmarshalData(&data))
	assert.Equal(t, "100.00", data.OriginalPrice)
	assert.Equal(t, "79.50", data.DiscountedPrice)
	assert.Equal(t, 21, data.DiscountPercent)
}

func TestProducer_DeletedEvents(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, newTestLogger())
	ctx := context.Background()
	pub.On("Publish", ctx, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, p.PublishCategoryDeleted(ctx, "c-1"))
	require.NoError(t, p.PublishOfferDeleted(ctx, &domain.Offer{ID: "o-1", StoreID: "s-1"}))

	require.Len(t, pub.Calls, 2)
	assert.Equal(t, TopicCategoryDeleted, pub.Calls[0].Arguments.String(1))
	offerEv := pub.Calls[1].Arguments.Get(2).(*pkgkafka.Event)
	var data DeletedData
	require.NoError(t, offerEv.UnmarshalData(&data))
	assert.Equal(t, DeletedData{ID: "o-1", StoreID: "s-1"}, data)
}

func TestProducer_PublishError(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, newTestLogger())
	ctx := context.Background()
	pub.On("Publish", ctx, TopicOfferCreated, mock.Anything).Return(errors.New("broker down"))

	err := p.PublishOfferCreated(ctx, &domain.Offer{ID: "o-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

// ============================================================
// Consumer
// ============================================================

func TestConsumer_CreatedAndUpdatedUpsert(t *testing.T) {
	for _, topic := range []string{TopicProductCreated, TopicProductUpdated} {
		t.Run(topic, func(t *testing.T) {
			sink := new(mockSink)
			c := NewConsumer(sink, newTestLogger())
			ctx := context.Background()
			cat := "c-android"
			sink.On("ProductUpserted", ctx, "p-1", &cat).Return(nil)

			err := c.Handle(ctx, newTestEvent(topic, ProductEventData{ID: "p-1", CategoryID: &cat}))
			require.NoError(t, err)
			sink.AssertExpectations(t)
		})
	}
}

func TestConsumer_Deleted(t *testing.T) {
	sink := new(mockSink)
	c := NewConsumer(sink, newTestLogger())
	ctx := context.Background()
	sink.On("ProductDeleted", ctx, "p-1").Return(nil)

	require.NoError(t, c.Handle(ctx, newTestEvent(TopicProductDeleted, map[string]string{"id": "p-1"})))
	sink.AssertExpectations(t)
}

func TestConsumer_SinkErrorIsReturned(t *testing.T) {
	sink := new(mockSink)
	c := NewConsumer(sink, newTestLogger())
	ctx := context.Background()
	sink.On("ProductDeleted", ctx, "p-1").Return(errors.New("db down"))

	err := c.Handle(ctx, newTestEvent(TopicProductDeleted, map[string]string{"id": "p-1"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestConsumer_SkipsUnknownAndEmpty(t *testing.T) {
	sink := new(mockSink)
	c := NewConsumer(sink, newTestLogger())
	ctx := context.Background()

	require.NoError(t, c.Handle(ctx, newTestEvent("ecommerce.order.created", map[string]string{"id": "x"})))
	require.NoError(t, c.Handle(ctx, newTestEvent(TopicProductCreated, map[string]string{})))
	sink.AssertNotCalled(t, "ProductUpserted", mock.Anything, mock.Anything, mock.Anything)
}

func TestConsumer_MalformedPayload(t *testing.T) {
	sink := new(mockSink)
	c := NewConsumer(sink, newTestLogger())
	ev := newTestEvent(TopicProductCreated, nil)
	ev.Data = json.RawMessage(`{"id":`)

	assert.Error(t, c.Handle(context.Background(), ev))
}

func TestProductTopics(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{"ecommerce.product.created", "ecommerce.product.updated", "ecommerce.product.deleted"},
		ProductTopics())
}
