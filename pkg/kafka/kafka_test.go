package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- Fakes ---

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    int
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	r.closed++
	r.mu.Unlock()
	return nil
}

type fakeDLQ struct {
	msgs []kafka.Message
	errs []error
}

func (d *fakeDLQ) Publish(_ context.Context, msg kafka.Message, lastErr error, _ string) error {
	d.msgs = append(d.msgs, msg)
	d.errs = append(d.errs, lastErr)
	return nil
}

func eventMessage(t *testing.T, offset int64, eventType string) kafka.Message {
	t.Helper()
	ev, err := NewEvent(eventType, "prod-1", "product", "product-service", map[string]string{"id": "prod-1"})
	require.NoError(t, err)
	b, err := ev.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: "ecommerce.product.updated", Offset: offset, Value: b}
}

// --- Event ---

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent("category.created", "cat-1", "category", "catalog-service", map[string]string{"slug": "phones"})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, 1, ev.Version)
	assert.WithinDuration(t, time.Now().UTC(), ev.Timestamp, 2*time.Second)

	var payload map[string]string
	require.NoError(t, ev.UnmarshalData(&payload))
	assert.Equal(t, "phones", payload["slug"])
}

func TestNewEvent_UnencodablePayload(t *testing.T) {
	_, err := NewEvent("x", "a", "b", "c", make(chan int))
	assert.Error(t, err)
}

func TestUnmarshalEvent(t *testing.T) {
	ev, err := NewEvent("offer.deleted", "off-1", "offer", "catalog-service", nil)
	require.NoError(t, err)
	ev.WithCorrelationID("corr-1").WithMetadata("actor_id", "u-1")

	b, err := ev.Marshal()
	require.NoError(t, err)

	got, err := UnmarshalEvent(b)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, got.EventID)
	assert.Equal(t, "corr-1", got.CorrelationID)
	assert.Equal(t, "u-1", got.Metadata["actor_id"])

	_, err = UnmarshalEvent([]byte(`{not json`))
	assert.Error(t, err)

	_, err = UnmarshalEvent([]byte(`{"event_id":"1"}`))
	assert.ErrorContains(t, err, "missing event_type")
}

// --- Producer ---

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, logger: testLogger()}

	ev, err := NewEvent("category.updated", "cat-1", "category", "catalog-service", nil)
	require.NoError(t, err)
	ev.WithCorrelationID("corr-9")

	require.NoError(t, p.Publish(context.Background(), "catalog.category.updated", ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "catalog.category.updated", msg.Topic)
	assert.Equal(t, "cat-1", string(msg.Key))

	carrier := NewHeaderCarrier(&msg.Headers)
	assert.Equal(t, "category.updated", carrier.Get("event_type"))
	assert.Equal(t, "catalog-service", carrier.Get("source"))
	assert.Equal(t, "corr-9", carrier.Get("correlation_id"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.EventID, decoded.EventID)
}

func TestProducer_PublishError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("leader not available")}, logger: testLogger()}
	ev, _ := NewEvent("offer.created", "off-1", "offer", "catalog-service", nil)

	err := p.Publish(context.Background(), "catalog.offer.created", ev)
	assert.ErrorContains(t, err, "publish event to catalog.offer.created")
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	assert.ErrorContains(t, PingBrokers(context.Background(), nil), "no brokers")
}

// --- DLQ ---

func TestDLQProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	d := &DLQProducer{writer: w, prefix: "catalog.dlq", logger: testLogger()}

	orig := kafka.Message{
		Topic: "ecommerce.product.deleted", Partition: 2, Offset: 41,
		Key: []byte("prod-1"), Value: []byte("{}"),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte("product.deleted")}},
	}
	require.NoError(t, d.Publish(context.Background(), orig, errors.New("db down"), "catalog-projection"))

	require.Len(t, w.msgs, 1)
	got := w.msgs[0]
	assert.Equal(t, "catalog.dlq.ecommerce.product.deleted", got.Topic)

	c := NewHeaderCarrier(&got.Headers)
	assert.Equal(t, "product.deleted", c.Get("event_type"))
	assert.Equal(t, "2", c.Get("dlq.original_partition"))
	assert.Equal(t, "41", c.Get("dlq.original_offset"))
	assert.Equal(t, "catalog-projection", c.Get("dlq.consumer_group"))
	assert.Equal(t, "db down", c.Get("dlq.error"))
}

// --- Consumer ---

func TestConsumer_ProcessSuccessCommits(t *testing.T) {
	r := &fakeReader{}
	var seen []string
	c := newConsumer(r, "g", []string{"t"}, func(_ context.Context, ev *Event) error {
		seen = append(seen, ev.EventType)
		return nil
	}, testLogger())

	require.NoError(t, c.process(context.Background(), eventMessage(t, 7, "product.updated")))
	assert.Equal(t, []string{"product.updated"}, seen)
	assert.Equal(t, []int64{7}, r.committed)
}

func TestConsumer_RetriesThenDeadLetters(t *testing.T) {
	r := &fakeReader{}
	dlq := &fakeDLQ{}
	calls := 0
	c := newConsumer(r, "g", []string{"t"}, func(context.Context, *Event) error {
		calls++
		return errors.New("projection write failed")
	}, testLogger()).WithDeadLetter(dlq)
	c.retryBackoff = time.Millisecond

	require.NoError(t, c.process(context.Background(), eventMessage(t, 3, "product.created")))
	assert.Equal(t, maxHandlerRetries, calls)
	require.Len(t, dlq.msgs, 1)
	assert.EqualError(t, dlq.errs[0], "projection write failed")
	assert.Equal(t, []int64{3}, r.committed)
}

func TestConsumer_RecoversOnRetry(t *testing.T) {
	r := &fakeReader{}
	dlq := &fakeDLQ{}
	calls := 0
	c := newConsumer(r, "g", nil, func(context.Context, *Event) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	}, testLogger()).WithDeadLetter(dlq)
	c.retryBackoff = time.Millisecond

	require.NoError(t, c.process(context.Background(), eventMessage(t, 1, "product.updated")))
	assert.Equal(t, 2, calls)
	assert.Empty(t, dlq.msgs)
}

func TestConsumer_PoisonMessageCommitted(t *testing.T) {
	r := &fakeReader{}
	dlq := &fakeDLQ{}
	c := newConsumer(r, "g", nil, func(context.Context, *Event) error {
		t.Fatal("handler must not run for undecodable messages")
		return nil
	}, testLogger()).WithDeadLetter(dlq)

	require.NoError(t, c.process(context.Background(), kafka.Message{Offset: 9, Value: []byte("garbage")}))
	assert.Equal(t, []int64{9}, r.committed)
	assert.Len(t, dlq.msgs, 1)
}

func TestConsumer_StartStopsOnCancel(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{eventMessage(t, 1, "product.created"), eventMessage(t, 2, "product.updated")}}

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	handled := 0
	c := newConsumer(r, "g", []string{"t"}, func(context.Context, *Event) error {
		mu.Lock()
		defer mu.Unlock()
		handled++
		if handled == 2 {
			cancel()
		}
		return nil
	}, testLogger())

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, 2, handled)
	assert.Equal(t, 1, r.closed)
	require.NoError(t, c.Close())
	assert.Equal(t, 1, r.closed, "close is idempotent")
}
