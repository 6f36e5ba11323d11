package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/storefront-golang/internal/logging"
	"github.com/01moynul/storefront-golang/internal/models"
)

type recordingSink struct {
	got []Event
	err error
}

func (r *recordingSink) Publish(_ context.Context, e Event) error {
	r.got = append(r.got, e)
	return r.err
}

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:          "o1",
		UserID:      "u1",
		OrderStatus: models.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("30.00"),
		Items:       []models.OrderLineItem{{ProductID: "p1", Name: "A", Price: decimal.RequireFromString("10.00"), Quantity: 3}},
	}
}

func TestMultiPublishesToEverySink(t *testing.T) {
	a := &recordingSink{err: errors.New("a down")}
	b := &recordingSink{}

	err := Multi{a, b, Discard{}, NewLogSink(logging.Discard())}.Publish(context.Background(), FromOrder(OrderPlaced, sampleOrder()))

	assert.ErrorContains(t, err, "a down")
	assert.Len(t, a.got, 1)
	require.Len(t, b.got, 1)
	assert.Equal(t, OrderPlaced, b.got[0].Type)
	assert.Equal(t, "o1", b.got[0].OrderID)
}

func TestNewKafkaSinkFlushesPromptly(t *testing.T) {
	sink := NewKafkaSink([]string{"localhost:9092"}, "storefront.orders")
	w, ok := sink.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "storefront.orders", w.Topic)
	assert.LessOrEqual(t, w.BatchTimeout, 50*time.Millisecond)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	require.NoError(t, sink.Close())
}

func TestKafkaSinkWritesKeyedJSON(t *testing.T) {
	w := &fakeWriter{}
	sink := &KafkaSink{writer: w}

	require.NoError(t, sink.Publish(context.Background(), FromOrder(OrderDelivered, sampleOrder())))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "o1", string(w.msgs[0].Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, OrderDelivered, decoded["type"])
	assert.Equal(t, 30.0, decoded["totalAmount"])

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}
