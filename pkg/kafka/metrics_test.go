package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerMetrics_Increment(t *testing.T) {
	topic := "planner.review.written.metrics-test"
	group := "stats-recompute"

	before := testutil.ToFloat64(ConsumerMessagesProcessed.WithLabelValues(topic, group))
	ConsumerMessagesProcessed.WithLabelValues(topic, group).Inc()
	after := testutil.ToFloat64(ConsumerMessagesProcessed.WithLabelValues(topic, group))
	assert.Equal(t, before+1, after)
}

func TestProducerMetrics_Increment(t *testing.T) {
	topic := "planner.review.written.metrics-test"

	before := testutil.ToFloat64(ProducerMessagesPublished.WithLabelValues(topic))
	ProducerMessagesPublished.WithLabelValues(topic).Inc()
	after := testutil.ToFloat64(ProducerMessagesPublished.WithLabelValues(topic))
	assert.Equal(t, before+1, after)
}

func TestDuplicateMetric_IncrementedBySkip(t *testing.T) {
	topic := "planner.review.written.dup-test"
	group := "stats-recompute"

	store := NewMemoryIdempotencyStore(time.Minute)
	inner := func(ctx context.Context, event *Event) error { return nil }
	handler := IdempotentHandler(store, inner, topic, group, testLogger())

	event := testEvent("evt-metric-dup")
	require.NoError(t, handler(context.Background(), event))

	before := testutil.ToFloat64(ConsumerMessagesDuplicate.WithLabelValues(topic, group))
	require.NoError(t, handler(context.Background(), event))
	after := testutil.ToFloat64(ConsumerMessagesDuplicate.WithLabelValues(topic, group))
	assert.Equal(t, before+1, after)
}
