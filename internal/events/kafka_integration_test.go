package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap"
)

func setupKafka(t *testing.T) []string {
	if testing.Short() {
		t.Skip("skipping Kafka container test in short mode")
	}
	ctx := context.Background()

	container, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers
}

func TestKafka_PublishedOrderReachesConsumer(t *testing.T) {
	brokers := setupKafka(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	publisher := NewKafkaPublisher("orders-it", brokers...)
	defer publisher.Close()

	ev, err := NewOrderCompletedEvent(OrderCompleted{
		CheckoutID:  "chk-1",
		SessionID:   "sess-1",
		CompletedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return publisher.Publish(ctx, ev) == nil
	}, 30*time.Second, time.Second, "topic never became writable")

	got := make(chan OrderCompleted, 1)
	consumer := NewConsumer("orders-it", "orders-it-group", func(_ context.Context, e OrderCompleted) error {
		got <- e
		return nil
	}, zap.NewNop(), brokers...)
	defer consumer.Close()
	go consumer.Run(ctx)

	select {
	case e := <-got:
		require.Equal(t, "sess-1", e.SessionID)
	case <-ctx.Done():
		t.Fatal("order event was not consumed")
	}
}
