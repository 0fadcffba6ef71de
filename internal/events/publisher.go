package events

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const DefaultTopic = "storefront-orders"

type Publisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event OutboxEvent) error {
	return p.writer.WriteMessages(ctx, message(event))
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// message keys by aggregate so one checkout's events stay ordered.
func message(event OutboxEvent) kafka.Message {
	return kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
		Time: event.CreatedAt,
	}
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct {
	Logger *zap.Logger
}

func (p NopPublisher) Publish(_ context.Context, event OutboxEvent) error {
	if p.Logger != nil {
		p.Logger.Debug("event dropped, no brokers configured",
			zap.String("event_type", event.EventType),
			zap.String("aggregate_id", event.AggregateID),
		)
	}
	return nil
}

func (NopPublisher) Close() error { return nil }
