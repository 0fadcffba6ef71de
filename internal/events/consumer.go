package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const DefaultConsumerGroup = "storefront-cart"

// Handler reacts to a completed order.
type Handler func(ctx context.Context, e OrderCompleted) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads order events back from Kafka. A message is committed once
// its handler succeeds or when it cannot be decoded. A message whose handler
// or commit fails is handed to the handler again after the backoff, before
// anything else is fetched.
type Consumer struct {
	reader  messageReader
	handle  Handler
	logger  *zap.Logger
	backoff time.Duration
	pending *kafka.Message
}

func NewConsumer(topic, group string, handle Handler, logger *zap.Logger, brokers ...string) *Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	if group == "" {
		group = DefaultConsumerGroup
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, handle: handle, logger: logger, backoff: time.Second}
}

func (c *Consumer) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := c.consumeOne(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("order event not consumed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(c.backoff):
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) consumeOne(ctx context.Context) error {
	m, err := c.next(ctx)
	if err != nil {
		return fmt.Errorf("fetch message: %w", err)
	}

	if eventType(m) == EventTypeOrderCompleted {
		var e OrderCompleted
		if err := json.Unmarshal(m.Value, &e); err != nil {
			c.logger.Error("dropping unreadable order event",
				zap.String("key", string(m.Key)), zap.Error(err))
		} else if err := c.handle(ctx, e); err != nil {
			c.pending = &m
			return fmt.Errorf("handle %s: %w", e.CheckoutID, err)
		}
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.pending = &m
		return fmt.Errorf("commit message: %w", err)
	}
	c.pending = nil
	return nil
}

func (c *Consumer) next(ctx context.Context) (kafka.Message, error) {
	if c.pending != nil {
		return *c.pending, nil
	}
	return c.reader.FetchMessage(ctx)
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
