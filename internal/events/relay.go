package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Outbox is the store side of the relay.
type Outbox interface {
	PendingEvents(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkEventPublished(ctx context.Context, id int64) error
}

// Relay polls the outbox and publishes pending events in order. An event that
// fails to publish stays pending and is retried on the next tick.
type Relay struct {
	outbox    Outbox
	publisher Publisher
	logger    *zap.Logger
	tick      time.Duration
	batch     int
}

func NewRelay(outbox Outbox, publisher Publisher, logger *zap.Logger, tick time.Duration) *Relay {
	if tick <= 0 {
		tick = time.Second
	}
	return &Relay{outbox: outbox, publisher: publisher, logger: logger, tick: tick, batch: 100}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.publishPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// publishPending returns the number of events published.
func (r *Relay) publishPending(ctx context.Context) int {
	pending, err := r.outbox.PendingEvents(ctx, r.batch)
	if err != nil {
		r.logger.Error("failed to fetch outbox events", zap.Error(err))
		return 0
	}

	published := 0
	for _, event := range pending {
		if err := r.publisher.Publish(ctx, event); err != nil {
			r.logger.Warn("failed to publish event",
				zap.Int64("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Error(err),
			)
			continue
		}
		if err := r.outbox.MarkEventPublished(ctx, event.ID); err != nil {
			r.logger.Warn("failed to mark event as published",
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		published++
	}
	return published
}
