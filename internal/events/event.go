// Package events relays checkout events from the outbox to Kafka.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const EventTypeOrderCompleted = "order.completed"

// OutboxEvent is an event stored next to the state change that produced it
// and published later by the Relay.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type OrderCompletedItem struct {
	ProductID string          `json:"productId"`
	VariantID string          `json:"variantId,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type OrderCompleted struct {
	CheckoutID    string               `json:"checkoutId"`
	SessionID     string               `json:"sessionId"`
	TransactionID string               `json:"transactionId"`
	OrderID       string               `json:"orderId,omitempty"`
	Items         []OrderCompletedItem `json:"items"`
	Total         decimal.Decimal      `json:"total"`
	CompletedAt   time.Time            `json:"completedAt"`
}

// NewOrderCompletedEvent serializes e into an outbox event keyed by checkout.
func NewOrderCompletedEvent(e OrderCompleted) (OutboxEvent, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("failed to marshal order completed payload: %w", err)
	}
	return OutboxEvent{
		AggregateID: e.CheckoutID,
		EventType:   EventTypeOrderCompleted,
		Payload:     payload,
		CreatedAt:   e.CompletedAt,
	}, nil
}
