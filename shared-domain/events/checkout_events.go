package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/google/uuid"
)

type CheckoutEventType string

const (
	OrderCreatedEvent     CheckoutEventType = "order.created"
	PaymentSucceededEvent CheckoutEventType = "payment.succeeded"
	PaymentFailedEvent    CheckoutEventType = "payment.failed"
)

const (
	ServiceCheckout = "checkout"
	ServiceOrder    = "order"
)

type CheckoutEvent struct {
	ID            uuid.UUID         `json:"id"`
	OrderID       uuid.UUID         `json:"order_id"`
	CorrelationID uuid.UUID         `json:"correlation_id"`
	UserID        string            `json:"user_id"`
	EventType     CheckoutEventType `json:"event_type"`
	Payload       json.RawMessage   `json:"payload"`
	Timestamp     time.Time         `json:"timestamp"`
	Service       string            `json:"service"`
}

type OrderCreatedPayload struct {
	Order types.Order `json:"order"`
}

type PaymentOutcomePayload struct {
	Outcome types.PaymentOutcome `json:"outcome"`
}

// NewCheckoutEvent stamps a fresh id and timestamp and encodes payload.
func NewCheckoutEvent(service string, eventType CheckoutEventType, orderID, correlationID uuid.UUID, userID string, payload interface{}) (CheckoutEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return CheckoutEvent{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return CheckoutEvent{
		ID:            uuid.New(),
		OrderID:       orderID,
		CorrelationID: correlationID,
		UserID:        userID,
		EventType:     eventType,
		Payload:       body,
		Timestamp:     time.Now().UTC(),
		Service:       service,
	}, nil
}

func (e CheckoutEvent) DecodePayload(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", e.ID)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return nil
}
