package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentOutcome is the settled result of one payment session.
type PaymentOutcome struct {
	OrderID       uuid.UUID       `json:"order_id"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	UserID        string          `json:"user_id"`
	SessionID     string          `json:"session_id"`
	Status        PaymentStatus   `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentID     string          `json:"payment_id,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	SettledAt     time.Time       `json:"settled_at"`
}
