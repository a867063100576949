package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockGateway is an in-process provider. With AutoComplete it settles each
// session itself after Delay, failing a FailureRate share of them; without
// it sessions wait for a webhook through Resolve.
type MockGateway struct {
	FailureRate     float64
	Delay           time.Duration
	AutoComplete    bool
	CheckoutBaseURL string

	registry *Registry
	logger   *zap.Logger
	roll     func() float64
}

func NewMockGateway(failureRate float64, delay time.Duration, autoComplete bool, checkoutBaseURL string, logger *zap.Logger) *MockGateway {
	return &MockGateway{
		FailureRate:     failureRate,
		Delay:           delay,
		AutoComplete:    autoComplete,
		CheckoutBaseURL: strings.TrimRight(checkoutBaseURL, "/"),
		registry:        NewRegistry(),
		logger:          logger,
		roll:            rand.Float64,
	}
}

func (m *MockGateway) OpenSession(ctx context.Context, req SessionRequest, cb Callbacks) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	id := "ps_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	session := Session{
		ID:          id,
		OrderID:     req.OrderID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		CheckoutURL: fmt.Sprintf("%s/%s", m.CheckoutBaseURL, id),
		OpenedAt:    time.Now().UTC(),
	}
	m.registry.Register(session, cb)

	m.logger.Info("payment session opened",
		zap.String("session_id", id),
		zap.String("order_id", req.OrderID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("currency", req.Currency))

	if m.AutoComplete {
		time.AfterFunc(m.Delay, func() { m.settle(id) })
	}

	return &session, nil
}

func (m *MockGateway) CancelSession(ctx context.Context, sessionID string) error {
	if err := m.registry.Cancel(sessionID); err != nil {
		return err
	}
	m.logger.Info("payment session cancelled", zap.String("session_id", sessionID))
	return nil
}

func (m *MockGateway) Resolve(ctx context.Context, cb Callback) error {
	return m.registry.Resolve(cb)
}

func (m *MockGateway) settle(sessionID string) {
	cb := Callback{SessionID: sessionID, Status: CallbackSucceeded}
	if m.roll() < m.FailureRate {
		cb.Status = CallbackFailed
		cb.Reason = "Insufficient funds"
	} else {
		cb.PaymentID = fmt.Sprintf("TXN_%s", uuid.New().String()[:8])
	}

	if err := m.registry.Resolve(cb); err != nil {
		// Cancelled or settled by webhook first.
		m.logger.Debug("mock settlement skipped", zap.String("session_id", sessionID), zap.Error(err))
	}
}
