// Package gateway models a hosted payment session provider. A session is
// opened for a pending order and settles through exactly one of its
// callbacks.
package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownSession = errors.New("unknown or already settled payment session")
	ErrInvalidAmount  = errors.New("payment amount must be positive")
	ErrInvalidStatus  = errors.New("unknown payment callback status")
)

type Gateway interface {
	OpenSession(ctx context.Context, req SessionRequest, cb Callbacks) (*Session, error)
	CancelSession(ctx context.Context, sessionID string) error
}

// CallbackReceiver accepts provider notifications delivered out of band.
type CallbackReceiver interface {
	Resolve(ctx context.Context, cb Callback) error
}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type SessionRequest struct {
	OrderID       uuid.UUID       `json:"order_id"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Customer      Contact         `json:"customer"`
	Description   string          `json:"description"`
}

type Session struct {
	ID          string          `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	CheckoutURL string          `json:"checkout_url"`
	OpenedAt    time.Time       `json:"opened_at"`
}

type Callbacks struct {
	OnSuccess func(paymentID string)
	OnFailure func(reason string)
}

type CallbackStatus string

const (
	CallbackSucceeded CallbackStatus = "succeeded"
	CallbackFailed    CallbackStatus = "failed"
	CallbackCancelled CallbackStatus = "cancelled"
)

// Callback is a provider notification. SessionID wins over OrderID when
// both are set.
type Callback struct {
	SessionID string         `json:"session_id"`
	OrderID   uuid.UUID      `json:"order_id"`
	Status    CallbackStatus `json:"status"`
	PaymentID string         `json:"payment_id"`
	Reason    string         `json:"reason"`
}

type pending struct {
	session   Session
	callbacks Callbacks
}

// Registry tracks open sessions. Each session is settled or cancelled at
// most once; later notifications get ErrUnknownSession.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*pending
	byOrder  map[uuid.UUID]string
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*pending),
		byOrder:  make(map[uuid.UUID]string),
	}
}

func (r *Registry) Register(session Session, cb Callbacks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = &pending{session: session, callbacks: cb}
	r.byOrder[session.OrderID] = session.ID
}

func (r *Registry) Lookup(sessionID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	return p.session, true
}

// Resolve settles a session and fires its callback outside the lock.
func (r *Registry) Resolve(cb Callback) error {
	switch cb.Status {
	case CallbackSucceeded, CallbackFailed, CallbackCancelled:
	default:
		return ErrInvalidStatus
	}

	p, ok := r.take(cb.SessionID, cb.OrderID)
	if !ok {
		return ErrUnknownSession
	}

	if cb.Status == CallbackSucceeded {
		if p.callbacks.OnSuccess != nil {
			p.callbacks.OnSuccess(cb.PaymentID)
		}
		return nil
	}

	reason := cb.Reason
	if reason == "" {
		reason = "payment " + string(cb.Status)
	}
	if p.callbacks.OnFailure != nil {
		p.callbacks.OnFailure(reason)
	}
	return nil
}

// Cancel drops a session without firing any callback.
func (r *Registry) Cancel(sessionID string) error {
	if _, ok := r.take(sessionID, uuid.Nil); !ok {
		return ErrUnknownSession
	}
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) take(sessionID string, orderID uuid.UUID) (*pending, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sessionID == "" && orderID != uuid.Nil {
		sessionID = r.byOrder[orderID]
	}
	p, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	delete(r.sessions, sessionID)
	if r.byOrder[p.session.OrderID] == sessionID {
		delete(r.byOrder, p.session.OrderID)
	}
	return p, true
}
