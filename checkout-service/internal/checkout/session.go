package checkout

import (
	"sync"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/coupon"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/lifecycle"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type NoticeKind string

const (
	NoticeError             NoticeKind = "error"
	NoticeInfo              NoticeKind = "info"
	NoticeCouponCelebration NoticeKind = "coupon_celebration"
	NoticePaymentSucceeded  NoticeKind = "payment_succeeded"
	NoticePaymentFailed     NoticeKind = "payment_failed"
)

// Notice is a transient message shown once and then dropped.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
}

type Success struct {
	OrderID   uuid.UUID       `json:"order_id"`
	PaymentID string          `json:"payment_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

type tipSelection struct {
	preset *decimal.Decimal
	custom *decimal.Decimal
}

func (t tipSelection) amount() decimal.Decimal {
	switch {
	case t.custom != nil:
		return *t.custom
	case t.preset != nil:
		return *t.preset
	}
	return decimal.Zero
}

type settlement struct {
	paid   bool
	result lifecycle.Result
}

// inbox collects payment outcomes from gateway goroutines. It has its own
// lock so callbacks never wait on the session.
type inbox struct {
	mu          sync.Mutex
	settlements []settlement
}

func (i *inbox) push(s settlement) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.settlements = append(i.settlements, s)
}

func (i *inbox) drain() []settlement {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.settlements
	i.settlements = nil
	return out
}

// Session is one customer's checkout. Every field below mu is guarded by
// it; operations on a session run one at a time.
type Session struct {
	userID     string
	controller *lifecycle.Controller
	coupon     *coupon.Selection
	inbox      *inbox

	mu                sync.Mutex
	loaded            bool
	closed            bool
	cart              *types.CartSnapshot
	addresses         []types.OrderAddress
	selectedAddressID string
	liveLocation      *types.Coordinates
	pricedAt          *types.Coordinates
	profile           *types.Profile
	tip               tipSelection
	giftPackaging     bool
	gstin             string
	pendingPlacement  bool
	success           *Success
	notices           []Notice
	orderIDs          []uuid.UUID
	lastActive        time.Time
}

func (s *Session) notifyLocked(kind NoticeKind, message string) {
	s.notices = append(s.notices, Notice{Kind: kind, Message: message, At: time.Now().UTC()})
}

func (s *Session) selectedAddressLocked() *types.OrderAddress {
	for i := range s.addresses {
		if s.addresses[i].ID == s.selectedAddressID {
			a := s.addresses[i]
			return &a
		}
	}
	return nil
}

// deliveryTargetLocked is where the order would be delivered right now:
// the selected address's pin, else the customer's live location.
func (s *Session) deliveryTargetLocked() *types.Coordinates {
	if addr := s.selectedAddressLocked(); addr != nil {
		if c := addr.Coordinates(); c != nil {
			return c
		}
	}
	if s.liveLocation != nil {
		c := *s.liveLocation
		return &c
	}
	return nil
}
