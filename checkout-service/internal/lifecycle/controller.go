// Package lifecycle drives one checkout's order from creation through the
// payment session to its settled state.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/gateway"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/metrics"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/pricing"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/events"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	callbackTimeout = 10 * time.Second
	// cancelRetryDelay bounds how long an expired session waits before
	// its cancellation is tried again.
	cancelRetryDelay = 30 * time.Second
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, draft types.OrderDraft) (*types.Order, error)
}

type CartClearer interface {
	ClearCart(ctx context.Context, userID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.CheckoutEvent) error
}

// Result describes a settled attempt.
type Result struct {
	UserID        string
	OrderID       uuid.UUID
	CorrelationID uuid.UUID
	Amount        decimal.Decimal
	PaymentID     string
	Reason        string
	CartCleared   bool
}

type Hooks struct {
	OnPaid   func(Result)
	OnFailed func(Result)
}

type Dependencies struct {
	Orders         OrderCreator
	Gateway        gateway.Gateway
	Cart           CartClearer
	Publisher      EventPublisher
	Logger         *zap.Logger
	Currency       string
	SessionTimeout time.Duration
}

type PlaceOrderRequest struct {
	UserID        string
	Cart          *types.CartSnapshot
	Bill          pricing.Bill
	Address       *types.OrderAddress
	LiveLocation  *types.Coordinates
	Profile       *types.Profile
	CouponCode    string
	GiftPackaging bool
	GSTIN         string
}

// Attempt is the frozen record of one place-order attempt.
type Attempt struct {
	CorrelationID uuid.UUID           `json:"correlation_id"`
	UserID        string              `json:"user_id"`
	Draft         types.OrderDraft    `json:"draft"`
	Cart          *types.CartSnapshot `json:"-"`
	Order         *types.Order        `json:"order,omitempty"`
	Session       *gateway.Session    `json:"session,omitempty"`
	PaymentID     string              `json:"payment_id,omitempty"`
	FailureReason string              `json:"failure_reason,omitempty"`
	CartCleared   bool                `json:"cart_cleared"`
}

type Snapshot struct {
	State   State        `json:"state"`
	Attempt *Attempt     `json:"attempt,omitempty"`
	History []Transition `json:"history"`
}

// Controller is the order lifecycle state machine for one checkout. Its
// mutex is never held across a network call; callbacks from the gateway
// arrive on other goroutines and are serialized by it.
type Controller struct {
	deps  Dependencies
	hooks Hooks

	mu      sync.Mutex
	state   State
	history []Transition
	attempt *Attempt
	timer   *time.Timer
}

func NewController(deps Dependencies, hooks Hooks) *Controller {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Controller{
		deps:  deps,
		hooks: hooks,
		state: StateNoOrder,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:   c.state,
		History: make([]Transition, len(c.history)),
	}
	copy(snap.History, c.history)
	if c.attempt != nil {
		a := *c.attempt
		snap.Attempt = &a
	}
	return snap
}

// CheckPreconditions validates everything PlaceOrder needs without touching
// state or the network.
func CheckPreconditions(req PlaceOrderRequest) error {
	if req.Address == nil {
		return invalid("address", "select a delivery address")
	}
	if !req.Address.HasCityAndPincode() {
		field := "address.pincode"
		if req.Address.Pincode != "" {
			field = "address.city"
		}
		return invalid(field, "the delivery address needs a city and pincode")
	}
	if req.Address.Coordinates() == nil && req.LiveLocation == nil {
		return invalid("location", "pin the delivery location on the map")
	}
	if req.Cart.IsEmpty() || len(req.Bill.Lines) == 0 {
		return invalid("cart", "your cart is empty")
	}
	if req.Profile == nil || req.Profile.IsPlaceholder() {
		return ErrProfileIncomplete
	}
	return nil
}

// PlaceOrder creates a pending order from the request's bill and opens a
// payment session for it. It returns once the session is open; settlement
// arrives later through the gateway callbacks.
func (c *Controller) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Attempt, error) {
	if err := c.admit(); err != nil {
		return nil, err
	}
	if err := CheckPreconditions(req); err != nil {
		metrics.OrdersPlacedTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	correlationID := uuid.New()
	draft := buildDraft(correlationID, req, c.deps.Currency)

	c.mu.Lock()
	if err := c.admitLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.attempt = &Attempt{
		CorrelationID: correlationID,
		UserID:        req.UserID,
		Draft:         draft,
		Cart:          req.Cart.Clone(),
	}
	c.transitionLocked(StateCreating, "place order")
	c.mu.Unlock()

	order, err := c.deps.Orders.CreateOrder(ctx, draft)
	if err != nil {
		c.mu.Lock()
		c.transitionLocked(StateNoOrder, err.Error())
		c.attempt = nil
		c.mu.Unlock()
		metrics.OrdersPlacedTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("create order: %w", err)
	}
	metrics.OrdersPlacedTotal.WithLabelValues("created").Inc()

	c.mu.Lock()
	c.attempt.Order = order
	c.transitionLocked(StatePendingPayment, "order "+order.ID.String())
	// Paying covers the window in which the session is being opened so a
	// callback racing the open call is still accepted.
	c.transitionLocked(StatePaying, "open payment session")
	c.mu.Unlock()

	c.deps.Logger.Info("order created",
		zap.String("user_id", req.UserID),
		zap.String("order_id", order.ID.String()),
		zap.String("correlation_id", correlationID.String()),
		zap.String("total", draft.TotalAmount.String()))

	if !draft.TotalAmount.IsPositive() {
		// Nothing to collect.
		if err := c.HandlePaymentSuccess(ctx, correlationID, ""); err != nil {
			return nil, err
		}
		return c.currentAttempt(), nil
	}

	session, err := c.deps.Gateway.OpenSession(ctx, gateway.SessionRequest{
		OrderID:       order.ID,
		CorrelationID: correlationID,
		Amount:        draft.TotalAmount,
		Currency:      draft.Currency,
		Customer:      contactFor(req),
		Description:   fmt.Sprintf("Order %s", order.ID),
	}, gateway.Callbacks{
		OnSuccess: func(paymentID string) {
			cbCtx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
			defer cancel()
			if err := c.HandlePaymentSuccess(cbCtx, correlationID, paymentID); err != nil {
				c.deps.Logger.Warn("payment success ignored", zap.Error(err))
			}
		},
		OnFailure: func(reason string) {
			cbCtx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
			defer cancel()
			if err := c.HandlePaymentFailure(cbCtx, correlationID, reason); err != nil {
				c.deps.Logger.Warn("payment failure ignored", zap.Error(err))
			}
		},
	})
	if err != nil {
		reason := fmt.Sprintf("could not start payment: %v", err)
		if ferr := c.HandlePaymentFailure(ctx, correlationID, reason); ferr != nil && !errors.Is(ferr, ErrAlreadyPaid) {
			c.deps.Logger.Warn("payment open failure not recorded", zap.Error(ferr))
		}
		return nil, fmt.Errorf("open payment session: %w", err)
	}

	c.mu.Lock()
	if c.state == StatePaying && c.attempt != nil && c.attempt.CorrelationID == correlationID {
		c.attempt.Session = session
		c.armTimerLocked(correlationID, session.ID, c.deps.SessionTimeout)
	}
	c.mu.Unlock()

	return c.currentAttempt(), nil
}

// HandlePaymentSuccess settles the attempt as paid. Repeated deliveries for
// an already paid attempt are no-ops, so the cart is cleared exactly once.
func (c *Controller) HandlePaymentSuccess(ctx context.Context, correlationID uuid.UUID, paymentID string) error {
	c.mu.Lock()
	if c.attempt == nil || c.attempt.CorrelationID != correlationID {
		c.mu.Unlock()
		return ErrUnknownAttempt
	}
	switch c.state {
	case StatePaid:
		c.mu.Unlock()
		return nil
	case StatePaying:
	default:
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: payment success in %s", ErrIllegalTransition, state)
	}
	c.stopTimerLocked()
	c.attempt.PaymentID = paymentID
	c.transitionLocked(StatePaid, "payment "+paymentID)
	attempt := *c.attempt
	c.mu.Unlock()

	cleared := true
	if err := c.deps.Cart.ClearCart(ctx, attempt.UserID); err != nil {
		cleared = false
		c.deps.Logger.Error("cart clear after payment failed",
			zap.String("user_id", attempt.UserID),
			zap.String("order_id", attempt.Order.ID.String()),
			zap.Error(err))
	}

	c.mu.Lock()
	if c.attempt != nil && c.attempt.CorrelationID == correlationID {
		c.attempt.CartCleared = cleared
	}
	c.mu.Unlock()

	result := resultOf(attempt)
	result.CartCleared = cleared
	metrics.PaymentOutcomesTotal.WithLabelValues("succeeded").Inc()
	c.publish(ctx, events.PaymentSucceededEvent, attempt, types.PaymentStatusSucceeded, "")

	c.deps.Logger.Info("order paid",
		zap.String("order_id", result.OrderID.String()),
		zap.String("payment_id", paymentID))

	if c.hooks.OnPaid != nil {
		c.hooks.OnPaid(result)
	}
	return nil
}

// HandlePaymentFailure moves the attempt to Failed and leaves the cart
// alone. The customer has to place the order again.
func (c *Controller) HandlePaymentFailure(ctx context.Context, correlationID uuid.UUID, reason string) error {
	c.mu.Lock()
	if c.attempt == nil || c.attempt.CorrelationID != correlationID {
		c.mu.Unlock()
		return ErrUnknownAttempt
	}
	switch c.state {
	case StateFailed:
		c.mu.Unlock()
		return nil
	case StatePaid:
		c.mu.Unlock()
		return ErrAlreadyPaid
	case StatePaying, StatePendingPayment:
	default:
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: payment failure in %s", ErrIllegalTransition, state)
	}
	c.stopTimerLocked()
	c.attempt.FailureReason = reason
	c.transitionLocked(StateFailed, reason)
	attempt := *c.attempt
	c.mu.Unlock()

	metrics.PaymentOutcomesTotal.WithLabelValues("failed").Inc()
	c.publish(ctx, events.PaymentFailedEvent, attempt, types.PaymentStatusFailed, reason)

	c.deps.Logger.Info("payment failed",
		zap.String("order_id", attempt.Order.ID.String()),
		zap.String("reason", reason))

	if c.hooks.OnFailed != nil {
		result := resultOf(attempt)
		result.Reason = reason
		c.hooks.OnFailed(result)
	}
	return nil
}

// Abandon cancels a waiting payment session and fails the attempt.
func (c *Controller) Abandon(ctx context.Context, reason string) error {
	c.mu.Lock()
	if c.state != StatePaying || c.attempt == nil {
		c.mu.Unlock()
		return nil
	}
	correlationID := c.attempt.CorrelationID
	var sessionID string
	if c.attempt.Session != nil {
		sessionID = c.attempt.Session.ID
	}
	c.mu.Unlock()

	if sessionID == "" {
		return ErrOrderInProgress
	}
	if err := c.deps.Gateway.CancelSession(ctx, sessionID); err != nil {
		if errors.Is(err, gateway.ErrUnknownSession) {
			// Already settled by the provider.
			return nil
		}
		return fmt.Errorf("cancel payment session: %w", err)
	}
	return c.HandlePaymentFailure(ctx, correlationID, reason)
}

func (c *Controller) admit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.admitLocked()
}

func (c *Controller) admitLocked() error {
	switch {
	case c.state == StatePaid:
		return ErrAlreadyPaid
	case c.state.InFlight():
		return ErrOrderInProgress
	}
	return nil
}

func (c *Controller) currentAttempt() *Attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt == nil {
		return nil
	}
	a := *c.attempt
	return &a
}

func (c *Controller) transitionLocked(to State, reason string) {
	if !CanTransition(c.state, to) {
		// Guarded by every caller; reaching this is a programming error.
		panic(fmt.Sprintf("lifecycle: illegal transition %s -> %s", c.state, to))
	}
	var correlationID uuid.UUID
	if c.attempt != nil {
		correlationID = c.attempt.CorrelationID
	}
	c.history = append(c.history, Transition{
		From:          c.state,
		To:            to,
		CorrelationID: correlationID,
		Reason:        reason,
		At:            time.Now().UTC(),
	})
	c.state = to
}

func (c *Controller) armTimerLocked(correlationID uuid.UUID, sessionID string, after time.Duration) {
	if after <= 0 {
		return
	}
	c.stopTimerLocked()
	c.timer = time.AfterFunc(after, func() {
		c.expire(correlationID, sessionID)
	})
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) expire(correlationID uuid.UUID, sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
	defer cancel()

	c.mu.Lock()
	live := c.state == StatePaying && c.attempt != nil && c.attempt.CorrelationID == correlationID
	c.mu.Unlock()
	if !live {
		return
	}

	if err := c.deps.Gateway.CancelSession(ctx, sessionID); err != nil {
		if errors.Is(err, gateway.ErrUnknownSession) {
			c.deps.Logger.Info("expired session already settled", zap.String("session_id", sessionID))
			return
		}
		// The provider may still settle the session, so the attempt stays
		// open until the cancellation goes through.
		c.deps.Logger.Warn("expired session not cancelled, retrying",
			zap.String("session_id", sessionID), zap.Error(err))
		retry := cancelRetryDelay
		if c.deps.SessionTimeout < retry {
			retry = c.deps.SessionTimeout
		}
		c.mu.Lock()
		if c.state == StatePaying && c.attempt != nil && c.attempt.CorrelationID == correlationID {
			c.armTimerLocked(correlationID, sessionID, retry)
		}
		c.mu.Unlock()
		return
	}
	metrics.PaymentOutcomesTotal.WithLabelValues("timeout").Inc()
	if err := c.HandlePaymentFailure(ctx, correlationID, "payment session timed out"); err != nil {
		c.deps.Logger.Warn("timeout not recorded", zap.Error(err))
	}
}

func (c *Controller) publish(ctx context.Context, eventType events.CheckoutEventType, attempt Attempt, status types.PaymentStatus, reason string) {
	if c.deps.Publisher == nil || attempt.Order == nil {
		return
	}
	outcome := types.PaymentOutcome{
		OrderID:       attempt.Order.ID,
		CorrelationID: attempt.CorrelationID,
		UserID:        attempt.UserID,
		Status:        status,
		Amount:        attempt.Draft.TotalAmount,
		PaymentID:     attempt.PaymentID,
		Reason:        reason,
		SettledAt:     time.Now().UTC(),
	}
	if attempt.Session != nil {
		outcome.SessionID = attempt.Session.ID
	}

	event, err := events.NewCheckoutEvent(events.ServiceCheckout, eventType, attempt.Order.ID, attempt.CorrelationID, attempt.UserID, events.PaymentOutcomePayload{Outcome: outcome})
	if err != nil {
		c.deps.Logger.Error("build payment event failed", zap.Error(err))
		return
	}
	if err := c.deps.Publisher.Publish(ctx, event); err != nil {
		c.deps.Logger.Warn("publish payment event failed",
			zap.String("event_type", string(eventType)),
			zap.String("order_id", attempt.Order.ID.String()),
			zap.Error(err))
	}
}

func resultOf(a Attempt) Result {
	r := Result{
		UserID:        a.UserID,
		CorrelationID: a.CorrelationID,
		Amount:        a.Draft.TotalAmount,
		PaymentID:     a.PaymentID,
	}
	if a.Order != nil {
		r.OrderID = a.Order.ID
	}
	return r
}

func contactFor(req PlaceOrderRequest) gateway.Contact {
	contact := gateway.Contact{Phone: req.Address.Phone}
	if req.Profile != nil {
		contact.Name = req.Profile.Name
		contact.Email = req.Profile.Email
		if req.Profile.Phone != "" {
			contact.Phone = req.Profile.Phone
		}
	}
	return contact
}

// buildDraft freezes the bill and address into an order draft. Nothing in
// the draft aliases the caller's cart or bill.
func buildDraft(correlationID uuid.UUID, req PlaceOrderRequest, currency string) types.OrderDraft {
	bill := req.Bill
	items := make([]types.OrderItem, 0, len(bill.Lines))
	for _, line := range bill.Lines {
		items = append(items, types.OrderItem{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Name:      line.Name,
			PackLabel: line.PackLabel,
			Quantity:  line.Quantity,
			MRP:       line.MRP,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal,
		})
	}

	address := *req.Address
	if address.Coordinates() == nil && req.LiveLocation != nil {
		lat, lng := req.LiveLocation.Latitude, req.LiveLocation.Longitude
		address.Latitude = &lat
		address.Longitude = &lng
	} else if address.Coordinates() != nil {
		lat, lng := *address.Latitude, *address.Longitude
		address.Latitude = &lat
		address.Longitude = &lng
	}

	return types.OrderDraft{
		CorrelationID: correlationID,
		UserID:        req.UserID,
		Items:         items,
		Fees: types.FeeBreakdown{
			ItemsTotal:       bill.ItemsTotal,
			DiscountedTotal:  bill.DiscountedTotal,
			HandlingCharge:   bill.HandlingCharge,
			DeliveryCharge:   bill.DeliveryCharge,
			CouponDiscount:   bill.CouponDiscount,
			TipAmount:        bill.TipAmount,
			GiftPackagingFee: bill.GiftPackagingFee,
		},
		TotalAmount:   bill.GrandTotal,
		Currency:      currency,
		Address:       address,
		CouponCode:    req.CouponCode,
		GiftPackaging: req.GiftPackaging,
		GSTIN:         req.GSTIN,
	}
}
