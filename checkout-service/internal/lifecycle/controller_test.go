package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/gateway"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/pricing"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/events"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOrders struct {
	mu     sync.Mutex
	drafts []types.OrderDraft
	err    error
}

func (f *fakeOrders) CreateOrder(ctx context.Context, draft types.OrderDraft) (*types.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, draft)
	if f.err != nil {
		return nil, f.err
	}
	return &types.Order{
		ID:            uuid.New(),
		CorrelationID: draft.CorrelationID,
		UserID:        draft.UserID,
		TotalAmount:   draft.TotalAmount,
		Status:        types.OrderStatusPending,
	}, nil
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.drafts)
}

type fakeCart struct {
	mu     sync.Mutex
	clears int
	err    error
}

func (f *fakeCart) ClearCart(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return f.err
}

func (f *fakeCart) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.CheckoutEvent
}

func (f *fakePublisher) Publish(ctx context.Context, event events.CheckoutEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) types() []events.CheckoutEventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]events.CheckoutEventType, len(f.events))
	for i, e := range f.events {
		out[i] = e.EventType
	}
	return out
}

type fakeGateway struct {
	mu        sync.Mutex
	requests  []gateway.SessionRequest
	callbacks []gateway.Callbacks
	cancelled []string
	openErr   error
	cancelErr error
	// cancelFails makes the next n cancellations fail with a transport error.
	cancelFails int
}

func (f *fakeGateway) OpenSession(ctx context.Context, req gateway.SessionRequest, cb gateway.Callbacks) (*gateway.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.requests = append(f.requests, req)
	f.callbacks = append(f.callbacks, cb)
	return &gateway.Session{
		ID:       fmt.Sprintf("ps_%d", len(f.requests)),
		OrderID:  req.OrderID,
		Amount:   req.Amount,
		Currency: req.Currency,
		OpenedAt: time.Now(),
	}, nil
}

func (f *fakeGateway) CancelSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, sessionID)
	if f.cancelFails > 0 {
		f.cancelFails--
		return errors.New("gateway unreachable")
	}
	return f.cancelErr
}

func (f *fakeGateway) last() gateway.Callbacks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callbacks[len(f.callbacks)-1]
}

type harness struct {
	orders    *fakeOrders
	cart      *fakeCart
	publisher *fakePublisher
	gateway   *fakeGateway
	paid      []Result
	failed    []Result
	mu        sync.Mutex
	ctrl      *Controller
}

func newHarness(timeout time.Duration) *harness {
	h := &harness{
		orders:    &fakeOrders{},
		cart:      &fakeCart{},
		publisher: &fakePublisher{},
		gateway:   &fakeGateway{},
	}
	h.ctrl = NewController(Dependencies{
		Orders:         h.orders,
		Gateway:        h.gateway,
		Cart:           h.cart,
		Publisher:      h.publisher,
		Logger:         zap.NewNop(),
		Currency:       "INR",
		SessionTimeout: timeout,
	}, Hooks{
		OnPaid: func(r Result) {
			h.mu.Lock()
			h.paid = append(h.paid, r)
			h.mu.Unlock()
		},
		OnFailed: func(r Result) {
			h.mu.Lock()
			h.failed = append(h.failed, r)
			h.mu.Unlock()
		},
	})
	return h
}

func ptr(f float64) *float64 { return &f }

func validRequest() PlaceOrderRequest {
	cart := &types.CartSnapshot{
		UserID: "u1",
		Items: []types.CartItem{{
			ID:       "i1",
			Product:  types.ProductSnapshot{ID: "p1", Name: "Milk", Price: decimal.NewFromInt(50), MRP: decimal.NewFromInt(60)},
			Quantity: 2,
		}},
		FreeDeliveryThreshold: decimal.NewFromInt(499),
		PlatformFee:           decimal.NewFromInt(10),
	}
	cfg := pricing.Config{FlatDeliveryFee: decimal.NewFromInt(30), GiftPackagingFee: decimal.NewFromInt(30)}
	return PlaceOrderRequest{
		UserID: "u1",
		Cart:   cart,
		Bill:   pricing.Derive(cart, pricing.Options{}, cfg),
		Address: &types.OrderAddress{
			ID: "a1", Name: "Asha", Phone: "9000000000", Street: "1 MG Road",
			City: "Bengaluru", State: "KA", Pincode: "560001",
			Latitude: ptr(12.97), Longitude: ptr(77.59),
		},
		Profile: &types.Profile{UserID: "u1", Name: "Asha Rao", Email: "asha@example.com", Phone: "9000000000"},
	}
}

func TestPlaceOrderRejectsMissingPincode(t *testing.T) {
	h := newHarness(0)
	req := validRequest()
	req.Address.Pincode = ""

	_, err := h.ctrl.PlaceOrder(context.Background(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "address.pincode", verr.Field)
	assert.Zero(t, h.orders.count())
	assert.Equal(t, StateNoOrder, h.ctrl.State())
	assert.Empty(t, h.ctrl.Snapshot().History)
}

func TestPlaceOrderPreconditions(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*PlaceOrderRequest)
		wantField string
		wantErr   error
	}{
		{name: "no address", mutate: func(r *PlaceOrderRequest) { r.Address = nil }, wantField: "address"},
		{name: "no city", mutate: func(r *PlaceOrderRequest) { r.Address.City = " " }, wantField: "address.city"},
		{
			name: "no coordinates anywhere",
			mutate: func(r *PlaceOrderRequest) {
				r.Address.Latitude = nil
				r.Address.Longitude = nil
			},
			wantField: "location",
		},
		{name: "empty cart", mutate: func(r *PlaceOrderRequest) { r.Cart.Items = nil }, wantField: "cart"},
		{
			name: "only zero quantity lines",
			mutate: func(r *PlaceOrderRequest) {
				r.Cart.Items[0].Quantity = 0
				r.Bill = pricing.Derive(r.Cart, pricing.Options{}, pricing.Config{FlatDeliveryFee: decimal.NewFromInt(30)})
			},
			wantField: "cart",
		},
		{name: "placeholder profile", mutate: func(r *PlaceOrderRequest) { r.Profile.Name = "User" }, wantErr: ErrProfileIncomplete},
		{name: "missing profile", mutate: func(r *PlaceOrderRequest) { r.Profile = nil }, wantErr: ErrProfileIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(0)
			req := validRequest()
			tt.mutate(&req)

			_, err := h.ctrl.PlaceOrder(context.Background(), req)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
			}
			assert.Zero(t, h.orders.count())
			assert.Equal(t, StateNoOrder, h.ctrl.State())
		})
	}
}

func TestPlaceOrderFallsBackToLiveLocation(t *testing.T) {
	h := newHarness(0)
	req := validRequest()
	req.Address.Latitude = nil
	req.Address.Longitude = nil
	req.LiveLocation = &types.Coordinates{Latitude: 12.5, Longitude: 77.5}

	attempt, err := h.ctrl.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	coords := attempt.Draft.Address.Coordinates()
	require.NotNil(t, coords)
	assert.Equal(t, types.Coordinates{Latitude: 12.5, Longitude: 77.5}, *coords)
	assert.Nil(t, req.Address.Latitude, "caller's address is not modified")
}

func TestSuccessfulPaymentClearsCartOnce(t *testing.T) {
	h := newHarness(0)
	ctx := context.Background()

	attempt, err := h.ctrl.PlaceOrder(ctx, validRequest())
	require.NoError(t, err)
	require.NotNil(t, attempt.Session)
	assert.Equal(t, StatePaying, h.ctrl.State())

	req := h.gateway.requests[0]
	assert.True(t, req.Amount.Equal(decimal.NewFromInt(140)))
	assert.Equal(t, "asha@example.com", req.Customer.Email)

	cb := h.gateway.last()
	cb.OnSuccess("pay_1")
	cb.OnSuccess("pay_1")

	assert.Equal(t, StatePaid, h.ctrl.State())
	assert.Equal(t, 1, h.cart.count())
	require.Len(t, h.paid, 1)
	assert.Equal(t, attempt.Order.ID, h.paid[0].OrderID)
	assert.True(t, h.paid[0].CartCleared)
	assert.Equal(t, []events.CheckoutEventType{events.PaymentSucceededEvent}, h.publisher.types())

	snap := h.ctrl.Snapshot()
	assert.Equal(t, "pay_1", snap.Attempt.PaymentID)
	assert.True(t, snap.Attempt.CartCleared)

	_, err = h.ctrl.PlaceOrder(ctx, validRequest())
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestFailedPaymentKeepsCartAndAllowsNewAttempt(t *testing.T) {
	h := newHarness(0)
	ctx := context.Background()

	first, err := h.ctrl.PlaceOrder(ctx, validRequest())
	require.NoError(t, err)

	h.gateway.last().OnFailure("card declined")
	assert.Equal(t, StateFailed, h.ctrl.State())
	assert.Zero(t, h.cart.count())
	require.Len(t, h.failed, 1)
	assert.Equal(t, "card declined", h.failed[0].Reason)
	assert.Equal(t, []events.CheckoutEventType{events.PaymentFailedEvent}, h.publisher.types())

	second, err := h.ctrl.PlaceOrder(ctx, validRequest())
	require.NoError(t, err)
	assert.NotEqual(t, first.CorrelationID, second.CorrelationID)
	assert.NotEqual(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, 2, h.orders.count())

	// A late callback for the first attempt is not applied to the second.
	err = h.ctrl.HandlePaymentSuccess(ctx, first.CorrelationID, "late")
	assert.ErrorIs(t, err, ErrUnknownAttempt)
	assert.Equal(t, StatePaying, h.ctrl.State())
}

func TestPlaceOrderWhileInFlight(t *testing.T) {
	h := newHarness(0)
	ctx := context.Background()

	_, err := h.ctrl.PlaceOrder(ctx, validRequest())
	require.NoError(t, err)

	_, err = h.ctrl.PlaceOrder(ctx, validRequest())
	assert.ErrorIs(t, err, ErrOrderInProgress)
	assert.Equal(t, 1, h.orders.count())
}

func TestOrderCreationFailureReturnsToNoOrder(t *testing.T) {
	h := newHarness(0)
	h.orders.err = errors.New("order service unavailable")

	_, err := h.ctrl.PlaceOrder(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
	assert.Equal(t, StateNoOrder, h.ctrl.State())
	assert.Empty(t, h.gateway.requests)
	assert.Nil(t, h.ctrl.Snapshot().Attempt)
}

func TestGatewayOpenFailureFailsAttempt(t *testing.T) {
	h := newHarness(0)
	h.gateway.openErr = errors.New("provider down")

	_, err := h.ctrl.PlaceOrder(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, StateFailed, h.ctrl.State())
	assert.Zero(t, h.cart.count())
	assert.Equal(t, []events.CheckoutEventType{events.PaymentFailedEvent}, h.publisher.types())
}

func TestPaymentSessionTimeout(t *testing.T) {
	h := newHarness(20 * time.Millisecond)

	attempt, err := h.ctrl.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return h.ctrl.State() == StateFailed
	}, time.Second, 5*time.Millisecond)

	h.gateway.mu.Lock()
	assert.Equal(t, []string{attempt.Session.ID}, h.gateway.cancelled)
	h.gateway.mu.Unlock()
	assert.Equal(t, "payment session timed out", h.ctrl.Snapshot().Attempt.FailureReason)
}

func TestTimeoutRetriesCancellationAfterTransportError(t *testing.T) {
	h := newHarness(20 * time.Millisecond)
	h.gateway.cancelFails = 1

	attempt, err := h.ctrl.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return h.ctrl.State() == StateFailed
	}, time.Second, 5*time.Millisecond)

	h.gateway.mu.Lock()
	assert.Equal(t, []string{attempt.Session.ID, attempt.Session.ID}, h.gateway.cancelled)
	h.gateway.mu.Unlock()
	assert.Equal(t, "payment session timed out", h.ctrl.Snapshot().Attempt.FailureReason)
}

func TestTimeoutForSettledSessionKeepsAttempt(t *testing.T) {
	h := newHarness(20 * time.Millisecond)
	h.gateway.cancelErr = gateway.ErrUnknownSession

	_, err := h.ctrl.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		h.gateway.mu.Lock()
		defer h.gateway.mu.Unlock()
		return len(h.gateway.cancelled) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, StatePaying, h.ctrl.State())
	h.gateway.mu.Lock()
	assert.Len(t, h.gateway.cancelled, 1)
	h.gateway.mu.Unlock()
}

func TestTimeoutAfterSettlementIsIgnored(t *testing.T) {
	h := newHarness(30 * time.Millisecond)

	_, err := h.ctrl.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)
	h.gateway.last().OnSuccess("pay_1")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, StatePaid, h.ctrl.State())
	assert.Empty(t, h.gateway.cancelled)
}

func TestAbandonCancelsSession(t *testing.T) {
	h := newHarness(0)
	ctx := context.Background()

	attempt, err := h.ctrl.PlaceOrder(ctx, validRequest())
	require.NoError(t, err)

	require.NoError(t, h.ctrl.Abandon(ctx, "customer cancelled"))
	assert.Equal(t, StateFailed, h.ctrl.State())
	assert.Equal(t, []string{attempt.Session.ID}, h.gateway.cancelled)
}

func TestZeroTotalSettlesWithoutGateway(t *testing.T) {
	h := newHarness(0)
	req := validRequest()
	req.Bill.GrandTotal = decimal.Zero

	attempt, err := h.ctrl.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatePaid, h.ctrl.State())
	assert.Nil(t, attempt.Session)
	assert.Empty(t, h.gateway.requests)
	assert.Equal(t, 1, h.cart.count())
}

func TestDraftIsFrozen(t *testing.T) {
	h := newHarness(0)
	req := validRequest()

	attempt, err := h.ctrl.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	req.Cart.Items[0].Quantity = 10
	req.Bill.Lines[0].Quantity = 10
	*req.Address.Latitude = 0

	snap := h.ctrl.Snapshot()
	assert.Equal(t, 2, snap.Attempt.Draft.Items[0].Quantity)
	assert.Equal(t, 2, snap.Attempt.Cart.Items[0].Quantity)
	assert.Equal(t, 12.97, *snap.Attempt.Draft.Address.Latitude)
	assert.True(t, attempt.Draft.TotalAmount.Equal(decimal.NewFromInt(140)))
	assert.Equal(t, "INR", attempt.Draft.Currency)
}

func TestHistoryRecordsTransitions(t *testing.T) {
	h := newHarness(0)

	_, err := h.ctrl.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)
	h.gateway.last().OnSuccess("pay_1")

	var path []State
	for _, tr := range h.ctrl.Snapshot().History {
		require.True(t, CanTransition(tr.From, tr.To))
		path = append(path, tr.To)
	}
	assert.Equal(t, []State{StateCreating, StatePendingPayment, StatePaying, StatePaid}, path)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StateNoOrder, StateCreating))
	assert.True(t, CanTransition(StateFailed, StateCreating))
	assert.True(t, CanTransition(StateCreating, StateNoOrder))
	assert.False(t, CanTransition(StatePaid, StateFailed))
	assert.False(t, CanTransition(StateNoOrder, StatePaid))
	assert.False(t, CanTransition(StatePaying, StateCreating))
	assert.Empty(t, Transitions(StatePaid))
}
