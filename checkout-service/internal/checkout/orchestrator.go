// Package checkout composes pricing, coupons, delivery estimates and the
// order lifecycle into per-customer checkout sessions.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/clients"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/coupon"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/delivery"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/gateway"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/lifecycle"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/metrics"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/pricing"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	TipPresets   = []decimal.Decimal{decimal.NewFromInt(10), decimal.NewFromInt(20), decimal.NewFromInt(30), decimal.NewFromInt(50)}
	MaxCustomTip = decimal.NewFromInt(500)
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (*types.CartSnapshot, error)
	UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*types.CartSnapshot, error)
	RemoveItem(ctx context.Context, userID, itemID string) (*types.CartSnapshot, error)
	ClearCart(ctx context.Context, userID string) error
	RefreshDeliveryEstimate(ctx context.Context, userID string, at types.Coordinates) (*types.DeliveryEstimate, error)
}

type AddressService interface {
	ListAddresses(ctx context.Context, userID string) ([]types.OrderAddress, error)
	UpdateAddress(ctx context.Context, addressID string, patch types.AddressPatch) (*types.OrderAddress, error)
}

type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*types.Profile, error)
	UpdateProfile(ctx context.Context, userID string, update types.ProfileUpdate) (*types.Profile, error)
}

type CouponService interface {
	Available(ctx context.Context) ([]types.Coupon, error)
	Apply(ctx context.Context, userID string, sel *coupon.Selection, code string, subtotal decimal.Decimal) (coupon.ApplyResult, error)
}

type Dependencies struct {
	Cart           CartService
	Addresses      AddressService
	Profiles       ProfileService
	Orders         lifecycle.OrderCreator
	Coupons        CouponService
	Gateway        gateway.Gateway
	Callbacks      gateway.CallbackReceiver
	Publisher      lifecycle.EventPublisher
	Pricing        pricing.Config
	Currency       string
	SessionTimeout time.Duration
	// IdleTimeout is how long an untouched session is kept. Zero keeps
	// sessions until they are closed.
	IdleTimeout time.Duration
	Logger      *zap.Logger
}

type Orchestrator struct {
	deps     Dependencies
	resolver *delivery.Resolver
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	orders   map[uuid.UUID]string
}

func NewOrchestrator(deps Dependencies) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Orchestrator{
		deps:     deps,
		resolver: delivery.NewResolver(deps.Cart, deps.Logger),
		validate: validator.New(),
		logger:   deps.Logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
		orders:   make(map[uuid.UUID]string),
	}
}

// Open starts a checkout for userID. An existing session is brought up to
// date with the cart, addresses and profile unless a payment is under way;
// a paid one is replaced by a fresh checkout.
func (o *Orchestrator) Open(ctx context.Context, userID string) (*View, error) {
	for {
		s := o.getOrCreate(userID)
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			continue
		}
		if s.loaded {
			o.absorbLocked(s)
			if s.controller.State() == lifecycle.StatePaid {
				s.closed = true
				o.discard(s)
				s.mu.Unlock()
				continue
			}
		}
		v, err := o.openLocked(ctx, s)
		s.mu.Unlock()
		return v, err
	}
}

func (o *Orchestrator) openLocked(ctx context.Context, s *Session) (*View, error) {
	switch {
	case !s.loaded:
		if err := o.loadLocked(ctx, s); err != nil {
			s.closed = true
			o.discard(s)
			return nil, err
		}
	case !s.controller.State().InFlight():
		if err := o.reloadLocked(ctx, s); err != nil {
			return nil, err
		}
	}
	s.lastActive = o.now()
	return o.viewLocked(s), nil
}

func (o *Orchestrator) View(ctx context.Context, userID string) (*View, error) {
	return o.with(userID, func(s *Session) error { return nil })
}

func (o *Orchestrator) SelectAddress(ctx context.Context, userID, addressID string) (*View, error) {
	return o.with(userID, func(s *Session) error {
		if !hasAddress(s.addresses, addressID) {
			addresses, err := o.deps.Addresses.ListAddresses(ctx, userID)
			if err != nil {
				return fmt.Errorf("list addresses: %w", err)
			}
			s.addresses = addresses
			if !hasAddress(s.addresses, addressID) {
				return ErrUnknownAddress
			}
		}
		s.selectedAddressID = addressID
		o.resolveDeliveryLocked(ctx, s)
		return nil
	})
}

// PinAddressLocation stores a refined map pin on an address and re-prices
// delivery when that address is the selected one.
func (o *Orchestrator) PinAddressLocation(ctx context.Context, userID, addressID string, at types.Coordinates, landmark *string) (*View, error) {
	return o.with(userID, func(s *Session) error {
		if !hasAddress(s.addresses, addressID) {
			return ErrUnknownAddress
		}
		lat, lng := at.Latitude, at.Longitude
		updated, err := o.deps.Addresses.UpdateAddress(ctx, addressID, types.AddressPatch{
			Latitude:  &lat,
			Longitude: &lng,
			Landmark:  landmark,
		})
		if err != nil {
			return fmt.Errorf("update address: %w", err)
		}
		for i := range s.addresses {
			if s.addresses[i].ID == addressID {
				s.addresses[i] = *updated
			}
		}
		if s.selectedAddressID == addressID {
			o.resolveDeliveryLocked(ctx, s)
		}
		return nil
	})
}

// SetLiveLocation records the device location used when the selected
// address has no coordinates. A nil location forgets it.
func (o *Orchestrator) SetLiveLocation(ctx context.Context, userID string, at *types.Coordinates) (*View, error) {
	return o.with(userID, func(s *Session) error {
		if at != nil {
			c := *at
			s.liveLocation = &c
		} else {
			s.liveLocation = nil
		}
		o.resolveDeliveryLocked(ctx, s)
		return nil
	})
}

func (o *Orchestrator) ListCoupons(ctx context.Context, userID string) ([]types.Coupon, error) {
	if _, err := o.session(userID); err != nil {
		return nil, err
	}
	return o.deps.Coupons.Available(ctx)
}

// ApplyCoupon validates code against the current subtotal. The session is
// not held during the validation call, so other edits can proceed; the
// server discount only counts while the subtotal stays what it was
// validated against.
func (o *Orchestrator) ApplyCoupon(ctx context.Context, userID, code string) (*View, error) {
	s, err := o.session(userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	subtotal := o.billLocked(s).SubtotalBeforeCoupon
	s.mu.Unlock()

	result, err := o.deps.Coupons.Apply(ctx, userID, s.coupon, code, subtotal)
	if err != nil {
		return nil, err
	}

	return o.with(userID, func(s *Session) error {
		if result.Celebrate {
			s.notifyLocked(NoticeCouponCelebration, fmt.Sprintf("You saved %s with %s", result.Discount.StringFixed(2), result.Coupon.Code))
		}
		return nil
	})
}

func (o *Orchestrator) RemoveCoupon(ctx context.Context, userID string) (*View, error) {
	return o.with(userID, func(s *Session) error {
		s.coupon.Remove()
		return nil
	})
}

func (o *Orchestrator) SelectPresetTip(ctx context.Context, userID string, amount decimal.Decimal) (*View, error) {
	return o.with(userID, func(s *Session) error {
		for _, preset := range TipPresets {
			if preset.Equal(amount) {
				p := preset
				s.tip = tipSelection{preset: &p}
				return nil
			}
		}
		return invalid("tip", "choose one of the suggested tip amounts")
	})
}

func (o *Orchestrator) SetCustomTip(ctx context.Context, userID string, amount decimal.Decimal) (*View, error) {
	return o.with(userID, func(s *Session) error {
		if !amount.IsPositive() {
			return invalid("tip", "enter a tip amount")
		}
		if amount.GreaterThan(MaxCustomTip) {
			return invalid("tip", fmt.Sprintf("tips are limited to %s", MaxCustomTip.String()))
		}
		if !amount.Equal(amount.Round(2)) {
			return invalid("tip", "tip can have at most two decimals")
		}
		a := amount
		s.tip = tipSelection{custom: &a}
		return nil
	})
}

func (o *Orchestrator) ClearTip(ctx context.Context, userID string) (*View, error) {
	return o.with(userID, func(s *Session) error {
		s.tip = tipSelection{}
		return nil
	})
}

func (o *Orchestrator) SetGiftPackaging(ctx context.Context, userID string, enabled bool) (*View, error) {
	return o.with(userID, func(s *Session) error {
		s.giftPackaging = enabled
		return nil
	})
}

// SetGSTIN stores a 15 character GST number. An empty value clears it.
func (o *Orchestrator) SetGSTIN(ctx context.Context, userID, gstin string) (*View, error) {
	return o.with(userID, func(s *Session) error {
		gstin = strings.ToUpper(strings.TrimSpace(gstin))
		if gstin == "" {
			s.gstin = ""
			return nil
		}
		if err := o.validate.Var(gstin, "len=15,alphanum"); err != nil {
			return invalid("gstin", "GSTIN must be 15 letters or digits")
		}
		s.gstin = gstin
		return nil
	})
}

func (o *Orchestrator) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*View, error) {
	if quantity <= 0 {
		return o.RemoveItem(ctx, userID, itemID)
	}
	return o.with(userID, func(s *Session) error {
		if !hasItem(s.cart, itemID) {
			return ErrUnknownItem
		}
		cart, err := o.deps.Cart.UpdateQuantity(ctx, userID, itemID, quantity)
		if err != nil {
			return fmt.Errorf("update quantity: %w", err)
		}
		o.replaceCartLocked(ctx, s, cart)
		return nil
	})
}

func (o *Orchestrator) RemoveItem(ctx context.Context, userID, itemID string) (*View, error) {
	return o.with(userID, func(s *Session) error {
		if !hasItem(s.cart, itemID) {
			return ErrUnknownItem
		}
		cart, err := o.deps.Cart.RemoveItem(ctx, userID, itemID)
		if err != nil {
			return fmt.Errorf("remove item: %w", err)
		}
		o.replaceCartLocked(ctx, s, cart)
		return nil
	})
}

// CompleteProfile replaces a placeholder profile. When a placement was
// waiting on it, the placement is retried exactly once; if that retry
// fails the saved profile is still returned, with an error notice.
func (o *Orchestrator) CompleteProfile(ctx context.Context, userID string, update types.ProfileUpdate) (*View, error) {
	return o.with(userID, func(s *Session) error {
		update.Name = strings.TrimSpace(update.Name)
		update.Email = strings.TrimSpace(update.Email)
		if err := o.validate.Struct(update); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return invalid("profile."+strings.ToLower(verrs[0].Field()), "enter a valid "+strings.ToLower(verrs[0].Field()))
			}
			return invalid("profile", err.Error())
		}

		profile, err := o.deps.Profiles.UpdateProfile(ctx, userID, update)
		if err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		s.profile = profile

		if !s.pendingPlacement {
			return nil
		}
		s.pendingPlacement = false
		if err := o.placeOrderLocked(ctx, s); err != nil {
			o.logger.Warn("deferred order placement failed", zap.String("user_id", userID), zap.Error(err))
			reason := "please try placing the order again"
			var verr *ValidationError
			if errors.As(err, &verr) {
				reason = verr.Message
			}
			s.notifyLocked(NoticeError, "Profile saved, but the order was not placed: "+reason)
		}
		return nil
	})
}

// PlaceOrder is the only way an order gets created.
func (o *Orchestrator) PlaceOrder(ctx context.Context, userID string) (*View, error) {
	return o.with(userID, func(s *Session) error {
		return o.placeOrderLocked(ctx, s)
	})
}

// CancelPayment abandons the payment session the customer is in.
func (o *Orchestrator) CancelPayment(ctx context.Context, userID string) (*View, error) {
	return o.with(userID, func(s *Session) error {
		return s.controller.Abandon(ctx, "payment cancelled by customer")
	})
}

// HandlePaymentCallback routes a provider notification to the checkout
// that opened the session. Repeated notifications for a settled order are
// accepted and ignored.
func (o *Orchestrator) HandlePaymentCallback(ctx context.Context, cb gateway.Callback) error {
	var known bool
	if cb.OrderID != uuid.Nil {
		o.mu.RLock()
		_, known = o.orders[cb.OrderID]
		o.mu.RUnlock()
		if !known && cb.SessionID == "" {
			return ErrUnknownOrder
		}
	}

	err := o.deps.Callbacks.Resolve(ctx, cb)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gateway.ErrUnknownSession) && known:
		o.logger.Info("duplicate payment callback ignored", zap.String("order_id", cb.OrderID.String()))
		return nil
	case errors.Is(err, gateway.ErrUnknownSession):
		return ErrUnknownOrder
	}
	return err
}

// Close discards the session. Nothing has been committed unless a payment
// is under way, in which case the session is kept.
func (o *Orchestrator) Close(ctx context.Context, userID string) error {
	s, err := o.session(userID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.controller.State().InFlight() {
		return ErrPaymentInProgress
	}
	s.closed = true
	o.discard(s)
	return nil
}

func (o *Orchestrator) placeOrderLocked(ctx context.Context, s *Session) error {
	if st := s.controller.State(); !st.InFlight() && st != lifecycle.StatePaid {
		// The cart may have been edited outside checkout.
		fresh, err := o.deps.Cart.GetCart(ctx, s.userID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if !sameItems(s.cart, fresh) {
			o.replaceCartLocked(ctx, s, fresh)
			return invalid("cart", "your cart has changed, review the updated bill")
		}
	}

	bill := o.billLocked(s)
	req := lifecycle.PlaceOrderRequest{
		UserID:        s.userID,
		Cart:          s.cart,
		Bill:          bill,
		Address:       s.selectedAddressLocked(),
		LiveLocation:  s.liveLocation,
		Profile:       s.profile,
		GiftPackaging: s.giftPackaging,
		GSTIN:         s.gstin,
	}
	if bill.CouponDiscount.IsPositive() {
		req.CouponCode = bill.CouponCode
	}

	attempt, err := s.controller.PlaceOrder(ctx, req)
	if errors.Is(err, lifecycle.ErrProfileIncomplete) {
		s.pendingPlacement = true
		return invalid("profile", "add your name and email to place the order")
	}
	if err != nil {
		return err
	}

	if attempt.Order != nil {
		o.mu.Lock()
		o.orders[attempt.Order.ID] = s.userID
		o.mu.Unlock()
		s.orderIDs = append(s.orderIDs, attempt.Order.ID)
	}
	return nil
}

func (o *Orchestrator) loadLocked(ctx context.Context, s *Session) error {
	cart, addresses, profile, err := o.fetch(ctx, s.userID)
	if err != nil {
		return err
	}

	s.cart = cart
	s.addresses = addresses
	s.profile = profile
	if len(addresses) > 0 {
		s.selectedAddressID = addresses[0].ID
	}
	s.loaded = true
	metrics.ActiveSessions.Inc()

	o.resolveDeliveryLocked(ctx, s)
	return nil
}

// reloadLocked replaces the session's copies of the cart, addresses and
// profile. Customer choices made in checkout are kept.
func (o *Orchestrator) reloadLocked(ctx context.Context, s *Session) error {
	cart, addresses, profile, err := o.fetch(ctx, s.userID)
	if err != nil {
		return err
	}

	s.cart = cart
	s.addresses = addresses
	s.profile = profile
	if !hasAddress(addresses, s.selectedAddressID) {
		s.selectedAddressID = ""
		if len(addresses) > 0 {
			s.selectedAddressID = addresses[0].ID
		}
	}
	// The fresh cart carries no estimate.
	s.pricedAt = nil
	o.resolveDeliveryLocked(ctx, s)
	return nil
}

func (o *Orchestrator) fetch(ctx context.Context, userID string) (*types.CartSnapshot, []types.OrderAddress, *types.Profile, error) {
	cart, err := o.deps.Cart.GetCart(ctx, userID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load cart: %w", err)
	}
	addresses, err := o.deps.Addresses.ListAddresses(ctx, userID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load addresses: %w", err)
	}
	profile, err := o.deps.Profiles.GetProfile(ctx, userID)
	if err != nil && !clients.IsNotFound(err) {
		return nil, nil, nil, fmt.Errorf("load profile: %w", err)
	}
	return cart, addresses, profile, nil
}

// resolveDeliveryLocked re-prices delivery when the target moved. A failed
// refresh is reported as a notice; the flat fee applies meanwhile.
func (o *Orchestrator) resolveDeliveryLocked(ctx context.Context, s *Session) {
	next := s.deliveryTargetLocked()
	if _, err := o.resolver.Resolve(ctx, s.userID, s.cart, s.pricedAt, next); err != nil {
		s.pricedAt = nil
		s.notifyLocked(NoticeError, "Could not update the delivery fee for this location")
		return
	}
	s.pricedAt = next
}

// replaceCartLocked swaps in the cart returned by a mutation and refreshes
// the delivery estimate for it.
func (o *Orchestrator) replaceCartLocked(ctx context.Context, s *Session, cart *types.CartSnapshot) {
	s.cart = cart
	if s.pricedAt == nil {
		return
	}
	if err := o.resolver.Refresh(ctx, s.userID, s.cart, *s.pricedAt); err != nil {
		s.pricedAt = nil
		s.notifyLocked(NoticeError, "Could not update the delivery fee for this location")
	}
}

func (o *Orchestrator) billLocked(s *Session) pricing.Bill {
	return pricing.Derive(s.cart, pricing.Options{
		Coupon:        s.coupon.Coupon(),
		Validated:     s.coupon.Validated(),
		TipAmount:     s.tip.amount(),
		GiftPackaging: s.giftPackaging,
	}, o.deps.Pricing)
}

// absorbLocked applies payment outcomes delivered since the last operation.
func (o *Orchestrator) absorbLocked(s *Session) {
	for _, st := range s.inbox.drain() {
		if st.paid {
			s.success = &Success{
				OrderID:   st.result.OrderID,
				PaymentID: st.result.PaymentID,
				Amount:    st.result.Amount,
			}
			emptied := &types.CartSnapshot{UserID: s.userID, Items: []types.CartItem{}, UpdatedAt: time.Now().UTC()}
			if s.cart != nil {
				emptied.FreeDeliveryThreshold = s.cart.FreeDeliveryThreshold
			}
			s.cart = emptied
			s.coupon.Remove()
			s.notifyLocked(NoticePaymentSucceeded, fmt.Sprintf("Order %s placed", st.result.OrderID))
			continue
		}
		s.notifyLocked(NoticePaymentFailed, "Payment failed: "+st.result.Reason)
	}
}

func (o *Orchestrator) with(userID string, op func(s *Session) error) (*View, error) {
	s, err := o.session(userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.loaded {
		return nil, ErrSessionNotFound
	}

	s.lastActive = o.now()
	o.absorbLocked(s)
	if err := op(s); err != nil {
		return nil, err
	}
	o.absorbLocked(s)
	return o.viewLocked(s), nil
}

func (o *Orchestrator) session(userID string) (*Session, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s, ok := o.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (o *Orchestrator) getOrCreate(userID string) *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.sessions[userID]; ok {
		return s
	}

	s := &Session{
		userID: userID,
		coupon: &coupon.Selection{},
		inbox:  &inbox{},
	}
	s.controller = lifecycle.NewController(lifecycle.Dependencies{
		Orders:         o.deps.Orders,
		Gateway:        o.deps.Gateway,
		Cart:           o.deps.Cart,
		Publisher:      o.deps.Publisher,
		Logger:         o.logger.With(zap.String("user_id", userID)),
		Currency:       o.deps.Currency,
		SessionTimeout: o.deps.SessionTimeout,
	}, lifecycle.Hooks{
		OnPaid:   func(r lifecycle.Result) { s.inbox.push(settlement{paid: true, result: r}) },
		OnFailed: func(r lifecycle.Result) { s.inbox.push(settlement{result: r}) },
	})
	o.sessions[userID] = s
	return s
}

// discard removes s from the store. Callers hold s.mu.
func (o *Orchestrator) discard(s *Session) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sessions[s.userID] == s {
		delete(o.sessions, s.userID)
	}
	for _, id := range s.orderIDs {
		delete(o.orders, id)
	}
	if s.loaded {
		s.loaded = false
		metrics.ActiveSessions.Dec()
	}
}

// EvictIdle discards sessions that have not been used for longer than the
// idle timeout. Sessions with a payment under way are kept. It returns the
// number of sessions discarded.
func (o *Orchestrator) EvictIdle() int {
	if o.deps.IdleTimeout <= 0 {
		return 0
	}
	cutoff := o.now().Add(-o.deps.IdleTimeout)

	o.mu.RLock()
	candidates := make([]*Session, 0, len(o.sessions))
	for _, s := range o.sessions {
		candidates = append(candidates, s)
	}
	o.mu.RUnlock()

	evicted := 0
	for _, s := range candidates {
		// A locked session is in use.
		if !s.mu.TryLock() {
			continue
		}
		if s.loaded && !s.closed && s.lastActive.Before(cutoff) && !s.controller.State().InFlight() {
			s.closed = true
			o.discard(s)
			evicted++
		}
		s.mu.Unlock()
	}
	return evicted
}

// RunJanitor calls EvictIdle every interval until ctx is done.
func (o *Orchestrator) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := o.EvictIdle(); n > 0 {
				o.logger.Info("idle checkout sessions evicted", zap.Int("count", n))
			}
		}
	}
}

// sameItems reports whether two carts hold the same lines at the same
// prices.
func sameItems(a, b *types.CartSnapshot) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return a.IsEmpty() == b.IsEmpty()
	}
	if len(a.Items) != len(b.Items) || !a.PlatformFee.Equal(b.PlatformFee) {
		return false
	}
	for i := range a.Items {
		x, y := a.Items[i], b.Items[i]
		if x.ID != y.ID || x.Quantity != y.Quantity {
			return false
		}
		xp, xm, _ := x.Pricing()
		yp, ym, _ := y.Pricing()
		if !xp.Equal(yp) || !xm.Equal(ym) {
			return false
		}
	}
	return true
}

func hasAddress(addresses []types.OrderAddress, id string) bool {
	for _, a := range addresses {
		if a.ID == id {
			return true
		}
	}
	return false
}

func hasItem(cart *types.CartSnapshot, itemID string) bool {
	if cart == nil {
		return false
	}
	for _, item := range cart.Items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}
