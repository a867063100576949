package checkout

import (
	"errors"

	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/lifecycle"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/pricing"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/shopspring/decimal"
)

type TipView struct {
	Presets []decimal.Decimal `json:"presets"`
	Preset  *decimal.Decimal  `json:"preset,omitempty"`
	Custom  *decimal.Decimal  `json:"custom,omitempty"`
	Max     decimal.Decimal   `json:"max_custom"`
}

type PaymentView struct {
	OrderID     string          `json:"order_id"`
	SessionID   string          `json:"session_id,omitempty"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Failure     string          `json:"failure_reason,omitempty"`
}

// View is everything the checkout screen renders.
type View struct {
	UserID            string               `json:"user_id"`
	State             lifecycle.State      `json:"state"`
	Cart              *types.CartSnapshot  `json:"cart"`
	Bill              pricing.Bill         `json:"bill"`
	Addresses         []types.OrderAddress `json:"addresses"`
	SelectedAddressID string               `json:"selected_address_id,omitempty"`
	LiveLocation      *types.Coordinates   `json:"live_location,omitempty"`
	DeliveryLocation  *types.Coordinates   `json:"delivery_location,omitempty"`
	Profile           *types.Profile       `json:"profile,omitempty"`
	ProfileIncomplete bool                 `json:"profile_incomplete"`
	Tip               TipView              `json:"tip"`
	GiftPackaging     bool                 `json:"gift_packaging"`
	GSTIN             string               `json:"gstin,omitempty"`
	Payment           *PaymentView         `json:"payment,omitempty"`
	Success           *Success             `json:"success,omitempty"`
	Blocker           *ValidationError     `json:"blocker,omitempty"`
	CanPlaceOrder     bool                 `json:"can_place_order"`
	Notices           []Notice             `json:"notices"`
}

// viewLocked renders s and hands over pending notices.
func (o *Orchestrator) viewLocked(s *Session) *View {
	bill := o.billLocked(s)
	snap := s.controller.Snapshot()

	v := &View{
		UserID:            s.userID,
		State:             snap.State,
		Cart:              s.cart.Clone(),
		Bill:              bill,
		Addresses:         append([]types.OrderAddress{}, s.addresses...),
		SelectedAddressID: s.selectedAddressID,
		LiveLocation:      copyCoordinates(s.liveLocation),
		DeliveryLocation:  s.deliveryTargetLocked(),
		GiftPackaging:     s.giftPackaging,
		GSTIN:             s.gstin,
		Tip: TipView{
			Presets: TipPresets,
			Preset:  s.tip.preset,
			Custom:  s.tip.custom,
			Max:     MaxCustomTip,
		},
		Notices: s.notices,
	}
	if v.Notices == nil {
		v.Notices = []Notice{}
	}
	s.notices = nil

	if s.profile != nil {
		p := *s.profile
		v.Profile = &p
	}
	v.ProfileIncomplete = s.profile == nil || s.profile.IsPlaceholder()

	if s.success != nil {
		succ := *s.success
		v.Success = &succ
	}

	if a := snap.Attempt; a != nil && a.Order != nil && snap.State != lifecycle.StateNoOrder {
		pv := &PaymentView{
			OrderID: a.Order.ID.String(),
			Amount:  a.Draft.TotalAmount,
			Failure: a.FailureReason,
		}
		if a.Session != nil {
			pv.SessionID = a.Session.ID
			pv.CheckoutURL = a.Session.CheckoutURL
		}
		v.Payment = pv
	}

	err := lifecycle.CheckPreconditions(lifecycle.PlaceOrderRequest{
		UserID:       s.userID,
		Cart:         s.cart,
		Bill:         bill,
		Address:      s.selectedAddressLocked(),
		LiveLocation: s.liveLocation,
		Profile:      s.profile,
	})
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		v.Blocker = verr
	case errors.Is(err, lifecycle.ErrProfileIncomplete):
		v.Blocker = invalid("profile", "add your name and email to place the order")
	}
	v.CanPlaceOrder = err == nil && !snap.State.InFlight() && snap.State != lifecycle.StatePaid

	return v
}

func copyCoordinates(c *types.Coordinates) *types.Coordinates {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
