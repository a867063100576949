package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDraft      = errors.New("invalid order draft")
	ErrTotalMismatch     = errors.New("order total does not match its fees")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

var validate = validator.New()

type OrderAggregate struct {
	*types.Order
}

// NewOrderAggregate builds a pending order from a checkout draft. The draft
// is checked for shape and for a total that agrees with its fee breakdown.
func NewOrderAggregate(draft types.OrderDraft) (*OrderAggregate, error) {
	if err := ValidateDraft(draft); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	items := make([]types.OrderItem, len(draft.Items))
	copy(items, draft.Items)

	return &OrderAggregate{
		Order: &types.Order{
			ID:            uuid.New(),
			CorrelationID: draft.CorrelationID,
			UserID:        draft.UserID,
			Items:         items,
			Fees:          draft.Fees,
			TotalAmount:   draft.TotalAmount,
			Currency:      strings.ToUpper(draft.Currency),
			Address:       draft.Address,
			Status:        types.OrderStatusPending,
			CouponCode:    draft.CouponCode,
			TipAmount:     draft.Fees.TipAmount,
			GiftPackaging: draft.GiftPackaging,
			GSTIN:         draft.GSTIN,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}, nil
}

func ValidateDraft(draft types.OrderDraft) error {
	if err := validate.Struct(draft); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	for i, item := range draft.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %d has quantity %d", ErrInvalidDraft, i, item.Quantity)
		}
		if item.UnitPrice.IsNegative() || item.LineTotal.IsNegative() {
			return fmt.Errorf("%w: item %d has a negative price", ErrInvalidDraft, i)
		}
	}
	if draft.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: negative total", ErrInvalidDraft)
	}
	if want := ExpectedTotal(draft.Fees); !want.Equal(draft.TotalAmount) {
		return fmt.Errorf("%w: fees add up to %s, total is %s", ErrTotalMismatch, want, draft.TotalAmount)
	}
	return nil
}

// ExpectedTotal is the grand total implied by a fee breakdown.
func ExpectedTotal(f types.FeeBreakdown) decimal.Decimal {
	total := f.DiscountedTotal.
		Add(f.HandlingCharge).
		Add(f.DeliveryCharge).
		Add(f.TipAmount).
		Add(f.GiftPackagingFee).
		Sub(f.CouponDiscount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// MarkPaid settles a pending order. Marking an already paid order again is
// a no-op and reports false.
func (o *OrderAggregate) MarkPaid(paymentID string) (bool, error) {
	switch o.Status {
	case types.OrderStatusPaid:
		return false, nil
	case types.OrderStatusPending:
	default:
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, types.OrderStatusPaid)
	}
	o.Status = types.OrderStatusPaid
	o.PaymentID = paymentID
	o.FailureReason = ""
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (o *OrderAggregate) MarkFailed(reason string) (bool, error) {
	switch o.Status {
	case types.OrderStatusFailed:
		return false, nil
	case types.OrderStatusPending:
	default:
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, types.OrderStatusFailed)
	}
	o.Status = types.OrderStatusFailed
	o.FailureReason = reason
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

// Cancel withdraws an order that was never paid.
func (o *OrderAggregate) Cancel(reason string) error {
	if o.Status != types.OrderStatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, types.OrderStatusCancelled)
	}
	o.Status = types.OrderStatusCancelled
	o.FailureReason = reason
	o.UpdatedAt = time.Now().UTC()
	return nil
}
