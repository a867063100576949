// Package pricing turns a cart snapshot and the customer's checkout choices
// into an itemized bill. Derive is pure and cheap; callers re-run it after
// every input change instead of patching a previous bill.
package pricing

import (
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/shopspring/decimal"
)

type DeliverySource string

const (
	DeliveryFromEstimate DeliverySource = "estimate"
	DeliveryFree         DeliverySource = "free"
	DeliveryFlat         DeliverySource = "flat"
)

type CouponStatus string

const (
	CouponNone      CouponStatus = "none"
	CouponPreview   CouponStatus = "preview"
	CouponValidated CouponStatus = "validated"
	CouponInert     CouponStatus = "inert"
)

type Config struct {
	FlatDeliveryFee  decimal.Decimal
	GiftPackagingFee decimal.Decimal
}

// ValidatedDiscount is a server-confirmed coupon discount together with the
// subtotal it was confirmed against.
type ValidatedDiscount struct {
	Amount   decimal.Decimal `json:"amount"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type Options struct {
	Coupon        *types.Coupon
	Validated     *ValidatedDiscount
	TipAmount     decimal.Decimal
	GiftPackaging bool
}

type Line struct {
	ItemID    string          `json:"item_id"`
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Name      string          `json:"name"`
	PackLabel string          `json:"pack_label,omitempty"`
	Quantity  int             `json:"quantity"`
	MRP       decimal.Decimal `json:"mrp"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineMRP   decimal.Decimal `json:"line_mrp"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Bill struct {
	Lines                []Line          `json:"lines"`
	ItemsTotal           decimal.Decimal `json:"items_total"`
	DiscountedTotal      decimal.Decimal `json:"discounted_total"`
	SavedAmount          decimal.Decimal `json:"saved_amount"`
	HandlingCharge       decimal.Decimal `json:"handling_charge"`
	DeliveryCharge       decimal.Decimal `json:"delivery_charge"`
	DeliverySource       DeliverySource  `json:"delivery_source"`
	SubtotalBeforeCoupon decimal.Decimal `json:"subtotal_before_coupon"`
	CouponCode           string          `json:"coupon_code,omitempty"`
	CouponDiscount       decimal.Decimal `json:"coupon_discount"`
	CouponStatus         CouponStatus    `json:"coupon_status"`
	TipAmount            decimal.Decimal `json:"tip_amount"`
	GiftPackagingFee     decimal.Decimal `json:"gift_packaging_fee"`
	GrandTotal           decimal.Decimal `json:"grand_total"`
}

var hundred = decimal.NewFromInt(100)

// Derive computes the bill. The steps run in a fixed order and each one only
// reads values produced by the steps before it.
func Derive(cart *types.CartSnapshot, opts Options, cfg Config) Bill {
	bill := Bill{
		Lines:           []Line{},
		ItemsTotal:      decimal.Zero,
		DiscountedTotal: decimal.Zero,
		CouponDiscount:  decimal.Zero,
		CouponStatus:    CouponNone,
	}
	if cart == nil {
		cart = &types.CartSnapshot{}
	}

	for _, item := range cart.Items {
		if item.Quantity < 1 {
			continue
		}
		line := priceLine(item)
		bill.Lines = append(bill.Lines, line)
		bill.ItemsTotal = bill.ItemsTotal.Add(line.LineMRP)
		bill.DiscountedTotal = bill.DiscountedTotal.Add(line.LineTotal)
	}

	bill.SavedAmount = maxZero(bill.ItemsTotal.Sub(bill.DiscountedTotal))
	bill.HandlingCharge = maxZero(cart.PlatformFee)

	switch {
	case cart.EstimatedDeliveryFee != nil:
		bill.DeliveryCharge = maxZero(*cart.EstimatedDeliveryFee)
		bill.DeliverySource = DeliveryFromEstimate
	case bill.DiscountedTotal.GreaterThanOrEqual(cart.FreeDeliveryThreshold):
		bill.DeliveryCharge = decimal.Zero
		bill.DeliverySource = DeliveryFree
	default:
		bill.DeliveryCharge = cfg.FlatDeliveryFee
		bill.DeliverySource = DeliveryFlat
	}

	bill.SubtotalBeforeCoupon = bill.DiscountedTotal.Add(bill.HandlingCharge).Add(bill.DeliveryCharge)

	if opts.Coupon != nil {
		bill.CouponCode = opts.Coupon.Code
		bill.CouponDiscount, bill.CouponStatus = couponDiscount(*opts.Coupon, opts.Validated, bill.SubtotalBeforeCoupon)
	}

	bill.TipAmount = maxZero(opts.TipAmount)
	bill.GiftPackagingFee = decimal.Zero
	if opts.GiftPackaging {
		bill.GiftPackagingFee = cfg.GiftPackagingFee
	}

	bill.GrandTotal = maxZero(bill.SubtotalBeforeCoupon.
		Add(bill.TipAmount).
		Add(bill.GiftPackagingFee).
		Sub(bill.CouponDiscount))

	return bill
}

// EffectivePrice applies a catalog discount rule to a base price. The result
// is never negative and never above the MRP.
func EffectivePrice(price, mrp decimal.Decimal, rule *types.DiscountRule) decimal.Decimal {
	effective := price
	if rule != nil {
		switch rule.Type {
		case types.DiscountRulePercentage:
			effective = price.Sub(price.Mul(rule.Value).Div(hundred)).Round(2)
		case types.DiscountRuleFlat:
			effective = price.Sub(rule.Value)
		}
	}
	effective = maxZero(effective)
	if effective.GreaterThan(mrp) {
		effective = mrp
	}
	return effective
}

// PreviewDiscount is the local approximation of a coupon's value for a
// subtotal. It returns zero when the coupon's minimum is not met.
func PreviewDiscount(coupon types.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if !meetsMinimum(coupon, subtotal) {
		return decimal.Zero
	}
	switch coupon.DiscountType {
	case types.CouponDiscountPercentage:
		discount := subtotal.Mul(coupon.DiscountValue).Div(hundred).Round(0)
		if coupon.MaxDiscountAmount != nil && discount.GreaterThan(*coupon.MaxDiscountAmount) {
			discount = *coupon.MaxDiscountAmount
		}
		return maxZero(discount)
	case types.CouponDiscountFixed:
		return maxZero(coupon.DiscountValue)
	}
	return decimal.Zero
}

func couponDiscount(coupon types.Coupon, validated *ValidatedDiscount, subtotal decimal.Decimal) (decimal.Decimal, CouponStatus) {
	if validated != nil && validated.Subtotal.Equal(subtotal) {
		return maxZero(validated.Amount), CouponValidated
	}
	if !meetsMinimum(coupon, subtotal) {
		return decimal.Zero, CouponInert
	}
	return PreviewDiscount(coupon, subtotal), CouponPreview
}

func meetsMinimum(coupon types.Coupon, subtotal decimal.Decimal) bool {
	return coupon.MinOrderValue == nil || subtotal.GreaterThanOrEqual(*coupon.MinOrderValue)
}

func priceLine(item types.CartItem) Line {
	price, mrp, rule := item.Pricing()
	// Catalog entries without an MRP are sold at their base price.
	if mrp.IsZero() {
		mrp = price
	}
	unit := EffectivePrice(price, mrp, rule)
	qty := decimal.NewFromInt(int64(item.Quantity))

	line := Line{
		ItemID:    item.ID,
		ProductID: item.Product.ID,
		Name:      item.Product.Name,
		PackLabel: item.PackLabel(),
		Quantity:  item.Quantity,
		MRP:       mrp,
		UnitPrice: unit,
		LineMRP:   mrp.Mul(qty),
		LineTotal: unit.Mul(qty),
	}
	if item.Variant != nil {
		line.VariantID = item.Variant.ID
	}
	return line
}

func maxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
