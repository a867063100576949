package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountRuleType string

const (
	DiscountRulePercentage DiscountRuleType = "percentage"
	DiscountRuleFlat       DiscountRuleType = "flat"
)

// DiscountRule is the catalog's per-product or per-variant markdown.
type DiscountRule struct {
	Type  DiscountRuleType `json:"type"`
	Value decimal.Decimal  `json:"value"`
}

type ProductSnapshot struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	PackLabel string          `json:"pack_label,omitempty"`
	Price     decimal.Decimal `json:"price"`
	MRP       decimal.Decimal `json:"mrp"`
	Discount  *DiscountRule   `json:"discount,omitempty"`
}

type Variant struct {
	ID        string          `json:"id"`
	PackLabel string          `json:"pack_label,omitempty"`
	Price     decimal.Decimal `json:"price"`
	MRP       decimal.Decimal `json:"mrp"`
	Discount  *DiscountRule   `json:"discount,omitempty"`
}

type CartItem struct {
	ID       string          `json:"id"`
	Product  ProductSnapshot `json:"product"`
	Variant  *Variant        `json:"variant,omitempty"`
	Quantity int             `json:"quantity"`
}

// Pricing returns the base price, MRP and discount rule that apply to the
// item. A chosen variant overrides the product's own pricing.
func (i CartItem) Pricing() (price, mrp decimal.Decimal, rule *DiscountRule) {
	if i.Variant != nil {
		return i.Variant.Price, i.Variant.MRP, i.Variant.Discount
	}
	return i.Product.Price, i.Product.MRP, i.Product.Discount
}

func (i CartItem) PackLabel() string {
	if i.Variant != nil && i.Variant.PackLabel != "" {
		return i.Variant.PackLabel
	}
	return i.Product.PackLabel
}

// CartSnapshot is the cart service's view of a customer's cart at a point in
// time. EstimatedDeliveryFee is only set once the cart service has priced
// delivery for a concrete location.
type CartSnapshot struct {
	UserID                string           `json:"user_id"`
	Items                 []CartItem       `json:"items"`
	EstimatedDeliveryFee  *decimal.Decimal `json:"estimated_delivery_fee,omitempty"`
	FreeDeliveryThreshold decimal.Decimal  `json:"free_delivery_threshold"`
	PlatformFee           decimal.Decimal  `json:"platform_fee"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

func (c *CartSnapshot) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Clone returns a deep copy so a frozen order never shares memory with the
// live cart.
func (c *CartSnapshot) Clone() *CartSnapshot {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Items = make([]CartItem, len(c.Items))
	for i, item := range c.Items {
		if item.Variant != nil {
			v := *item.Variant
			item.Variant = &v
		}
		cp.Items[i] = item
	}
	if c.EstimatedDeliveryFee != nil {
		fee := *c.EstimatedDeliveryFee
		cp.EstimatedDeliveryFee = &fee
	}
	return &cp
}

// DeliveryEstimate is returned by the cart service for a delivery location.
type DeliveryEstimate struct {
	Fee                   decimal.Decimal `json:"fee"`
	FreeDeliveryThreshold decimal.Decimal `json:"free_delivery_threshold"`
}
