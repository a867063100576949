package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CouponDiscountType string

const (
	CouponDiscountPercentage CouponDiscountType = "percentage"
	CouponDiscountFixed      CouponDiscountType = "fixed"
)

type Coupon struct {
	ID                string             `json:"id"`
	Code              string             `json:"code"`
	Description       string             `json:"description,omitempty"`
	DiscountType      CouponDiscountType `json:"discount_type"`
	DiscountValue     decimal.Decimal    `json:"discount_value"`
	MinOrderValue     *decimal.Decimal   `json:"min_order_value,omitempty"`
	MaxDiscountAmount *decimal.Decimal   `json:"max_discount_amount,omitempty"`
	ValidFrom         *time.Time         `json:"valid_from,omitempty"`
	ValidUntil        *time.Time         `json:"valid_until,omitempty"`
}

// Matches compares coupon codes case-insensitively.
func (c Coupon) Matches(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), c.Code)
}

// ActiveAt reports whether t falls inside the coupon's validity window.
func (c Coupon) ActiveAt(t time.Time) bool {
	if c.ValidFrom != nil && t.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && t.After(*c.ValidUntil) {
		return false
	}
	return true
}

// CouponValidation is the coupon catalog's authoritative verdict.
type CouponValidation struct {
	IsValid        bool            `json:"is_valid"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Reason         string          `json:"reason,omitempty"`
}
