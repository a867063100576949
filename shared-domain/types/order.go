package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed || s == OrderStatusCancelled
}

type OrderItem struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Name      string          `json:"name"`
	PackLabel string          `json:"pack_label,omitempty"`
	Quantity  int             `json:"quantity"`
	MRP       decimal.Decimal `json:"mrp"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// FeeBreakdown is the bill frozen into an order at creation time.
type FeeBreakdown struct {
	ItemsTotal       decimal.Decimal `json:"items_total"`
	DiscountedTotal  decimal.Decimal `json:"discounted_total"`
	HandlingCharge   decimal.Decimal `json:"handling_charge"`
	DeliveryCharge   decimal.Decimal `json:"delivery_charge"`
	CouponDiscount   decimal.Decimal `json:"coupon_discount"`
	TipAmount        decimal.Decimal `json:"tip_amount"`
	GiftPackagingFee decimal.Decimal `json:"gift_packaging_fee"`
}

// OrderDraft is what the checkout submits; the order service assigns the id,
// status and timestamps.
type OrderDraft struct {
	CorrelationID uuid.UUID       `json:"correlation_id" validate:"required"`
	UserID        string          `json:"user_id" validate:"required"`
	Items         []OrderItem     `json:"items" validate:"required,min=1"`
	Fees          FeeBreakdown    `json:"fees"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency" validate:"required,len=3"`
	Address       OrderAddress    `json:"address"`
	CouponCode    string          `json:"coupon_code,omitempty"`
	GiftPackaging bool            `json:"gift_packaging"`
	GSTIN         string          `json:"gstin,omitempty"`
}

type Order struct {
	ID            uuid.UUID       `json:"id"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	UserID        string          `json:"user_id"`
	Items         []OrderItem     `json:"items"`
	Fees          FeeBreakdown    `json:"fees"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	Address       OrderAddress    `json:"address"`
	Status        OrderStatus     `json:"status"`
	CouponCode    string          `json:"coupon_code,omitempty"`
	TipAmount     decimal.Decimal `json:"tip_amount"`
	GiftPackaging bool            `json:"gift_packaging"`
	GSTIN         string          `json:"gstin,omitempty"`
	PaymentID     string          `json:"payment_id,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
