package domain

import (
	"testing"

	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draft() types.OrderDraft {
	return types.OrderDraft{
		CorrelationID: uuid.New(),
		UserID:        "u1",
		Items: []types.OrderItem{{
			ProductID: "p1", Name: "Milk", Quantity: 1,
			MRP: decimal.NewFromInt(60), UnitPrice: decimal.NewFromInt(50), LineTotal: decimal.NewFromInt(50),
		}},
		Fees: types.FeeBreakdown{
			ItemsTotal:       decimal.NewFromInt(60),
			DiscountedTotal:  decimal.NewFromInt(50),
			HandlingCharge:   decimal.NewFromInt(10),
			DeliveryCharge:   decimal.NewFromInt(30),
			TipAmount:        decimal.NewFromInt(20),
			GiftPackagingFee: decimal.NewFromInt(30),
		},
		TotalAmount: decimal.NewFromInt(140),
		Currency:    "inr",
	}
}

func TestNewOrderAggregate(t *testing.T) {
	order, err := NewOrderAggregate(draft())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.Equal(t, types.OrderStatusPending, order.Status)
	assert.Equal(t, "INR", order.Currency)
	assert.True(t, order.TipAmount.Equal(decimal.NewFromInt(20)))
}

func TestExpectedTotalFloorsAtZero(t *testing.T) {
	fees := types.FeeBreakdown{DiscountedTotal: decimal.NewFromInt(50), CouponDiscount: decimal.NewFromInt(80)}
	assert.True(t, ExpectedTotal(fees).IsZero())

	d := draft()
	d.Fees = fees
	d.TotalAmount = decimal.Zero
	_, err := NewOrderAggregate(d)
	assert.NoError(t, err)
}

func TestValidateDraft(t *testing.T) {
	cases := map[string]func(d *types.OrderDraft){
		"missing user":   func(d *types.OrderDraft) { d.UserID = "" },
		"missing items":  func(d *types.OrderDraft) { d.Items = nil },
		"zero quantity":  func(d *types.OrderDraft) { d.Items[0].Quantity = 0 },
		"bad currency":   func(d *types.OrderDraft) { d.Currency = "RUPEE" },
		"negative total": func(d *types.OrderDraft) { d.TotalAmount = decimal.NewFromInt(-1) },
		"total mismatch": func(d *types.OrderDraft) { d.TotalAmount = decimal.NewFromInt(141) },
		"no correlation": func(d *types.OrderDraft) { d.CorrelationID = uuid.Nil },
		"negative price": func(d *types.OrderDraft) { d.Items[0].UnitPrice = decimal.NewFromInt(-5) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := draft()
			mutate(&d)
			assert.Error(t, ValidateDraft(d))
		})
	}
}

func TestSettlementTransitions(t *testing.T) {
	order, err := NewOrderAggregate(draft())
	require.NoError(t, err)

	changed, err := order.MarkPaid("TXN_1")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = order.MarkPaid("TXN_1")
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = order.MarkFailed("late failure")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, order.Cancel("nope"), ErrInvalidTransition)
	assert.Equal(t, "TXN_1", order.PaymentID)
}

func TestFailedOrderCannotBePaid(t *testing.T) {
	order, err := NewOrderAggregate(draft())
	require.NoError(t, err)

	changed, err := order.MarkFailed("Insufficient funds")
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = order.MarkPaid("TXN_2")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, types.OrderStatusFailed, order.Status)
}
