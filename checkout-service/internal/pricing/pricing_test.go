package pricing

import (
	"math/rand"
	"testing"

	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

var testConfig = Config{
	FlatDeliveryFee:  dec("30"),
	GiftPackagingFee: dec("30"),
}

func item(id string, price, mrp string, qty int, rule *types.DiscountRule) types.CartItem {
	return types.CartItem{
		ID: id,
		Product: types.ProductSnapshot{
			ID:       "p-" + id,
			Name:     "Product " + id,
			Price:    dec(price),
			MRP:      dec(mrp),
			Discount: rule,
		},
		Quantity: qty,
	}
}

func cartWithSubtotal(subtotal string) *types.CartSnapshot {
	return &types.CartSnapshot{
		Items:                 []types.CartItem{item("1", subtotal, subtotal, 1, nil)},
		FreeDeliveryThreshold: dec("499"),
		PlatformFee:           dec("10"),
	}
}

func percentCoupon(value, maxDiscount, minOrder string) *types.Coupon {
	c := &types.Coupon{
		Code:          "SAVE10",
		DiscountType:  types.CouponDiscountPercentage,
		DiscountValue: dec(value),
	}
	if maxDiscount != "" {
		c.MaxDiscountAmount = decPtr(maxDiscount)
	}
	if minOrder != "" {
		c.MinOrderValue = decPtr(minOrder)
	}
	return c
}

func TestDeriveScenarios(t *testing.T) {
	tests := []struct {
		name           string
		cart           *types.CartSnapshot
		opts           Options
		wantDelivery   string
		wantDiscount   string
		wantStatus     CouponStatus
		wantGrandTotal string
	}{
		{
			name:           "above threshold, no extras",
			cart:           cartWithSubtotal("500"),
			wantDelivery:   "0",
			wantDiscount:   "0",
			wantStatus:     CouponNone,
			wantGrandTotal: "510",
		},
		{
			name:           "percentage coupon capped",
			cart:           cartWithSubtotal("300"),
			opts:           Options{Coupon: percentCoupon("10", "25", "200")},
			wantDelivery:   "30",
			wantDiscount:   "25",
			wantStatus:     CouponPreview,
			wantGrandTotal: "315",
		},
		{
			name:           "coupon minimum unmet stays inert",
			cart:           cartWithSubtotal("300"),
			opts:           Options{Coupon: percentCoupon("10", "25", "400")},
			wantDelivery:   "30",
			wantDiscount:   "0",
			wantStatus:     CouponInert,
			wantGrandTotal: "340",
		},
		{
			name:           "tip and gift packaging",
			cart:           cartWithSubtotal("500"),
			opts:           Options{TipAmount: dec("45"), GiftPackaging: true},
			wantDelivery:   "0",
			wantDiscount:   "0",
			wantStatus:     CouponNone,
			wantGrandTotal: "585",
		},
		{
			name: "fixed coupon applied verbatim",
			cart: cartWithSubtotal("300"),
			opts: Options{Coupon: &types.Coupon{
				Code:          "FLAT50",
				DiscountType:  types.CouponDiscountFixed,
				DiscountValue: dec("50"),
			}},
			wantDelivery:   "30",
			wantDiscount:   "50",
			wantStatus:     CouponPreview,
			wantGrandTotal: "290",
		},
		{
			name: "fixed coupon larger than bill floors at zero",
			cart: cartWithSubtotal("20"),
			opts: Options{Coupon: &types.Coupon{
				Code:          "HUGE",
				DiscountType:  types.CouponDiscountFixed,
				DiscountValue: dec("1000"),
			}},
			wantDelivery:   "30",
			wantDiscount:   "1000",
			wantStatus:     CouponPreview,
			wantGrandTotal: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bill := Derive(tt.cart, tt.opts, testConfig)

			assert.True(t, dec(tt.wantDelivery).Equal(bill.DeliveryCharge), "delivery %s", bill.DeliveryCharge)
			assert.True(t, dec(tt.wantDiscount).Equal(bill.CouponDiscount), "discount %s", bill.CouponDiscount)
			assert.Equal(t, tt.wantStatus, bill.CouponStatus)
			assert.True(t, dec(tt.wantGrandTotal).Equal(bill.GrandTotal), "grand total %s", bill.GrandTotal)
		})
	}
}

func TestDeriveUsesServerEstimateOverThreshold(t *testing.T) {
	cart := cartWithSubtotal("600")
	cart.EstimatedDeliveryFee = decPtr("15")

	bill := Derive(cart, Options{}, testConfig)

	assert.Equal(t, DeliveryFromEstimate, bill.DeliverySource)
	assert.True(t, dec("15").Equal(bill.DeliveryCharge))
	assert.True(t, dec("625").Equal(bill.GrandTotal))
}

func TestDeriveValidatedDiscountSupersedesPreview(t *testing.T) {
	cart := cartWithSubtotal("300")
	coupon := percentCoupon("10", "25", "200")

	validated := Derive(cart, Options{
		Coupon:    coupon,
		Validated: &ValidatedDiscount{Amount: dec("20"), Subtotal: dec("340")},
	}, testConfig)
	assert.Equal(t, CouponValidated, validated.CouponStatus)
	assert.True(t, dec("20").Equal(validated.CouponDiscount))

	// The subtotal moved since validation, so the local preview is shown.
	cart.Items[0].Quantity = 2
	stale := Derive(cart, Options{
		Coupon:    coupon,
		Validated: &ValidatedDiscount{Amount: dec("20"), Subtotal: dec("340")},
	}, testConfig)
	assert.Equal(t, CouponPreview, stale.CouponStatus)
	assert.True(t, dec("25").Equal(stale.CouponDiscount))
}

func TestDeriveItemPricing(t *testing.T) {
	cart := &types.CartSnapshot{
		Items: []types.CartItem{
			item("a", "100", "120", 2, &types.DiscountRule{Type: types.DiscountRulePercentage, Value: dec("10")}),
			item("b", "50", "50", 1, &types.DiscountRule{Type: types.DiscountRuleFlat, Value: dec("80")}),
			{
				ID:       "c",
				Product:  types.ProductSnapshot{ID: "p-c", Price: dec("40"), MRP: dec("45")},
				Variant:  &types.Variant{ID: "v-c", PackLabel: "1 kg", Price: dec("70"), MRP: dec("80")},
				Quantity: 1,
			},
		},
		FreeDeliveryThreshold: dec("1000"),
	}

	bill := Derive(cart, Options{}, testConfig)
	require.Len(t, bill.Lines, 3)

	assert.True(t, dec("90").Equal(bill.Lines[0].UnitPrice))
	assert.True(t, dec("0").Equal(bill.Lines[1].UnitPrice), "flat rule floors at zero")
	assert.True(t, dec("70").Equal(bill.Lines[2].UnitPrice), "variant overrides product")
	assert.Equal(t, "1 kg", bill.Lines[2].PackLabel)
	assert.Equal(t, "v-c", bill.Lines[2].VariantID)

	assert.True(t, dec("370").Equal(bill.ItemsTotal))
	assert.True(t, dec("250").Equal(bill.DiscountedTotal))
	assert.True(t, dec("120").Equal(bill.SavedAmount))
	assert.Equal(t, DeliveryFlat, bill.DeliverySource)
}

func TestEffectivePriceCappedAtMRP(t *testing.T) {
	assert.True(t, dec("80").Equal(EffectivePrice(dec("95"), dec("80"), nil)))
	assert.True(t, dec("0").Equal(EffectivePrice(dec("10"), dec("20"), &types.DiscountRule{Type: types.DiscountRulePercentage, Value: dec("150")})))
}

func TestDeriveEmptyCart(t *testing.T) {
	bill := Derive(nil, Options{}, testConfig)

	assert.Empty(t, bill.Lines)
	assert.True(t, bill.ItemsTotal.IsZero())
	assert.Equal(t, DeliveryFree, bill.DeliverySource)
	assert.True(t, bill.GrandTotal.IsZero())

	cart := &types.CartSnapshot{FreeDeliveryThreshold: dec("99"), PlatformFee: dec("5")}
	bill = Derive(cart, Options{}, testConfig)
	assert.Equal(t, DeliveryFlat, bill.DeliverySource)
	assert.True(t, dec("35").Equal(bill.GrandTotal))
}

func TestCouponRemovalRestoresBill(t *testing.T) {
	cart := cartWithSubtotal("300")
	base := Options{TipAmount: dec("20"), GiftPackaging: true}

	before := Derive(cart, base, testConfig)

	withCoupon := base
	withCoupon.Coupon = percentCoupon("10", "25", "")
	applied := Derive(cart, withCoupon, testConfig)
	require.False(t, applied.GrandTotal.Equal(before.GrandTotal))

	after := Derive(cart, base, testConfig)
	assert.True(t, before.GrandTotal.Equal(after.GrandTotal))
	assert.True(t, before.SubtotalBeforeCoupon.Equal(after.SubtotalBeforeCoupon))
	assert.True(t, after.CouponDiscount.IsZero())
	assert.Equal(t, CouponNone, after.CouponStatus)
	assert.Empty(t, after.CouponCode)
}

func randomCart(r *rand.Rand) *types.CartSnapshot {
	cart := &types.CartSnapshot{
		FreeDeliveryThreshold: decimal.NewFromInt(int64(r.Intn(1000))),
		PlatformFee:           decimal.NewFromInt(int64(r.Intn(20))),
	}
	if r.Intn(2) == 0 {
		fee := decimal.NewFromInt(int64(r.Intn(60)))
		cart.EstimatedDeliveryFee = &fee
	}
	for i := 0; i < 1+r.Intn(5); i++ {
		mrp := decimal.NewFromInt(int64(1 + r.Intn(500)))
		price := decimal.NewFromInt(int64(r.Intn(600)))
		var rule *types.DiscountRule
		switch r.Intn(3) {
		case 0:
			rule = &types.DiscountRule{Type: types.DiscountRulePercentage, Value: decimal.NewFromInt(int64(r.Intn(120)))}
		case 1:
			rule = &types.DiscountRule{Type: types.DiscountRuleFlat, Value: decimal.NewFromInt(int64(r.Intn(700)))}
		}
		cart.Items = append(cart.Items, types.CartItem{
			ID:       "i",
			Product:  types.ProductSnapshot{Price: price, MRP: mrp, Discount: rule},
			Quantity: 1 + r.Intn(4),
		})
	}
	return cart
}

func randomCoupon(r *rand.Rand) *types.Coupon {
	if r.Intn(3) == 0 {
		return nil
	}
	c := &types.Coupon{Code: "X", DiscountValue: decimal.NewFromInt(int64(r.Intn(2000)))}
	if r.Intn(2) == 0 {
		c.DiscountType = types.CouponDiscountFixed
	} else {
		c.DiscountType = types.CouponDiscountPercentage
		c.DiscountValue = decimal.NewFromInt(int64(r.Intn(100)))
		if r.Intn(2) == 0 {
			c.MaxDiscountAmount = decPtr("75")
		}
	}
	if r.Intn(2) == 0 {
		c.MinOrderValue = decPtr("300")
	}
	return c
}

func TestDeriveInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		cart := randomCart(r)
		coupon := randomCoupon(r)
		bill := Derive(cart, Options{
			Coupon:        coupon,
			TipAmount:     decimal.NewFromInt(int64(r.Intn(100))),
			GiftPackaging: r.Intn(2) == 0,
		}, testConfig)

		require.False(t, bill.GrandTotal.IsNegative(), "grand total must not be negative")
		require.True(t, bill.DiscountedTotal.LessThanOrEqual(bill.ItemsTotal), "discounted total above items total")
		require.False(t, bill.SavedAmount.IsNegative())

		if cart.EstimatedDeliveryFee == nil && bill.DiscountedTotal.GreaterThanOrEqual(cart.FreeDeliveryThreshold) {
			require.True(t, bill.DeliveryCharge.IsZero())
		}
		if coupon != nil && coupon.DiscountType == types.CouponDiscountPercentage && coupon.MaxDiscountAmount != nil {
			require.True(t, bill.CouponDiscount.LessThanOrEqual(*coupon.MaxDiscountAmount))
		}
	}
}
