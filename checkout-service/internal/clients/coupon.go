package clients

import (
	"context"
	"net/http"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type validateCouponRequest struct {
	UserID   string          `json:"user_id"`
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CouponClient struct {
	rest *restClient
}

func NewCouponClient(baseURL string, timeout time.Duration, logger *zap.Logger) *CouponClient {
	return &CouponClient{rest: newRestClient("coupon-service", baseURL, timeout, DefaultBreakerSettings, logger)}
}

func (c *CouponClient) ListAvailableCoupons(ctx context.Context) ([]types.Coupon, error) {
	var coupons []types.Coupon
	if err := c.rest.do(ctx, http.MethodGet, "/api/v1/coupons", nil, &coupons); err != nil {
		return nil, err
	}
	return coupons, nil
}

func (c *CouponClient) ValidateCoupon(ctx context.Context, userID, code string, subtotal decimal.Decimal) (*types.CouponValidation, error) {
	var result types.CouponValidation
	req := validateCouponRequest{UserID: userID, Code: code, Subtotal: subtotal}
	if err := c.rest.do(ctx, http.MethodPost, "/api/v1/coupons/validate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
