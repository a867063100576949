package handlers

import (
	"context"
	"errors"

	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/checkout"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/clients"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/coupon"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/gateway"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/lifecycle"
	sharedHTTP "github.com/chiragjeevanani/quickcomm-sub000/shared-domain/http"
	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// writeError maps a checkout error onto the shared response envelope.
func (h *CheckoutHandler) writeError(c *fiber.Ctx, err error) error {
	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		return sharedHTTP.ValidationErrorResponse(c, verr.Message, map[string]interface{}{
			"field": verr.Field,
		})
	}

	var rejected *coupon.RejectedError
	if errors.As(err, &rejected) {
		return sharedHTTP.ValidationErrorResponse(c, "Coupon cannot be applied", map[string]interface{}{
			"field":  "coupon",
			"code":   rejected.Code,
			"reason": rejected.Reason,
		})
	}

	switch {
	case errors.Is(err, checkout.ErrSessionNotFound),
		errors.Is(err, checkout.ErrUnknownAddress),
		errors.Is(err, checkout.ErrUnknownItem),
		errors.Is(err, checkout.ErrUnknownOrder),
		errors.Is(err, coupon.ErrCouponNotFound):
		return sharedHTTP.NotFoundResponse(c, err.Error())

	case errors.Is(err, lifecycle.ErrOrderInProgress),
		errors.Is(err, lifecycle.ErrAlreadyPaid),
		errors.Is(err, checkout.ErrPaymentInProgress),
		errors.Is(err, coupon.ErrSelectionChanged):
		return sharedHTTP.ConflictResponse(c, err.Error(), nil)

	case errors.Is(err, coupon.ErrEmptyCode),
		errors.Is(err, gateway.ErrInvalidStatus):
		return sharedHTTP.BadRequestResponse(c, err.Error(), nil)
	}

	var statusErr *clients.StatusError
	if errors.As(err, &statusErr) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) ||
		errors.Is(err, context.DeadlineExceeded) {
		h.logger.Warn("upstream call failed", zap.String("path", c.Path()), zap.Error(err))
		return sharedHTTP.BadGatewayResponse(c, "A dependent service is unavailable, please retry", nil)
	}

	h.logger.Error("checkout request failed", zap.String("path", c.Path()), zap.Error(err))
	return sharedHTTP.InternalServerErrorResponse(c, "Something went wrong", nil)
}
