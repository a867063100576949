// Package delivery keeps a cart's delivery estimate in step with the
// coordinates it will be delivered to.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/metrics"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"go.uber.org/zap"
)

var ErrNoCart = errors.New("no cart to price delivery for")

type Estimator interface {
	RefreshDeliveryEstimate(ctx context.Context, userID string, at types.Coordinates) (*types.DeliveryEstimate, error)
}

type Resolver struct {
	estimator Estimator
	logger    *zap.Logger
}

func NewResolver(estimator Estimator, logger *zap.Logger) *Resolver {
	return &Resolver{estimator: estimator, logger: logger}
}

// Resolve refreshes the estimate on cart when the delivery point moved from
// last to next. It reports whether the cart was touched. A nil next clears
// the estimate so the flat-fee fallback applies.
func (r *Resolver) Resolve(ctx context.Context, userID string, cart *types.CartSnapshot, last, next *types.Coordinates) (bool, error) {
	if types.SameCoordinates(last, next) {
		return false, nil
	}
	if next == nil {
		if cart != nil && cart.EstimatedDeliveryFee != nil {
			cart.EstimatedDeliveryFee = nil
			metrics.DeliveryRefreshesTotal.WithLabelValues("cleared").Inc()
			return true, nil
		}
		return false, nil
	}
	return true, r.Refresh(ctx, userID, cart, *next)
}

// Refresh asks the cart service to price delivery to at. On failure the
// stale estimate is dropped and the error returned.
func (r *Resolver) Refresh(ctx context.Context, userID string, cart *types.CartSnapshot, at types.Coordinates) error {
	if cart == nil {
		return ErrNoCart
	}

	estimate, err := r.estimator.RefreshDeliveryEstimate(ctx, userID, at)
	if err != nil {
		cart.EstimatedDeliveryFee = nil
		metrics.DeliveryRefreshesTotal.WithLabelValues("error").Inc()
		r.logger.Warn("delivery estimate refresh failed",
			zap.String("user_id", userID),
			zap.Float64("lat", at.Latitude),
			zap.Float64("lng", at.Longitude),
			zap.Error(err))
		return fmt.Errorf("refresh delivery estimate: %w", err)
	}

	fee := estimate.Fee
	cart.EstimatedDeliveryFee = &fee
	cart.FreeDeliveryThreshold = estimate.FreeDeliveryThreshold
	metrics.DeliveryRefreshesTotal.WithLabelValues("success").Inc()
	return nil
}
