// Package coupon applies coupon codes to a checkout. The catalog service is
// authoritative; the locally computed discount in pricing is only a preview
// until a validation succeeds.
package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/metrics"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/pricing"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrCouponNotFound   = errors.New("coupon not found")
	ErrCouponRejected   = errors.New("coupon rejected")
	ErrEmptyCode        = errors.New("coupon code is required")
	ErrSelectionChanged = errors.New("coupon selection changed while validating")
)

// RejectedError is returned when the catalog service refuses a coupon.
type RejectedError struct {
	Code   string
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("coupon %s rejected", e.Code)
	}
	return fmt.Sprintf("coupon %s rejected: %s", e.Code, e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return ErrCouponRejected
}

type Catalog interface {
	ListAvailableCoupons(ctx context.Context) ([]types.Coupon, error)
}

type Checker interface {
	ValidateCoupon(ctx context.Context, userID, code string, subtotal decimal.Decimal) (*types.CouponValidation, error)
}

// Selection is the coupon applied to one checkout session. It is safe for
// concurrent use so a validation can commit while other session state
// changes.
type Selection struct {
	mu         sync.Mutex
	coupon     *types.Coupon
	validated  *pricing.ValidatedDiscount
	generation uint64
	celebrated bool
}

func (s *Selection) Coupon() *types.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coupon == nil {
		return nil
	}
	c := *s.coupon
	return &c
}

func (s *Selection) Validated() *pricing.ValidatedDiscount {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.validated == nil {
		return nil
	}
	v := *s.validated
	return &v
}

// Remove clears the applied coupon and its discount. Validations still in
// flight will not resurrect it.
func (s *Selection) Remove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupon = nil
	s.validated = nil
	s.generation++
}

func (s *Selection) snapshot() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Selection) commit(generation uint64, coupon types.Coupon, discount pricing.ValidatedDiscount) (celebrate bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return false, false
	}
	s.coupon = &coupon
	s.validated = &discount
	s.generation++
	celebrate = !s.celebrated
	s.celebrated = true
	return celebrate, true
}

type ApplyResult struct {
	Coupon   types.Coupon
	Discount decimal.Decimal
	// Celebrate is true only for the first successful application in the
	// selection's lifetime.
	Celebrate bool
}

type Validator struct {
	catalog Catalog
	checker Checker
	logger  *zap.Logger
	now     func() time.Time
}

func NewValidator(catalog Catalog, checker Checker, logger *zap.Logger) *Validator {
	return &Validator{
		catalog: catalog,
		checker: checker,
		logger:  logger,
		now:     time.Now,
	}
}

// Available lists catalog coupons whose validity window covers now.
func (v *Validator) Available(ctx context.Context) ([]types.Coupon, error) {
	all, err := v.catalog.ListAvailableCoupons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	now := v.now()
	active := make([]types.Coupon, 0, len(all))
	for _, c := range all {
		if c.ActiveAt(now) {
			active = append(active, c)
		}
	}
	return active, nil
}

// Apply validates code against subtotal and, on success, records it in sel.
// On any failure sel keeps whatever it held before.
func (v *Validator) Apply(ctx context.Context, userID string, sel *Selection, code string, subtotal decimal.Decimal) (ApplyResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return ApplyResult{}, ErrEmptyCode
	}

	generation := sel.snapshot()

	coupon, err := v.lookup(ctx, code)
	if err != nil {
		return ApplyResult{}, err
	}

	verdict, err := v.checker.ValidateCoupon(ctx, userID, coupon.Code, subtotal)
	if err != nil {
		metrics.CouponValidationsTotal.WithLabelValues("error").Inc()
		return ApplyResult{}, fmt.Errorf("validate coupon %s: %w", coupon.Code, err)
	}
	if !verdict.IsValid {
		metrics.CouponValidationsTotal.WithLabelValues("rejected").Inc()
		return ApplyResult{}, &RejectedError{Code: coupon.Code, Reason: verdict.Reason}
	}

	discount := verdict.DiscountAmount
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	celebrate, ok := sel.commit(generation, coupon, pricing.ValidatedDiscount{
		Amount:   discount,
		Subtotal: subtotal,
	})
	if !ok {
		return ApplyResult{}, ErrSelectionChanged
	}

	metrics.CouponValidationsTotal.WithLabelValues("applied").Inc()
	v.logger.Debug("coupon applied",
		zap.String("user_id", userID),
		zap.String("code", coupon.Code),
		zap.String("discount", discount.String()))

	return ApplyResult{Coupon: coupon, Discount: discount, Celebrate: celebrate}, nil
}

// invalidator is implemented by catalogs that serve a cached copy of the
// coupon list.
type invalidator interface {
	Invalidate(ctx context.Context) error
}

// lookup finds code in the catalog. A miss on a cached catalog drops the
// cache and reads the list once more, so newly published coupons are found.
func (v *Validator) lookup(ctx context.Context, code string) (types.Coupon, error) {
	coupon, found, err := v.find(ctx, code)
	if err == nil && !found {
		if cached, ok := v.catalog.(invalidator); ok {
			if ierr := cached.Invalidate(ctx); ierr != nil {
				v.logger.Warn("coupon cache invalidation failed", zap.String("code", code), zap.Error(ierr))
			} else {
				coupon, found, err = v.find(ctx, code)
			}
		}
	}
	if err != nil {
		metrics.CouponValidationsTotal.WithLabelValues("error").Inc()
		return types.Coupon{}, err
	}
	if !found {
		metrics.CouponValidationsTotal.WithLabelValues("not_found").Inc()
		return types.Coupon{}, ErrCouponNotFound
	}
	return coupon, nil
}

func (v *Validator) find(ctx context.Context, code string) (types.Coupon, bool, error) {
	coupons, err := v.catalog.ListAvailableCoupons(ctx)
	if err != nil {
		return types.Coupon{}, false, fmt.Errorf("list coupons: %w", err)
	}
	for _, c := range coupons {
		if c.Matches(code) {
			return c, true, nil
		}
	}
	return types.Coupon{}, false, nil
}
