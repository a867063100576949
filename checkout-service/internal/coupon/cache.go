package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/metrics"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const catalogKey = "coupons:available"

var ErrCacheMiss = errors.New("cache miss")

// CachedCatalog keeps the coupon list in Redis. Only the list is cached;
// validation always goes to the catalog service.
type CachedCatalog struct {
	source  Catalog
	client  *redis.Client
	baseTTL time.Duration
	sfg     singleflight.Group
	logger  *zap.Logger
}

func NewCachedCatalog(source Catalog, client *redis.Client, baseTTL time.Duration, logger *zap.Logger) *CachedCatalog {
	return &CachedCatalog{
		source:  source,
		client:  client,
		baseTTL: baseTTL,
		logger:  logger,
	}
}

func (c *CachedCatalog) ListAvailableCoupons(ctx context.Context) ([]types.Coupon, error) {
	coupons, err := c.get(ctx)
	if err == nil {
		metrics.CouponCatalogLookups.WithLabelValues("hit").Inc()
		return coupons, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("coupon cache read failed", zap.Error(err))
	}
	metrics.CouponCatalogLookups.WithLabelValues("miss").Inc()

	v, err, _ := c.sfg.Do(catalogKey, func() (interface{}, error) {
		fresh, err := c.source.ListAvailableCoupons(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.set(ctx, fresh); err != nil {
			c.logger.Warn("coupon cache write failed", zap.Error(err))
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.Coupon), nil
}

func (c *CachedCatalog) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, catalogKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *CachedCatalog) get(ctx context.Context) ([]types.Coupon, error) {
	data, err := c.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var coupons []types.Coupon
	if err := json.Unmarshal(data, &coupons); err != nil {
		return nil, fmt.Errorf("unmarshal coupons failed: %w", err)
	}
	return coupons, nil
}

func (c *CachedCatalog) set(ctx context.Context, coupons []types.Coupon) error {
	data, err := json.Marshal(coupons)
	if err != nil {
		return fmt.Errorf("marshal coupons failed: %w", err)
	}
	if err := c.client.Set(ctx, catalogKey, data, c.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// ttl spreads expiry over an extra fifth of the base TTL.
func (c *CachedCatalog) ttl() time.Duration {
	spread := int64(c.baseTTL / 5)
	if spread <= 0 {
		return c.baseTTL
	}
	return c.baseTTL + time.Duration(rand.Int63n(spread))
}
