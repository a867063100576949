package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Subsystem: "orders",
		Name:      "placed_total",
		Help:      "Place-order attempts by outcome",
	}, []string{"outcome"}) // created / rejected / failed

	PaymentOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Subsystem: "payments",
		Name:      "outcomes_total",
		Help:      "Settled payment sessions",
	}, []string{"status"}) // succeeded / failed / timeout

	CouponValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Subsystem: "coupons",
		Name:      "validations_total",
		Help:      "Coupon validation requests by result",
	}, []string{"result"}) // applied / rejected / not_found / error

	CouponCatalogLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Subsystem: "coupons",
		Name:      "catalog_lookups_total",
		Help:      "Coupon catalog cache lookups",
	}, []string{"result"}) // hit / miss

	DeliveryRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Subsystem: "delivery",
		Name:      "refreshes_total",
		Help:      "Delivery estimate refreshes",
	}, []string{"status"}) // success / error / cleared

	OutboundDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "checkout",
		Subsystem: "outbound",
		Name:      "request_duration_seconds",
		Help:      "Latency of calls to collaborating services",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service", "status"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "checkout",
		Subsystem: "sessions",
		Name:      "active",
		Help:      "Open checkout sessions",
	})
)

func ObserveOutbound(service string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	OutboundDuration.WithLabelValues(service, status).Observe(time.Since(start).Seconds())
}
