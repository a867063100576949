package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type GatewayMode string

const (
	GatewayModeAuto    GatewayMode = "auto"
	GatewayModeWebhook GatewayMode = "webhook"
)

type Config struct {
	Port string

	CartServiceURL    string
	CouponServiceURL  string
	AddressServiceURL string
	OrderServiceURL   string
	ProfileServiceURL string
	RequestTimeout    time.Duration

	RedisAddr      string
	CouponCacheTTL time.Duration

	FlatDeliveryFee  decimal.Decimal
	GiftPackagingFee decimal.Decimal
	Currency         string

	SessionIdleTimeout time.Duration

	PaymentSessionTimeout  time.Duration
	PaymentGatewayMode     GatewayMode
	PaymentFailureRate     float64
	PaymentDelay           time.Duration
	PaymentCheckoutBaseURL string
}

func Load() *Config {
	return &Config{
		Port: getEnvOrDefault("PORT", "8010"),

		CartServiceURL:    getEnvOrDefault("CART_SERVICE_URL", "http://localhost:8020"),
		CouponServiceURL:  getEnvOrDefault("COUPON_SERVICE_URL", "http://localhost:8021"),
		AddressServiceURL: getEnvOrDefault("ADDRESS_SERVICE_URL", "http://localhost:8022"),
		OrderServiceURL:   getEnvOrDefault("ORDER_SERVICE_URL", "http://localhost:8001"),
		ProfileServiceURL: getEnvOrDefault("PROFILE_SERVICE_URL", "http://localhost:8023"),
		RequestTimeout:    getDurationOrDefault("REQUEST_TIMEOUT", 5*time.Second),

		RedisAddr:      getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		CouponCacheTTL: getDurationOrDefault("COUPON_CACHE_TTL", 5*time.Minute),

		FlatDeliveryFee:  getDecimalOrDefault("FLAT_DELIVERY_FEE", decimal.NewFromInt(30)),
		GiftPackagingFee: getDecimalOrDefault("GIFT_PACKAGING_FEE", decimal.NewFromInt(30)),
		Currency:         getEnvOrDefault("CURRENCY", "INR"),

		SessionIdleTimeout: getDurationOrDefault("CHECKOUT_IDLE_TIMEOUT", 30*time.Minute),

		PaymentSessionTimeout:  getDurationOrDefault("PAYMENT_SESSION_TIMEOUT", 15*time.Minute),
		PaymentGatewayMode:     GatewayMode(getEnvOrDefault("PAYMENT_GATEWAY_MODE", string(GatewayModeAuto))),
		PaymentFailureRate:     getFloatOrDefault("PAYMENT_GATEWAY_FAILURE_RATE", 0.1),
		PaymentDelay:           getDurationOrDefault("PAYMENT_GATEWAY_DELAY", 2*time.Second),
		PaymentCheckoutBaseURL: getEnvOrDefault("PAYMENT_CHECKOUT_BASE_URL", "https://pay.example.com/checkout"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

func getDecimalOrDefault(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if d, err := decimal.NewFromString(os.Getenv(key)); err == nil && !d.IsNegative() {
		return d
	}
	return defaultValue
}
