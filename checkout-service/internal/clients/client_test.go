package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, data interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]interface{}{
		"success": status < 300,
		"message": http.StatusText(status),
		"data":    data,
	}
	if status >= 300 {
		body["error"] = map[string]string{"code": "ERR", "message": "upstream said no"}
	}
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestCartClientGetCart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/carts/u-1", r.URL.Path)
		writeEnvelope(t, w, http.StatusOK, types.CartSnapshot{
			UserID:      "u-1",
			PlatformFee: decimal.NewFromInt(10),
			Items: []types.CartItem{{
				ID:       "i-1",
				Product:  types.ProductSnapshot{ID: "p-1", Price: decimal.NewFromInt(50), MRP: decimal.NewFromInt(60)},
				Quantity: 2,
			}},
		})
	}))
	defer server.Close()

	client := NewCartClient(server.URL, time.Second, zap.NewNop())
	cart, err := client.GetCart(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.True(t, cart.PlatformFee.Equal(decimal.NewFromInt(10)))
}

func TestCartClientRefreshDeliveryEstimateSendsCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/carts/u-1/delivery-estimate", r.URL.Path)

		var at types.Coordinates
		require.NoError(t, json.NewDecoder(r.Body).Decode(&at))
		assert.Equal(t, 12.97, at.Latitude)
		assert.Equal(t, 77.59, at.Longitude)

		writeEnvelope(t, w, http.StatusOK, types.DeliveryEstimate{
			Fee:                   decimal.NewFromInt(25),
			FreeDeliveryThreshold: decimal.NewFromInt(199),
		})
	}))
	defer server.Close()

	client := NewCartClient(server.URL, time.Second, zap.NewNop())
	estimate, err := client.RefreshDeliveryEstimate(context.Background(), "u-1", types.Coordinates{Latitude: 12.97, Longitude: 77.59})
	require.NoError(t, err)
	assert.True(t, estimate.Fee.Equal(decimal.NewFromInt(25)))
	assert.True(t, estimate.FreeDeliveryThreshold.Equal(decimal.NewFromInt(199)))
}

func TestCouponClientValidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req validateCouponRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "SAVE10", req.Code)
		assert.True(t, req.Subtotal.Equal(decimal.NewFromInt(340)))

		writeEnvelope(t, w, http.StatusOK, types.CouponValidation{
			IsValid:        true,
			DiscountAmount: decimal.NewFromInt(25),
		})
	}))
	defer server.Close()

	client := NewCouponClient(server.URL, time.Second, zap.NewNop())
	result, err := client.ValidateCoupon(context.Background(), "u-1", "SAVE10", decimal.NewFromInt(340))
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromInt(25)))
}

func TestStatusErrorCarriesUpstreamMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusNotFound, nil)
	}))
	defer server.Close()

	client := NewProfileClient(server.URL, time.Second, zap.NewNop())
	_, err := client.GetProfile(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "ERR", se.Code)
	assert.Equal(t, "upstream said no", se.Message)
}

func TestBreakerOpensOnServerErrorsOnly(t *testing.T) {
	var calls atomic.Int32
	status := atomic.Int32{}
	status.Store(http.StatusNotFound)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEnvelope(t, w, int(status.Load()), nil)
	}))
	defer server.Close()

	rest := newRestClient("test-service", server.URL, time.Second, BreakerSettings{MaxFailures: 2, OpenTimeout: time.Minute}, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.Error(t, rest.do(ctx, http.MethodGet, "/", nil, nil))
	}
	assert.Equal(t, int32(3), calls.Load(), "client errors must not trip the breaker")

	status.Store(http.StatusInternalServerError)
	assert.Error(t, rest.do(ctx, http.MethodGet, "/", nil, nil))
	assert.Error(t, rest.do(ctx, http.MethodGet, "/", nil, nil))

	err := rest.do(ctx, http.MethodGet, "/", nil, nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), calls.Load())
}

func TestDoRespectsCancelledContext(t *testing.T) {
	rest := newRestClient("test-service", "http://127.0.0.1:1", time.Second, DefaultBreakerSettings, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, rest.do(ctx, http.MethodGet, "/", nil, nil), context.Canceled)
}
