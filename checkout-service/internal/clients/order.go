package clients

import (
	"context"
	"net/http"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"go.uber.org/zap"
)

type OrderClient struct {
	rest *restClient
}

func NewOrderClient(baseURL string, timeout time.Duration, logger *zap.Logger) *OrderClient {
	return &OrderClient{rest: newRestClient("order-service", baseURL, timeout, DefaultBreakerSettings, logger)}
}

func (c *OrderClient) CreateOrder(ctx context.Context, draft types.OrderDraft) (*types.Order, error) {
	var order types.Order
	if err := c.rest.do(ctx, http.MethodPost, "/api/v1/orders", draft, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
