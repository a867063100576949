package clients

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"go.uber.org/zap"
)

type CartClient struct {
	rest *restClient
}

func NewCartClient(baseURL string, timeout time.Duration, logger *zap.Logger) *CartClient {
	return &CartClient{rest: newRestClient("cart-service", baseURL, timeout, DefaultBreakerSettings, logger)}
}

func cartPath(userID string) string {
	return "/api/v1/carts/" + url.PathEscape(userID)
}

func (c *CartClient) GetCart(ctx context.Context, userID string) (*types.CartSnapshot, error) {
	var cart types.CartSnapshot
	if err := c.rest.do(ctx, http.MethodGet, cartPath(userID), nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *CartClient) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*types.CartSnapshot, error) {
	var cart types.CartSnapshot
	body := map[string]int{"quantity": quantity}
	if err := c.rest.do(ctx, http.MethodPut, cartPath(userID)+"/items/"+url.PathEscape(itemID), body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *CartClient) RemoveItem(ctx context.Context, userID, itemID string) (*types.CartSnapshot, error) {
	var cart types.CartSnapshot
	if err := c.rest.do(ctx, http.MethodDelete, cartPath(userID)+"/items/"+url.PathEscape(itemID), nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *CartClient) ClearCart(ctx context.Context, userID string) error {
	return c.rest.do(ctx, http.MethodDelete, cartPath(userID), nil, nil)
}

func (c *CartClient) RefreshDeliveryEstimate(ctx context.Context, userID string, at types.Coordinates) (*types.DeliveryEstimate, error) {
	var estimate types.DeliveryEstimate
	if err := c.rest.do(ctx, http.MethodPost, cartPath(userID)+"/delivery-estimate", at, &estimate); err != nil {
		return nil, err
	}
	return &estimate, nil
}
