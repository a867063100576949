package clients

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"go.uber.org/zap"
)

type AddressClient struct {
	rest *restClient
}

func NewAddressClient(baseURL string, timeout time.Duration, logger *zap.Logger) *AddressClient {
	return &AddressClient{rest: newRestClient("address-service", baseURL, timeout, DefaultBreakerSettings, logger)}
}

func (c *AddressClient) ListAddresses(ctx context.Context, userID string) ([]types.OrderAddress, error) {
	var addresses []types.OrderAddress
	if err := c.rest.do(ctx, http.MethodGet, "/api/v1/users/"+url.PathEscape(userID)+"/addresses", nil, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (c *AddressClient) UpdateAddress(ctx context.Context, addressID string, patch types.AddressPatch) (*types.OrderAddress, error) {
	var address types.OrderAddress
	if err := c.rest.do(ctx, http.MethodPatch, "/api/v1/addresses/"+url.PathEscape(addressID), patch, &address); err != nil {
		return nil, err
	}
	return &address, nil
}
