package clients

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"go.uber.org/zap"
)

type ProfileClient struct {
	rest *restClient
}

func NewProfileClient(baseURL string, timeout time.Duration, logger *zap.Logger) *ProfileClient {
	return &ProfileClient{rest: newRestClient("profile-service", baseURL, timeout, DefaultBreakerSettings, logger)}
}

func (c *ProfileClient) GetProfile(ctx context.Context, userID string) (*types.Profile, error) {
	var profile types.Profile
	if err := c.rest.do(ctx, http.MethodGet, "/api/v1/profiles/"+url.PathEscape(userID), nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *ProfileClient) UpdateProfile(ctx context.Context, userID string, update types.ProfileUpdate) (*types.Profile, error) {
	var profile types.Profile
	if err := c.rest.do(ctx, http.MethodPut, "/api/v1/profiles/"+url.PathEscape(userID), update, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
