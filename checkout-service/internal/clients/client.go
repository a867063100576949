// Package clients holds the REST clients for the services checkout depends
// on. Every client speaks the shared JSON envelope and sits behind its own
// circuit breaker.
package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// StatusError is a non-success answer from a collaborating service.
type StatusError struct {
	Service    string
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s responded %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s responded %d: %s", e.Service, e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

var DefaultBreakerSettings = BreakerSettings{
	MaxFailures: 5,
	OpenTimeout: 10 * time.Second,
}

type restClient struct {
	service string
	baseURL string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

func newRestClient(service, baseURL string, timeout time.Duration, bs BreakerSettings, logger *zap.Logger) *restClient {
	settings := gobreaker.Settings{
		Name:        service,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.MaxFailures
		},
		// A 4xx is the caller's problem, not a sign the service is down.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			return err == nil || (errors.As(err, &se) && se.StatusCode < http.StatusInternalServerError)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("service", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &restClient{
		service: service,
		baseURL: baseURL,
		timeout: timeout,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		logger:  logger,
	}
}

func (c *restClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	start := time.Now()
	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.send(method, path, body, timeout)
	})
	metrics.ObserveOutbound(c.service, start, err)
	if err != nil {
		c.logger.Debug("outbound call failed",
			zap.String("service", c.service),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("%s %s %s: %w", c.service, method, path, err)
	}

	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode %s response: %w", c.service, path, err)
	}
	return nil
}

func (c *restClient) send(method, path string, body interface{}, timeout time.Duration) ([]byte, error) {
	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	agent.Timeout(timeout)
	if body != nil {
		agent.JSON(body)
	}

	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return nil, err
	}

	code, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if code >= http.StatusMultipleChoices {
				return nil, &StatusError{Service: c.service, StatusCode: code, Message: string(raw)}
			}
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
	}

	if code >= http.StatusMultipleChoices || !env.Success {
		se := &StatusError{Service: c.service, StatusCode: code, Message: env.Message}
		if env.Error != nil {
			se.Code = env.Error.Code
			if env.Error.Message != "" {
				se.Message = env.Error.Message
			}
		}
		return nil, se
	}

	return env.Data, nil
}
