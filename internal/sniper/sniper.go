// Package sniper submits open-position orders to the external execution
// service. The target environment (production vs staging) is decided by
// the caller at construction time; this package never reads the process
// environment.
package sniper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"listing-radar/internal/domain"
)

// Execution service endpoints.
const (
	ProductionBaseURL = "https://auto-sniper-api-499636776518.europe-west6.run.app"
	StagingBaseURL    = "https://auto-sniper-api-1003522928061.europe-west6.run.app"
)

// EnvProduction is the configuration value that selects the production
// execution endpoint; any other value selects staging.
const EnvProduction = "PRODUCTION"

// DefaultTimeout bounds a single order submission.
const DefaultTimeout = 20 * time.Second

// BaseURLForEnv maps an environment name to the execution endpoint.
func BaseURLForEnv(env string) string {
	if env == EnvProduction {
		return ProductionBaseURL
	}
	return StagingBaseURL
}

// Client submits orders to one execution endpoint.
type Client struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates an order client bound to one base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the endpoint this client submits to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SubmitOpenPosition posts an open-position order. Any failure (transport,
// timeout, non-2xx) is returned as an error for the caller to log; the
// caller decides that order failures never block the pipeline.
func (c *Client) SubmitOpenPosition(ctx context.Context, order *domain.OpenPositionOrder) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	u := c.baseURL + "/open-position-order"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("order rejected with status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
