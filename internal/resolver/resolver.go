// Package resolver confirms producer-claimed token addresses against a
// DEX pair-search service. Resolution is best-effort enrichment: callers
// treat ErrNoMatch as recoverable and continue with the claimed address.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the public DexScreener API.
const DefaultBaseURL = "https://api.dexscreener.com"

// DefaultTimeout bounds a single search call.
const DefaultTimeout = 10 * time.Second

// ErrNoMatch is returned when the search yields no trading pairs for the
// query. Recoverable: the caller may retry with another query term or
// proceed unresolved.
var ErrNoMatch = errors.New("resolver: no pair found for query")

// Client queries the pair-search endpoint.
type Client struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the search service base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

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

// NewClient creates a new pair-search client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResponse is the raw pair-search response.
type searchResponse struct {
	Pairs []struct {
		BaseToken struct {
			Address string `json:"address"`
			Name    string `json:"name"`
			Symbol  string `json:"symbol"`
		} `json:"baseToken"`
	} `json:"pairs"`
}

// Resolve looks up the query (address or symbol) and returns the first
// matching pair's base-token address. Returns ErrNoMatch when the service
// knows no pair for the query.
func (c *Client) Resolve(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", ErrNoMatch
	}

	u := fmt.Sprintf("%s/latest/dex/search?q=%s", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(result.Pairs) == 0 || result.Pairs[0].BaseToken.Address == "" {
		return "", ErrNoMatch
	}

	return result.Pairs[0].BaseToken.Address, nil
}
