// Package marketdata fetches onchain pool data for a (network, token)
// pair and extracts the fields the pipeline needs: a fully-diluted
// valuation and social links. Extraction guarantees plain string values;
// unavailable data degrades to defaults rather than failing the run.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"listing-radar/internal/domain"
)

// DefaultBaseURL is the GeckoTerminal-compatible onchain API.
const DefaultBaseURL = "https://pro-api.coingecko.com/api/v3/onchain"

// DefaultTimeout bounds a single pools call.
const DefaultTimeout = 15 * time.Second

// ErrUnavailable is returned when the provider has no pool data for the
// (network, token) pair. Recoverable: callers apply defaults and continue.
var ErrUnavailable = errors.New("marketdata: no pool data for token")

// TokenMarketData is the extracted, always-complete view of a token.
type TokenMarketData struct {
	MarketCap string // fully-diluted valuation in USD, "0" when unknown
	Socials   domain.Socials
}

// Client queries the pools endpoint.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the provider base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithAPIKey sets the provider API key header value.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
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

// NewClient creates a new market-data client.
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

// flexString decodes JSON strings, numbers and null into a plain string.
// The provider is not consistent about fdv_usd's JSON type.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("fdv value is neither string nor number: %s", string(data))
	}
	*f = flexString(n.String())
	return nil
}

// poolsResponse is the raw pools response.
type poolsResponse struct {
	Data []struct {
		Attributes struct {
			FdvUSD         flexString `json:"fdv_usd"`
			Websites       []string   `json:"websites"`
			TwitterHandle  string     `json:"twitter_handle"`
			TelegramHandle string     `json:"telegram_handle"`
		} `json:"attributes"`
	} `json:"data"`
}

// GetTokenData fetches pool data for the token on the given network.
// Returns ErrUnavailable when the provider has nothing for the pair.
func (c *Client) GetTokenData(ctx context.Context, network, tokenAddress string) (*TokenMarketData, error) {
	u := fmt.Sprintf("%s/networks/%s/tokens/%s/pools", c.baseURL, network, tokenAddress)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pools request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result poolsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(result.Data) == 0 {
		return nil, ErrUnavailable
	}

	// First pool only; later pools repeat the same token attributes.
	attrs := result.Data[0].Attributes

	data := &TokenMarketData{
		MarketCap: string(attrs.FdvUSD),
	}
	if data.MarketCap == "" {
		data.MarketCap = "0"
	}
	if len(attrs.Websites) > 0 {
		data.Socials.Website = attrs.Websites[0]
	}
	if attrs.TwitterHandle != "" {
		data.Socials.X = "x.com/" + attrs.TwitterHandle
	}
	data.Socials.Telegram = attrs.TelegramHandle

	return data, nil
}
