package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetTokenData_FullAttributes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expected := "/networks/solana/tokens/addr-1/pools"
		if r.URL.Path != expected {
			t.Errorf("Expected path %s, got %s", expected, r.URL.Path)
		}
		if got := r.Header.Get("x-cg-pro-api-key"); got != "test-key" {
			t.Errorf("Expected api key header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [{
				"attributes": {
					"fdv_usd": "1234567.89",
					"websites": ["https://dogwifcoin.org"],
					"twitter_handle": "dogwifcoin",
					"telegram_handle": "dogwifcoin_tg"
				}
			}]
		}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithAPIKey("test-key"))

	data, err := client.GetTokenData(context.Background(), "solana", "addr-1")
	if err != nil {
		t.Fatalf("GetTokenData failed: %v", err)
	}

	if data.MarketCap != "1234567.89" {
		t.Errorf("MarketCap mismatch: got %s", data.MarketCap)
	}
	if data.Socials.Website != "https://dogwifcoin.org" {
		t.Errorf("Website mismatch: got %s", data.Socials.Website)
	}
	if data.Socials.X != "x.com/dogwifcoin" {
		t.Errorf("X mismatch: got %s", data.Socials.X)
	}
	if data.Socials.Telegram != "dogwifcoin_tg" {
		t.Errorf("Telegram mismatch: got %s", data.Socials.Telegram)
	}
}

func TestGetTokenData_NumericFdv(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"attributes": {"fdv_usd": 987654.5}}]}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	data, err := client.GetTokenData(context.Background(), "solana", "addr-2")
	if err != nil {
		t.Fatalf("GetTokenData failed: %v", err)
	}
	if data.MarketCap != "987654.5" {
		t.Errorf("Expected numeric fdv as string, got %s", data.MarketCap)
	}
}

func TestGetTokenData_DefaultsWhenAttributesMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"attributes": {}}]}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	data, err := client.GetTokenData(context.Background(), "solana", "addr-3")
	if err != nil {
		t.Fatalf("GetTokenData failed: %v", err)
	}

	// The contract: strings are always present, never null.
	if data.MarketCap != "0" {
		t.Errorf("Expected market cap default \"0\", got %q", data.MarketCap)
	}
	if data.Socials.Website != "" || data.Socials.X != "" || data.Socials.Telegram != "" {
		t.Errorf("Expected empty socials, got %+v", data.Socials)
	}
}

func TestGetTokenData_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.GetTokenData(context.Background(), "solana", "addr-4")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestGetTokenData_NotFoundIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.GetTokenData(context.Background(), "solana", "addr-5")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable on 404, got %v", err)
	}
}
