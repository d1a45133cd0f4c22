package sniper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"listing-radar/internal/domain"
)

func testOrder() *domain.OpenPositionOrder {
	return &domain.OpenPositionOrder{
		Chain:           "solana",
		TokenAddress:    "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm",
		TradingDecision: "buy",
		CreatedAt:       "1717200000",
		Model:           domain.ModelLX1,
		Socials:         domain.Socials{Website: "https://dogwifcoin.org"},
		MarketCap:       "1234567.89",
		Exchange:        "binance",
	}
}

func TestSubmitOpenPosition_PayloadShape(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/open-position-order" {
			t.Errorf("Expected path /open-position-order, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Decode body failed: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.SubmitOpenPosition(context.Background(), testOrder()); err != nil {
		t.Fatalf("SubmitOpenPosition failed: %v", err)
	}

	// The execution service contract uses camelCase keys.
	for _, key := range []string{"chain", "tokenAddress", "tradingDecision", "createdAt", "model", "socials", "marketCap", "exchange"} {
		if _, ok := received[key]; !ok {
			t.Errorf("Payload missing key %q", key)
		}
	}
	if received["tradingDecision"] != "buy" {
		t.Errorf("tradingDecision mismatch: %v", received["tradingDecision"])
	}
	socials, ok := received["socials"].(map[string]any)
	if !ok {
		t.Fatalf("socials is not an object: %v", received["socials"])
	}
	for _, key := range []string{"ws", "x", "tg"} {
		if _, present := socials[key]; !present {
			t.Errorf("socials missing key %q", key)
		}
	}
}

func TestSubmitOpenPosition_Non2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient balance", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.SubmitOpenPosition(context.Background(), testOrder()); err == nil {
		t.Fatal("Expected error on 422 response")
	}
}

func TestSubmitOpenPosition_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithTimeout(20*time.Millisecond))
	if err := client.SubmitOpenPosition(context.Background(), testOrder()); err == nil {
		t.Fatal("Expected timeout error")
	}
}

func TestBaseURLForEnv(t *testing.T) {
	if BaseURLForEnv("PRODUCTION") != ProductionBaseURL {
		t.Error("PRODUCTION must select the production endpoint")
	}
	for _, env := range []string{"STAGING", "development", ""} {
		if BaseURLForEnv(env) != StagingBaseURL {
			t.Errorf("Env %q must select the staging endpoint", env)
		}
	}
}
