// Package notify implements the listing notification pipeline.
// It coordinates: normalization → resolution → dedup → enrichment → order → persist → fan-out
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"listing-radar/internal/domain"
)

// ErrNoCurrency indicates a producer payload carrying no currency
// information in either supported shape. Such payloads are malformed
// and must not enter the pipeline.
var ErrNoCurrency = errors.New("notify: payload has no currency info")

// flatPayload is the legacy producer shape: currency and exchange are
// top-level scalar fields.
type flatPayload struct {
	Type             string `json:"type"`
	ListingType      string `json:"listing_type"`
	Message          string `json:"message"`
	Currency         string `json:"currency"` // token symbol
	CurrencyName     string `json:"currency_name"`
	CurrencyAddress  string `json:"currency_address"`
	Exchange         string `json:"exchange"`
	TradingPairURL   string `json:"trading_pair_url"`
	Blockchain       string `json:"blockchain"`
	AlertConditionID int64  `json:"alert_condition_id"`
}

// nestedPayload is the canonical producer shape: currency and exchange
// are objects.
type nestedPayload struct {
	Type             string          `json:"type"`
	ListingType      string          `json:"listing_type"`
	Message          string          `json:"message"`
	Currency         domain.Currency `json:"currency"`
	Exchange         domain.Exchange `json:"exchange"`
	Blockchain       string          `json:"blockchain"`
	AlertConditionID int64           `json:"alert_condition_id"`
}

// shapeProbe inspects the raw currency field to select a decode branch.
type shapeProbe struct {
	Currency json.RawMessage `json:"currency"`
}

// Normalize converts a producer payload, in either the flat or the
// nested shape, into a canonical Notification. The two shapes are
// decoded by two explicit branches selected on the type of the
// "currency" field; anything else fails at the boundary.
//
// The message is synthesized when the producer did not supply one.
// Returns ErrNoCurrency when the payload carries no currency info.
func Normalize(data []byte) (*domain.Notification, error) {
	var probe shapeProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("notify: decode payload: %w", err)
	}

	var n *domain.Notification
	if isJSONObject(probe.Currency) {
		var p nestedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("notify: decode nested payload: %w", err)
		}
		n = &domain.Notification{
			EventKind:        domain.EventKind(p.Type),
			ListingKind:      p.ListingType,
			Message:          p.Message,
			Currency:         p.Currency,
			Exchange:         p.Exchange,
			Blockchain:       p.Blockchain,
			AlertConditionID: p.AlertConditionID,
		}
	} else {
		var p flatPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("notify: decode flat payload: %w", err)
		}
		n = &domain.Notification{
			EventKind:   domain.EventKind(p.Type),
			ListingKind: p.ListingType,
			Message:     p.Message,
			Currency: domain.Currency{
				Symbol:  p.Currency,
				Name:    p.CurrencyName,
				Address: p.CurrencyAddress,
			},
			Exchange: domain.Exchange{
				Name:           p.Exchange,
				TradingPairURL: p.TradingPairURL,
			},
			Blockchain:       p.Blockchain,
			AlertConditionID: p.AlertConditionID,
		}
	}

	if n.Currency.Symbol == "" && n.Currency.Name == "" && n.Currency.Address == "" {
		return nil, ErrNoCurrency
	}

	if n.EventKind == "" {
		n.EventKind = domain.EventNewCoin
	}
	if n.Message == "" {
		n.Message = fmt.Sprintf("%s (%s) has been listed on %s!",
			n.Currency.Name, n.Currency.Symbol, n.Exchange.Name)
	}

	return n, nil
}

// isJSONObject reports whether raw is a JSON object value.
func isJSONObject(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "{")
}
