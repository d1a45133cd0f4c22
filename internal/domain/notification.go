package domain

import (
	"strings"
	"time"
)

// EventKind classifies the upstream alert event.
type EventKind string

const (
	EventNewCoin EventKind = "new_coin"
)

// String returns the string representation of EventKind.
func (k EventKind) String() string {
	return string(k)
}

// Currency identifies the listed token as claimed by the producer.
// Address is unverified until the resolver has confirmed it.
type Currency struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Exchange identifies where the listing was announced.
type Exchange struct {
	Name           string `json:"name"`
	TradingPairURL string `json:"trading_pair_url"`
}

// Socials holds token social links. All fields are plain strings, empty
// when unknown; consumers can rely on the keys always being present.
type Socials struct {
	Website  string `json:"ws"`
	X        string `json:"x"`
	Telegram string `json:"tg"`
}

// Notification is the canonical, store-ready form of a listing event.
// Once persisted a notification is immutable; re-processing the same
// upstream event can only produce a new record.
type Notification struct {
	ID               string    `json:"id,omitempty"` // assigned by the store
	EventKind        EventKind `json:"type"`
	ListingKind      string    `json:"listing_type"`
	Message          string    `json:"message"`
	Currency         Currency  `json:"currency"`
	Exchange         Exchange  `json:"exchange"`
	Blockchain       string    `json:"blockchain"`
	AlertConditionID int64     `json:"alert_condition_id"`
	ResolvedAddress  string    `json:"resolved_address,omitempty"`
	MarketCap        string    `json:"market_cap,omitempty"`
	Socials          Socials   `json:"socials"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TokenAddress returns the best-known token address: the resolved address
// when resolution succeeded, otherwise the producer-claimed one.
func (n *Notification) TokenAddress() string {
	if n.ResolvedAddress != "" {
		return n.ResolvedAddress
	}
	return n.Currency.Address
}

// Chain returns the lowercased blockchain network name.
func (n *Notification) Chain() string {
	return strings.ToLower(n.Blockchain)
}

// ExchangeSlug returns the exchange name in the form the execution service
// expects: lowercased, spaces replaced with dashes.
func (n *Notification) ExchangeSlug() string {
	return strings.ReplaceAll(strings.ToLower(n.Exchange.Name), " ", "-")
}
