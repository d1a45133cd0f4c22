package domain

// OrderModel selects the execution model on the sniping service.
type OrderModel string

const (
	ModelTX1 OrderModel = "tx1"
	ModelKX1 OrderModel = "kx1"
	ModelLX1 OrderModel = "lx1"
)

// IsValid checks if the model is one the execution service accepts.
func (m OrderModel) IsValid() bool {
	return m == ModelTX1 || m == ModelKX1 || m == ModelLX1
}

// OpenPositionOrder is the request body for the execution service's
// open-position-order endpoint. CreatedAt is unix seconds as a string.
type OpenPositionOrder struct {
	Chain           string     `json:"chain"`
	TokenAddress    string     `json:"tokenAddress"`
	TradingDecision string     `json:"tradingDecision"`
	CreatedAt       string     `json:"createdAt"`
	Model           OrderModel `json:"model"`
	Socials         Socials    `json:"socials"`
	MarketCap       string     `json:"marketCap"`
	Exchange        string     `json:"exchange"`
}
