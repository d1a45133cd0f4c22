package domain

// WebhookEndpoint is a registered notification subscriber.
// Endpoints are created once and only read afterwards; no two endpoints
// may share the same URL.
type WebhookEndpoint struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Description string `json:"description"`
}
