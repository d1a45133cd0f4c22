// Package fanout delivers finished notifications to every registered
// webhook endpoint. Delivery is best-effort: one attempt per endpoint per
// broadcast, failures isolated per endpoint, nothing surfaces to the caller.
package fanout

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"listing-radar/internal/domain"
	"listing-radar/internal/observability"
	"listing-radar/internal/storage"
)

// Default configuration values.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxWidth = 8
)

// deliveryResult captures one endpoint's outcome. Results are logged and
// counted only; kept structured so per-endpoint status can be returned
// later without redesign.
type deliveryResult struct {
	endpoint *domain.WebhookEndpoint
	status   int
	err      error
}

// Broadcaster posts notifications to all registered endpoints concurrently.
type Broadcaster struct {
	endpoints storage.EndpointStore
	client    *http.Client
	maxWidth  int
	logger    *log.Logger
}

// Options for creating Broadcaster.
type Options struct {
	Endpoints storage.EndpointStore
	Client    *http.Client  // defaults to a client with DefaultTimeout
	MaxWidth  int           // max concurrent deliveries, defaults to DefaultMaxWidth
	Logger    *log.Logger   // defaults to the standard logger
}

// New creates a new Broadcaster.
func New(opts Options) *Broadcaster {
	b := &Broadcaster{
		endpoints: opts.Endpoints,
		client:    opts.Client,
		maxWidth:  opts.MaxWidth,
		logger:    opts.Logger,
	}
	if b.client == nil {
		b.client = &http.Client{Timeout: DefaultTimeout}
	}
	if b.maxWidth <= 0 {
		b.maxWidth = DefaultMaxWidth
	}
	if b.logger == nil {
		b.logger = log.Default()
	}
	return b
}

// Broadcast posts the notification to every currently registered endpoint.
// Deliveries run concurrently with bounded width and no ordering guarantee;
// any subset may fail without affecting the rest or the caller.
func (b *Broadcaster) Broadcast(ctx context.Context, n *domain.Notification) {
	endpoints, err := b.endpoints.GetAll(ctx)
	if err != nil {
		b.logger.Printf("Fan-out aborted, cannot read endpoints: %v", err)
		return
	}
	if len(endpoints) == 0 {
		b.logger.Println("No webhook endpoints registered")
		return
	}

	body, err := json.Marshal(n)
	if err != nil {
		b.logger.Printf("Fan-out aborted, cannot marshal notification: %v", err)
		return
	}

	results := make([]deliveryResult, len(endpoints))
	sem := make(chan struct{}, b.maxWidth)
	var wg sync.WaitGroup

	for i, endpoint := range endpoints {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, endpoint *domain.WebhookEndpoint) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = b.deliver(ctx, endpoint, body)
		}(i, endpoint)
	}
	wg.Wait()

	delivered := 0
	for _, r := range results {
		if r.err != nil {
			b.logger.Printf("Failed to deliver notification to %s: %v", r.endpoint.URL, r.err)
			observability.RecordWebhookDelivery("failed")
			continue
		}
		if r.status >= 400 {
			b.logger.Printf("Failed to deliver notification to %s: status %d", r.endpoint.URL, r.status)
			observability.RecordWebhookDelivery("rejected")
			continue
		}
		delivered++
		observability.RecordWebhookDelivery("ok")
	}

	b.logger.Printf("Notification delivered to %d/%d endpoints", delivered, len(endpoints))
}

// deliver posts the payload to a single endpoint.
func (b *Broadcaster) deliver(ctx context.Context, endpoint *domain.WebhookEndpoint, body []byte) deliveryResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return deliveryResult{endpoint: endpoint, err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return deliveryResult{endpoint: endpoint, err: err}
	}
	// Drain so the connection can be reused.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return deliveryResult{endpoint: endpoint, status: resp.StatusCode}
}
