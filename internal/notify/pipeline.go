package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"listing-radar/internal/domain"
	"listing-radar/internal/marketdata"
	"listing-radar/internal/observability"
	"listing-radar/internal/solana"
	"listing-radar/internal/storage"
)

// DefaultDedupWindow is the trailing window within which a second
// notification for the same token address is suppressed.
const DefaultDedupWindow = 7 * 24 * time.Hour

// AddressResolver maps a claimed address or symbol to a canonical
// on-chain address.
type AddressResolver interface {
	Resolve(ctx context.Context, query string) (string, error)
}

// MarketDataProvider fetches market data for a (network, address) pair.
type MarketDataProvider interface {
	GetTokenData(ctx context.Context, network, tokenAddress string) (*marketdata.TokenMarketData, error)
}

// OrderSubmitter submits open-position orders to the execution service.
type OrderSubmitter interface {
	SubmitOpenPosition(ctx context.Context, order *domain.OpenPositionOrder) error
}

// Broadcaster delivers a stored notification to registered subscribers.
type Broadcaster interface {
	Broadcast(ctx context.Context, n *domain.Notification)
}

// FeedPublisher pushes a stored notification to connected live clients.
type FeedPublisher interface {
	Publish(n *domain.Notification)
}

// Pipeline runs one listing event through the full notification flow.
// Flow: resolve → dedup → enrich → order → persist → fan-out.
//
// Error policy: a store write failure is the only fatal error. Resolution,
// enrichment, and order failures are recoverable; the run continues with
// degraded data and the failure is recorded.
type Pipeline struct {
	notifications storage.NotificationStore
	events        storage.PipelineEventStore // optional
	resolver      AddressResolver
	marketData    MarketDataProvider
	sniper        OrderSubmitter // optional
	broadcaster   Broadcaster
	feed          FeedPublisher // optional

	dedupWindow time.Duration
	orderModel  domain.OrderModel
	logger      *log.Logger
	now         func() time.Time
}

// Options for creating a Pipeline.
type Options struct {
	// Required
	NotificationStore storage.NotificationStore
	Resolver          AddressResolver
	MarketData        MarketDataProvider
	Broadcaster       Broadcaster

	// Optional
	EventStore  storage.PipelineEventStore // pipeline event log, skipped when nil
	Sniper      OrderSubmitter             // order submission, skipped when nil
	Feed        FeedPublisher              // live feed, skipped when nil
	DedupWindow time.Duration              // defaults to DefaultDedupWindow
	OrderModel  domain.OrderModel          // defaults to ModelLX1
	Logger      *log.Logger                // defaults to the standard logger
}

// New creates a new Pipeline.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		notifications: opts.NotificationStore,
		events:        opts.EventStore,
		resolver:      opts.Resolver,
		marketData:    opts.MarketData,
		sniper:        opts.Sniper,
		broadcaster:   opts.Broadcaster,
		feed:          opts.Feed,
		dedupWindow:   opts.DedupWindow,
		orderModel:    opts.OrderModel,
		logger:        opts.Logger,
		now:           time.Now,
	}
	if p.dedupWindow <= 0 {
		p.dedupWindow = DefaultDedupWindow
	}
	if !p.orderModel.IsValid() {
		p.orderModel = domain.ModelLX1
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	return p
}

// RunResult reports the stage outcomes of one pipeline run.
type RunResult struct {
	Notification   *domain.Notification // the stored record, nil for duplicates
	Duplicate      bool
	Resolved       bool
	Enriched       bool
	OrderSubmitted bool
}

// RunPayload normalizes a raw producer payload and runs it through the
// pipeline. Malformed payloads abort the event before any side effect.
func (p *Pipeline) RunPayload(ctx context.Context, payload []byte) (*RunResult, error) {
	n, err := Normalize(payload)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, n)
}

// Run processes one normalized notification.
func (p *Pipeline) Run(ctx context.Context, n *domain.Notification) (*RunResult, error) {
	start := p.now()
	result := &RunResult{}
	var events []*domain.PipelineEvent

	defer func() {
		p.flushEvents(ctx, events)
		observability.RecordPipelineDuration(p.now().Sub(start).Seconds())
	}()

	// Resolution
	resolved, err := p.resolve(ctx, n)
	if err != nil {
		p.logger.Printf("[pipeline] resolution failed for %q (%s): %v",
			n.Currency.Symbol, n.Currency.Address, err)
		observability.RecordResolutionFailure()
		events = append(events, p.event(n, domain.StageResolve, "failed", err.Error()))
	} else {
		n.ResolvedAddress = resolved
		result.Resolved = true
		events = append(events, p.event(n, domain.StageResolve, "ok", resolved))
	}

	// Dedup
	since := p.now().Add(-p.dedupWindow)
	recent, err := p.notifications.GetRecentByAddress(ctx, n.TokenAddress(), since)
	if err != nil {
		// A read failure must not block the alert; worst case is a duplicate.
		p.logger.Printf("[pipeline] dedup lookup failed for %s: %v", n.TokenAddress(), err)
		events = append(events, p.event(n, domain.StageDedup, "failed", err.Error()))
	} else if len(recent) > 0 {
		p.logger.Printf("[pipeline] duplicate suppressed: %s already notified within window", n.TokenAddress())
		observability.RecordDuplicateSuppressed()
		observability.RecordNotification(n.Exchange.Name, "duplicate")
		events = append(events, p.event(n, domain.StageDedup, "skipped", "duplicate within window"))
		result.Duplicate = true
		return result, nil
	} else {
		events = append(events, p.event(n, domain.StageDedup, "ok", ""))
	}

	// Enrichment
	data, err := p.enrich(ctx, n)
	if err != nil {
		if !errors.Is(err, marketdata.ErrUnavailable) {
			p.logger.Printf("[pipeline] enrichment failed for %s: %v", n.TokenAddress(), err)
		}
		observability.RecordEnrichmentMiss()
		events = append(events, p.event(n, domain.StageEnrich, "failed", err.Error()))
		n.MarketCap = "0"
		n.Socials = domain.Socials{}
	} else {
		n.MarketCap = data.MarketCap
		n.Socials = data.Socials
		result.Enriched = true
		events = append(events, p.event(n, domain.StageEnrich, "ok", ""))
	}

	// Order submission. Failures are logged and never propagated: trading
	// and alerting are separate failure domains.
	if p.sniper != nil {
		if err := p.submitOrder(ctx, n); err != nil {
			p.logger.Printf("[pipeline] order submission failed for %s: %v", n.TokenAddress(), err)
			observability.RecordOrderSubmitted("failed")
			events = append(events, p.event(n, domain.StageOrder, "failed", err.Error()))
		} else {
			result.OrderSubmitted = true
			observability.RecordOrderSubmitted("ok")
			events = append(events, p.event(n, domain.StageOrder, "ok", ""))
		}
	}

	// Persist
	stored, err := p.notifications.Insert(ctx, n)
	if err != nil {
		observability.RecordNotification(n.Exchange.Name, "failed")
		events = append(events, p.event(n, domain.StagePersist, "failed", err.Error()))
		return nil, fmt.Errorf("persist notification: %w", err)
	}
	result.Notification = stored
	events = append(events, p.event(stored, domain.StagePersist, "ok", stored.ID))

	// Fan-out
	p.broadcaster.Broadcast(ctx, stored)
	if p.feed != nil {
		p.feed.Publish(stored)
	}
	events = append(events, p.event(stored, domain.StageDeliver, "ok", ""))

	observability.RecordNotification(stored.Exchange.Name, "ok")
	p.logger.Printf("[pipeline] notification %s stored and broadcast (%s on %s)",
		stored.ID, stored.Currency.Symbol, stored.Exchange.Name)

	return result, nil
}

// resolve queries the pair-search service with the claimed address, then
// falls back to the symbol. Addresses that cannot be Solana public keys
// skip the address query.
func (p *Pipeline) resolve(ctx context.Context, n *domain.Notification) (string, error) {
	var lastErr error

	if addr := n.Currency.Address; addr != "" && solana.IsValidAddress(addr) {
		resolved, err := p.resolver.Resolve(ctx, addr)
		if err == nil {
			return resolved, nil
		}
		lastErr = err
	}

	if sym := n.Currency.Symbol; sym != "" {
		resolved, err := p.resolver.Resolve(ctx, sym)
		if err == nil {
			return resolved, nil
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("no resolvable address or symbol")
	}
	return "", lastErr
}

func (p *Pipeline) enrich(ctx context.Context, n *domain.Notification) (*marketdata.TokenMarketData, error) {
	addr := n.TokenAddress()
	if addr == "" {
		return nil, marketdata.ErrUnavailable
	}
	return p.marketData.GetTokenData(ctx, n.Chain(), addr)
}

func (p *Pipeline) submitOrder(ctx context.Context, n *domain.Notification) error {
	order := &domain.OpenPositionOrder{
		Chain:           n.Chain(),
		TokenAddress:    n.TokenAddress(),
		TradingDecision: "buy",
		CreatedAt:       strconv.FormatInt(p.now().Unix(), 10),
		Model:           p.orderModel,
		Socials:         n.Socials,
		MarketCap:       n.MarketCap,
		Exchange:        n.ExchangeSlug(),
	}
	return p.sniper.SubmitOpenPosition(ctx, order)
}

func (p *Pipeline) event(n *domain.Notification, stage domain.PipelineStage, status, detail string) *domain.PipelineEvent {
	return &domain.PipelineEvent{
		Stage:        stage,
		Status:       status,
		TokenAddress: n.TokenAddress(),
		Exchange:     n.Exchange.Name,
		Detail:       detail,
		OccurredAt:   p.now().UTC(),
	}
}

// flushEvents writes the run's events to the event log. The log is
// best-effort observability; failures are logged and dropped.
func (p *Pipeline) flushEvents(ctx context.Context, events []*domain.PipelineEvent) {
	if p.events == nil || len(events) == 0 {
		return
	}
	if err := p.events.InsertBulk(ctx, events); err != nil {
		p.logger.Printf("[pipeline] event log write failed: %v", err)
	}
}
