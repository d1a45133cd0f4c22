// Package main provides the unified listing-radar server:
// - Ingest (HTTP): producer payloads posted to /ingest
// - Scan (scheduled): listing sources swept into the pipeline
// - Live feed (WebSocket): processed notifications pushed to /ws
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"listing-radar/internal/domain"
	"listing-radar/internal/fanout"
	"listing-radar/internal/livefeed"
	"listing-radar/internal/marketdata"
	"listing-radar/internal/notify"
	"listing-radar/internal/observability"
	"listing-radar/internal/resolver"
	"listing-radar/internal/scan"
	"listing-radar/internal/sniper"
	"listing-radar/internal/storage"
	chstore "listing-radar/internal/storage/clickhouse"
	"listing-radar/internal/storage/memory"
	"listing-radar/internal/storage/migrations"
	pgstore "listing-radar/internal/storage/postgres"
)

const maxIngestBody = 1 << 20 // 1 MiB

// Server holds all components of the unified service.
type Server struct {
	pipeline *notify.Pipeline
	hub      *livefeed.Hub
	scanner  *scan.Service
	logger   *log.Logger

	// State
	mu         sync.Mutex
	startedAt  time.Time
	lastIngest time.Time
	ingested   int
	duplicates int
}

// allStores holds all storage implementations.
type allStores struct {
	notificationStore storage.NotificationStore
	endpointStore     storage.EndpointStore
	eventStore        storage.PipelineEventStore // nil when no event log backend
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	addr := flag.String("addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (event log; optional)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	env := flag.String("env", envOr("ENV", "STAGING"), "Deployment environment (PRODUCTION selects the production execution service)")
	ordersEnabled := flag.Bool("orders", os.Getenv("ORDERS_ENABLED") == "true", "Submit buy orders to the execution service")
	orderModel := flag.String("order-model", envOr("ORDER_MODEL", "lx1"), "Execution model (tx1, kx1, lx1)")
	dedupWindow := flag.Duration("dedup-window", 7*24*time.Hour, "Duplicate suppression window")
	coingeckoKey := flag.String("coingecko-key", os.Getenv("COINGECKO_API_KEY"), "CoinGecko API key")
	webhooks := flag.String("webhooks", os.Getenv("WEBHOOK_URLS"), "Comma-separated webhook endpoint URLs to register at startup")
	scanFile := flag.String("scan-file", os.Getenv("SCAN_FILE"), "JSON file with listing payloads to sweep on a schedule")
	scanInterval := flag.Duration("scan-interval", 5*time.Minute, "Listing scan interval")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}
	model := domain.OrderModel(strings.ToLower(*orderModel))
	if !model.IsValid() {
		logger.Fatalf("invalid --order-model %q (want tx1, kx1 or lx1)", *orderModel)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if err := registerWebhooks(ctx, stores.endpointStore, *webhooks, logger); err != nil {
		logger.Fatalf("Failed to register webhooks: %v", err)
	}

	// External service clients
	var mdOpts []marketdata.ClientOption
	if *coingeckoKey != "" {
		mdOpts = append(mdOpts, marketdata.WithAPIKey(*coingeckoKey))
	}

	var orderClient notify.OrderSubmitter
	if *ordersEnabled {
		base := sniper.BaseURLForEnv(*env)
		logger.Printf("Order submission enabled (%s)", base)
		orderClient = sniper.NewClient(base)
	}

	hub := livefeed.NewHub(log.New(os.Stdout, "[livefeed] ", log.LstdFlags))

	pipeline := notify.New(notify.Options{
		NotificationStore: stores.notificationStore,
		EventStore:        stores.eventStore,
		Resolver:          resolver.NewClient(),
		MarketData:        marketdata.NewClient(mdOpts...),
		Sniper:            orderClient,
		Broadcaster: fanout.New(fanout.Options{
			Endpoints: stores.endpointStore,
			Logger:    log.New(os.Stdout, "[fanout] ", log.LstdFlags),
		}),
		Feed:        hub,
		DedupWindow: *dedupWindow,
		OrderModel:  model,
		Logger:      log.New(os.Stdout, "[pipeline] ", log.LstdFlags),
	})

	server := &Server{
		pipeline:  pipeline,
		hub:       hub,
		logger:    logger,
		startedAt: time.Now(),
	}

	// Scan scheduler
	if *scanFile != "" {
		source, err := fileSource(*scanFile)
		if err != nil {
			logger.Fatalf("Failed to load scan file: %v", err)
		}
		server.scanner = scan.New(scan.Options{
			Sources:  []scan.ListingSource{source},
			Pipeline: pipeline,
			Logger:   log.New(os.Stdout, "[scan] ", log.LstdFlags),
		})
		go server.scanner.RunEvery(ctx, *scanInterval)
		logger.Printf("Scan scheduler started (interval: %v)", *scanInterval)
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = server.serveHTTP(ctx, *addr)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			notificationStore: memory.NewNotificationStore(),
			endpointStore:     memory.NewEndpointStore(),
			eventStore:        memory.NewPipelineEventStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	stores := &allStores{
		notificationStore: pgstore.NewNotificationStore(pool),
		endpointStore:     pgstore.NewEndpointStore(pool),
	}

	// ClickHouse event log is optional
	var chConn *chstore.Conn
	if clickhouseDSN != "" {
		chConn, err = migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		stores.eventStore = chstore.NewPipelineEventStore(chConn)
	}

	cleanup := func() {
		if chConn != nil {
			chConn.Close()
		}
		pool.Close()
	}

	return stores, cleanup, nil
}

// registerWebhooks inserts the configured endpoint URLs, skipping ones
// already registered.
func registerWebhooks(ctx context.Context, store storage.EndpointStore, urls string, logger *log.Logger) error {
	for _, u := range strings.Split(urls, ",") {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		_, err := store.Insert(ctx, &domain.WebhookEndpoint{URL: u})
		if errors.Is(err, storage.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return fmt.Errorf("register webhook %s: %w", u, err)
		}
		logger.Printf("Registered webhook endpoint %s", u)
	}
	return nil
}

// fileSource loads a JSON array of producer payloads as a listing source.
func fileSource(path string) (scan.ListingSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var payloads []json.RawMessage
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &scan.StaticSource{SourceName: "file:" + path, Payloads: payloads}, nil
}

// serveHTTP runs the HTTP server until ctx is cancelled.
func (s *Server) serveHTTP(ctx context.Context, addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/ingest", s.handleIngest)
	mux.HandleFunc("/ws", s.hub.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", observability.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ingestResponse is the JSON response for /ingest.
type ingestResponse struct {
	Status       string `json:"status"` // "ok" or "duplicate"
	ID           string `json:"id,omitempty"`
	TokenAddress string `json:"token_address,omitempty"`
}

// handleIngest runs one producer payload through the pipeline.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.pipeline.RunPayload(r.Context(), body)
	if err != nil {
		if errors.Is(err, notify.ErrNoCurrency) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Printf("Ingest failed: %v", err)
		http.Error(w, "pipeline failure", http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	s.lastIngest = time.Now()
	s.ingested++
	if result.Duplicate {
		s.duplicates++
	}
	s.mu.Unlock()

	resp := ingestResponse{Status: "ok"}
	if result.Duplicate {
		resp.Status = "duplicate"
	} else {
		resp.ID = result.Notification.ID
		resp.TokenAddress = result.Notification.TokenAddress()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status     string    `json:"status"`
	Uptime     string    `json:"uptime"`
	StartedAt  time.Time `json:"started_at"`
	LastIngest time.Time `json:"last_ingest,omitempty"`
	Ingested   int       `json:"ingested"`
	Duplicates int       `json:"duplicates"`
	FeedCount  int       `json:"feed_clients"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:     "running",
		Uptime:     time.Since(s.startedAt).String(),
		StartedAt:  s.startedAt,
		LastIngest: s.lastIngest,
		Ingested:   s.ingested,
		Duplicates: s.duplicates,
		FeedCount:  s.hub.ClientCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// envOr returns the env var value or a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
