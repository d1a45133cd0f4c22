// Package scan feeds exchange listing sources into the notification
// pipeline on a schedule.
package scan

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"listing-radar/internal/notify"
	"listing-radar/internal/observability"
)

// ListingSource produces raw listing payloads for one exchange. The
// scrapers behind a source are external collaborators; a source only has
// to return zero or more producer payloads per run.
type ListingSource interface {
	Name() string
	Listings(ctx context.Context) ([]json.RawMessage, error)
}

// ListingRunner runs one raw payload through the pipeline.
type ListingRunner interface {
	RunPayload(ctx context.Context, payload []byte) (*notify.RunResult, error)
}

// Service iterates listing sources and runs each listing through the
// pipeline. Failures are contained per source and per listing: one bad
// source or payload never blocks the rest of the sweep.
type Service struct {
	sources  []ListingSource
	pipeline ListingRunner
	logger   *log.Logger
}

// Options for creating a Service.
type Options struct {
	Sources  []ListingSource
	Pipeline ListingRunner
	Logger   *log.Logger // defaults to the standard logger
}

// New creates a new Service.
func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		sources:  opts.Sources,
		pipeline: opts.Pipeline,
		logger:   logger,
	}
}

// Run sweeps every source once and returns the number of listings that
// completed the pipeline.
func (s *Service) Run(ctx context.Context) int {
	processed := 0
	for _, src := range s.sources {
		listings, err := src.Listings(ctx)
		if err != nil {
			s.logger.Printf("[scan] source %s failed: %v", src.Name(), err)
			observability.RecordScanRun(src.Name(), "failed")
			continue
		}
		observability.RecordScanRun(src.Name(), "ok")
		observability.RecordListingsScanned(len(listings))

		for _, listing := range listings {
			if _, err := s.pipeline.RunPayload(ctx, listing); err != nil {
				s.logger.Printf("[scan] source %s: listing rejected: %v", src.Name(), err)
				continue
			}
			processed++
		}
	}
	return processed
}

// RunEvery sweeps all sources at the given interval until ctx is
// cancelled. The first sweep runs immediately.
func (s *Service) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n := s.Run(ctx)
		if n > 0 {
			s.logger.Printf("[scan] sweep processed %d listings", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// StaticSource is a fixed-payload source, used for tests and manual
// replays.
type StaticSource struct {
	SourceName string
	Payloads   []json.RawMessage
	Err        error
}

func (s *StaticSource) Name() string { return s.SourceName }

func (s *StaticSource) Listings(_ context.Context) ([]json.RawMessage, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Payloads, nil
}
