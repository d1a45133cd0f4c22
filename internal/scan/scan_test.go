package scan

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"listing-radar/internal/notify"
)

type fakeRunner struct {
	payloads []string
	err      error
}

func (f *fakeRunner) RunPayload(_ context.Context, payload []byte) (*notify.RunResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.payloads = append(f.payloads, string(payload))
	return &notify.RunResult{}, nil
}

func listing(symbol string) json.RawMessage {
	return json.RawMessage(`{"currency": "` + symbol + `", "exchange": "Binance"}`)
}

func TestRun_ProcessesAllSources(t *testing.T) {
	runner := &fakeRunner{}
	svc := New(Options{
		Sources: []ListingSource{
			&StaticSource{SourceName: "binance", Payloads: []json.RawMessage{listing("AAA"), listing("BBB")}},
			&StaticSource{SourceName: "gate", Payloads: []json.RawMessage{listing("CCC")}},
		},
		Pipeline: runner,
	})

	if got := svc.Run(context.Background()); got != 3 {
		t.Errorf("expected 3 processed, got %d", got)
	}
	if len(runner.payloads) != 3 {
		t.Errorf("expected 3 pipeline runs, got %d", len(runner.payloads))
	}
}

func TestRun_SourceFailureContained(t *testing.T) {
	runner := &fakeRunner{}
	svc := New(Options{
		Sources: []ListingSource{
			&StaticSource{SourceName: "broken", Err: errors.New("scrape timeout")},
			&StaticSource{SourceName: "gate", Payloads: []json.RawMessage{listing("CCC")}},
		},
		Pipeline: runner,
	})

	if got := svc.Run(context.Background()); got != 1 {
		t.Errorf("expected 1 processed despite broken source, got %d", got)
	}
}

func TestRun_ListingFailureContained(t *testing.T) {
	runner := &fakeRunner{err: notify.ErrNoCurrency}
	svc := New(Options{
		Sources: []ListingSource{
			&StaticSource{SourceName: "binance", Payloads: []json.RawMessage{listing("AAA"), listing("BBB")}},
		},
		Pipeline: runner,
	})

	if got := svc.Run(context.Background()); got != 0 {
		t.Errorf("expected 0 processed when every listing is rejected, got %d", got)
	}
}

func TestRun_NoSources(t *testing.T) {
	svc := New(Options{Pipeline: &fakeRunner{}})
	if got := svc.Run(context.Background()); got != 0 {
		t.Errorf("expected 0 processed, got %d", got)
	}
}
