package clickhouse

import (
	"context"
	"fmt"

	"listing-radar/internal/domain"
	"listing-radar/internal/storage"
)

// PipelineEventStore implements storage.PipelineEventStore using ClickHouse.
type PipelineEventStore struct {
	conn *Conn
}

// NewPipelineEventStore creates a new PipelineEventStore.
func NewPipelineEventStore(conn *Conn) *PipelineEventStore {
	return &PipelineEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PipelineEventStore = (*PipelineEventStore)(nil)

// InsertBulk appends multiple events.
func (s *PipelineEventStore) InsertBulk(ctx context.Context, events []*domain.PipelineEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO pipeline_events (
			stage, status, token_address, exchange, detail, occurred_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		if e == nil {
			return storage.ErrInvalidInput
		}
		err = batch.Append(
			string(e.Stage), e.Status, e.TokenAddress,
			e.Exchange, e.Detail, e.OccurredAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByAddress retrieves all events for a token address, ordered by occurred_at ASC.
func (s *PipelineEventStore) GetByAddress(ctx context.Context, address string) ([]*domain.PipelineEvent, error) {
	query := `
		SELECT stage, status, token_address, exchange, detail, occurred_at
		FROM pipeline_events
		WHERE token_address = ?
		ORDER BY occurred_at ASC
	`

	rows, err := s.conn.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("query pipeline events: %w", err)
	}
	defer rows.Close()

	var events []*domain.PipelineEvent
	for rows.Next() {
		var e domain.PipelineEvent
		var stage string

		err := rows.Scan(&stage, &e.Status, &e.TokenAddress, &e.Exchange, &e.Detail, &e.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("scan pipeline event row: %w", err)
		}

		e.Stage = domain.PipelineStage(stage)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pipeline event rows: %w", err)
	}

	return events, nil
}
