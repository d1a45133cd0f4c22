package memory

import (
	"context"
	"sort"
	"sync"

	"listing-radar/internal/domain"
	"listing-radar/internal/storage"
)

// PipelineEventStore is an in-memory implementation of storage.PipelineEventStore.
type PipelineEventStore struct {
	mu   sync.RWMutex
	data []*domain.PipelineEvent
}

// NewPipelineEventStore creates a new in-memory pipeline event store.
func NewPipelineEventStore() *PipelineEventStore {
	return &PipelineEventStore{}
}

// Compile-time interface check.
var _ storage.PipelineEventStore = (*PipelineEventStore)(nil)

// InsertBulk appends multiple events.
func (s *PipelineEventStore) InsertBulk(_ context.Context, events []*domain.PipelineEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		if e == nil {
			return storage.ErrInvalidInput
		}
		eventCopy := *e
		s.data = append(s.data, &eventCopy)
	}
	return nil
}

// GetByAddress retrieves all events for a token address, ordered by occurred_at ASC.
func (s *PipelineEventStore) GetByAddress(_ context.Context, address string) ([]*domain.PipelineEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PipelineEvent
	for _, e := range s.data {
		if e.TokenAddress == address {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].OccurredAt.Before(result[j].OccurredAt)
	})

	return result, nil
}
