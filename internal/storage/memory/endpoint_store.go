package memory

import (
	"context"
	"sort"
	"sync"

	"listing-radar/internal/domain"
	"listing-radar/internal/idhash"
	"listing-radar/internal/storage"
)

// EndpointStore is an in-memory implementation of storage.EndpointStore.
type EndpointStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WebhookEndpoint // keyed by id
	urls map[string]struct{}                // URL uniqueness index
}

// NewEndpointStore creates a new in-memory endpoint store.
func NewEndpointStore() *EndpointStore {
	return &EndpointStore{
		data: make(map[string]*domain.WebhookEndpoint),
		urls: make(map[string]struct{}),
	}
}

// Compile-time interface check.
var _ storage.EndpointStore = (*EndpointStore)(nil)

// Insert adds a new endpoint. Returns ErrDuplicateKey if the URL exists.
func (s *EndpointStore) Insert(_ context.Context, e *domain.WebhookEndpoint) (*domain.WebhookEndpoint, error) {
	if e == nil || e.URL == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.urls[e.URL]; exists {
		return nil, storage.ErrDuplicateKey
	}

	stored := *e
	if stored.ID == "" {
		stored.ID = idhash.ComputeEndpointID(stored.URL)
	}

	s.data[stored.ID] = &stored
	s.urls[stored.URL] = struct{}{}

	result := stored
	return &result, nil
}

// GetByID retrieves an endpoint by its ID. Returns ErrNotFound if not exists.
func (s *EndpointStore) GetByID(_ context.Context, id string) (*domain.WebhookEndpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	endpointCopy := *e
	return &endpointCopy, nil
}

// GetAll retrieves every registered endpoint.
func (s *EndpointStore) GetAll(_ context.Context) ([]*domain.WebhookEndpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.WebhookEndpoint, 0, len(s.data))
	for _, e := range s.data {
		endpointCopy := *e
		result = append(result, &endpointCopy)
	}

	// Stable order for callers and tests
	sort.Slice(result, func(i, j int) bool {
		return result[i].URL < result[j].URL
	})

	return result, nil
}
