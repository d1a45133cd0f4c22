package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"listing-radar/internal/domain"
	"listing-radar/internal/idhash"
	"listing-radar/internal/storage"
)

// NotificationStore is an in-memory implementation of storage.NotificationStore.
type NotificationStore struct {
	mu   sync.RWMutex
	data []*domain.Notification // insertion order

	// now is swappable for tests.
	now func() time.Time
}

// NewNotificationStore creates a new in-memory notification store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{now: time.Now}
}

// Compile-time interface check.
var _ storage.NotificationStore = (*NotificationStore)(nil)

// WithClock overrides the store clock. Test helper.
func (s *NotificationStore) WithClock(now func() time.Time) *NotificationStore {
	s.now = now
	return s
}

// Insert persists a notification, assigning its ID and CreatedAt.
func (s *NotificationStore) Insert(_ context.Context, n *domain.Notification) (*domain.Notification, error) {
	if n == nil {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *n
	createdAt := s.now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = createdAt
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	stored.ID = idhash.ComputeNotificationID(stored.TokenAddress(), stored.Exchange.Name, stored.CreatedAt.UnixNano())

	s.data = append(s.data, &stored)

	result := stored
	return &result, nil
}

// List retrieves one page ordered by created_at DESC plus the total count.
func (s *NotificationStore) List(_ context.Context, page, size int) ([]*domain.Notification, int, error) {
	if page < 1 || size < 1 {
		return nil, 0, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := make([]*domain.Notification, len(s.data))
	copy(sorted, s.data)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	total := len(sorted)
	offset := (page - 1) * size
	if offset >= total {
		return nil, total, nil
	}

	end := offset + size
	if end > total {
		end = total
	}

	result := make([]*domain.Notification, 0, end-offset)
	for _, n := range sorted[offset:end] {
		notificationCopy := *n
		result = append(result, &notificationCopy)
	}
	return result, total, nil
}

// GetRecentByAddress retrieves notifications for a token address with
// created_at within [since, now], ordered by created_at DESC.
func (s *NotificationStore) GetRecentByAddress(_ context.Context, address string, since time.Time) ([]*domain.Notification, error) {
	if address == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Notification
	for _, n := range s.data {
		if n.TokenAddress() != address {
			continue
		}
		if n.CreatedAt.Before(since) {
			continue
		}
		notificationCopy := *n
		result = append(result, &notificationCopy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}
