package storage

import (
	"context"
	"time"

	"listing-radar/internal/domain"
)

// NotificationStore provides access to the notification history.
// The history is append-only: records are inserted with a store-assigned
// id and creation time and never updated or deleted by the pipeline.
type NotificationStore interface {
	// Insert persists a notification, assigning its ID and CreatedAt.
	// Returns the stored record. Returns ErrInvalidInput on nil input.
	Insert(ctx context.Context, n *domain.Notification) (*domain.Notification, error)

	// List retrieves one page of notifications ordered by created_at DESC,
	// using offset (page-1)*size, along with the total record count.
	// page and size must be >= 1.
	List(ctx context.Context, page, size int) ([]*domain.Notification, int, error)

	// GetRecentByAddress retrieves notifications whose token address equals
	// address and whose created_at falls within [since, now], ordered by
	// created_at DESC.
	GetRecentByAddress(ctx context.Context, address string, since time.Time) ([]*domain.Notification, error)
}

// EndpointStore provides access to registered webhook endpoints.
type EndpointStore interface {
	// Insert adds a new endpoint, assigning its ID.
	// Returns ErrDuplicateKey if an endpoint with the same URL exists.
	Insert(ctx context.Context, e *domain.WebhookEndpoint) (*domain.WebhookEndpoint, error)

	// GetByID retrieves an endpoint by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.WebhookEndpoint, error)

	// GetAll retrieves every registered endpoint.
	GetAll(ctx context.Context) ([]*domain.WebhookEndpoint, error)
}

// PipelineEventStore provides access to the pipeline event log.
// The log is a write-mostly observability sink; reads exist for inspection
// tooling only and the pipeline never consults it.
type PipelineEventStore interface {
	// InsertBulk appends multiple events.
	InsertBulk(ctx context.Context, events []*domain.PipelineEvent) error

	// GetByAddress retrieves all events for a token address, ordered by
	// occurred_at ASC.
	GetByAddress(ctx context.Context, address string) ([]*domain.PipelineEvent, error)
}
