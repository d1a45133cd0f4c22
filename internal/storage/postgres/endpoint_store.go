package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"listing-radar/internal/domain"
	"listing-radar/internal/idhash"
	"listing-radar/internal/storage"
)

// EndpointStore implements storage.EndpointStore using PostgreSQL.
type EndpointStore struct {
	pool *Pool
}

// NewEndpointStore creates a new EndpointStore.
func NewEndpointStore(pool *Pool) *EndpointStore {
	return &EndpointStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EndpointStore = (*EndpointStore)(nil)

// Insert adds a new endpoint. Returns ErrDuplicateKey if the URL exists.
func (s *EndpointStore) Insert(ctx context.Context, e *domain.WebhookEndpoint) (*domain.WebhookEndpoint, error) {
	if e == nil || e.URL == "" {
		return nil, storage.ErrInvalidInput
	}

	stored := *e
	if stored.ID == "" {
		stored.ID = idhash.ComputeEndpointID(stored.URL)
	}

	query := `
		INSERT INTO webhook_endpoints (id, url, description)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query, stored.ID, stored.URL, stored.Description)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, storage.ErrDuplicateKey
		}
		return nil, fmt.Errorf("insert webhook endpoint: %w", err)
	}

	return &stored, nil
}

// GetByID retrieves an endpoint by its ID. Returns ErrNotFound if not exists.
func (s *EndpointStore) GetByID(ctx context.Context, id string) (*domain.WebhookEndpoint, error) {
	query := `
		SELECT id, url, description
		FROM webhook_endpoints
		WHERE id = $1
	`

	var e domain.WebhookEndpoint
	err := s.pool.QueryRow(ctx, query, id).Scan(&e.ID, &e.URL, &e.Description)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get endpoint by id: %w", err)
	}
	return &e, nil
}

// GetAll retrieves every registered endpoint.
func (s *EndpointStore) GetAll(ctx context.Context) ([]*domain.WebhookEndpoint, error) {
	query := `
		SELECT id, url, description
		FROM webhook_endpoints
		ORDER BY url ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all endpoints: %w", err)
	}
	defer rows.Close()

	return scanEndpoints(rows)
}

// scanEndpoints scans multiple rows into a slice of WebhookEndpoint.
func scanEndpoints(rows pgx.Rows) ([]*domain.WebhookEndpoint, error) {
	var endpoints []*domain.WebhookEndpoint

	for rows.Next() {
		var e domain.WebhookEndpoint
		if err := rows.Scan(&e.ID, &e.URL, &e.Description); err != nil {
			return nil, fmt.Errorf("scan endpoint row: %w", err)
		}
		endpoints = append(endpoints, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate endpoint rows: %w", err)
	}

	return endpoints, nil
}
