package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"listing-radar/internal/domain"
	"listing-radar/internal/idhash"
	"listing-radar/internal/storage"
)

// NotificationStore implements storage.NotificationStore using PostgreSQL.
type NotificationStore struct {
	pool *Pool
}

// NewNotificationStore creates a new NotificationStore.
func NewNotificationStore(pool *Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.NotificationStore = (*NotificationStore)(nil)

const notificationColumns = `
	id, event_kind, listing_kind, message,
	currency_symbol, currency_name, claimed_address,
	resolved_address, token_address, blockchain,
	exchange_name, trading_pair_url, alert_condition_id,
	market_cap, socials_ws, socials_x, socials_tg,
	created_at, updated_at
`

// Insert persists a notification, assigning its ID and CreatedAt.
func (s *NotificationStore) Insert(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if n == nil {
		return nil, storage.ErrInvalidInput
	}

	stored := *n
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	stored.ID = idhash.ComputeNotificationID(stored.TokenAddress(), stored.Exchange.Name, stored.CreatedAt.UnixNano())

	query := `
		INSERT INTO notifications (
			id, event_kind, listing_kind, message,
			currency_symbol, currency_name, claimed_address,
			resolved_address, token_address, blockchain,
			exchange_name, trading_pair_url, alert_condition_id,
			market_cap, socials_ws, socials_x, socials_tg,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := s.pool.Exec(ctx, query,
		stored.ID,
		string(stored.EventKind),
		stored.ListingKind,
		stored.Message,
		stored.Currency.Symbol,
		stored.Currency.Name,
		stored.Currency.Address,
		stored.ResolvedAddress,
		stored.TokenAddress(),
		stored.Blockchain,
		stored.Exchange.Name,
		stored.Exchange.TradingPairURL,
		stored.AlertConditionID,
		stored.MarketCap,
		stored.Socials.Website,
		stored.Socials.X,
		stored.Socials.Telegram,
		stored.CreatedAt,
		stored.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, storage.ErrDuplicateKey
		}
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	return &stored, nil
}

// List retrieves one page of notifications ordered by created_at DESC,
// along with the total record count.
func (s *NotificationStore) List(ctx context.Context, page, size int) ([]*domain.Notification, int, error) {
	if page < 1 || size < 1 {
		return nil, 0, storage.ErrInvalidInput
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM notifications
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2
	`, notificationColumns)

	offset := (page - 1) * size
	rows, err := s.pool.Query(ctx, query, offset, size)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications, err := scanNotifications(rows)
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// GetRecentByAddress retrieves notifications whose token address equals
// address with created_at within [since, now], ordered by created_at DESC.
func (s *NotificationStore) GetRecentByAddress(ctx context.Context, address string, since time.Time) ([]*domain.Notification, error) {
	if address == "" {
		return nil, storage.ErrInvalidInput
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM notifications
		WHERE token_address = $1 AND created_at >= $2
		ORDER BY created_at DESC, id DESC
	`, notificationColumns)

	rows, err := s.pool.Query(ctx, query, address, since)
	if err != nil {
		return nil, fmt.Errorf("get notifications by address: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// scanNotifications scans multiple rows into a slice of Notification.
func scanNotifications(rows pgx.Rows) ([]*domain.Notification, error) {
	var notifications []*domain.Notification

	for rows.Next() {
		var n domain.Notification
		var eventKind, tokenAddress string

		err := rows.Scan(
			&n.ID,
			&eventKind,
			&n.ListingKind,
			&n.Message,
			&n.Currency.Symbol,
			&n.Currency.Name,
			&n.Currency.Address,
			&n.ResolvedAddress,
			&tokenAddress,
			&n.Blockchain,
			&n.Exchange.Name,
			&n.Exchange.TradingPairURL,
			&n.AlertConditionID,
			&n.MarketCap,
			&n.Socials.Website,
			&n.Socials.X,
			&n.Socials.Telegram,
			&n.CreatedAt,
			&n.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}

		n.EventKind = domain.EventKind(eventKind)
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}

	return notifications, nil
}
