package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-radar/internal/domain"
	"listing-radar/internal/storage"
	pgstore "listing-radar/internal/storage/postgres"
)

func testNotification(address string, createdAt time.Time) *domain.Notification {
	return &domain.Notification{
		EventKind:   domain.EventNewCoin,
		ListingKind: "listing",
		Message:     "Dogwifhat (WIF) has been listed on Binance!",
		Currency: domain.Currency{
			Symbol:  "WIF",
			Name:    "Dogwifhat",
			Address: address,
		},
		Exchange: domain.Exchange{
			Name:           "Binance",
			TradingPairURL: "https://www.binance.com/en/trade/WIF_USDT",
		},
		Blockchain:       "solana",
		AlertConditionID: 2040394,
		MarketCap:        "0",
		CreatedAt:        createdAt,
	}
}

func TestNotificationStore_InsertAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewNotificationStore(pool)
	ctx := context.Background()

	stored, err := store.Insert(ctx, testNotification("addr-1", time.Time{}))
	require.NoError(t, err)

	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.Equal(t, stored.CreatedAt, stored.UpdatedAt)

	records, total, err := store.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, total)

	got := records[0]
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, domain.EventNewCoin, got.EventKind)
	assert.Equal(t, "listing", got.ListingKind)
	assert.Equal(t, "WIF", got.Currency.Symbol)
	assert.Equal(t, "Dogwifhat", got.Currency.Name)
	assert.Equal(t, "addr-1", got.Currency.Address)
	assert.Equal(t, "Binance", got.Exchange.Name)
	assert.Equal(t, "solana", got.Blockchain)
	assert.Equal(t, int64(2040394), got.AlertConditionID)
	assert.Equal(t, "0", got.MarketCap)
}

func TestNotificationStore_ListPagination(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewNotificationStore(pool)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		_, err := store.Insert(ctx, testNotification("addr-page", base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	page2, total, err := store.List(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	require.Len(t, page2, 10)
	assert.True(t, total > 2*10, "expected has_more on page 2")

	for i := 1; i < len(page2); i++ {
		assert.False(t, page2[i].CreatedAt.After(page2[i-1].CreatedAt),
			"records must be ordered by created_at DESC")
	}

	page3, total, err := store.List(ctx, 3, 10)
	require.NoError(t, err)
	assert.Len(t, page3, 5)
	assert.False(t, total > 3*10, "expected no more pages after page 3")
}

func TestNotificationStore_GetRecentByAddress_WindowBoundary(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewNotificationStore(pool)
	ctx := context.Background()

	now := time.Now().UTC()

	_, err := store.Insert(ctx, testNotification("addr-6d", now.Add(-6*24*time.Hour)))
	require.NoError(t, err)
	_, err = store.Insert(ctx, testNotification("addr-8d", now.Add(-8*24*time.Hour)))
	require.NoError(t, err)

	since := now.Add(-7 * 24 * time.Hour)

	recent, err := store.GetRecentByAddress(ctx, "addr-6d", since)
	require.NoError(t, err)
	assert.Len(t, recent, 1, "6-day-old record must be inside a 7-day window")

	recent, err = store.GetRecentByAddress(ctx, "addr-8d", since)
	require.NoError(t, err)
	assert.Empty(t, recent, "8-day-old record must be outside a 7-day window")
}

func TestNotificationStore_DedupKeysOnResolvedAddress(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewNotificationStore(pool)
	ctx := context.Background()

	n := testNotification("claimed-addr", time.Time{})
	n.ResolvedAddress = "resolved-addr"
	_, err := store.Insert(ctx, n)
	require.NoError(t, err)

	since := time.Now().UTC().Add(-time.Hour)

	recent, err := store.GetRecentByAddress(ctx, "resolved-addr", since)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	recent, err = store.GetRecentByAddress(ctx, "claimed-addr", since)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestNotificationStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewNotificationStore(pool)
	ctx := context.Background()

	_, err := store.Insert(ctx, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, _, err = store.List(ctx, 0, 10)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = store.GetRecentByAddress(ctx, "", time.Now())
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
