package clickhouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/pricehistory"
	"solana-strategy-lab/internal/storage"
	"solana-strategy-lab/internal/storage/clickhouse"
)

func testHistory(token string, timeframe int) *pricehistory.History {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	candles := []domain.Candle{
		{Timestamp: base, Open: 0.001, High: 0.0012, Low: 0.0009, Close: 0.0011, Volume: 15000},
		{Timestamp: base.Add(15 * time.Minute), Open: 0.0011, High: 0.0016, Low: 0.001, Close: 0.0015, Volume: 22000},
		{Timestamp: base.Add(30 * time.Minute), Open: 0.0015, High: 0.0022, Low: 0.0014, Close: 0.002, Volume: 31000},
	}
	h := pricehistory.New(token, timeframe, candles)
	h.PoolAddress = "PoolAddr999"
	return h
}

func TestCandleStore_PutAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewCandleStore(conn)
	ctx := context.Background()

	h := testHistory("TokenAddr111", 15)
	err := store.PutHistory(ctx, h)
	require.NoError(t, err)

	got, err := store.GetHistory(ctx, "TokenAddr111", 15)
	require.NoError(t, err)

	assert.Equal(t, "TokenAddr111", got.TokenAddress)
	assert.Equal(t, "PoolAddr999", got.PoolAddress)
	assert.Equal(t, 15, got.TimeframeMinutes)
	require.Len(t, got.Candles, 3)

	// Rows come back ordered by timestamp.
	for i := 1; i < len(got.Candles); i++ {
		assert.True(t, got.Candles[i].Timestamp.After(got.Candles[i-1].Timestamp),
			"candles out of order at %d", i)
	}

	first := got.Candles[0]
	assert.Equal(t, h.Candles[0].Timestamp, first.Timestamp)
	assert.InDelta(t, 0.001, first.Open, 1e-12)
	assert.InDelta(t, 0.0012, first.High, 1e-12)
	assert.InDelta(t, 0.0009, first.Low, 1e-12)
	assert.InDelta(t, 0.0011, first.Close, 1e-12)
	assert.InDelta(t, 15000, first.Volume, 1e-6)
}

func TestCandleStore_PutDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewCandleStore(conn)
	ctx := context.Background()

	require.NoError(t, store.PutHistory(ctx, testHistory("TokenAddr111", 15)))

	err := store.PutHistory(ctx, testHistory("TokenAddr111", 15))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestCandleStore_TimeframesAreDistinctKeys(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewCandleStore(conn)
	ctx := context.Background()

	require.NoError(t, store.PutHistory(ctx, testHistory("TokenAddr111", 15)))
	assert.NoError(t, store.PutHistory(ctx, testHistory("TokenAddr111", 60)))

	got, err := store.GetHistory(ctx, "TokenAddr111", 60)
	require.NoError(t, err)
	assert.Equal(t, 60, got.TimeframeMinutes)
}

func TestCandleStore_GetMissing(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewCandleStore(conn)

	_, err := store.GetHistory(context.Background(), "nope", 15)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCandleStore_PutInvalid(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewCandleStore(conn)
	ctx := context.Background()

	err := store.PutHistory(ctx, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.PutHistory(ctx, testHistory("", 15))
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
