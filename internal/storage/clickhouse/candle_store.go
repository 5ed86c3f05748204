package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/pricehistory"
	"solana-strategy-lab/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse. One row per
// candle, keyed by (token_address, timeframe_minutes, timestamp).
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// PutHistory stores a candle series. Returns ErrDuplicateKey when the
// (token, timeframe) pair already has rows.
func (s *CandleStore) PutHistory(ctx context.Context, h *pricehistory.History) error {
	if h == nil || h.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, h.TokenAddress, h.TimeframeMinutes)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			token_address, pool_address, timeframe_minutes, timestamp, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range h.Candles {
		err = batch.Append(
			h.TokenAddress, h.PoolAddress, uint16(h.TimeframeMinutes),
			c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume,
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

// GetHistory retrieves a cached series ordered by timestamp ASC.
func (s *CandleStore) GetHistory(ctx context.Context, tokenAddress string, timeframeMinutes int) (*pricehistory.History, error) {
	query := `
		SELECT pool_address, timestamp, open, high, low, close, volume
		FROM candles
		WHERE token_address = ? AND timeframe_minutes = ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenAddress, uint16(timeframeMinutes))
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	var (
		candles     []domain.Candle
		poolAddress string
	)
	for rows.Next() {
		var (
			c  domain.Candle
			ts time.Time
		)
		if err := rows.Scan(&poolAddress, &ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.Timestamp = domain.NormalizeTime(ts)
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candles: %w", err)
	}

	if len(candles) == 0 {
		return nil, storage.ErrNotFound
	}

	h := pricehistory.New(tokenAddress, timeframeMinutes, candles)
	h.PoolAddress = poolAddress
	return h, nil
}

// exists checks whether any rows are stored for the token/timeframe pair.
func (s *CandleStore) exists(ctx context.Context, tokenAddress string, timeframeMinutes int) (bool, error) {
	query := `
		SELECT count() FROM candles
		WHERE token_address = ? AND timeframe_minutes = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, tokenAddress, uint16(timeframeMinutes)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
