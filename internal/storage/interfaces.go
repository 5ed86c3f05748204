package storage

import (
	"context"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/pricehistory"
)

// SignalStore provides access to recorded signal batches.
type SignalStore interface {
	// Insert adds a signal record. Returns ErrDuplicateKey when a record
	// with the same (address, signal_timestamp) exists.
	Insert(ctx context.Context, rec *domain.SignalRecord) error

	// InsertBulk adds multiple records. Fails the entire batch on any
	// duplicate.
	InsertBulk(ctx context.Context, recs []domain.SignalRecord) error

	// GetAll retrieves every record, ordered by signal_timestamp ASC then
	// address ASC.
	GetAll(ctx context.Context) ([]domain.SignalRecord, error)

	// GetByAddress retrieves all records for a token address, ordered by
	// signal_timestamp ASC.
	GetByAddress(ctx context.Context, address string) ([]domain.SignalRecord, error)
}

// CandleStore caches fetched candle series so repeated backtests skip the
// rate-limited remote fetch.
type CandleStore interface {
	// PutHistory stores a candle series. Re-inserting the same
	// (token, timeframe) series returns ErrDuplicateKey.
	PutHistory(ctx context.Context, h *pricehistory.History) error

	// GetHistory retrieves a cached series. Returns ErrNotFound when the
	// token/timeframe pair was never cached.
	GetHistory(ctx context.Context, tokenAddress string, timeframeMinutes int) (*pricehistory.History, error)
}
