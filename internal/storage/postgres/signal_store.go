package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

// SignalStore implements storage.SignalStore using PostgreSQL.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// Insert adds a signal record. Returns ErrDuplicateKey when the
// (address, signal_timestamp) pair exists.
func (s *SignalStore) Insert(ctx context.Context, rec *domain.SignalRecord) error {
	if rec == nil || rec.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO signals (
			address, symbol, signal_timestamp, peak_multiplier, current_multiplier, is_rugged
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.Address,
		rec.Symbol,
		rec.SignalTimestamp,
		rec.Signal.Multiplier,
		rec.Real.Multiplier,
		rec.Real.IsRugged,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// InsertBulk adds multiple records in one transaction. The whole batch
// fails on any duplicate.
func (s *SignalStore) InsertBulk(ctx context.Context, recs []domain.SignalRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO signals (
			address, symbol, signal_timestamp, peak_multiplier, current_multiplier, is_rugged
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, rec := range recs {
		if rec.Address == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, query,
			rec.Address,
			rec.Symbol,
			rec.SignalTimestamp,
			rec.Signal.Multiplier,
			rec.Real.Multiplier,
			rec.Real.IsRugged,
		); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert signal batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit signal batch: %w", err)
	}
	return nil
}

// GetAll retrieves every record ordered by timestamp then address.
func (s *SignalStore) GetAll(ctx context.Context) ([]domain.SignalRecord, error) {
	query := `
		SELECT address, symbol, signal_timestamp, peak_multiplier, current_multiplier, is_rugged
		FROM signals
		ORDER BY signal_timestamp ASC, address ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all signals: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// GetByAddress retrieves all records for a token address.
func (s *SignalStore) GetByAddress(ctx context.Context, address string) ([]domain.SignalRecord, error) {
	query := `
		SELECT address, symbol, signal_timestamp, peak_multiplier, current_multiplier, is_rugged
		FROM signals
		WHERE address = $1
		ORDER BY signal_timestamp ASC
	`

	rows, err := s.pool.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("get signals by address: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// scanSignals reads all rows into signal records.
func scanSignals(rows pgx.Rows) ([]domain.SignalRecord, error) {
	var out []domain.SignalRecord
	for rows.Next() {
		var rec domain.SignalRecord
		if err := rows.Scan(
			&rec.Address,
			&rec.Symbol,
			&rec.SignalTimestamp,
			&rec.Signal.Multiplier,
			&rec.Real.Multiplier,
			&rec.Real.IsRugged,
		); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}
	return out, nil
}
