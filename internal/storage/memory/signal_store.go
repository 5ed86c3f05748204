package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

// SignalStore is an in-memory implementation of storage.SignalStore.
type SignalStore struct {
	mu   sync.RWMutex
	data map[string]domain.SignalRecord // keyed by (address, signal_timestamp)
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{data: make(map[string]domain.SignalRecord)}
}

var _ storage.SignalStore = (*SignalStore)(nil)

func signalKey(address, timestamp string) string {
	return fmt.Sprintf("%s|%s", address, timestamp)
}

// Insert adds a signal record. Returns ErrDuplicateKey on repeat keys.
func (s *SignalStore) Insert(_ context.Context, rec *domain.SignalRecord) error {
	if rec == nil || rec.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := signalKey(rec.Address, rec.SignalTimestamp)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[key] = *rec
	return nil
}

// InsertBulk adds multiple records, failing the whole batch on duplicates.
func (s *SignalStore) InsertBulk(_ context.Context, recs []domain.SignalRecord) error {
	if len(recs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		if rec.Address == "" {
			return storage.ErrInvalidInput
		}
		key := signalKey(rec.Address, rec.SignalTimestamp)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, rec := range recs {
		s.data[signalKey(rec.Address, rec.SignalTimestamp)] = rec
	}
	return nil
}

// GetAll retrieves every record ordered by timestamp then address.
func (s *SignalStore) GetAll(_ context.Context) ([]domain.SignalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SignalRecord, 0, len(s.data))
	for _, rec := range s.data {
		out = append(out, rec)
	}
	sortSignals(out)
	return out, nil
}

// GetByAddress retrieves all records for a token address.
func (s *SignalStore) GetByAddress(_ context.Context, address string) ([]domain.SignalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.SignalRecord
	for _, rec := range s.data {
		if rec.Address == address {
			out = append(out, rec)
		}
	}
	sortSignals(out)
	return out, nil
}

func sortSignals(recs []domain.SignalRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].SignalTimestamp != recs[j].SignalTimestamp {
			return recs[i].SignalTimestamp < recs[j].SignalTimestamp
		}
		return recs[i].Address < recs[j].Address
	})
}
