package memory

import (
	"context"
	"fmt"
	"sync"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/pricehistory"
	"solana-strategy-lab/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[string]*pricehistory.History // keyed by (token, timeframe)
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{data: make(map[string]*pricehistory.History)}
}

var _ storage.CandleStore = (*CandleStore)(nil)

func candleKey(token string, timeframeMinutes int) string {
	return fmt.Sprintf("%s|%d", token, timeframeMinutes)
}

// PutHistory stores a candle series.
func (s *CandleStore) PutHistory(_ context.Context, h *pricehistory.History) error {
	if h == nil || h.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := candleKey(h.TokenAddress, h.TimeframeMinutes)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy so later mutation of the caller's slice cannot leak in.
	candles := make([]domain.Candle, len(h.Candles))
	copy(candles, h.Candles)
	stored := *h
	stored.Candles = candles
	s.data[key] = &stored
	return nil
}

// GetHistory retrieves a cached series.
func (s *CandleStore) GetHistory(_ context.Context, tokenAddress string, timeframeMinutes int) (*pricehistory.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[candleKey(tokenAddress, timeframeMinutes)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	candles := make([]domain.Candle, len(h.Candles))
	copy(candles, h.Candles)
	out := *h
	out.Candles = candles
	return &out, nil
}
