package pricefetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-strategy-lab/internal/observability"
	"solana-strategy-lab/internal/pricehistory"
	"solana-strategy-lab/internal/storage"
)

// CachedFetcher reads histories from a CandleStore before hitting the
// upstream fetcher, and writes fetched histories back on a miss. Write
// failures are non-fatal; the fetched history is still returned. A nil
// upstream makes it cache-only: every miss is ErrNoData.
type CachedFetcher struct {
	upstream Fetcher
	store    storage.CandleStore
}

// NewCachedFetcher wraps upstream with a read-through candle cache.
func NewCachedFetcher(upstream Fetcher, store storage.CandleStore) *CachedFetcher {
	return &CachedFetcher{upstream: upstream, store: store}
}

var _ Fetcher = (*CachedFetcher)(nil)

// FetchCandles returns the cached history when present, otherwise fetches
// upstream and stores the result.
func (f *CachedFetcher) FetchCandles(ctx context.Context, tokenAddress string, timeframeMinutes, limit int) (*pricehistory.History, error) {
	start := time.Now()
	h, err := f.store.GetHistory(ctx, tokenAddress, timeframeMinutes)
	queryErr := err
	if errors.Is(queryErr, storage.ErrNotFound) {
		queryErr = nil // a miss is not a query failure
	}
	observability.RecordDBQuery("candles", "get_history", time.Since(start).Seconds(), queryErr)
	if err == nil && !h.Empty() {
		observability.RecordCacheHit()
		return h, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	observability.RecordCacheMiss()
	if f.upstream == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoData, tokenAddress)
	}

	h, err = f.upstream.FetchCandles(ctx, tokenAddress, timeframeMinutes, limit)
	if err != nil {
		return nil, err
	}

	// Best effort; a racing writer may have inserted the same history.
	putStart := time.Now()
	putErr := f.store.PutHistory(ctx, h)
	if putErr != nil && errors.Is(putErr, storage.ErrDuplicateKey) {
		putErr = nil
	}
	observability.RecordDBQuery("candles", "put_history", time.Since(putStart).Seconds(), putErr)
	return h, nil
}

// FetchMultiple fetches histories for many tokens through the cache.
// Tokens that fail are skipped, not fatal.
func (f *CachedFetcher) FetchMultiple(ctx context.Context, addresses []string, timeframeMinutes, limit int, progress Progress) (map[string]*pricehistory.History, error) {
	results := make(map[string]*pricehistory.History)
	total := len(addresses)

	for i, address := range addresses {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		h, err := f.FetchCandles(ctx, address, timeframeMinutes, limit)
		if err == nil && !h.Empty() {
			results[address] = h
		}

		if progress != nil {
			progress(i+1, total)
		}
	}

	return results, nil
}
