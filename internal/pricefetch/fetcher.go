// Package pricefetch retrieves OHLCV candle histories for tokens. The
// simulation core only depends on the Fetcher interface; the GeckoTerminal
// client is one implementation.
package pricefetch

import (
	"context"
	"errors"

	"solana-strategy-lab/internal/pricehistory"
)

// Fetch errors.
var (
	// ErrNoPool means no liquidity pool could be resolved for the token.
	ErrNoPool = errors.New("no pool found for token")

	// ErrNoData means the pool exists but returned no candles.
	ErrNoData = errors.New("no candle data for pool")
)

// Progress reports batch fetch progress as (current, total).
type Progress func(current, total int)

// Fetcher retrieves candle histories for tokens.
type Fetcher interface {
	// FetchCandles returns the candle history for one token, or an error
	// wrapping ErrNoPool/ErrNoData when the token has none.
	FetchCandles(ctx context.Context, tokenAddress string, timeframeMinutes, limit int) (*pricehistory.History, error)

	// FetchMultiple retrieves histories for many tokens. Tokens without
	// data are simply absent from the returned map; per-token failures
	// never fail the batch.
	FetchMultiple(ctx context.Context, addresses []string, timeframeMinutes, limit int, progress Progress) (map[string]*pricehistory.History, error)
}
