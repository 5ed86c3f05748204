package stub

import (
	"context"

	"solana-strategy-lab/internal/pricefetch"
	"solana-strategy-lab/internal/pricehistory"
)

// Fetcher implements pricefetch.Fetcher for testing. Histories are served
// from an in-memory map keyed by token address.
type Fetcher struct {
	Histories map[string]*pricehistory.History
	Errors    map[string]error

	// FetchCalls counts FetchCandles invocations, including failures.
	FetchCalls int
}

// NewFetcher creates a new stub fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Histories: make(map[string]*pricehistory.History),
		Errors:    make(map[string]error),
	}
}

var _ pricefetch.Fetcher = (*Fetcher)(nil)

// AddHistory registers a canned history for a token.
func (f *Fetcher) AddHistory(h *pricehistory.History) {
	f.Histories[h.TokenAddress] = h
}

// AddError makes FetchCandles fail for a token.
func (f *Fetcher) AddError(tokenAddress string, err error) {
	f.Errors[tokenAddress] = err
}

// FetchCandles returns the canned history for a token.
func (f *Fetcher) FetchCandles(_ context.Context, tokenAddress string, _, _ int) (*pricehistory.History, error) {
	f.FetchCalls++
	if err, ok := f.Errors[tokenAddress]; ok {
		return nil, err
	}
	h, ok := f.Histories[tokenAddress]
	if !ok {
		return nil, pricefetch.ErrNoData
	}
	return h, nil
}

// FetchMultiple returns canned histories for the requested tokens,
// skipping tokens without one.
func (f *Fetcher) FetchMultiple(ctx context.Context, addresses []string, timeframeMinutes, limit int, progress pricefetch.Progress) (map[string]*pricehistory.History, error) {
	results := make(map[string]*pricehistory.History)
	total := len(addresses)

	for i, address := range addresses {
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
