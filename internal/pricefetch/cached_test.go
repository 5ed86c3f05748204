package pricefetch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/pricefetch"
	"solana-strategy-lab/internal/pricefetch/stub"
	"solana-strategy-lab/internal/pricehistory"
	"solana-strategy-lab/internal/storage/memory"
)

func testHistory(address string) *pricehistory.History {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return pricehistory.New(address, 15, []domain.Candle{
		{Timestamp: base, Open: 1, High: 1.2, Low: 0.9, Close: 1.1, Volume: 100},
		{Timestamp: base.Add(15 * time.Minute), Open: 1.1, High: 1.5, Low: 1.0, Close: 1.4, Volume: 200},
	})
}

func TestCachedFetcher_MissFetchesAndStores(t *testing.T) {
	ctx := context.Background()
	upstream := stub.NewFetcher()
	upstream.AddHistory(testHistory("tokA"))
	store := memory.NewCandleStore()

	f := pricefetch.NewCachedFetcher(upstream, store)

	h, err := f.FetchCandles(ctx, "tokA", 15, 1000)
	if err != nil {
		t.Fatalf("FetchCandles failed: %v", err)
	}
	if h.Empty() {
		t.Fatal("expected candles")
	}
	if upstream.FetchCalls != 1 {
		t.Errorf("expected 1 upstream call, got %d", upstream.FetchCalls)
	}

	// Second fetch is served from the store.
	if _, err := f.FetchCandles(ctx, "tokA", 15, 1000); err != nil {
		t.Fatalf("cached FetchCandles failed: %v", err)
	}
	if upstream.FetchCalls != 1 {
		t.Errorf("expected cache hit, upstream called %d times", upstream.FetchCalls)
	}
}

func TestCachedFetcher_UpstreamErrorPropagates(t *testing.T) {
	upstream := stub.NewFetcher()
	upstream.AddError("broken", errors.New("rate limited"))

	f := pricefetch.NewCachedFetcher(upstream, memory.NewCandleStore())

	if _, err := f.FetchCandles(context.Background(), "broken", 15, 1000); err == nil {
		t.Error("expected upstream error")
	}
}

func TestCachedFetcher_NilUpstreamIsCacheOnly(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCandleStore()
	if err := store.PutHistory(ctx, testHistory("cached")); err != nil {
		t.Fatal(err)
	}

	f := pricefetch.NewCachedFetcher(nil, store)

	if _, err := f.FetchCandles(ctx, "cached", 15, 1000); err != nil {
		t.Errorf("expected cache hit, got %v", err)
	}

	_, err := f.FetchCandles(ctx, "missing", 15, 1000)
	if !errors.Is(err, pricefetch.ErrNoData) {
		t.Errorf("expected ErrNoData for cache miss, got %v", err)
	}
}

func TestCachedFetcher_FetchMultipleSkipsFailures(t *testing.T) {
	upstream := stub.NewFetcher()
	upstream.AddHistory(testHistory("good"))
	upstream.AddError("bad", errors.New("no pool"))

	f := pricefetch.NewCachedFetcher(upstream, memory.NewCandleStore())

	var progressCalls int
	histories, err := f.FetchMultiple(context.Background(), []string{"good", "bad"}, 15, 1000,
		func(current, total int) { progressCalls++ })
	if err != nil {
		t.Fatalf("FetchMultiple failed: %v", err)
	}

	if len(histories) != 1 {
		t.Errorf("expected 1 history, got %d", len(histories))
	}
	if _, ok := histories["good"]; !ok {
		t.Error("expected history for good token")
	}
	if progressCalls != 2 {
		t.Errorf("expected progress for every token, got %d calls", progressCalls)
	}
}
