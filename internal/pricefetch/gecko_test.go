package pricefetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const poolsBody = `{
	"data": [
		{"attributes": {"address": "pool-small", "reserve_in_usd": "1000.50"}},
		{"attributes": {"address": "pool-big", "reserve_in_usd": "250000.00"}}
	]
}`

const ohlcvBody = `{
	"data": {
		"attributes": {
			"ohlcv_list": [
				[1748779200, 0.001, 0.0012, 0.0009, 0.0011, 15000],
				[1748780100, 0.0011, 0.0016, 0.0010, 0.0015, 22000]
			]
		}
	}
}`

func newTestServer(t *testing.T, poolRequests, ohlcvRequests *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/networks/solana/tokens/tokA/pools", func(w http.ResponseWriter, _ *http.Request) {
		poolRequests.Add(1)
		fmt.Fprint(w, poolsBody)
	})
	mux.HandleFunc("/networks/solana/pools/pool-big/ohlcv/minute", func(w http.ResponseWriter, r *http.Request) {
		ohlcvRequests.Add(1)
		if got := r.URL.Query().Get("aggregate"); got != "15" {
			t.Errorf("expected aggregate=15, got %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "1000" {
			t.Errorf("expected limit=1000, got %q", got)
		}
		fmt.Fprint(w, ohlcvBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testClient(srv *httptest.Server) *GeckoClient {
	return NewGeckoClient(
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRateDelay(0),
	)
}

func TestGeckoClient_PicksHighestLiquidityPool(t *testing.T) {
	var poolReqs, ohlcvReqs atomic.Int32
	c := testClient(newTestServer(t, &poolReqs, &ohlcvReqs))

	pool, err := c.PoolAddress(context.Background(), "tokA")
	if err != nil {
		t.Fatalf("PoolAddress failed: %v", err)
	}
	if pool != "pool-big" {
		t.Errorf("expected highest-liquidity pool, got %q", pool)
	}

	// Second lookup is served from the pool cache.
	if _, err := c.PoolAddress(context.Background(), "tokA"); err != nil {
		t.Fatal(err)
	}
	if poolReqs.Load() != 1 {
		t.Errorf("expected 1 pool request, got %d", poolReqs.Load())
	}
}

func TestGeckoClient_FetchCandles(t *testing.T) {
	var poolReqs, ohlcvReqs atomic.Int32
	c := testClient(newTestServer(t, &poolReqs, &ohlcvReqs))

	h, err := c.FetchCandles(context.Background(), "tokA", 15, 1000)
	if err != nil {
		t.Fatalf("FetchCandles failed: %v", err)
	}

	if h.TokenAddress != "tokA" || h.PoolAddress != "pool-big" {
		t.Errorf("unexpected history identity: %q / %q", h.TokenAddress, h.PoolAddress)
	}
	if len(h.Candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(h.Candles))
	}

	first := h.Candles[0]
	if !first.Timestamp.Equal(time.Unix(1748779200, 0).UTC()) {
		t.Errorf("unexpected timestamp %v", first.Timestamp)
	}
	if first.Open != 0.001 || first.High != 0.0012 || first.Low != 0.0009 || first.Close != 0.0011 {
		t.Errorf("unexpected OHLC %+v", first)
	}
	if first.Volume != 15000 {
		t.Errorf("unexpected volume %f", first.Volume)
	}
}

func TestGeckoClient_NoPools(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data": []}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := testClient(srv)
	_, err := c.FetchCandles(context.Background(), "ghost", 15, 1000)
	if !errors.Is(err, ErrNoPool) {
		t.Errorf("expected ErrNoPool, got %v", err)
	}
}

func TestGeckoClient_HTTPErrorStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := testClient(srv)
	if _, err := c.FetchCandles(context.Background(), "tokA", 15, 1000); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestGeckoClient_FetchMultipleSkipsFailingTokens(t *testing.T) {
	var poolReqs, ohlcvReqs atomic.Int32
	c := testClient(newTestServer(t, &poolReqs, &ohlcvReqs))

	// tokB has no handler and 404s; tokA succeeds.
	histories, err := c.FetchMultiple(context.Background(), []string{"tokA", "tokB"}, 15, 1000, nil)
	if err != nil {
		t.Fatalf("FetchMultiple failed: %v", err)
	}

	if len(histories) != 1 {
		t.Errorf("expected 1 history, got %d", len(histories))
	}
	if _, ok := histories["tokA"]; !ok {
		t.Error("expected history for tokA")
	}
}

func TestGeckoClient_ContextCancellation(t *testing.T) {
	var poolReqs, ohlcvReqs atomic.Int32
	c := testClient(newTestServer(t, &poolReqs, &ohlcvReqs))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.FetchMultiple(ctx, []string{"tokA"}, 15, 1000, nil); err == nil {
		t.Error("expected context error")
	}
}
