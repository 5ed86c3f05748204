package pricefetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/pricehistory"
)

// DefaultGeckoBaseURL is the GeckoTerminal public API base.
const DefaultGeckoBaseURL = "https://api.geckoterminal.com/api/v2"

// defaultRateDelay keeps the client under the free-tier limit of 30
// requests per minute.
const defaultRateDelay = 2500 * time.Millisecond

// GeckoClient fetches OHLCV candles from GeckoTerminal. It resolves and
// caches the highest-liquidity pool per token and paces requests with a
// fixed delay.
type GeckoClient struct {
	httpClient *http.Client
	baseURL    string
	rateDelay  time.Duration

	mu          sync.Mutex
	poolCache   map[string]string // token address -> pool address
	lastRequest time.Time
}

// GeckoOption configures a GeckoClient.
type GeckoOption func(*GeckoClient)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(baseURL string) GeckoOption {
	return func(c *GeckoClient) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) GeckoOption {
	return func(c *GeckoClient) { c.httpClient = client }
}

// WithRateDelay overrides the inter-request delay.
func WithRateDelay(d time.Duration) GeckoOption {
	return func(c *GeckoClient) { c.rateDelay = d }
}

// NewGeckoClient creates a GeckoTerminal fetcher.
func NewGeckoClient(opts ...GeckoOption) *GeckoClient {
	c := &GeckoClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultGeckoBaseURL,
		rateDelay:  defaultRateDelay,
		poolCache:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Fetcher = (*GeckoClient)(nil)

// rateLimit blocks until the next request is allowed or ctx is done.
func (c *GeckoClient) rateLimit(ctx context.Context) error {
	c.mu.Lock()
	wait := c.rateDelay - time.Since(c.lastRequest)
	c.lastRequest = time.Now().Add(wait)
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// getJSON performs a rate-limited GET and decodes the response body.
func (c *GeckoClient) getJSON(ctx context.Context, rawURL string, out any) error {
	if err := c.rateLimit(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("request %s: status %d", rawURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type poolsResponse struct {
	Data []struct {
		Attributes struct {
			Address      string `json:"address"`
			ReserveInUSD string `json:"reserve_in_usd"`
		} `json:"attributes"`
	} `json:"data"`
}

type ohlcvResponse struct {
	Data struct {
		Attributes struct {
			// Each item is [timestamp, open, high, low, close, volume].
			OHLCVList [][]float64 `json:"ohlcv_list"`
		} `json:"attributes"`
	} `json:"data"`
}

// PoolAddress resolves the main (highest-liquidity) pool for a token.
func (c *GeckoClient) PoolAddress(ctx context.Context, tokenAddress string) (string, error) {
	c.mu.Lock()
	if pool, ok := c.poolCache[tokenAddress]; ok {
		c.mu.Unlock()
		return pool, nil
	}
	c.mu.Unlock()

	u := fmt.Sprintf("%s/networks/solana/tokens/%s/pools", c.baseURL, url.PathEscape(tokenAddress))
	var resp poolsResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoPool, tokenAddress)
	}

	bestPool := ""
	bestLiquidity := 0.0
	for _, pool := range resp.Data {
		reserve, err := strconv.ParseFloat(pool.Attributes.ReserveInUSD, 64)
		if err != nil {
			continue
		}
		if reserve > bestLiquidity {
			bestLiquidity = reserve
			bestPool = pool.Attributes.Address
		}
	}
	// No usable liquidity figures: take the first pool.
	if bestPool == "" {
		bestPool = resp.Data[0].Attributes.Address
	}
	if bestPool == "" {
		return "", fmt.Errorf("%w: %s", ErrNoPool, tokenAddress)
	}

	c.mu.Lock()
	c.poolCache[tokenAddress] = bestPool
	c.mu.Unlock()
	return bestPool, nil
}

// FetchCandles fetches the OHLCV history for one token.
func (c *GeckoClient) FetchCandles(ctx context.Context, tokenAddress string, timeframeMinutes, limit int) (*pricehistory.History, error) {
	pool, err := c.PoolAddress(ctx, tokenAddress)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/networks/solana/pools/%s/ohlcv/minute?aggregate=%d&limit=%d",
		c.baseURL, url.PathEscape(pool), timeframeMinutes, limit)
	var resp ohlcvResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	list := resp.Data.Attributes.OHLCVList
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, pool)
	}

	var candles []domain.Candle
	for _, item := range list {
		if len(item) < 6 {
			continue
		}
		candles = append(candles, domain.Candle{
			Timestamp: time.Unix(int64(item[0]), 0).UTC(),
			Open:      item[1],
			High:      item[2],
			Low:       item[3],
			Close:     item[4],
			Volume:    item[5],
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, pool)
	}

	h := pricehistory.New(tokenAddress, timeframeMinutes, candles)
	h.PoolAddress = pool
	return h, nil
}

// FetchMultiple fetches histories for many tokens sequentially; the shared
// rate limit makes parallel fetching pointless. Tokens that fail are
// skipped, not fatal.
func (c *GeckoClient) FetchMultiple(ctx context.Context, addresses []string, timeframeMinutes, limit int, progress Progress) (map[string]*pricehistory.History, error) {
	results := make(map[string]*pricehistory.History)
	total := len(addresses)

	for i, address := range addresses {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		h, err := c.FetchCandles(ctx, address, timeframeMinutes, limit)
		if err == nil && !h.Empty() {
			results[address] = h
		}

		if progress != nil {
			progress(i+1, total)
		}
	}

	return results, nil
}
