// Package pricehistory holds ordered OHLCV series for single tokens and
// the point/range queries the exit simulators scan over.
package pricehistory

import (
	"sort"
	"time"

	"solana-strategy-lab/internal/domain"
)

// History is the candle series for one token at a fixed timeframe.
// Producers are not required to deliver candles sorted; every consuming
// query sorts by timestamp ascending before scanning.
type History struct {
	TokenAddress     string
	PoolAddress      string
	Candles          []domain.Candle
	TimeframeMinutes int
}

// New creates a History with normalized candle timestamps.
func New(tokenAddress string, timeframeMinutes int, candles []domain.Candle) *History {
	for i := range candles {
		candles[i].Timestamp = domain.NormalizeTime(candles[i].Timestamp)
	}
	return &History{
		TokenAddress:     tokenAddress,
		Candles:          candles,
		TimeframeMinutes: timeframeMinutes,
	}
}

// Empty reports whether the series has no candles.
func (h *History) Empty() bool {
	return h == nil || len(h.Candles) == 0
}

// StartTime returns the earliest candle timestamp.
func (h *History) StartTime() (time.Time, bool) {
	if h.Empty() {
		return time.Time{}, false
	}
	min := h.Candles[0].Timestamp
	for _, c := range h.Candles[1:] {
		if c.Timestamp.Before(min) {
			min = c.Timestamp
		}
	}
	return min, true
}

// EndTime returns the latest candle timestamp.
func (h *History) EndTime() (time.Time, bool) {
	if h.Empty() {
		return time.Time{}, false
	}
	max := h.Candles[0].Timestamp
	for _, c := range h.Candles[1:] {
		if c.Timestamp.After(max) {
			max = c.Timestamp
		}
	}
	return max, true
}

// CandlesAfter returns candles with timestamp >= after, sorted ascending.
// The returned slice is a copy; mutating it never touches the series.
func (h *History) CandlesAfter(after time.Time) []domain.Candle {
	if h.Empty() {
		return nil
	}
	after = domain.NormalizeTime(after)
	var out []domain.Candle
	for _, c := range h.Candles {
		if !c.Timestamp.Before(after) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// PriceAt returns the close of the latest candle at or before t.
// The second return is false when no candle precedes t.
func (h *History) PriceAt(t time.Time) (float64, bool) {
	if h.Empty() {
		return 0, false
	}
	t = domain.NormalizeTime(t)
	var (
		best      domain.Candle
		bestFound bool
	)
	for _, c := range h.Candles {
		if c.Timestamp.After(t) {
			continue
		}
		if !bestFound || c.Timestamp.After(best.Timestamp) {
			best = c
			bestFound = true
		}
	}
	if !bestFound {
		return 0, false
	}
	return best.Close, true
}

// HighAfter returns the maximum high over candles at or after t.
// The second return is false when no candle follows t.
func (h *History) HighAfter(t time.Time) (float64, bool) {
	if h.Empty() {
		return 0, false
	}
	t = domain.NormalizeTime(t)
	var (
		high  float64
		found bool
	)
	for _, c := range h.Candles {
		if c.Timestamp.Before(t) {
			continue
		}
		if !found || c.High > high {
			high = c.High
			found = true
		}
	}
	return high, found
}
