package domain

import "time"

// Candle represents one OHLCV sample for a fixed time bucket.
// Candles are immutable once constructed.
type Candle struct {
	Timestamp time.Time // bucket start, normalized to UTC
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// UnixTimestamp returns the candle timestamp as Unix seconds.
func (c Candle) UnixTimestamp() int64 {
	return c.Timestamp.Unix()
}

// NormalizeTime strips the wall-clock time of any zone offset so that
// timestamps from different producers compare consistently. All candle and
// signal timestamps pass through this before any comparison.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC()
}
