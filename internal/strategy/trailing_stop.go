package strategy

import (
	"context"
	"fmt"
	"time"

	"solana-strategy-lab/internal/domain"
)

// TrailingStop ratchets a stop price upward with the observed peak and
// exits on a retracement through it.
type TrailingStop struct {
	TrailingPct  float64 // 0.20 = exit 20% below peak
	MaxHoldHours int     // forced time exit horizon
}

// NewTrailingStop creates a trailing stop simulator.
func NewTrailingStop(trailingPct float64, maxHoldHours int) *TrailingStop {
	return &TrailingStop{TrailingPct: trailingPct, MaxHoldHours: maxHoldHours}
}

// Name returns the strategy identifier including parameters.
func (s *TrailingStop) Name() string {
	return fmt.Sprintf("Trailing Stop (%d%%)", int(s.TrailingPct*100))
}

// Simulate scans candles in timestamp order:
//  1. past the hold horizon: exit at the candle close, time_exit
//  2. ratchet peak to the candle high, recompute the stop
//  3. candle low at or below the stop: exit at the stop price itself,
//     trailing_stop (conservative fill, never the candle low)
//
// A completed scan leaves the position still_open at the last close.
func (s *TrailingStop) Simulate(_ context.Context, in Input) (Outcome, error) {
	if err := in.Validate(); err != nil {
		return Outcome{}, err
	}

	candles := in.History.CandlesAfter(in.EntryTime)
	if len(candles) == 0 {
		return noData(), nil
	}

	peakPrice := in.EntryPrice
	stopPrice := peakPrice * (1 - s.TrailingPct)
	maxHoldTime := in.EntryTime.Add(time.Duration(s.MaxHoldHours) * time.Hour)

	for _, c := range candles {
		if c.Timestamp.After(maxHoldTime) {
			return exitAt(c.Close/in.EntryPrice, domain.ExitReasonTimeExit, c.Timestamp), nil
		}

		if c.High > peakPrice {
			peakPrice = c.High
			stopPrice = peakPrice * (1 - s.TrailingPct)
		}

		if c.Low <= stopPrice {
			return exitAt(stopPrice/in.EntryPrice, domain.ExitReasonTrailingStop, c.Timestamp), nil
		}
	}

	last := candles[len(candles)-1]
	return exitAt(last.Close/in.EntryPrice, domain.ExitReasonStillOpen, last.Timestamp), nil
}

var _ ExitStrategy = (*TrailingStop)(nil)
