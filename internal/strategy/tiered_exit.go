package strategy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"solana-strategy-lab/internal/domain"
)

// Tier sells a fixed fraction of the position at a price multiple.
type Tier struct {
	Mult     float64 // price multiple triggering the tier
	Fraction float64 // fraction of the original position to sell
}

// TieredExit sells the position in ordered tiers, then trails a stop on
// whatever remains after the last tier fills.
type TieredExit struct {
	Tiers        []Tier  // kept sorted ascending by Mult
	TrailingPct  float64 // trailing stop on the remainder
	MaxHoldHours int
}

// NewTieredExit creates a tiered exit simulator. Tiers are sorted
// ascending by multiple so lower targets always fill first.
func NewTieredExit(tiers []Tier, trailingPct float64, maxHoldHours int) *TieredExit {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Mult < sorted[j].Mult })
	return &TieredExit{Tiers: sorted, TrailingPct: trailingPct, MaxHoldHours: maxHoldHours}
}

// Name returns the strategy identifier including the tier ladder.
func (s *TieredExit) Name() string {
	parts := make([]string, len(s.Tiers))
	for i, t := range s.Tiers {
		parts[i] = fmt.Sprintf("%gX(%d%%)", t.Mult, int(t.Fraction*100))
	}
	return "Tiered " + strings.Join(parts, "+")
}

// Simulate scans candles in timestamp order:
//  1. past the hold horizon: fill the remaining fraction at the candle
//     close and stop
//  2. fill every unfilled tier whose target the candle high reaches, in
//     ascending order; one wide bar can fill several tiers
//  3. ratchet the peak; once all tiers are filled, trail a stop on the
//     remainder and fill it at the stop price on a retracement
//
// Any fraction still held when the scan completes fills at the last close,
// so filled fractions always sum to 1.0.
func (s *TieredExit) Simulate(_ context.Context, in Input) (Outcome, error) {
	if err := in.Validate(); err != nil {
		return Outcome{}, err
	}

	candles := in.History.CandlesAfter(in.EntryTime)
	if len(candles) == 0 {
		return noData(), nil
	}

	maxHoldTime := in.EntryTime.Add(time.Duration(s.MaxHoldHours) * time.Hour)

	remaining := 1.0
	var fills []PartialFill
	unfilled := make([]Tier, len(s.Tiers))
	copy(unfilled, s.Tiers)

	peakPrice := in.EntryPrice
	trailingFired := false

scan:
	for _, c := range candles {
		if c.Timestamp.After(maxHoldTime) {
			if remaining > 0 {
				fills = append(fills, PartialFill{
					Multiplier: c.Close / in.EntryPrice,
					Fraction:   remaining,
					Time:       c.Timestamp,
				})
				remaining = 0
			}
			break scan
		}

		// Fill tiers in ascending order; a single candle may span several.
		kept := unfilled[:0]
		for _, tier := range unfilled {
			if c.High >= in.EntryPrice*tier.Mult && remaining > 0 {
				fraction := tier.Fraction
				if fraction > remaining {
					fraction = remaining
				}
				fills = append(fills, PartialFill{
					Multiplier: tier.Mult,
					Fraction:   fraction,
					Time:       c.Timestamp,
				})
				remaining -= fraction
				continue
			}
			kept = append(kept, tier)
		}
		unfilled = kept

		if c.High > peakPrice {
			peakPrice = c.High
		}

		// Trailing stop applies to the remainder only after the ladder
		// is exhausted.
		if remaining > 0 && len(unfilled) == 0 {
			stopPrice := peakPrice * (1 - s.TrailingPct)
			if c.Low <= stopPrice {
				fills = append(fills, PartialFill{
					Multiplier: stopPrice / in.EntryPrice,
					Fraction:   remaining,
					Time:       c.Timestamp,
				})
				remaining = 0
				trailingFired = true
				break scan
			}
		}
	}

	if remaining > 0 {
		last := candles[len(candles)-1]
		fills = append(fills, PartialFill{
			Multiplier: last.Close / in.EntryPrice,
			Fraction:   remaining,
			Time:       last.Timestamp,
		})
		remaining = 0
	}

	weighted := 0.0
	for _, f := range fills {
		weighted += f.Multiplier * f.Fraction
	}

	reason := domain.ExitReasonPartialExit
	switch {
	case trailingFired:
		reason = domain.ExitReasonTrailingStop
	case len(unfilled) == 0:
		reason = domain.ExitReasonAllTiersHit
	}

	exitTime := fills[len(fills)-1].Time
	return Outcome{
		Multiplier: &weighted,
		Reason:     reason,
		ExitTime:   &exitTime,
		Fills:      fills,
	}, nil
}

var _ ExitStrategy = (*TieredExit)(nil)
