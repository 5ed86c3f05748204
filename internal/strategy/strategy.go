// Package strategy contains the deterministic exit simulators. Each
// simulator is a single forward pass over a sorted candle series: once the
// scan advances past a candle it never looks back, so replaying the same
// inputs always produces the same outcome.
package strategy

import (
	"context"
	"errors"
	"time"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/pricehistory"
)

// Input validation errors.
var (
	ErrNoHistory         = errors.New("no price history provided")
	ErrInvalidEntryPrice = errors.New("entry price must be positive")
)

// Input holds everything an exit simulator needs for one position.
type Input struct {
	EntryTime  time.Time
	EntryPrice float64
	History    *pricehistory.History
}

// Validate checks the input at the package boundary.
func (in *Input) Validate() error {
	if in.History == nil {
		return ErrNoHistory
	}
	if in.EntryPrice <= 0 {
		return ErrInvalidEntryPrice
	}
	return nil
}

// PartialFill records one fill of a tiered exit. Fractions across all
// fills of a completed simulation sum to 1.0.
type PartialFill struct {
	Multiplier float64
	Fraction   float64
	Time       time.Time
}

// Outcome is the terminal result of one simulation. Multiplier is nil only
// for the no_data case. For tiered exits Multiplier carries the
// fraction-weighted average and Fills the individual exits in order.
type Outcome struct {
	Multiplier *float64
	Reason     domain.ExitReason
	ExitTime   *time.Time
	Fills      []PartialFill
}

// ExitStrategy simulates one exit policy over a candle series.
type ExitStrategy interface {
	// Simulate runs the policy from the entry point. It is pure: no
	// retained state, deterministic for identical inputs.
	Simulate(ctx context.Context, in Input) (Outcome, error)

	// Name returns the human-readable strategy identifier, including
	// parameters.
	Name() string
}

// exitAt builds a closed single-fill outcome.
func exitAt(mult float64, reason domain.ExitReason, at time.Time) Outcome {
	t := at
	return Outcome{Multiplier: &mult, Reason: reason, ExitTime: &t}
}

// noData is the outcome for a series with no candles after entry.
func noData() Outcome {
	return Outcome{Reason: domain.ExitReasonNoData}
}
