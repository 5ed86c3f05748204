package strategy

import (
	"context"
	"fmt"
	"time"

	"solana-strategy-lab/internal/domain"
)

// FixedExit closes the whole position at a fixed target multiple or a
// fixed stop-loss multiple, whichever triggers first.
type FixedExit struct {
	TargetMult   float64 // e.g. 2.0 = sell everything at 2X
	StopLossMult float64 // e.g. 0.5 = cut the position at half entry
	MaxHoldHours int
}

// NewFixedExit creates a fixed target/stop-loss simulator.
func NewFixedExit(targetMult, stopLossMult float64, maxHoldHours int) *FixedExit {
	return &FixedExit{TargetMult: targetMult, StopLossMult: stopLossMult, MaxHoldHours: maxHoldHours}
}

// Name returns the strategy identifier including parameters.
func (s *FixedExit) Name() string {
	return fmt.Sprintf("Fixed Exit %gX", s.TargetMult)
}

// Simulate scans candles in timestamp order. Within one candle the
// stop-loss is checked before the target: when a single bar spans both
// levels the fill is assumed at the stop. Fills happen at exactly the
// configured multiple, never at the bar extreme.
func (s *FixedExit) Simulate(_ context.Context, in Input) (Outcome, error) {
	if err := in.Validate(); err != nil {
		return Outcome{}, err
	}

	candles := in.History.CandlesAfter(in.EntryTime)
	if len(candles) == 0 {
		return noData(), nil
	}

	targetPrice := in.EntryPrice * s.TargetMult
	stopPrice := in.EntryPrice * s.StopLossMult
	maxHoldTime := in.EntryTime.Add(time.Duration(s.MaxHoldHours) * time.Hour)

	for _, c := range candles {
		if c.Timestamp.After(maxHoldTime) {
			return exitAt(c.Close/in.EntryPrice, domain.ExitReasonTimeExit, c.Timestamp), nil
		}

		// Pessimistic tie-break: stop-loss before target.
		if c.Low <= stopPrice {
			return exitAt(s.StopLossMult, domain.ExitReasonStopLoss, c.Timestamp), nil
		}

		if c.High >= targetPrice {
			return exitAt(s.TargetMult, domain.ExitReasonTargetHit, c.Timestamp), nil
		}
	}

	last := candles[len(candles)-1]
	return exitAt(last.Close/in.EntryPrice, domain.ExitReasonStillOpen, last.Timestamp), nil
}

var _ ExitStrategy = (*FixedExit)(nil)
