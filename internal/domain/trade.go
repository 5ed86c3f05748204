package domain

import "time"

// ExitReason identifies why a simulated position was closed.
type ExitReason string

// Exit reason codes. Terminal for a single simulation.
const (
	ExitReasonTargetHit    ExitReason = "target_hit"
	ExitReasonStopLoss     ExitReason = "stop_loss"
	ExitReasonTrailingStop ExitReason = "trailing_stop"
	ExitReasonTimeExit     ExitReason = "time_exit"
	ExitReasonStillOpen    ExitReason = "still_open"
	ExitReasonRugged       ExitReason = "rugged"
	ExitReasonNoData       ExitReason = "no_data"

	// Tiered-exit summary reasons.
	ExitReasonAllTiersHit ExitReason = "all_tiers_hit"
	ExitReasonPartialExit ExitReason = "partial_exit"
)

// Trade is one simulated (signal, strategy) position with fee-aware PnL.
// Exit fields are set once by the simulator; everything financial is
// derived on read so nothing can go stale.
type Trade struct {
	Symbol    string
	Address   string
	EntryTime time.Time

	// EntryPrice is the USD price at entry, or 1.0 for normalized trades
	// built from the estimation fallback.
	EntryPrice float64

	ExitTime       *time.Time
	ExitMultiplier *float64 // exit price / entry price, nil while open
	ExitReason     ExitReason

	PeakMultiplier float64
	PositionSize   float64 // gross SOL committed, before fees
	Fees           TradingFees
}

// HasExit reports whether the trade has a recorded exit multiplier.
func (t *Trade) HasExit() bool {
	return t.ExitMultiplier != nil
}

// EffectiveEntrySOL is the SOL converted into tokens after buy fees.
func (t *Trade) EffectiveEntrySOL() float64 {
	effective, _ := t.Fees.BuyCost(t.PositionSize)
	return effective
}

// BuyFeesSOL is the total fee paid on the buy leg.
func (t *Trade) BuyFeesSOL() float64 {
	_, fee := t.Fees.BuyCost(t.PositionSize)
	return fee
}

// GrossExitValue is the position value before sell fees. Zero while open.
func (t *Trade) GrossExitValue() float64 {
	if t.ExitMultiplier == nil {
		return 0
	}
	return t.EffectiveEntrySOL() * *t.ExitMultiplier
}

// NetExitValue is the SOL received after sell fees. Zero while open.
func (t *Trade) NetExitValue() float64 {
	if t.ExitMultiplier == nil {
		return 0
	}
	net, _ := t.Fees.SellProceeds(t.GrossExitValue())
	return net
}

// SellFeesSOL is the fee paid on the sell leg. Zero while open.
func (t *Trade) SellFeesSOL() float64 {
	if t.ExitMultiplier == nil {
		return 0
	}
	_, fee := t.Fees.SellProceeds(t.GrossExitValue())
	return fee
}

// TotalFeesSOL is buy plus sell fees. An open trade has only paid the
// buy-side fee.
func (t *Trade) TotalFeesSOL() float64 {
	return t.BuyFeesSOL() + t.SellFeesSOL()
}

// PnLMultiplier is net proceeds divided by gross position size, after all
// fees. 1.0 means break-even inclusive of fees.
func (t *Trade) PnLMultiplier() float64 {
	if t.ExitMultiplier == nil || t.PositionSize == 0 {
		return 0
	}
	return t.NetExitValue() / t.PositionSize
}

// PnLSOL is the realized profit in SOL. An open trade contributes zero by
// convention rather than being treated as a loss.
func (t *Trade) PnLSOL() float64 {
	if t.ExitMultiplier == nil {
		return 0
	}
	return t.PositionSize * (t.PnLMultiplier() - 1)
}

// PnLPercent is the realized profit as a percentage of position size.
func (t *Trade) PnLPercent() float64 {
	if t.ExitMultiplier == nil {
		return 0
	}
	return (t.PnLMultiplier() - 1) * 100
}

// IsWinner reports whether the trade closed above fee-adjusted break-even.
// Open trades are neither winners nor losers.
func (t *Trade) IsWinner() bool {
	return t.ExitMultiplier != nil && t.PnLMultiplier() > 1
}

// HoldDuration returns the time between entry and exit, and whether both
// timestamps are present.
func (t *Trade) HoldDuration() (time.Duration, bool) {
	if t.ExitTime == nil || t.EntryTime.IsZero() {
		return 0, false
	}
	return t.ExitTime.Sub(t.EntryTime), true
}
