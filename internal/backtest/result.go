package backtest

import (
	"math"
	"sort"

	"solana-strategy-lab/internal/domain"
)

// Result collects the trades of one strategy configuration. Every
// aggregate is derived from the trade list on demand; there are no stored
// running totals that could drift from it.
type Result struct {
	StrategyName string
	Trades       []*domain.Trade
	TotalCapital float64
	PositionSize float64

	TokensWithData    int
	TokensWithoutData int
	DataCoveragePct   float64
}

// TotalTrades returns the number of trades, open ones included.
func (r *Result) TotalTrades() int {
	return len(r.Trades)
}

// WinningTrades counts closed trades above fee-adjusted break-even.
func (r *Result) WinningTrades() int {
	n := 0
	for _, t := range r.Trades {
		if t.IsWinner() {
			n++
		}
	}
	return n
}

// LosingTrades counts closed trades at or below break-even. Open trades
// count as neither win nor loss.
func (r *Result) LosingTrades() int {
	n := 0
	for _, t := range r.Trades {
		if t.HasExit() && t.PnLMultiplier() <= 1 {
			n++
		}
	}
	return n
}

// OpenTrades counts trades with no exit recorded.
func (r *Result) OpenTrades() int {
	n := 0
	for _, t := range r.Trades {
		if !t.HasExit() {
			n++
		}
	}
	return n
}

// WinRate returns winning trades as a percentage of all trades, 0 for an
// empty list.
func (r *Result) WinRate() float64 {
	if len(r.Trades) == 0 {
		return 0
	}
	return float64(r.WinningTrades()) / float64(len(r.Trades)) * 100
}

// TotalPnLSOL sums realized PnL across all trades.
func (r *Result) TotalPnLSOL() float64 {
	total := 0.0
	for _, t := range r.Trades {
		total += t.PnLSOL()
	}
	return total
}

// TotalFeesSOL sums fees paid across all trades.
func (r *Result) TotalFeesSOL() float64 {
	total := 0.0
	for _, t := range r.Trades {
		total += t.TotalFeesSOL()
	}
	return total
}

// ROI returns total PnL as a percentage of total capital, 0 when capital
// is 0.
func (r *Result) ROI() float64 {
	if r.TotalCapital == 0 {
		return 0
	}
	return r.TotalPnLSOL() / r.TotalCapital * 100
}

// AvgMultiplier averages the net PnL multiplier over all trades.
func (r *Result) AvgMultiplier() float64 {
	if len(r.Trades) == 0 {
		return 0
	}
	total := 0.0
	for _, t := range r.Trades {
		total += t.PnLMultiplier()
	}
	return total / float64(len(r.Trades))
}

// AvgHoldTimeHours averages hold time over trades that have both entry and
// exit timestamps.
func (r *Result) AvgHoldTimeHours() float64 {
	total := 0.0
	n := 0
	for _, t := range r.Trades {
		if d, ok := t.HoldDuration(); ok {
			total += d.Hours()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// ProfitFactor returns gross profit divided by gross loss. +Inf when there
// are profits and no losses, 0 when there are losses and no profits.
func (r *Result) ProfitFactor() float64 {
	profit := 0.0
	loss := 0.0
	for _, t := range r.Trades {
		pnl := t.PnLSOL()
		if pnl > 0 {
			profit += pnl
		} else {
			loss += -pnl
		}
	}
	if loss == 0 {
		if profit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return profit / loss
}

// MaxDrawdownPct returns the worst peak-to-trough decline of the equity
// curve as a percentage of total capital. Trades are walked in entry-time
// order so the result is independent of insertion order.
func (r *Result) MaxDrawdownPct() float64 {
	if len(r.Trades) == 0 || r.TotalCapital == 0 {
		return 0
	}

	ordered := make([]*domain.Trade, len(r.Trades))
	copy(ordered, r.Trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EntryTime.Before(ordered[j].EntryTime)
	})

	equity := r.TotalCapital
	peak := equity
	maxDD := 0.0
	for _, t := range ordered {
		equity += t.PnLSOL()
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD / r.TotalCapital * 100
}

// ExitReasonCounts returns how many trades closed for each reason.
func (r *Result) ExitReasonCounts() map[domain.ExitReason]int {
	counts := make(map[domain.ExitReason]int)
	for _, t := range r.Trades {
		reason := t.ExitReason
		if reason == "" {
			reason = domain.ExitReasonStillOpen
		}
		counts[reason]++
	}
	return counts
}
