package reporting

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"solana-strategy-lab/internal/domain"
)

// WriteText renders the full console report: run overview, fee structure,
// strategy rankings and the exit-reason breakdown of the best strategy.
func (r *Report) WriteText(w io.Writer) {
	r.writeOverview(w)
	r.writeFees(w)
	r.writeRankings(w)
	r.writeBestBreakdown(w)
}

func (r *Report) writeOverview(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("BACKTEST OVERVIEW")
	t.SetStyle(table.StyleRounded)

	withData, withoutData, coverage := 0, 0, 0.0
	if best := r.Best(); best != nil {
		withData = best.TokensWithData
		withoutData = best.TokensWithoutData
		coverage = best.DataCoveragePct
	}

	t.AppendRows([]table.Row{
		{"Total Signals", r.TotalSignals},
		{"Tokens with Price Data", withData},
		{"Tokens without Data", withoutData},
		{"Data Coverage", fmt.Sprintf("%.1f%%", coverage)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Starting Capital", fmt.Sprintf("%g SOL", r.Config.StartingCapital)},
		{"Position Size", fmt.Sprintf("%g SOL", r.Config.PositionSize)},
		{"Max Hold Time", fmt.Sprintf("%dh", r.Config.MaxHoldHours)},
		{"Candle Timeframe", fmt.Sprintf("%dm", r.Config.CandleTimeframe)},
	})
	t.Render()
	fmt.Fprintln(w)
}

func (r *Report) writeFees(w io.Writer) {
	fees := r.Config.Fees

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("FEE STRUCTURE")
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Buy Fee", fmt.Sprintf("%.1f%% (platform + priority + slippage)", fees.TotalBuyFeePct())},
		{"Sell Fee", fmt.Sprintf("%.1f%% (platform + priority + slippage)", fees.TotalSellFeePct())},
		{"Network", fmt.Sprintf("~%.5f SOL per buy", fees.NetworkFeeSOL)},
		{"Break-even", fmt.Sprintf("%.3fX", fees.BreakEvenMultiplier())},
	})
	t.Render()
	fmt.Fprintln(w)
}

func (r *Report) writeRankings(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("STRATEGY RANKINGS (by ROI, after fees)")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		"#", "Strategy", "Trades", "Win Rate", "Net PnL (SOL)", "ROI",
		"Fees (SOL)", "Avg Mult", "Avg Hold", "PF", "Max DD",
	})

	for i, result := range r.Results {
		t.AppendRow(table.Row{
			i + 1,
			result.StrategyName,
			result.TotalTrades(),
			fmt.Sprintf("%.1f%%", result.WinRate()),
			fmt.Sprintf("%+.4f", result.TotalPnLSOL()),
			fmt.Sprintf("%+.1f%%", result.ROI()),
			fmt.Sprintf("%.4f", result.TotalFeesSOL()),
			fmt.Sprintf("%.2fX", result.AvgMultiplier()),
			fmt.Sprintf("%.1fh", result.AvgHoldTimeHours()),
			formatProfitFactor(result.ProfitFactor()),
			fmt.Sprintf("%.1f%%", result.MaxDrawdownPct()),
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignLeft},
	})
	t.Render()
	fmt.Fprintln(w)
}

func (r *Report) writeBestBreakdown(w io.Writer) {
	best := r.Best()
	if best == nil {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("BEST STRATEGY: %s", best.StrategyName))
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"ROI", fmt.Sprintf("%+.1f%%", best.ROI())},
		{"Win Rate", fmt.Sprintf("%.1f%%", best.WinRate())},
		{"Open Trades", best.OpenTrades()},
	})
	t.AppendSeparator()

	counts := best.ExitReasonCounts()
	reasons := make([]domain.ExitReason, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	// Most frequent first, ties alphabetical.
	sort.Slice(reasons, func(i, j int) bool {
		if counts[reasons[i]] != counts[reasons[j]] {
			return counts[reasons[i]] > counts[reasons[j]]
		}
		return reasons[i] < reasons[j]
	})
	for _, reason := range reasons {
		pct := float64(counts[reason]) / float64(best.TotalTrades()) * 100
		t.AppendRow(table.Row{string(reason), fmt.Sprintf("%d (%.1f%%)", counts[reason], pct)})
	}

	t.Render()
	fmt.Fprintln(w)
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}
