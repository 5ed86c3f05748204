package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"solana-strategy-lab/internal/backtest"
)

// WriteTradesCSV exports every trade of one strategy result, one row per
// trade, exit columns empty for open trades.
func WriteTradesCSV(w io.Writer, result *backtest.Result) error {
	cw := csv.NewWriter(w)

	header := []string{
		"symbol", "address", "entry_time", "entry_price",
		"exit_time", "exit_multiplier", "exit_reason",
		"peak_multiplier", "position_size_sol",
		"pnl_sol", "pnl_percent", "fees_sol", "hold_hours",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, trade := range result.Trades {
		exitTime, exitMult, holdHours := "", "", ""
		if trade.ExitTime != nil {
			exitTime = trade.ExitTime.UTC().Format(time.RFC3339)
		}
		if trade.ExitMultiplier != nil {
			exitMult = strconv.FormatFloat(*trade.ExitMultiplier, 'f', -1, 64)
		}
		if d, ok := trade.HoldDuration(); ok {
			holdHours = strconv.FormatFloat(d.Hours(), 'f', 2, 64)
		}

		row := []string{
			trade.Symbol,
			trade.Address,
			trade.EntryTime.UTC().Format(time.RFC3339),
			strconv.FormatFloat(trade.EntryPrice, 'f', -1, 64),
			exitTime,
			exitMult,
			string(trade.ExitReason),
			strconv.FormatFloat(trade.PeakMultiplier, 'f', -1, 64),
			strconv.FormatFloat(trade.PositionSize, 'f', -1, 64),
			strconv.FormatFloat(trade.PnLSOL(), 'f', 6, 64),
			strconv.FormatFloat(trade.PnLPercent(), 'f', 2, 64),
			strconv.FormatFloat(trade.TotalFeesSOL(), 'f', 6, 64),
			holdHours,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
