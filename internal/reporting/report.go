// Package reporting renders backtest results as console reports and CSV
// trade exports.
package reporting

import (
	"time"

	"solana-strategy-lab/internal/backtest"
)

// Report bundles everything one rendered backtest report needs.
type Report struct {
	GeneratedAt  time.Time
	TotalSignals int
	Config       backtest.Config

	// Results are sorted by ROI descending; the first entry is the best
	// strategy and drives the exit-reason breakdown.
	Results []*backtest.Result
}

// New builds a report over ranked results.
func New(cfg backtest.Config, totalSignals int, results []*backtest.Result) *Report {
	return &Report{
		GeneratedAt:  time.Now().UTC(),
		TotalSignals: totalSignals,
		Config:       cfg,
		Results:      results,
	}
}

// Best returns the top-ranked result, or nil when there are none.
func (r *Report) Best() *backtest.Result {
	if len(r.Results) == 0 {
		return nil
	}
	return r.Results[0]
}
