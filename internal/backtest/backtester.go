// Package backtest orchestrates exit-strategy simulations over batches of
// buy signals and aggregates the resulting trades per strategy variant.
package backtest

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/observability"
	"solana-strategy-lab/internal/pricefetch"
	"solana-strategy-lab/internal/pricehistory"
	"solana-strategy-lab/internal/signal"
	"solana-strategy-lab/internal/strategy"
)

// ErrNoSignals is returned when a backtester is built without signals.
var ErrNoSignals = errors.New("no signals provided")

// defaultTieredTrailingPct is the trailing stop applied to the remainder
// after all tiers of a tiered exit have filled.
const defaultTieredTrailingPct = 0.25

// Progress reports completed strategy variants as (completed, total).
type Progress func(completed, total int)

// BacktesterOptions configures a Backtester. Signals is required; the rest
// have usable defaults.
type BacktesterOptions struct {
	Signals []domain.SignalRecord
	Config  Config

	// Fetcher retrieves price histories for tokens that have none in
	// Histories. Nil means estimation-only for uncovered tokens.
	Fetcher pricefetch.Fetcher

	// Histories are pre-materialized candle series keyed by token address.
	Histories map[string]*pricehistory.History

	Logger *log.Logger

	// Now is the clock used for malformed-timestamp fallbacks. Nil means
	// time.Now.
	Now func() time.Time
}

// Backtester runs exit simulations for a fixed batch of signals.
type Backtester struct {
	signals   []domain.SignalRecord
	config    Config
	fetcher   pricefetch.Fetcher
	histories map[string]*pricehistory.History
	logger    *log.Logger
	now       func() time.Time
}

// NewBacktester creates a backtester from options.
func NewBacktester(opts BacktesterOptions) (*Backtester, error) {
	if len(opts.Signals) == 0 {
		return nil, ErrNoSignals
	}

	cfg := opts.Config
	if cfg.PositionSize == 0 && cfg.StartingCapital == 0 {
		cfg = DefaultConfig()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	histories := make(map[string]*pricehistory.History, len(opts.Histories))
	for addr, h := range opts.Histories {
		histories[addr] = h
	}

	return &Backtester{
		signals:   opts.Signals,
		config:    cfg,
		fetcher:   opts.Fetcher,
		histories: histories,
		logger:    opts.Logger,
		now:       now,
	}, nil
}

func (b *Backtester) logf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Printf(format, args...)
	}
}

// FetchPriceData retrieves histories for all signal tokens that do not
// already have one. A nil fetcher makes this a no-op; those tokens fall
// back to the estimation heuristic at simulation time.
func (b *Backtester) FetchPriceData(ctx context.Context, progress pricefetch.Progress) error {
	if b.fetcher == nil {
		return nil
	}

	seen := make(map[string]bool)
	var missing []string
	for i := range b.signals {
		addr := b.signals[i].Address
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		if h, ok := b.histories[addr]; !ok || h.Empty() {
			missing = append(missing, addr)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	b.logf("fetching price history for %d tokens", len(missing))
	start := time.Now()
	fetched, err := b.fetcher.FetchMultiple(ctx, missing, b.config.CandleTimeframe, b.config.CandleLimit, progress)
	observability.RecordFetch("backtester", time.Since(start).Seconds(), err)
	for addr, h := range fetched {
		b.histories[addr] = h
	}
	if err != nil {
		return err
	}
	b.logf("price history available for %d of %d tokens", len(fetched), len(missing))
	return nil
}

// RunTrailingStop backtests a trailing-stop exit at the given percentage.
func (b *Backtester) RunTrailingStop(ctx context.Context, trailingPct float64) (*Result, error) {
	return b.Run(ctx, strategy.NewTrailingStop(trailingPct, b.config.MaxHoldHours))
}

// RunFixedExit backtests a fixed target/stop-loss exit.
func (b *Backtester) RunFixedExit(ctx context.Context, targetMult, stopLossMult float64) (*Result, error) {
	return b.Run(ctx, strategy.NewFixedExit(targetMult, stopLossMult, b.config.MaxHoldHours))
}

// RunTieredExit backtests a tiered partial exit with a trailing stop on
// the remainder.
func (b *Backtester) RunTieredExit(ctx context.Context, tiers []strategy.Tier) (*Result, error) {
	return b.Run(ctx, strategy.NewTieredExit(tiers, defaultTieredTrailingPct, b.config.MaxHoldHours))
}

// Run backtests one exit strategy over every signal. A failed simulation
// for one signal is logged and skipped, never fatal to the batch.
func (b *Backtester) Run(ctx context.Context, strat strategy.ExitStrategy) (*Result, error) {
	start := time.Now()

	result := &Result{
		StrategyName: strat.Name(),
		TotalCapital: b.config.StartingCapital,
		PositionSize: b.config.PositionSize,
	}

	for i := range b.signals {
		rec := &b.signals[i]
		entryTime := signal.EntryTime(rec, b.now)

		history, ok := b.histories[rec.Address]
		if !ok || history.Empty() {
			result.TokensWithoutData++
			result.Trades = append(result.Trades, b.estimateTrade(strat, rec, entryTime))
			observability.RecordSimulation(strat.Name())
			continue
		}
		result.TokensWithData++

		entryPrice, found := history.PriceAt(entryTime)
		if !found || entryPrice <= 0 {
			entryPrice = history.Candles[0].Close
		}

		outcome, err := strat.Simulate(ctx, strategy.Input{
			EntryTime:  entryTime,
			EntryPrice: entryPrice,
			History:    history,
		})
		if err != nil {
			b.logf("simulate %s for %s: %v", strat.Name(), rec.DisplaySymbol(), err)
			observability.RecordSimulationError(strat.Name())
			continue
		}
		observability.RecordSimulation(strat.Name())

		peakMult := 1.0
		if high, ok := history.HighAfter(entryTime); ok && entryPrice > 0 {
			peakMult = high / entryPrice
		}

		result.Trades = append(result.Trades, &domain.Trade{
			Symbol:         rec.DisplaySymbol(),
			Address:        rec.Address,
			EntryTime:      entryTime,
			EntryPrice:     entryPrice,
			ExitTime:       outcome.ExitTime,
			ExitMultiplier: outcome.Multiplier,
			ExitReason:     outcome.Reason,
			PeakMultiplier: peakMult,
			PositionSize:   b.config.PositionSize,
			Fees:           b.config.Fees,
		})
	}

	if total := len(b.signals); total > 0 {
		result.DataCoveragePct = float64(result.TokensWithData) / float64(total) * 100
	}

	observability.RecordBacktest(strat.Name(), time.Since(start).Seconds())
	return result, nil
}

// estimateTrade approximates the outcome for a token with no price
// history using only the signal's recorded peak and current multipliers.
// Entry price is normalized to 1.0 so exit price equals the multiplier.
// The estimate never fabricates a better-than-evidence outcome.
func (b *Backtester) estimateTrade(strat strategy.ExitStrategy, rec *domain.SignalRecord, entryTime time.Time) *domain.Trade {
	peak := rec.PeakMultiplier()
	current := rec.CurrentMultiplier()

	var (
		exitMult float64
		reason   domain.ExitReason
	)

	switch s := strat.(type) {
	case *strategy.FixedExit:
		switch {
		case rec.Real.IsRugged:
			exitMult, reason = 0, domain.ExitReasonRugged
		case peak >= s.TargetMult:
			exitMult, reason = s.TargetMult, domain.ExitReasonTargetHit
		default:
			exitMult, reason = current, domain.ExitReasonStillOpen
		}

	case *strategy.TieredExit:
		if rec.Real.IsRugged {
			exitMult, reason = 0, domain.ExitReasonRugged
			break
		}
		remaining := 1.0
		for _, tier := range s.Tiers {
			if peak >= tier.Mult {
				fill := tier.Fraction
				if fill > remaining {
					fill = remaining
				}
				exitMult += tier.Mult * fill
				remaining -= fill
			}
		}
		if remaining > 0 {
			exitMult += current * remaining
		}
		if exitMult > 1 {
			reason = domain.ExitReasonTargetHit
		} else {
			reason = domain.ExitReasonStillOpen
		}

	case *strategy.TrailingStop:
		switch {
		case rec.Real.IsRugged:
			exitMult, reason = 0, domain.ExitReasonRugged
		case peak > 1.0:
			exitMult, reason = peak*(1-s.TrailingPct), domain.ExitReasonTrailingStop
		default:
			exitMult, reason = current, domain.ExitReasonStillOpen
		}

	default:
		if rec.Real.IsRugged {
			exitMult, reason = 0, domain.ExitReasonRugged
		} else {
			exitMult, reason = current, domain.ExitReasonStillOpen
		}
	}

	return &domain.Trade{
		Symbol:         rec.DisplaySymbol(),
		Address:        rec.Address,
		EntryTime:      entryTime,
		EntryPrice:     1.0,
		ExitMultiplier: &exitMult,
		ExitReason:     reason,
		PeakMultiplier: peak,
		PositionSize:   b.config.PositionSize,
		Fees:           b.config.Fees,
	}
}

// Variants returns the fixed strategy menu for a full run.
func (b *Backtester) Variants() []strategy.ExitStrategy {
	var variants []strategy.ExitStrategy

	for _, pct := range []float64{0.15, 0.20, 0.25, 0.30} {
		variants = append(variants, strategy.NewTrailingStop(pct, b.config.MaxHoldHours))
	}

	for _, mult := range []float64{1.5, 2.0, 2.5, 3.0, 4.0, 5.0} {
		variants = append(variants, strategy.NewFixedExit(mult, 0.5, b.config.MaxHoldHours))
	}

	tieredConfigs := [][]strategy.Tier{
		{{Mult: 1.5, Fraction: 0.5}, {Mult: 2.5, Fraction: 0.5}},
		{{Mult: 2.0, Fraction: 0.5}, {Mult: 3.0, Fraction: 0.5}},
		{{Mult: 2.0, Fraction: 0.33}, {Mult: 3.0, Fraction: 0.33}, {Mult: 5.0, Fraction: 0.34}},
	}
	for _, tiers := range tieredConfigs {
		variants = append(variants, strategy.NewTieredExit(tiers, defaultTieredTrailingPct, b.config.MaxHoldHours))
	}

	return variants
}

// RunAllStrategies backtests the full strategy menu in parallel and
// returns results sorted by ROI descending, ties broken by name so runs
// are reproducible. progress may be nil.
func (b *Backtester) RunAllStrategies(ctx context.Context, progress Progress) ([]*Result, error) {
	variants := b.Variants()

	pool := NewWorkerPool(ctx, 0, len(variants), b.Run)
	pool.Start()

	submitted := 0
	for _, variant := range variants {
		if err := pool.SubmitJob(Job{Strategy: variant}); err != nil {
			break
		}
		submitted++
	}

	results := make([]*Result, 0, submitted)
	var firstErr error
	for i := 0; i < submitted; i++ {
		// Workers bail out on cancellation without draining queued jobs,
		// so the drain needs its own escape.
		select {
		case jr := <-pool.Results():
			if jr.Err != nil {
				if firstErr == nil {
					firstErr = jr.Err
				}
			} else {
				results = append(results, jr.Result)
			}
			if progress != nil {
				progress(i+1, len(variants))
			}
		case <-ctx.Done():
			pool.Stop()
			return nil, ctx.Err()
		}
	}
	pool.Stop()

	if firstErr != nil && len(results) == 0 {
		return nil, firstErr
	}

	sort.Slice(results, func(i, j int) bool {
		ri, rj := results[i].ROI(), results[j].ROI()
		if ri != rj {
			return ri > rj
		}
		return results[i].StrategyName < results[j].StrategyName
	})

	if len(results) > 0 {
		observability.UpdateDataCoverage(results[0].TokensWithData, results[0].TokensWithoutData, results[0].DataCoveragePct)
	}

	return results, nil
}
