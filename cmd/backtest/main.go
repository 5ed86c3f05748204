// Package main runs the exit-strategy backtest: loads buy signals from a
// JSON export or Postgres, materializes price histories (ClickHouse cache
// in front of GeckoTerminal), runs the full strategy menu and prints the
// ranked report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"solana-strategy-lab/internal/backtest"
	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/observability"
	"solana-strategy-lab/internal/pricefetch"
	"solana-strategy-lab/internal/reporting"
	sigparse "solana-strategy-lab/internal/signal"
	chstore "solana-strategy-lab/internal/storage/clickhouse"
	pgstore "solana-strategy-lab/internal/storage/postgres"
)

func main() {
	envFile := flag.String("env", ".env", "Env file to load (ignored if missing)")
	signalsPath := flag.String("signals", "", "Path to JSON signal export")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL DSN for signal records (used when -signals is empty)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse DSN for the candle cache")
	noFetch := flag.Bool("no-fetch", false, "Skip GeckoTerminal fetching; estimate tokens without cached data")
	csvPath := flag.String("csv", "", "Export best-strategy trades to this CSV file")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty disables)")

	positionSize := flag.Float64("position", 0.1, "Position size in SOL per trade")
	capital := flag.Float64("capital", 10.0, "Starting capital in SOL")
	maxHold := flag.Int("max-hold", 72, "Max hold time in hours")
	timeframe := flag.Int("timeframe", 15, "Candle timeframe in minutes")
	candleLimit := flag.Int("candle-limit", 1000, "Max candles fetched per token")
	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
			logger.Fatalf("load env file: %v", err)
		}
	}
	// Flag defaults are captured before the env file loads.
	if *postgresDSN == "" {
		*postgresDSN = os.Getenv("POSTGRES_DSN")
	}
	if *clickhouseDSN == "" {
		*clickhouseDSN = os.Getenv("CLICKHOUSE_DSN")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, cancelling", sig)
		cancel()
	}()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("metrics server: %v", err)
			}
		}()
	}

	records, err := loadSignals(ctx, logger, *signalsPath, *postgresDSN)
	if err != nil {
		logger.Fatalf("load signals: %v", err)
	}
	if len(records) == 0 {
		logger.Fatal("no signal records to backtest")
	}
	logger.Printf("loaded %d signal records", len(records))
	observability.RecordSignalsLoaded(len(records))

	fetcher, cleanup, err := buildFetcher(ctx, logger, *noFetch, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("set up price fetcher: %v", err)
	}
	defer cleanup()

	cfg := backtest.Config{
		PositionSize:    *positionSize,
		StartingCapital: *capital,
		MaxHoldHours:    *maxHold,
		CandleTimeframe: *timeframe,
		CandleLimit:     *candleLimit,
		Fees:            domain.DefaultFees,
	}

	b, err := backtest.NewBacktester(backtest.BacktesterOptions{
		Signals: records,
		Config:  cfg,
		Fetcher: fetcher,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatalf("create backtester: %v", err)
	}

	if fetcher != nil {
		logger.Print("fetching price history")
		progress := func(current, total int) {
			if current%25 == 0 || current == total {
				logger.Printf("fetched %d/%d tokens", current, total)
			}
		}
		if err := b.FetchPriceData(ctx, progress); err != nil {
			logger.Fatalf("fetch price data: %v", err)
		}
	}

	results, err := b.RunAllStrategies(ctx, func(completed, total int) {
		logger.Printf("completed %d/%d strategies", completed, total)
	})
	if err != nil {
		logger.Fatalf("run strategies: %v", err)
	}

	report := reporting.New(cfg, len(records), results)
	report.WriteText(os.Stdout)

	if *csvPath != "" && report.Best() != nil {
		if err := exportCSV(*csvPath, report.Best()); err != nil {
			logger.Fatalf("export csv: %v", err)
		}
		logger.Printf("exported %d trades to %s", report.Best().TotalTrades(), *csvPath)
	}
}

// loadSignals reads signal records from a JSON file when a path is given,
// otherwise from Postgres.
func loadSignals(ctx context.Context, logger *log.Logger, path, postgresDSN string) ([]domain.SignalRecord, error) {
	if path != "" {
		records, warnings, err := sigparse.LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			logger.Printf("signal warning: %s", w)
			observability.RecordSignalRejected("parse_warning")
		}
		return records, nil
	}

	if postgresDSN == "" {
		return nil, fmt.Errorf("either -signals or -postgres-dsn is required")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	start := time.Now()
	records, err := pgstore.NewSignalStore(pool).GetAll(ctx)
	observability.RecordDBQuery("signals", "get_all", time.Since(start).Seconds(), err)
	return records, err
}

// buildFetcher assembles the price-fetch chain. With a ClickHouse DSN the
// GeckoTerminal client sits behind the candle cache; without one it is
// used directly. -no-fetch disables fetching entirely.
func buildFetcher(ctx context.Context, logger *log.Logger, noFetch bool, clickhouseDSN string) (pricefetch.Fetcher, func(), error) {
	noop := func() {}
	if noFetch && clickhouseDSN == "" {
		return nil, noop, nil
	}

	var upstream pricefetch.Fetcher
	if !noFetch {
		upstream = pricefetch.NewGeckoClient()
	}

	if clickhouseDSN == "" {
		return upstream, noop, nil
	}

	conn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		return nil, noop, err
	}
	cleanup := func() {
		if err := conn.Close(); err != nil {
			logger.Printf("close clickhouse: %v", err)
		}
	}

	// With -no-fetch the upstream stays nil; the cached fetcher answers
	// misses with no-data and the backtester falls back to estimation.
	store := chstore.NewCandleStore(conn)
	return pricefetch.NewCachedFetcher(upstream, store), cleanup, nil
}

func exportCSV(path string, result *backtest.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := reporting.WriteTradesCSV(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
