// Package main primes the ClickHouse candle cache: reads signal records
// from a JSON export or Postgres and fetches price history for every
// token from GeckoTerminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/pricefetch"
	sigparse "solana-strategy-lab/internal/signal"
	chstore "solana-strategy-lab/internal/storage/clickhouse"
	"solana-strategy-lab/internal/storage/migrations"
	pgstore "solana-strategy-lab/internal/storage/postgres"
)

func main() {
	envFile := flag.String("env", ".env", "Env file to load (ignored if missing)")
	signalsPath := flag.String("signals", "", "Path to JSON signal export")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL DSN for signal records (used when -signals is empty)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse DSN for the candle cache")
	timeframe := flag.Int("timeframe", 15, "Candle timeframe in minutes")
	candleLimit := flag.Int("candle-limit", 1000, "Max candles fetched per token")
	migrate := flag.Bool("migrate", true, "Run ClickHouse migrations before fetching")
	flag.Parse()

	logger := log.New(os.Stderr, "[fetch] ", log.LstdFlags)

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
	if *clickhouseDSN == "" {
		logger.Fatal("-clickhouse-dsn is required")
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

	records, err := loadSignals(ctx, logger, *signalsPath, *postgresDSN)
	if err != nil {
		logger.Fatalf("load signals: %v", err)
	}

	addresses := uniqueAddresses(records)
	if len(addresses) == 0 {
		logger.Fatal("no token addresses to fetch")
	}
	logger.Printf("fetching %d-minute candles for %d tokens", *timeframe, len(addresses))

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("connect clickhouse: %v", err)
	}
	defer conn.Close()

	if *migrate {
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			logger.Fatalf("run migrations: %v", err)
		}
	}

	fetcher := pricefetch.NewCachedFetcher(pricefetch.NewGeckoClient(), chstore.NewCandleStore(conn))

	progress := func(current, total int) {
		if current%10 == 0 || current == total {
			logger.Printf("fetched %d/%d tokens", current, total)
		}
	}
	histories, err := fetcher.FetchMultiple(ctx, addresses, *timeframe, *candleLimit, progress)
	if err != nil {
		logger.Fatalf("fetch candles: %v", err)
	}

	logger.Printf("cached price history for %d of %d tokens", len(histories), len(addresses))
}

func loadSignals(ctx context.Context, logger *log.Logger, path, postgresDSN string) ([]domain.SignalRecord, error) {
	if path != "" {
		records, warnings, err := sigparse.LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			logger.Printf("signal warning: %s", w)
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

	return pgstore.NewSignalStore(pool).GetAll(ctx)
}

func uniqueAddresses(records []domain.SignalRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range records {
		addr := records[i].Address
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}
