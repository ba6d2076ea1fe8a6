// Package main runs the full buy-and-hold historical pass: every qualified
// asset evaluated over every monthly window of every holding period.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"asset-performance-lab/internal/engine"
	"asset-performance-lab/internal/reporting"
	"asset-performance-lab/internal/storage"
	chstore "asset-performance-lab/internal/storage/clickhouse"
	"asset-performance-lab/internal/storage/migrations"
	pgstore "asset-performance-lab/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "Optional ClickHouse connection string for price reads")
	years := flag.String("years", "", "Comma-separated holding periods, e.g. 3,5,10 (default 3..10)")
	workers := flag.Int("workers", 8, "Compute worker count")
	minSamples := flag.Int("min-samples", 1000, "Normalized-sample floor for asset qualification")
	outputDir := flag.String("output-dir", "output", "Run summary output directory")
	logLevel := flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flag.Parse()

	logger := newLogger(*logLevel)
	if *postgresDSN == "" {
		logger.Fatal().Msg("--postgres-dsn is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to postgres")
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("run postgres migrations")
	}

	var prices storage.PriceStore = pgstore.NewPriceStore(pool)
	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to clickhouse")
		}
		defer conn.Close()
		prices = chstore.NewPriceStore(conn)
		logger.Info().Msg("reading price series from clickhouse")
	}

	buyHold := pgstore.NewBuyHoldStore(pool)
	dca := pgstore.NewDCAStore(pool)

	cfg := engine.DefaultConfig()
	cfg.Workers = *workers
	cfg.MinSamples = *minSamples
	if *years != "" {
		cfg.HoldingYears, err = parseYears(*years)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse --years")
		}
	}

	eng := engine.New(engine.Options{
		PriceStore:   prices,
		BuyHoldStore: buyHold,
		DCAStore:     dca,
		Config:       cfg,
		Logger:       logger,
	})

	result, err := eng.RunBuyHold(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("buy-and-hold run failed")
	}

	gen := reporting.NewGenerator(buyHold, dca)
	gen.Years = cfg.HoldingYears
	report, err := gen.Generate(ctx, []reporting.RunSummary{
		reporting.FromRunResult("buy_and_hold", "full", result),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("build run summary")
	} else if err := reporting.WriteFiles(*outputDir, report); err != nil {
		logger.Warn().Err(err).Msg("write run summary")
	}

	logger.Info().
		Int("computed", result.Computed).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Int("written", result.Written).
		Dur("elapsed", result.Elapsed).
		Msg("buy-and-hold analysis complete")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl)
}

func parseYears(s string) ([]int, error) {
	var years []int
	for _, part := range strings.Split(s, ",") {
		year, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		years = append(years, year)
	}
	return years, nil
}
