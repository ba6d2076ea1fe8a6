// Package main runs the USD normalization pass over the price tables and
// optionally mirrors the normalized series into ClickHouse.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/normalization"
	chstore "asset-performance-lab/internal/storage/clickhouse"
	"asset-performance-lab/internal/storage/migrations"
	pgstore "asset-performance-lab/internal/storage/postgres"
)

// mirrorFrom bounds the mirrored history; the provider has no earlier bars.
var mirrorFrom = time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC)

func main() {
	_ = godotenv.Load()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "Optional ClickHouse connection string; mirrors normalized series when set")
	daily := flag.Bool("daily", false, "Daily mode: only touch rows inside the recent lookback window")
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

	prices := pgstore.NewPriceStore(pool)
	metadata := pgstore.NewMetadataStore(pool)

	normalizer := normalization.New(normalization.Options{
		MetadataStore: metadata,
		PriceStore:    prices,
		Logger:        logger,
	})

	result, err := normalizer.Run(ctx, *daily)
	if err != nil {
		logger.Fatal().Err(err).Msg("normalization failed")
	}
	logger.Info().
		Int64("usd_rows", result.USDRows).
		Int64("converted", result.Converted).
		Dur("elapsed", result.Elapsed).
		Msg("normalization complete")

	if *clickhouseDSN == "" {
		return
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to clickhouse")
	}
	defer conn.Close()

	if err := mirror(ctx, prices, metadata, chstore.NewPriceStore(conn), logger); err != nil {
		logger.Fatal().Err(err).Msg("mirror to clickhouse failed")
	}
}

// mirror copies every symbol's normalized series into the ClickHouse price
// tables. The ReplacingMergeTree engine deduplicates re-mirrored rows.
func mirror(ctx context.Context, prices *pgstore.PriceStore, metadata *pgstore.MetadataStore, sink *chstore.PriceStore, logger zerolog.Logger) error {
	today := time.Now().UTC()
	var mirrored int

	for _, class := range domain.AllAssetClasses {
		assets, err := metadata.List(ctx, class)
		if err != nil {
			return err
		}
		for _, info := range assets {
			samples, err := prices.GetSeries(ctx, domain.Asset{Symbol: info.Symbol, Class: class}, mirrorFrom, today)
			if err != nil {
				return err
			}
			if len(samples) == 0 {
				continue
			}
			if err := sink.MirrorBulk(ctx, class, info.Symbol, samples); err != nil {
				return err
			}
			mirrored += len(samples)
		}
	}

	logger.Info().Int("rows", mirrored).Msg("clickhouse mirror complete")
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl)
}
