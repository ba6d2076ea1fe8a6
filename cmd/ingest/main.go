// Package main fetches daily bars from the market-data provider, upserts
// them per asset class and forward-fills calendar gaps.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/ingest"
	"asset-performance-lab/internal/storage/migrations"
	pgstore "asset-performance-lab/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	apiKey := flag.String("api-key", os.Getenv("FMP_API_KEY"), "Market-data provider API key")
	baseURL := flag.String("base-url", os.Getenv("FMP_BASE_URL"), "Provider base URL override")
	classFlag := flag.String("class", "all", "Asset class to ingest: crypto, commodity, index or all")
	symbolsFlag := flag.String("symbols", "", "Comma-separated symbol override (skips the provider list call)")
	daily := flag.Bool("daily", false, "Daily mode: re-fetch only the recent window and fill through today")
	workers := flag.Int("workers", 4, "Concurrent symbol fetches per class")
	logLevel := flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flag.Parse()

	logger := newLogger(*logLevel)
	if *postgresDSN == "" {
		logger.Fatal().Msg("--postgres-dsn is required")
	}
	if *apiKey == "" {
		logger.Fatal().Msg("--api-key is required")
	}

	classes, err := resolveClasses(*classFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse --class")
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

	client := ingest.NewClient(*baseURL, *apiKey, logger)
	writer := pgstore.NewPriceStore(pool)

	var totalErrors int
	for _, class := range classes {
		symbols, err := resolveSymbols(ctx, client, class, *symbolsFlag)
		if err != nil {
			logger.Fatal().Err(err).Str("class", string(class)).Msg("list symbols")
		}

		ing := ingest.NewIngestor(ingest.IngestorOptions{
			Client:  client,
			Writer:  writer,
			Class:   class,
			Workers: *workers,
			Logger:  logger,
		})

		result, err := ing.Run(ctx, symbols, *daily)
		if err != nil {
			logger.Fatal().Err(err).Str("class", string(class)).Msg("ingestion aborted")
		}
		totalErrors += result.Errors
	}

	if totalErrors > 0 {
		logger.Warn().Int("errors", totalErrors).Msg("ingestion finished with symbol errors")
		os.Exit(1)
	}
	logger.Info().Msg("ingestion complete")
}

func resolveClasses(s string) ([]domain.AssetClass, error) {
	if s == "all" {
		return domain.AllAssetClasses, nil
	}
	var classes []domain.AssetClass
	for _, part := range strings.Split(s, ",") {
		class := domain.AssetClass(strings.TrimSpace(part))
		switch class {
		case domain.ClassCrypto, domain.ClassCommodity, domain.ClassIndex:
			classes = append(classes, class)
		default:
			return nil, fmt.Errorf("unknown asset class %q", part)
		}
	}
	return classes, nil
}

func resolveSymbols(ctx context.Context, client *ingest.Client, class domain.AssetClass, override string) ([]string, error) {
	if override == "" {
		return client.ListSymbols(ctx, class)
	}
	var symbols []string
	for _, part := range strings.Split(override, ",") {
		if symbol := strings.TrimSpace(part); symbol != "" {
			symbols = append(symbols, symbol)
		}
	}
	return symbols, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl)
}
