// Package main serves the performance API and keeps the record tables
// current: a cron schedule runs the incremental pass for both strategies,
// which recomputes windows ending on a recent first-of-month.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"asset-performance-lab/internal/engine"
	"asset-performance-lab/internal/observability"
	"asset-performance-lab/internal/server"
	"asset-performance-lab/internal/storage"
	chstore "asset-performance-lab/internal/storage/clickhouse"
	"asset-performance-lab/internal/storage/memory"
	"asset-performance-lab/internal/storage/migrations"
	pgstore "asset-performance-lab/internal/storage/postgres"
)

const shutdownTimeout = 30 * time.Second

// stores bundles everything the API and the scheduled pass read and write.
type stores struct {
	prices   storage.PriceStore
	buyHold  storage.BuyHoldStore
	dca      storage.DCAStore
	metadata storage.MetadataStore
}

func main() {
	_ = godotenv.Load()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "Optional ClickHouse connection string for price reads")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	schedule := flag.String("update-schedule", "0 6 * * *", "Cron spec for the incremental pass (empty disables)")
	workers := flag.Int("workers", 8, "Compute worker count for scheduled passes")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	logLevel := flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flag.Parse()

	logger := newLogger(*logLevel)
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal().Msg("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("create stores")
	}
	defer cleanup()

	api := server.New(server.Options{
		BuyHoldStore:  st.buyHold,
		DCAStore:      st.dca,
		MetadataStore: st.metadata,
		Logger:        logger,
	})

	router := chi.NewRouter()
	router.Mount("/", api.Router())
	router.Handle("/metrics", observability.Handler())

	var scheduler *cron.Cron
	if *schedule != "" {
		cfg := engine.DefaultConfig()
		cfg.Workers = *workers
		eng := engine.New(engine.Options{
			PriceStore:   st.prices,
			BuyHoldStore: st.buyHold,
			DCAStore:     st.dca,
			Config:       cfg,
			Logger:       logger,
		})

		scheduler = cron.New()
		_, err := scheduler.AddFunc(*schedule, func() { runIncremental(ctx, eng, logger) })
		if err != nil {
			logger.Fatal().Err(err).Str("schedule", *schedule).Msg("parse cron spec")
		}
		scheduler.Start()
		logger.Info().Str("schedule", *schedule).Msg("incremental pass scheduled")
	}

	srv := &http.Server{Addr: *addr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", *addr).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server failed")
	}

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	logger.Info().Msg("shutdown complete")
}

// runIncremental recomputes recently completed windows for both strategies.
// Failures are logged, not fatal: the next scheduled run retries.
func runIncremental(ctx context.Context, eng *engine.Engine, logger zerolog.Logger) {
	if result, err := eng.RunBuyHoldIncremental(ctx); err != nil {
		logger.Error().Err(err).Msg("scheduled buy-and-hold pass failed")
	} else {
		logger.Info().Int("written", result.Written).Msg("scheduled buy-and-hold pass complete")
	}

	if result, err := eng.RunDCAIncremental(ctx); err != nil {
		logger.Error().Err(err).Msg("scheduled dca pass failed")
	} else {
		logger.Info().Int("written", result.Written).Msg("scheduled dca pass complete")
	}
}

func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, logger zerolog.Logger) (*stores, func(), error) {
	if useMemory {
		prices := memory.NewPriceStore()
		return &stores{
			prices:   prices,
			buyHold:  memory.NewBuyHoldStore(),
			dca:      memory.NewDCAStore(),
			metadata: memory.NewMetadataStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	st := &stores{
		prices:   pgstore.NewPriceStore(pool),
		buyHold:  pgstore.NewBuyHoldStore(pool),
		dca:      pgstore.NewDCAStore(pool),
		metadata: pgstore.NewMetadataStore(pool),
	}
	cleanup := func() { pool.Close() }

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		st.prices = chstore.NewPriceStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
		logger.Info().Msg("reading price series from clickhouse")
	}

	return st, cleanup, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl)
}
