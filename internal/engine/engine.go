// Package engine orchestrates performance computation runs: it expands the
// (asset x holding period x start date) task grid, fans tasks out to a
// bounded worker pool, and batches the resulting records into the stores.
package engine

import (
	"time"

	"github.com/rs/zerolog"

	"asset-performance-lab/internal/analytics"
	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

// Config carries every knob of a computation run. All fields have working
// defaults from DefaultConfig; zero values are not meaningful.
type Config struct {
	// Epoch is the earliest window start date considered for any asset.
	Epoch time.Time

	// HoldingYears lists the evaluated holding periods.
	HoldingYears []int

	// Frequencies lists the DCA contribution cadences to simulate.
	Frequencies []domain.Frequency

	// Contribution is the fixed amount invested per DCA purchase.
	Contribution float64

	// Analytics carries the window validation gate and risk-free rate.
	Analytics analytics.Config

	// MinSamples is the normalized-sample floor an asset needs on or after
	// Epoch before any of its windows are evaluated.
	MinSamples int

	// LookbackDays bounds the incremental pass: only first-of-month start
	// dates within this many days before today are recomputed.
	LookbackDays int

	// Workers bounds the compute pool.
	Workers int

	// FlushThreshold is the record count that triggers a batched upsert.
	FlushThreshold int
}

// DefaultConfig returns the standard run configuration.
func DefaultConfig() Config {
	return Config{
		Epoch:          time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		HoldingYears:   []int{3, 4, 5, 6, 7, 8, 9, 10},
		Frequencies:    domain.AllFrequencies,
		Contribution:   100,
		Analytics:      analytics.DefaultConfig(),
		MinSamples:     1000,
		LookbackDays:   10,
		Workers:        8,
		FlushThreshold: 1000,
	}
}

// Engine runs performance computations over the configured asset universe.
type Engine struct {
	prices  storage.PriceStore
	buyHold storage.BuyHoldStore
	dca     storage.DCAStore
	cfg     Config
	now     func() time.Time
	log     zerolog.Logger
}

// Options for creating an Engine.
type Options struct {
	PriceStore   storage.PriceStore
	BuyHoldStore storage.BuyHoldStore
	DCAStore     storage.DCAStore
	Config       Config
	Logger       zerolog.Logger

	// Now overrides the clock; nil means time.Now. Tests pin it.
	Now func() time.Time
}

// New creates a new Engine.
func New(opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cfg := opts.Config
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.FlushThreshold <= 0 {
		cfg.FlushThreshold = 1000
	}
	return &Engine{
		prices:  opts.PriceStore,
		buyHold: opts.BuyHoldStore,
		dca:     opts.DCAStore,
		cfg:     cfg,
		now:     now,
		log:     opts.Logger.With().Str("component", "engine").Logger(),
	}
}

// RunResult is the folded outcome of one run. Counters are accumulated by
// the collector goroutine only, so no global mutable state is involved.
type RunResult struct {
	Assets   int
	Tasks    int
	Computed int
	Skipped  int
	Failed   int
	Written  int
	Elapsed  time.Duration
}
