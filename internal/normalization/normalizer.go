// Package normalization gives every stored price row a USD value. Symbols
// quoted in USD get their native price copied; everything else is converted
// through the stored daily FX closes. Both passes are set-based updates in
// the store and idempotent, so re-running converges to the same state.
package normalization

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/observability"
	"asset-performance-lab/internal/storage"
)

// dailyLookbackDays bounds the rows a daily pass touches, matching the
// ingestion re-fetch window so corrected bars get re-normalized.
const dailyLookbackDays = 10

// Normalizer runs the USD normalization pass over every asset class.
type Normalizer struct {
	metadata storage.MetadataStore
	prices   storage.Normalizer
	now      func() time.Time
	log      zerolog.Logger
}

// Options for creating a Normalizer.
type Options struct {
	MetadataStore storage.MetadataStore
	PriceStore    storage.Normalizer
	Logger        zerolog.Logger

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// New creates a new Normalizer.
func New(opts Options) *Normalizer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Normalizer{
		metadata: opts.MetadataStore,
		prices:   opts.PriceStore,
		now:      now,
		log:      opts.Logger.With().Str("component", "normalize").Logger(),
	}
}

// Result is the folded outcome of one normalization pass.
type Result struct {
	Currencies int
	USDRows    int64
	Converted  int64
	Elapsed    time.Duration
}

// Total returns the number of rows given a USD value.
func (r *Result) Total() int64 { return r.USDRows + r.Converted }

// Run normalizes every class. In daily mode only rows inside the recent
// lookback window are updated; a full pass touches the whole history.
func (n *Normalizer) Run(ctx context.Context, daily bool) (*Result, error) {
	started := n.now()
	mode := "full"
	var since *time.Time
	if daily {
		mode = "daily"
		cutoff := n.now().AddDate(0, 0, -dailyLookbackDays)
		since = &cutoff
	}
	n.log.Info().Str("mode", mode).Msg("normalization started")

	result := &Result{}
	for _, class := range domain.AllAssetClasses {
		if err := n.runClass(ctx, class, mode, since, result); err != nil {
			return result, err
		}
	}
	result.Elapsed = n.now().Sub(started)

	n.log.Info().
		Int("currencies", result.Currencies).
		Int64("usd_rows", result.USDRows).
		Int64("converted", result.Converted).
		Dur("elapsed", result.Elapsed).
		Msg("normalization finished")
	return result, nil
}

func (n *Normalizer) runClass(ctx context.Context, class domain.AssetClass, mode string, since *time.Time, result *Result) error {
	groups, err := n.metadata.SymbolsByCurrency(ctx, class)
	if err != nil {
		return err
	}

	// Deterministic currency order, USD group first.
	currencies := make([]string, 0, len(groups))
	for currency := range groups {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	for _, currency := range currencies {
		symbols := groups[currency]
		var updated int64
		if currency == "USD" {
			updated, err = n.prices.CopyNativeUSD(ctx, class, symbols, since)
			if err != nil {
				return err
			}
			result.USDRows += updated
		} else {
			updated, err = n.prices.ApplyForexRates(ctx, class, symbols, currency, since)
			if err != nil {
				return err
			}
			result.Converted += updated
		}
		result.Currencies++
		observability.DefaultMetrics.RowsNormalized.
			WithLabelValues(string(class), mode).Add(float64(updated))
		n.log.Debug().
			Str("class", string(class)).
			Str("currency", currency).
			Int("symbols", len(symbols)).
			Int64("updated", updated).
			Msg("currency group normalized")
	}
	return nil
}
