package storage

import (
	"context"
	"time"

	"asset-performance-lab/internal/domain"
)

// PriceStore is the engine-facing read side of the price tables: the
// PriceSeriesProvider boundary. Series come back USD-normalized and
// gap-free within the asset's observed range; gap-filling happens at
// ingestion, never here.
type PriceStore interface {
	// GetSeries retrieves the USD series for [start, end] inclusive,
	// ordered by date ASC. Rows without a normalized price are omitted.
	GetSeries(ctx context.Context, asset domain.Asset, start, end time.Time) ([]domain.PriceSample, error)

	// QualifyingAssets lists the symbols of a class with at least
	// minSamples normalized samples on or after since. This is the single
	// asset-qualification policy shared by full and incremental runs.
	QualifyingAssets(ctx context.Context, class domain.AssetClass, since time.Time, minSamples int) ([]domain.Asset, error)
}

// PriceWriter is the ingestion-facing write side of the price tables.
type PriceWriter interface {
	// UpsertBulk inserts provider bars, updating price and volume on
	// (symbol, date) conflict.
	UpsertBulk(ctx context.Context, class domain.AssetClass, bars []*domain.RawPrice) error

	// NativeSeries retrieves every stored bar for a symbol ordered by
	// date ASC, normalized or not. Used by the forward-fill pass.
	NativeSeries(ctx context.Context, class domain.AssetClass, symbol string) ([]*domain.RawPrice, error)
}

// Normalizer is the set-based USD normalization side of the price tables.
// Both operations are idempotent updates; a nil since limits nothing, a
// non-nil since restricts the update to recent rows for daily passes.
type Normalizer interface {
	// CopyNativeUSD sets price_usd = price for USD-quoted symbols.
	CopyNativeUSD(ctx context.Context, class domain.AssetClass, symbols []string, since *time.Time) (int64, error)

	// ApplyForexRates sets price_usd = price * fx(date) for symbols quoted
	// in currency, joining against the stored daily FX closes.
	ApplyForexRates(ctx context.Context, class domain.AssetClass, symbols []string, currency string, since *time.Time) (int64, error)
}

// MetadataStore resolves display names and native currencies for symbols.
type MetadataStore interface {
	// SymbolsByCurrency groups a class's symbols by their quote currency.
	SymbolsByCurrency(ctx context.Context, class domain.AssetClass) (map[string][]string, error)

	// Name returns the display name for a symbol, ErrNotFound if unknown.
	Name(ctx context.Context, symbol string) (string, error)

	// List returns the catalog entries for a class ordered by symbol ASC.
	// An empty class returns every class.
	List(ctx context.Context, class domain.AssetClass) ([]domain.AssetInfo, error)
}

// RankQuery filters and orders a leaderboard read.
type RankQuery struct {
	Metric       string            // whitelisted column, e.g. "annualized_return_pct"
	HoldingYears int               // 0 means any
	Class        domain.AssetClass // "" means any
	Frequency    domain.Frequency  // DCA only; "" means any
	Ascending    bool              // rank worst-first when true
	Limit        int
}

// BuyHoldStore is the ResultSink for lump-sum records plus the read side
// the serving API ranks over.
type BuyHoldStore interface {
	// UpsertBulk persists records by natural key (symbol, start, end),
	// updating only derived metric fields on conflict.
	UpsertBulk(ctx context.Context, records []*domain.BuyHoldRecord) error

	// Rank returns records ordered by the query metric.
	Rank(ctx context.Context, q RankQuery) ([]*domain.BuyHoldRecord, error)

	// BySymbol returns every window evaluated for a symbol, ordered by
	// start date ASC.
	BySymbol(ctx context.Context, symbol string) ([]*domain.BuyHoldRecord, error)
}

// DCAStore is the ResultSink for DCA records plus its read side.
type DCAStore interface {
	// UpsertBulk persists records by natural key (symbol, start, end,
	// frequency), updating only derived metric fields on conflict.
	UpsertBulk(ctx context.Context, records []*domain.DCARecord) error

	// Rank returns records ordered by the query metric.
	Rank(ctx context.Context, q RankQuery) ([]*domain.DCARecord, error)

	// BySymbol returns every simulation stored for a symbol, ordered by
	// start date ASC, frequency ASC.
	BySymbol(ctx context.Context, symbol string) ([]*domain.DCARecord, error)
}
