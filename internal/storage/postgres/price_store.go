package postgres

import (
	"context"
	"fmt"
	"time"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

// PriceStore implements the price-table read, write and normalization
// interfaces using PostgreSQL. One instance serves all three asset classes;
// the class selects the table.
type PriceStore struct {
	pool *Pool
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(pool *Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

// Compile-time interface checks.
var (
	_ storage.PriceStore  = (*PriceStore)(nil)
	_ storage.PriceWriter = (*PriceStore)(nil)
	_ storage.Normalizer  = (*PriceStore)(nil)
)

// GetSeries retrieves the USD series for [start, end] inclusive, ordered by
// date ASC. Rows without a normalized price are omitted.
func (s *PriceStore) GetSeries(ctx context.Context, asset domain.Asset, start, end time.Time) ([]domain.PriceSample, error) {
	table := priceTable(asset.Class)
	if table == "" {
		return nil, fmt.Errorf("%w: unknown asset class %q", storage.ErrInvalidInput, asset.Class)
	}

	query := fmt.Sprintf(`
		SELECT date, price_usd
		FROM %s
		WHERE symbol = $1
		AND date >= $2
		AND date <= $3
		AND price_usd IS NOT NULL
		ORDER BY date ASC
	`, table)

	rows, err := s.pool.Query(ctx, query, asset.Symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("query price series: %w", err)
	}
	defer rows.Close()

	var series []domain.PriceSample
	for rows.Next() {
		var sample domain.PriceSample
		if err := rows.Scan(&sample.Date, &sample.PriceUSD); err != nil {
			return nil, fmt.Errorf("scan price sample: %w", err)
		}
		sample.Date = sample.Date.UTC()
		series = append(series, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price samples: %w", err)
	}

	return series, nil
}

// QualifyingAssets lists the symbols of a class with at least minSamples
// normalized samples on or after since.
func (s *PriceStore) QualifyingAssets(ctx context.Context, class domain.AssetClass, since time.Time, minSamples int) ([]domain.Asset, error) {
	table := priceTable(class)
	if table == "" {
		return nil, fmt.Errorf("%w: unknown asset class %q", storage.ErrInvalidInput, class)
	}

	query := fmt.Sprintf(`
		SELECT symbol
		FROM %s
		WHERE date >= $1
		AND price_usd IS NOT NULL
		GROUP BY symbol
		HAVING COUNT(*) >= $2
		ORDER BY symbol ASC
	`, table)

	rows, err := s.pool.Query(ctx, query, since, minSamples)
	if err != nil {
		return nil, fmt.Errorf("query qualifying assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("scan qualifying symbol: %w", err)
		}
		assets = append(assets, domain.Asset{Symbol: symbol, Class: class})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate qualifying symbols: %w", err)
	}

	return assets, nil
}

// UpsertBulk inserts provider bars, updating price and volume on
// (symbol, date) conflict so re-fetches converge on provider corrections.
func (s *PriceStore) UpsertBulk(ctx context.Context, class domain.AssetClass, bars []*domain.RawPrice) error {
	if len(bars) == 0 {
		return nil
	}

	table := priceTable(class)
	if table == "" {
		return fmt.Errorf("%w: unknown asset class %q", storage.ErrInvalidInput, class)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (symbol, date, price, volume)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol, date) DO UPDATE SET
			price = EXCLUDED.price,
			volume = EXCLUDED.volume,
			updated_at = CURRENT_TIMESTAMP
	`, table)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, b := range bars {
		if _, err := tx.Exec(ctx, query, b.Symbol, b.Date, b.Price, b.Volume); err != nil {
			return fmt.Errorf("upsert price bar: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// NativeSeries retrieves every stored bar for a symbol ordered by date ASC.
func (s *PriceStore) NativeSeries(ctx context.Context, class domain.AssetClass, symbol string) ([]*domain.RawPrice, error) {
	table := priceTable(class)
	if table == "" {
		return nil, fmt.Errorf("%w: unknown asset class %q", storage.ErrInvalidInput, class)
	}

	query := fmt.Sprintf(`
		SELECT symbol, date, price, volume, price_usd
		FROM %s
		WHERE symbol = $1
		ORDER BY date ASC
	`, table)

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query native series: %w", err)
	}
	defer rows.Close()

	var bars []*domain.RawPrice
	for rows.Next() {
		var b domain.RawPrice
		if err := rows.Scan(&b.Symbol, &b.Date, &b.Price, &b.Volume, &b.PriceUSD); err != nil {
			return nil, fmt.Errorf("scan native bar: %w", err)
		}
		b.Date = b.Date.UTC()
		bars = append(bars, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate native bars: %w", err)
	}

	return bars, nil
}

// CopyNativeUSD sets price_usd = price for USD-quoted symbols. The
// predicate skips rows already normalized so daily re-runs touch nothing.
func (s *PriceStore) CopyNativeUSD(ctx context.Context, class domain.AssetClass, symbols []string, since *time.Time) (int64, error) {
	if len(symbols) == 0 {
		return 0, nil
	}

	table := priceTable(class)
	if table == "" {
		return 0, fmt.Errorf("%w: unknown asset class %q", storage.ErrInvalidInput, class)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET price_usd = price
		WHERE symbol = ANY($1)
		AND (price_usd IS NULL OR price_usd != price)
	`, table)
	args := []any{symbols}

	if since != nil {
		query += " AND date >= $2"
		args = append(args, *since)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("copy native usd: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ApplyForexRates sets price_usd = price * fx(date) for symbols quoted in
// currency, joining each bar against the same-day FX close.
func (s *PriceStore) ApplyForexRates(ctx context.Context, class domain.AssetClass, symbols []string, currency string, since *time.Time) (int64, error) {
	if len(symbols) == 0 {
		return 0, nil
	}

	table := priceTable(class)
	if table == "" {
		return 0, fmt.Errorf("%w: unknown asset class %q", storage.ErrInvalidInput, class)
	}

	query := fmt.Sprintf(`
		UPDATE %s p
		SET price_usd = p.price * f.rate
		FROM forex_prices f
		WHERE p.symbol = ANY($1)
		AND f.currency = $2
		AND f.date = p.date
	`, table)
	args := []any{symbols, currency}

	if since != nil {
		query += " AND p.date >= $3"
		args = append(args, *since)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("apply forex rates: %w", err)
	}
	return tag.RowsAffected(), nil
}
