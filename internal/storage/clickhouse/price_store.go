package clickhouse

import (
	"context"
	"fmt"
	"time"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

// PriceStore implements storage.PriceStore over mirrored daily bars.
// The mirror only carries normalized rows, so there is no write path for
// native prices here; MirrorBulk is fed from the Postgres side.
type PriceStore struct {
	conn *Conn
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(conn *Conn) *PriceStore {
	return &PriceStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

func priceTable(class domain.AssetClass) string {
	switch class {
	case domain.ClassCrypto:
		return "crypto_prices"
	case domain.ClassCommodity:
		return "commodity_prices"
	case domain.ClassIndex:
		return "index_prices"
	default:
		return "crypto_prices"
	}
}

// GetSeries retrieves the USD series for [start, end] inclusive, ordered by date ASC.
func (s *PriceStore) GetSeries(ctx context.Context, asset domain.Asset, start, end time.Time) ([]domain.PriceSample, error) {
	query := fmt.Sprintf(`
		SELECT date, price_usd
		FROM %s FINAL
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, priceTable(asset.Class))

	rows, err := s.conn.Query(ctx, query, asset.Symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("query price series: %w", err)
	}
	defer rows.Close()

	return scanPriceSamples(rows)
}

// QualifyingAssets lists symbols of a class with at least minSamples rows on
// or after since.
func (s *PriceStore) QualifyingAssets(ctx context.Context, class domain.AssetClass, since time.Time, minSamples int) ([]domain.Asset, error) {
	query := fmt.Sprintf(`
		SELECT symbol
		FROM %s FINAL
		WHERE date >= ?
		GROUP BY symbol
		HAVING count(*) >= ?
		ORDER BY symbol ASC
	`, priceTable(class))

	rows, err := s.conn.Query(ctx, query, since, uint64(minSamples))
	if err != nil {
		return nil, fmt.Errorf("query qualifying assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		assets = append(assets, domain.Asset{Symbol: symbol, Class: class})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbol rows: %w", err)
	}

	return assets, nil
}

// MirrorBulk copies normalized samples into the mirror. ReplacingMergeTree
// collapses re-mirrored (symbol, date) rows on merge, so the copy is
// idempotent without an upsert.
func (s *PriceStore) MirrorBulk(ctx context.Context, class domain.AssetClass, symbol string, samples []domain.PriceSample) error {
	if len(samples) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf(`
		INSERT INTO %s (symbol, date, price_usd, updated_at)
	`, priceTable(class)))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	now := time.Now().UTC()
	for _, sample := range samples {
		if err := batch.Append(symbol, sample.Date, sample.PriceUSD, now); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// scanPriceSamples scans multiple rows.
func scanPriceSamples(rows chRows) ([]domain.PriceSample, error) {
	var samples []domain.PriceSample

	for rows.Next() {
		var sample domain.PriceSample
		if err := rows.Scan(&sample.Date, &sample.PriceUSD); err != nil {
			return nil, fmt.Errorf("scan price sample row: %w", err)
		}
		sample.Date = sample.Date.UTC()
		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price sample rows: %w", err)
	}

	return samples, nil
}
