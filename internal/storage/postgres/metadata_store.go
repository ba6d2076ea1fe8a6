package postgres

import (
	"context"
	"fmt"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

// MetadataStore implements storage.MetadataStore using PostgreSQL.
type MetadataStore struct {
	pool *Pool
}

// NewMetadataStore creates a new MetadataStore.
func NewMetadataStore(pool *Pool) *MetadataStore {
	return &MetadataStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MetadataStore = (*MetadataStore)(nil)

// SymbolsByCurrency groups a class's symbols by their quote currency.
// Symbols without metadata rows are assumed USD by the normalization pass,
// so absence here is not an error.
func (s *MetadataStore) SymbolsByCurrency(ctx context.Context, class domain.AssetClass) (map[string][]string, error) {
	query := `
		SELECT symbol, currency
		FROM asset_metadata
		WHERE asset_type = $1
		ORDER BY symbol ASC
	`

	rows, err := s.pool.Query(ctx, query, class)
	if err != nil {
		return nil, fmt.Errorf("query symbols by currency: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string][]string)
	for rows.Next() {
		var symbol, currency string
		if err := rows.Scan(&symbol, &currency); err != nil {
			return nil, fmt.Errorf("scan metadata row: %w", err)
		}
		grouped[currency] = append(grouped[currency], symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metadata rows: %w", err)
	}

	return grouped, nil
}

// List returns the catalog entries for a class, every class when empty.
func (s *MetadataStore) List(ctx context.Context, class domain.AssetClass) ([]domain.AssetInfo, error) {
	query := `
		SELECT symbol, asset_type, name, currency
		FROM asset_metadata
	`
	var args []any
	if class != "" {
		query += ` WHERE asset_type = $1`
		args = append(args, class)
	}
	query += ` ORDER BY symbol ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query asset catalog: %w", err)
	}
	defer rows.Close()

	var assets []domain.AssetInfo
	for rows.Next() {
		var info domain.AssetInfo
		if err := rows.Scan(&info.Symbol, &info.Class, &info.Name, &info.Currency); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		assets = append(assets, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}

	return assets, nil
}

// Name returns the display name for a symbol.
func (s *MetadataStore) Name(ctx context.Context, symbol string) (string, error) {
	query := `SELECT name FROM asset_metadata WHERE symbol = $1 LIMIT 1`

	var name string
	if err := s.pool.QueryRow(ctx, query, symbol).Scan(&name); err != nil {
		if isNotFoundError(err) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get asset name: %w", err)
	}
	return name, nil
}
