package memory

import (
	"context"
	"sort"
	"sync"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

// metadataRow mirrors one asset_metadata row.
type metadataRow struct {
	Symbol   string
	Class    domain.AssetClass
	Name     string
	Currency string
}

// MetadataStore is an in-memory implementation of storage.MetadataStore.
type MetadataStore struct {
	mu   sync.RWMutex
	data map[string]metadataRow // keyed by symbol
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		data: make(map[string]metadataRow),
	}
}

// Compile-time interface check.
var _ storage.MetadataStore = (*MetadataStore)(nil)

// Put stores or replaces one symbol's metadata.
func (s *MetadataStore) Put(_ context.Context, symbol string, class domain.AssetClass, name, currency string) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if currency == "" {
		currency = "USD"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[symbol] = metadataRow{Symbol: symbol, Class: class, Name: name, Currency: currency}
	return nil
}

// SymbolsByCurrency groups a class's symbols by their quote currency.
func (s *MetadataStore) SymbolsByCurrency(_ context.Context, class domain.AssetClass) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grouped := make(map[string][]string)
	for _, row := range s.data {
		if row.Class != class {
			continue
		}
		grouped[row.Currency] = append(grouped[row.Currency], row.Symbol)
	}
	for _, symbols := range grouped {
		sort.Strings(symbols)
	}

	return grouped, nil
}

// List returns the catalog entries for a class, every class when empty.
func (s *MetadataStore) List(_ context.Context, class domain.AssetClass) ([]domain.AssetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var assets []domain.AssetInfo
	for _, row := range s.data {
		if class != "" && row.Class != class {
			continue
		}
		assets = append(assets, domain.AssetInfo{
			Symbol:   row.Symbol,
			Class:    row.Class,
			Name:     row.Name,
			Currency: row.Currency,
		})
	}
	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Symbol < assets[j].Symbol
	})

	return assets, nil
}

// Name returns the display name for a symbol, ErrNotFound if unknown.
func (s *MetadataStore) Name(_ context.Context, symbol string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, exists := s.data[symbol]
	if !exists {
		return "", storage.ErrNotFound
	}
	return row.Name, nil
}
