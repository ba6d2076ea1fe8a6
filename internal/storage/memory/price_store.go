package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

const dateLayout = "2006-01-02"

// PriceStore is an in-memory implementation of the price table interfaces:
// storage.PriceStore, storage.PriceWriter and storage.Normalizer.
type PriceStore struct {
	mu    sync.RWMutex
	bars  map[domain.AssetClass]map[string]map[string]*domain.RawPrice // class -> symbol -> date -> bar
	forex map[string]map[string]float64                                // currency -> date -> rate
}

// NewPriceStore creates a new in-memory price store.
func NewPriceStore() *PriceStore {
	bars := make(map[domain.AssetClass]map[string]map[string]*domain.RawPrice)
	for _, class := range domain.AllAssetClasses {
		bars[class] = make(map[string]map[string]*domain.RawPrice)
	}
	return &PriceStore{
		bars:  bars,
		forex: make(map[string]map[string]float64),
	}
}

// Compile-time interface checks.
var (
	_ storage.PriceStore  = (*PriceStore)(nil)
	_ storage.PriceWriter = (*PriceStore)(nil)
	_ storage.Normalizer  = (*PriceStore)(nil)
)

// GetSeries retrieves the USD series for [start, end] inclusive, ordered by
// date ASC. Rows without a normalized price are omitted.
func (s *PriceStore) GetSeries(_ context.Context, asset domain.Asset, start, end time.Time) ([]domain.PriceSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbolBars, exists := s.bars[asset.Class][asset.Symbol]
	if !exists {
		return nil, nil
	}

	var samples []domain.PriceSample
	for _, bar := range symbolBars {
		if bar.PriceUSD == nil {
			continue
		}
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}
		samples = append(samples, domain.PriceSample{Date: bar.Date, PriceUSD: *bar.PriceUSD})
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Date.Before(samples[j].Date)
	})

	return samples, nil
}

// QualifyingAssets lists symbols of a class with at least minSamples
// normalized samples on or after since, ordered by symbol ASC.
func (s *PriceStore) QualifyingAssets(_ context.Context, class domain.AssetClass, since time.Time, minSamples int) ([]domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var assets []domain.Asset
	for symbol, symbolBars := range s.bars[class] {
		count := 0
		for _, bar := range symbolBars {
			if bar.PriceUSD != nil && !bar.Date.Before(since) {
				count++
			}
		}
		if count >= minSamples {
			assets = append(assets, domain.Asset{Symbol: symbol, Class: class})
		}
	}

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Symbol < assets[j].Symbol
	})

	return assets, nil
}

// UpsertBulk inserts provider bars, updating price and volume on
// (symbol, date) conflict. Normalized prices survive the update.
func (s *PriceStore) UpsertBulk(_ context.Context, class domain.AssetClass, bars []*domain.RawPrice) error {
	for _, bar := range bars {
		if bar == nil || bar.Symbol == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bar := range bars {
		symbolBars, exists := s.bars[class][bar.Symbol]
		if !exists {
			symbolBars = make(map[string]*domain.RawPrice)
			s.bars[class][bar.Symbol] = symbolBars
		}

		key := bar.Date.Format(dateLayout)
		if existing, ok := symbolBars[key]; ok {
			existing.Price = bar.Price
			existing.Volume = bar.Volume
			continue
		}

		// Store a copy to prevent external mutation
		barCopy := *bar
		if bar.PriceUSD != nil {
			usd := *bar.PriceUSD
			barCopy.PriceUSD = &usd
		}
		symbolBars[key] = &barCopy
	}

	return nil
}

// NativeSeries retrieves every stored bar for a symbol ordered by date ASC.
func (s *PriceStore) NativeSeries(_ context.Context, class domain.AssetClass, symbol string) ([]*domain.RawPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RawPrice
	for _, bar := range s.bars[class][symbol] {
		barCopy := *bar
		if bar.PriceUSD != nil {
			usd := *bar.PriceUSD
			barCopy.PriceUSD = &usd
		}
		result = append(result, &barCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

// CopyNativeUSD sets price_usd = price for the given USD-quoted symbols.
func (s *PriceStore) CopyNativeUSD(_ context.Context, class domain.AssetClass, symbols []string, since *time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	for _, symbol := range symbols {
		for _, bar := range s.bars[class][symbol] {
			if since != nil && bar.Date.Before(*since) {
				continue
			}
			usd := bar.Price
			bar.PriceUSD = &usd
			updated++
		}
	}

	return updated, nil
}

// ApplyForexRates sets price_usd = price * fx(date) for symbols quoted in
// currency. Dates without a stored rate stay un-normalized.
func (s *PriceStore) ApplyForexRates(_ context.Context, class domain.AssetClass, symbols []string, currency string, since *time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rates := s.forex[currency]
	if rates == nil {
		return 0, nil
	}

	var updated int64
	for _, symbol := range symbols {
		for key, bar := range s.bars[class][symbol] {
			if since != nil && bar.Date.Before(*since) {
				continue
			}
			rate, ok := rates[key]
			if !ok {
				continue
			}
			usd := bar.Price * rate
			bar.PriceUSD = &usd
			updated++
		}
	}

	return updated, nil
}

// UpsertForexRates stores daily FX closes for ApplyForexRates to join against.
func (s *PriceStore) UpsertForexRates(_ context.Context, rates []*domain.ForexRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rates {
		if r == nil || r.Currency == "" {
			return storage.ErrInvalidInput
		}
		byDate, exists := s.forex[r.Currency]
		if !exists {
			byDate = make(map[string]float64)
			s.forex[r.Currency] = byDate
		}
		byDate[r.Date.Format(dateLayout)] = r.Rate
	}

	return nil
}
