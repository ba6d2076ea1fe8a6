package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

// BuyHoldStore is an in-memory implementation of storage.BuyHoldStore.
type BuyHoldStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BuyHoldRecord // keyed by symbol|start|end
}

// NewBuyHoldStore creates a new in-memory buy-and-hold store.
func NewBuyHoldStore() *BuyHoldStore {
	return &BuyHoldStore{
		data: make(map[string]*domain.BuyHoldRecord),
	}
}

// Compile-time interface check.
var _ storage.BuyHoldStore = (*BuyHoldStore)(nil)

func buyHoldKey(r *domain.BuyHoldRecord) string {
	return fmt.Sprintf("%s|%s|%s", r.Symbol, r.StartDate.Format(dateLayout), r.EndDate.Format(dateLayout))
}

// UpsertBulk persists records by natural key, replacing existing rows.
func (s *BuyHoldStore) UpsertBulk(_ context.Context, records []*domain.BuyHoldRecord) error {
	for _, r := range records {
		if r == nil || r.Symbol == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		// Store a copy to prevent external mutation
		recordCopy := *r
		s.data[buyHoldKey(r)] = &recordCopy
	}

	return nil
}

// buyHoldMetric extracts the ranking metric value from a record. The metric
// names match the Postgres column whitelist.
func buyHoldMetric(r *domain.BuyHoldRecord, metric string) (float64, bool) {
	switch metric {
	case "total_return_pct":
		return r.TotalReturnPct, true
	case "annualized_return_pct":
		return r.AnnualizedReturnPct, true
	case "volatility_pct":
		return r.VolatilityPct, true
	case "max_drawdown_pct":
		return r.MaxDrawdownPct, true
	case "sharpe_ratio":
		return r.SharpeRatio, true
	case "sortino_ratio":
		return r.SortinoRatio, true
	case "calmar_ratio":
		return r.CalmarRatio, true
	case "win_rate_pct":
		return r.WinRatePct, true
	default:
		return 0, false
	}
}

// Rank returns records ordered by the query metric.
func (s *BuyHoldStore) Rank(_ context.Context, q storage.RankQuery) ([]*domain.BuyHoldRecord, error) {
	if _, ok := buyHoldMetric(&domain.BuyHoldRecord{}, q.Metric); !ok {
		return nil, fmt.Errorf("%w: unknown rank metric %q", storage.ErrInvalidInput, q.Metric)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BuyHoldRecord
	for _, r := range s.data {
		if q.HoldingYears != 0 && r.HoldingYears != q.HoldingYears {
			continue
		}
		if q.Class != "" && r.AssetClass != q.Class {
			continue
		}
		recordCopy := *r
		result = append(result, &recordCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		vi, _ := buyHoldMetric(result[i], q.Metric)
		vj, _ := buyHoldMetric(result[j], q.Metric)
		if q.Ascending {
			return vi < vj
		}
		return vi > vj
	})

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}

	return result, nil
}

// BySymbol returns every window evaluated for a symbol, ordered by start date ASC.
func (s *BuyHoldStore) BySymbol(_ context.Context, symbol string) ([]*domain.BuyHoldRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BuyHoldRecord
	for _, r := range s.data {
		if r.Symbol != symbol {
			continue
		}
		recordCopy := *r
		result = append(result, &recordCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.Before(result[j].StartDate)
		}
		return result[i].EndDate.Before(result[j].EndDate)
	})

	return result, nil
}
