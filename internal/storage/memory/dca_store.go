package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

// DCAStore is an in-memory implementation of storage.DCAStore.
type DCAStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DCARecord // keyed by symbol|start|end|frequency
}

// NewDCAStore creates a new in-memory DCA store.
func NewDCAStore() *DCAStore {
	return &DCAStore{
		data: make(map[string]*domain.DCARecord),
	}
}

// Compile-time interface check.
var _ storage.DCAStore = (*DCAStore)(nil)

func dcaKey(r *domain.DCARecord) string {
	return fmt.Sprintf("%s|%s|%s|%s", r.Symbol, r.StartDate.Format(dateLayout), r.EndDate.Format(dateLayout), r.Frequency)
}

// UpsertBulk persists records by natural key, replacing existing rows.
func (s *DCAStore) UpsertBulk(_ context.Context, records []*domain.DCARecord) error {
	for _, r := range records {
		if r == nil || r.Symbol == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		recordCopy := *r
		s.data[dcaKey(r)] = &recordCopy
	}

	return nil
}

// dcaMetric extracts the ranking metric value from a record. The metric
// names match the Postgres column whitelist.
func dcaMetric(r *domain.DCARecord, metric string) (float64, bool) {
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
	case "dca_vs_lumpsum_diff":
		return r.DCAvsLumpsumDiff, true
	default:
		return 0, false
	}
}

// Rank returns records ordered by the query metric.
func (s *DCAStore) Rank(_ context.Context, q storage.RankQuery) ([]*domain.DCARecord, error) {
	if _, ok := dcaMetric(&domain.DCARecord{}, q.Metric); !ok {
		return nil, fmt.Errorf("%w: unknown rank metric %q", storage.ErrInvalidInput, q.Metric)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DCARecord
	for _, r := range s.data {
		if q.HoldingYears != 0 && r.HoldingYears != q.HoldingYears {
			continue
		}
		if q.Class != "" && r.AssetClass != q.Class {
			continue
		}
		if q.Frequency != "" && r.Frequency != q.Frequency {
			continue
		}
		recordCopy := *r
		result = append(result, &recordCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		vi, _ := dcaMetric(result[i], q.Metric)
		vj, _ := dcaMetric(result[j], q.Metric)
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

// BySymbol returns every simulation stored for a symbol, ordered by start
// date ASC, frequency ASC.
func (s *DCAStore) BySymbol(_ context.Context, symbol string) ([]*domain.DCARecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DCARecord
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
		if !result[i].EndDate.Equal(result[j].EndDate) {
			return result[i].EndDate.Before(result[j].EndDate)
		}
		return result[i].Frequency < result[j].Frequency
	})

	return result, nil
}
