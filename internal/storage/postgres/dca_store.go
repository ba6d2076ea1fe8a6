package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

// DCAStore implements storage.DCAStore using PostgreSQL.
type DCAStore struct {
	pool *Pool
}

// NewDCAStore creates a new DCAStore.
func NewDCAStore(pool *Pool) *DCAStore {
	return &DCAStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DCAStore = (*DCAStore)(nil)

const dcaColumns = `
	symbol, asset_type, start_date, end_date, holding_period_years, dca_frequency,
	total_invested, number_of_purchases, average_purchase_price,
	total_units_acquired, final_value,
	total_return_pct, annualized_return_pct,
	min_price, max_price, final_price,
	volatility_pct, max_drawdown_pct, max_drawdown_date,
	max_loss_from_cost_pct, max_loss_from_cost_date,
	sharpe_ratio, sortino_ratio, calmar_ratio,
	best_purchase_price, worst_purchase_price, price_variance_pct,
	lumpsum_return_pct, dca_vs_lumpsum_diff
`

// dcaMetrics whitelists the columns a Rank query may order by.
var dcaMetrics = map[string]bool{
	"total_return_pct":      true,
	"annualized_return_pct": true,
	"volatility_pct":        true,
	"max_drawdown_pct":      true,
	"sharpe_ratio":          true,
	"sortino_ratio":         true,
	"calmar_ratio":          true,
	"dca_vs_lumpsum_diff":   true,
}

// UpsertBulk persists records by natural key (symbol, start, end,
// frequency), updating only derived metric fields on conflict.
func (s *DCAStore) UpsertBulk(ctx context.Context, records []*domain.DCARecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO asset_performance_dca (` + dcaColumns + `)
		VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11,
			$12, $13,
			$14, $15, $16,
			$17, $18, $19,
			$20, $21,
			$22, $23, $24,
			$25, $26, $27,
			$28, $29
		)
		ON CONFLICT (symbol, start_date, end_date, dca_frequency) DO UPDATE SET
			total_invested = EXCLUDED.total_invested,
			number_of_purchases = EXCLUDED.number_of_purchases,
			average_purchase_price = EXCLUDED.average_purchase_price,
			total_units_acquired = EXCLUDED.total_units_acquired,
			final_value = EXCLUDED.final_value,
			total_return_pct = EXCLUDED.total_return_pct,
			annualized_return_pct = EXCLUDED.annualized_return_pct,
			final_price = EXCLUDED.final_price,
			volatility_pct = EXCLUDED.volatility_pct,
			max_drawdown_pct = EXCLUDED.max_drawdown_pct,
			max_drawdown_date = EXCLUDED.max_drawdown_date,
			max_loss_from_cost_pct = EXCLUDED.max_loss_from_cost_pct,
			max_loss_from_cost_date = EXCLUDED.max_loss_from_cost_date,
			sharpe_ratio = EXCLUDED.sharpe_ratio,
			sortino_ratio = EXCLUDED.sortino_ratio,
			calmar_ratio = EXCLUDED.calmar_ratio,
			best_purchase_price = EXCLUDED.best_purchase_price,
			worst_purchase_price = EXCLUDED.worst_purchase_price,
			price_variance_pct = EXCLUDED.price_variance_pct,
			lumpsum_return_pct = EXCLUDED.lumpsum_return_pct,
			dca_vs_lumpsum_diff = EXCLUDED.dca_vs_lumpsum_diff,
			updated_at = CURRENT_TIMESTAMP
	`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		_, err := tx.Exec(ctx, query,
			r.Symbol, r.AssetClass, r.StartDate, r.EndDate, r.HoldingYears, r.Frequency,
			r.TotalInvested, r.NumberOfPurchases, r.AveragePurchasePrice,
			r.TotalUnitsAcquired, r.FinalValue,
			r.TotalReturnPct, r.AnnualizedReturnPct,
			r.MinPrice, r.MaxPrice, r.FinalPrice,
			r.VolatilityPct, r.MaxDrawdownPct, r.MaxDrawdownDate,
			r.MaxLossFromCostPct, r.MaxLossFromCostDate,
			r.SharpeRatio, r.SortinoRatio, r.CalmarRatio,
			r.BestPurchasePrice, r.WorstPurchasePrice, r.PriceVariancePct,
			r.LumpsumReturnPct, r.DCAvsLumpsumDiff,
		)
		if err != nil {
			return fmt.Errorf("upsert dca record: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Rank returns records ordered by the query metric.
func (s *DCAStore) Rank(ctx context.Context, q storage.RankQuery) ([]*domain.DCARecord, error) {
	if !dcaMetrics[q.Metric] {
		return nil, fmt.Errorf("%w: unknown metric %q", storage.ErrInvalidInput, q.Metric)
	}

	direction := "DESC"
	if q.Ascending {
		direction = "ASC"
	}

	query := `SELECT ` + dcaColumns + ` FROM asset_performance_dca WHERE TRUE`
	var args []any

	if q.HoldingYears > 0 {
		args = append(args, q.HoldingYears)
		query += fmt.Sprintf(" AND holding_period_years = $%d", len(args))
	}
	if q.Class != "" {
		args = append(args, q.Class)
		query += fmt.Sprintf(" AND asset_type = $%d", len(args))
	}
	if q.Frequency != "" {
		args = append(args, q.Frequency)
		query += fmt.Sprintf(" AND dca_frequency = $%d", len(args))
	}

	query += fmt.Sprintf(" ORDER BY %s %s", q.Metric, direction)

	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("rank dca records: %w", err)
	}
	defer rows.Close()

	return scanDCARecords(rows)
}

// BySymbol returns every simulation stored for a symbol.
func (s *DCAStore) BySymbol(ctx context.Context, symbol string) ([]*domain.DCARecord, error) {
	query := `
		SELECT ` + dcaColumns + `
		FROM asset_performance_dca
		WHERE symbol = $1
		ORDER BY start_date ASC, end_date ASC, dca_frequency ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get dca records by symbol: %w", err)
	}
	defer rows.Close()

	return scanDCARecords(rows)
}

// scanDCARecords scans rows into records.
func scanDCARecords(rows pgx.Rows) ([]*domain.DCARecord, error) {
	var records []*domain.DCARecord

	for rows.Next() {
		var r domain.DCARecord
		err := rows.Scan(
			&r.Symbol, &r.AssetClass, &r.StartDate, &r.EndDate, &r.HoldingYears, &r.Frequency,
			&r.TotalInvested, &r.NumberOfPurchases, &r.AveragePurchasePrice,
			&r.TotalUnitsAcquired, &r.FinalValue,
			&r.TotalReturnPct, &r.AnnualizedReturnPct,
			&r.MinPrice, &r.MaxPrice, &r.FinalPrice,
			&r.VolatilityPct, &r.MaxDrawdownPct, &r.MaxDrawdownDate,
			&r.MaxLossFromCostPct, &r.MaxLossFromCostDate,
			&r.SharpeRatio, &r.SortinoRatio, &r.CalmarRatio,
			&r.BestPurchasePrice, &r.WorstPurchasePrice, &r.PriceVariancePct,
			&r.LumpsumReturnPct, &r.DCAvsLumpsumDiff,
		)
		if err != nil {
			return nil, fmt.Errorf("scan dca row: %w", err)
		}
		r.StartDate = r.StartDate.UTC()
		r.EndDate = r.EndDate.UTC()
		r.MaxDrawdownDate = r.MaxDrawdownDate.UTC()
		r.MaxLossFromCostDate = r.MaxLossFromCostDate.UTC()
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dca rows: %w", err)
	}

	return records, nil
}
