package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

// BuyHoldStore implements storage.BuyHoldStore using PostgreSQL.
type BuyHoldStore struct {
	pool *Pool
}

// NewBuyHoldStore creates a new BuyHoldStore.
func NewBuyHoldStore(pool *Pool) *BuyHoldStore {
	return &BuyHoldStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BuyHoldStore = (*BuyHoldStore)(nil)

const buyHoldColumns = `
	symbol, asset_type, start_date, end_date, holding_period_years,
	start_price, end_price, min_price, max_price,
	total_return_pct, annualized_return_pct, volatility_pct,
	max_drawdown_pct, max_drawdown_date,
	max_loss_from_entry_pct, max_loss_from_entry_date,
	sharpe_ratio, sortino_ratio, calmar_ratio,
	positive_days, negative_days, win_rate_pct,
	total_trading_days, data_completeness_pct
`

// buyHoldMetrics whitelists the columns a Rank query may order by.
var buyHoldMetrics = map[string]bool{
	"total_return_pct":      true,
	"annualized_return_pct": true,
	"volatility_pct":        true,
	"max_drawdown_pct":      true,
	"sharpe_ratio":          true,
	"sortino_ratio":         true,
	"calmar_ratio":          true,
	"win_rate_pct":          true,
}

// UpsertBulk persists records by natural key, updating only derived metric
// fields on conflict. Identity fields are never touched by the update.
func (s *BuyHoldStore) UpsertBulk(ctx context.Context, records []*domain.BuyHoldRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO asset_performance_buy_and_hold (` + buyHoldColumns + `)
		VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			$13, $14,
			$15, $16,
			$17, $18, $19,
			$20, $21, $22,
			$23, $24
		)
		ON CONFLICT (symbol, start_date, end_date) DO UPDATE SET
			total_return_pct = EXCLUDED.total_return_pct,
			annualized_return_pct = EXCLUDED.annualized_return_pct,
			volatility_pct = EXCLUDED.volatility_pct,
			max_drawdown_pct = EXCLUDED.max_drawdown_pct,
			max_drawdown_date = EXCLUDED.max_drawdown_date,
			max_loss_from_entry_pct = EXCLUDED.max_loss_from_entry_pct,
			max_loss_from_entry_date = EXCLUDED.max_loss_from_entry_date,
			sharpe_ratio = EXCLUDED.sharpe_ratio,
			sortino_ratio = EXCLUDED.sortino_ratio,
			calmar_ratio = EXCLUDED.calmar_ratio,
			positive_days = EXCLUDED.positive_days,
			negative_days = EXCLUDED.negative_days,
			win_rate_pct = EXCLUDED.win_rate_pct,
			total_trading_days = EXCLUDED.total_trading_days,
			data_completeness_pct = EXCLUDED.data_completeness_pct,
			updated_at = CURRENT_TIMESTAMP
	`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		_, err := tx.Exec(ctx, query,
			r.Symbol, r.AssetClass, r.StartDate, r.EndDate, r.HoldingYears,
			r.StartPrice, r.EndPrice, r.MinPrice, r.MaxPrice,
			r.TotalReturnPct, r.AnnualizedReturnPct, r.VolatilityPct,
			r.MaxDrawdownPct, r.MaxDrawdownDate,
			r.MaxLossFromEntryPct, r.MaxLossFromEntryDate,
			r.SharpeRatio, r.SortinoRatio, r.CalmarRatio,
			r.PositiveDays, r.NegativeDays, r.WinRatePct,
			r.TotalTradingDays, r.DataCompletenessPct,
		)
		if err != nil {
			return fmt.Errorf("upsert buy-and-hold record: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Rank returns records ordered by the query metric.
func (s *BuyHoldStore) Rank(ctx context.Context, q storage.RankQuery) ([]*domain.BuyHoldRecord, error) {
	if !buyHoldMetrics[q.Metric] {
		return nil, fmt.Errorf("%w: unknown metric %q", storage.ErrInvalidInput, q.Metric)
	}

	direction := "DESC"
	if q.Ascending {
		direction = "ASC"
	}

	query := `SELECT ` + buyHoldColumns + ` FROM asset_performance_buy_and_hold WHERE TRUE`
	var args []any

	if q.HoldingYears > 0 {
		args = append(args, q.HoldingYears)
		query += fmt.Sprintf(" AND holding_period_years = $%d", len(args))
	}
	if q.Class != "" {
		args = append(args, q.Class)
		query += fmt.Sprintf(" AND asset_type = $%d", len(args))
	}

	query += fmt.Sprintf(" ORDER BY %s %s", q.Metric, direction)

	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("rank buy-and-hold records: %w", err)
	}
	defer rows.Close()

	return scanBuyHoldRecords(rows)
}

// BySymbol returns every window evaluated for a symbol, ordered by start
// date ASC.
func (s *BuyHoldStore) BySymbol(ctx context.Context, symbol string) ([]*domain.BuyHoldRecord, error) {
	query := `
		SELECT ` + buyHoldColumns + `
		FROM asset_performance_buy_and_hold
		WHERE symbol = $1
		ORDER BY start_date ASC, end_date ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get buy-and-hold records by symbol: %w", err)
	}
	defer rows.Close()

	return scanBuyHoldRecords(rows)
}

// scanBuyHoldRecords scans rows into records.
func scanBuyHoldRecords(rows pgx.Rows) ([]*domain.BuyHoldRecord, error) {
	var records []*domain.BuyHoldRecord

	for rows.Next() {
		var r domain.BuyHoldRecord
		err := rows.Scan(
			&r.Symbol, &r.AssetClass, &r.StartDate, &r.EndDate, &r.HoldingYears,
			&r.StartPrice, &r.EndPrice, &r.MinPrice, &r.MaxPrice,
			&r.TotalReturnPct, &r.AnnualizedReturnPct, &r.VolatilityPct,
			&r.MaxDrawdownPct, &r.MaxDrawdownDate,
			&r.MaxLossFromEntryPct, &r.MaxLossFromEntryDate,
			&r.SharpeRatio, &r.SortinoRatio, &r.CalmarRatio,
			&r.PositiveDays, &r.NegativeDays, &r.WinRatePct,
			&r.TotalTradingDays, &r.DataCompletenessPct,
		)
		if err != nil {
			return nil, fmt.Errorf("scan buy-and-hold row: %w", err)
		}
		r.StartDate = r.StartDate.UTC()
		r.EndDate = r.EndDate.UTC()
		r.MaxDrawdownDate = r.MaxDrawdownDate.UTC()
		r.MaxLossFromEntryDate = r.MaxLossFromEntryDate.UTC()
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buy-and-hold rows: %w", err)
	}

	return records, nil
}
