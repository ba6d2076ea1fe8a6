package reporting

import (
	"context"
	"time"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/engine"
	"asset-performance-lab/internal/storage"
)

// defaultTopN caps each leaderboard section.
const defaultTopN = 10

// Generator produces reports from the stored performance records.
type Generator struct {
	buyHold storage.BuyHoldStore
	dca     storage.DCAStore

	// Years selects the holding periods reported, one section each.
	Years []int
	// Metric orders every section.
	Metric string
	// TopN caps section length.
	TopN int

	now func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(buyHold storage.BuyHoldStore, dca storage.DCAStore) *Generator {
	return &Generator{
		buyHold: buyHold,
		dca:     dca,
		Years:   []int{3, 5, 10},
		Metric:  "annualized_return_pct",
		TopN:    defaultTopN,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// FromRunResult folds one engine pass into a report row.
func FromRunResult(strategy, mode string, res *engine.RunResult) RunSummary {
	return RunSummary{
		Strategy: strategy,
		Mode:     mode,
		Assets:   res.Assets,
		Tasks:    res.Tasks,
		Computed: res.Computed,
		Skipped:  res.Skipped,
		Failed:   res.Failed,
		Written:  res.Written,
		Elapsed:  res.Elapsed,
	}
}

// Generate builds a report for the given runs plus current leaderboards.
func (g *Generator) Generate(ctx context.Context, runs []RunSummary) (*Report, error) {
	report := &Report{
		GeneratedAt: g.now(),
		Runs:        runs,
	}

	for _, years := range g.Years {
		section, err := g.buyHoldSection(ctx, years)
		if err != nil {
			return nil, err
		}
		report.Leaderboards = append(report.Leaderboards, section)

		section, err = g.dcaSection(ctx, years)
		if err != nil {
			return nil, err
		}
		report.Leaderboards = append(report.Leaderboards, section)
	}

	return report, nil
}

func (g *Generator) buyHoldSection(ctx context.Context, years int) (LeaderboardSection, error) {
	section := LeaderboardSection{
		Title:        formatTitle("Buy and Hold", years),
		Strategy:     "buy_and_hold",
		Metric:       g.Metric,
		HoldingYears: years,
	}

	records, err := g.buyHold.Rank(ctx, storage.RankQuery{
		Metric:       g.Metric,
		HoldingYears: years,
		Limit:        g.TopN,
	})
	if err != nil {
		return section, err
	}

	for i, rec := range records {
		section.Rows = append(section.Rows, LeaderboardRow{
			Rank:                i + 1,
			Symbol:              rec.Symbol,
			Class:               string(rec.AssetClass),
			StartDate:           rec.StartDate.Format(time.DateOnly),
			EndDate:             rec.EndDate.Format(time.DateOnly),
			AnnualizedReturnPct: rec.AnnualizedReturnPct,
			MaxDrawdownPct:      rec.MaxDrawdownPct,
			SharpeRatio:         rec.SharpeRatio,
		})
	}
	return section, nil
}

func (g *Generator) dcaSection(ctx context.Context, years int) (LeaderboardSection, error) {
	section := LeaderboardSection{
		Title:        formatTitle("DCA Monthly", years),
		Strategy:     "dca",
		Metric:       g.Metric,
		HoldingYears: years,
	}

	records, err := g.dca.Rank(ctx, storage.RankQuery{
		Metric:       g.Metric,
		HoldingYears: years,
		Frequency:    domain.FreqMonthly,
		Limit:        g.TopN,
	})
	if err != nil {
		return section, err
	}

	for i, rec := range records {
		section.Rows = append(section.Rows, LeaderboardRow{
			Rank:                i + 1,
			Symbol:              rec.Symbol,
			Class:               string(rec.AssetClass),
			StartDate:           rec.StartDate.Format(time.DateOnly),
			EndDate:             rec.EndDate.Format(time.DateOnly),
			AnnualizedReturnPct: rec.AnnualizedReturnPct,
			MaxDrawdownPct:      rec.MaxDrawdownPct,
			SharpeRatio:         rec.SharpeRatio,
		})
	}
	return section, nil
}
