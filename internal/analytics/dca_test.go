package analytics

import (
	"errors"
	"testing"
	"time"

	"asset-performance-lab/internal/domain"
)

func dates(start time.Time, count int) []time.Time {
	out := make([]time.Time, count)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func TestSimulateDCA_AccumulatesUnitsAtEachPrice(t *testing.T) {
	start := day(2020, time.January, 1)
	series := seriesOf(start, 10, 20, 5)
	win := window("TEST", start, start.AddDate(0, 0, 2), 1)

	rec, err := SimulateDCA(win, domain.FreqDaily, series, dates(start, 3), 100, DefaultConfig())
	if err != nil {
		t.Fatalf("SimulateDCA: %v", err)
	}

	if rec.NumberOfPurchases != 3 {
		t.Errorf("NumberOfPurchases = %d, want 3", rec.NumberOfPurchases)
	}
	within(t, "TotalInvested", rec.TotalInvested, 300, 1e-9)
	within(t, "TotalUnitsAcquired", rec.TotalUnitsAcquired, 35, 1e-9) // 10 + 5 + 20
	within(t, "AveragePurchasePrice", rec.AveragePurchasePrice, 300.0/35, 1e-9)
	within(t, "FinalValue", rec.FinalValue, 175, 1e-9) // 35 units at 5
	within(t, "TotalReturnPct", rec.TotalReturnPct, -125.0/3, 1e-9)

	if rec.BestPurchasePrice != 5 || rec.WorstPurchasePrice != 20 {
		t.Errorf("best/worst = %v/%v", rec.BestPurchasePrice, rec.WorstPurchasePrice)
	}
	within(t, "PriceVariancePct", rec.PriceVariancePct, 300, 1e-9)

	// Lump sum buys 30 units on day one and ends at 150.
	within(t, "LumpsumReturnPct", rec.LumpsumReturnPct, -50, 1e-9)
	within(t, "DCAvsLumpsumDiff", rec.DCAvsLumpsumDiff, -125.0/3+50, 1e-9)
}

func TestSimulateDCA_SinglePurchaseMatchesLumpsum(t *testing.T) {
	start := day(2020, time.January, 1)
	series := seriesOf(start, 10, 12, 8, 14)
	win := window("TEST", start, start.AddDate(0, 0, 3), 1)

	rec, err := SimulateDCA(win, domain.FreqMonthly, series, []time.Time{start}, 100, DefaultConfig())
	if err != nil {
		t.Fatalf("SimulateDCA: %v", err)
	}

	within(t, "TotalReturnPct", rec.TotalReturnPct, 40, 1e-9)
	within(t, "DCAvsLumpsumDiff", rec.DCAvsLumpsumDiff, 0, 1e-9)
}

func TestSimulateDCA_SkipsDatesWithoutPrices(t *testing.T) {
	start := day(2020, time.January, 1)
	series := seriesOf(start, 10, 20, 5)
	// Two scheduled dates fall outside the series.
	schedule := []time.Time{start, start.AddDate(0, 0, 10), start.AddDate(0, 0, 20)}
	win := window("TEST", start, start.AddDate(0, 0, 2), 1)

	rec, err := SimulateDCA(win, domain.FreqWeekly, series, schedule, 100, DefaultConfig())
	if err != nil {
		t.Fatalf("SimulateDCA: %v", err)
	}

	if rec.NumberOfPurchases != 1 {
		t.Errorf("NumberOfPurchases = %d, want 1", rec.NumberOfPurchases)
	}
	within(t, "TotalInvested", rec.TotalInvested, 100, 1e-9)
}

func TestSimulateDCA_NoExecutablePurchases(t *testing.T) {
	start := day(2020, time.January, 1)
	series := seriesOf(start, 10, 20, 5)
	schedule := []time.Time{start.AddDate(1, 0, 0)}
	win := window("TEST", start, start.AddDate(0, 0, 2), 1)

	_, err := SimulateDCA(win, domain.FreqMonthly, series, schedule, 100, DefaultConfig())
	if !errors.Is(err, ErrNoPurchases) {
		t.Fatalf("err = %v, want ErrNoPurchases", err)
	}
}

func TestSimulateDCA_MaxDrawdownOverPortfolioValue(t *testing.T) {
	start := day(2020, time.January, 1)
	// One purchase, then the price dips before recovering: the portfolio
	// value walks 100, 80, 120.
	series := seriesOf(start, 10, 8, 12)
	win := window("TEST", start, start.AddDate(0, 0, 2), 1)

	rec, err := SimulateDCA(win, domain.FreqMonthly, series, []time.Time{start}, 100, DefaultConfig())
	if err != nil {
		t.Fatalf("SimulateDCA: %v", err)
	}

	within(t, "MaxDrawdownPct", rec.MaxDrawdownPct, 20, 1e-9)
	if !rec.MaxDrawdownDate.Equal(start.AddDate(0, 0, 1)) {
		t.Errorf("MaxDrawdownDate = %v", rec.MaxDrawdownDate)
	}
	within(t, "MaxLossFromCostPct", rec.MaxLossFromCostPct, -20, 1e-9)
	if !rec.MaxLossFromCostDate.Equal(start.AddDate(0, 0, 1)) {
		t.Errorf("MaxLossFromCostDate = %v", rec.MaxLossFromCostDate)
	}
}
