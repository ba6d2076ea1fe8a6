package analytics

import (
	"math"
	"testing"
	"time"

	"asset-performance-lab/internal/domain"
)

func within(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func seriesOf(start time.Time, prices ...float64) []domain.PriceSample {
	series := make([]domain.PriceSample, len(prices))
	for i, p := range prices {
		series[i] = domain.PriceSample{Date: start.AddDate(0, 0, i), PriceUSD: p}
	}
	return series
}

func window(symbol string, start, end time.Time, years int) domain.EvaluationWindow {
	return domain.EvaluationWindow{
		Asset:        domain.Asset{Symbol: symbol, Class: domain.ClassCrypto},
		Start:        start,
		End:          end,
		HoldingYears: years,
	}
}

func TestComputeBuyHold_ReturnsAndDrawdown(t *testing.T) {
	start := day(2020, time.January, 1)
	series := seriesOf(start, 100, 110, 90, 120)
	win := window("TEST", start, start.AddDate(0, 0, 3), 1)

	rec := ComputeBuyHold(win, series, DefaultConfig())

	within(t, "TotalReturnPct", rec.TotalReturnPct, 20.0, 1e-9)
	within(t, "AnnualizedReturnPct", rec.AnnualizedReturnPct, 20.0, 1e-9)
	if rec.StartPrice != 100 || rec.EndPrice != 120 {
		t.Errorf("prices = %v..%v", rec.StartPrice, rec.EndPrice)
	}
	if rec.MinPrice != 90 || rec.MaxPrice != 120 {
		t.Errorf("min/max = %v/%v", rec.MinPrice, rec.MaxPrice)
	}

	// The 110 -> 90 drop is the deepest peak decline.
	within(t, "MaxDrawdownPct", rec.MaxDrawdownPct, 100*20.0/110, 1e-9)
	if !rec.MaxDrawdownDate.Equal(start.AddDate(0, 0, 2)) {
		t.Errorf("MaxDrawdownDate = %v", rec.MaxDrawdownDate)
	}

	// Loss is measured against the entry price, not the interim peak.
	within(t, "MaxLossFromEntryPct", rec.MaxLossFromEntryPct, -10.0, 1e-9)
	if !rec.MaxLossFromEntryDate.Equal(start.AddDate(0, 0, 2)) {
		t.Errorf("MaxLossFromEntryDate = %v", rec.MaxLossFromEntryDate)
	}

	if rec.PositiveDays != 2 || rec.NegativeDays != 1 {
		t.Errorf("positive/negative = %d/%d", rec.PositiveDays, rec.NegativeDays)
	}
	within(t, "WinRatePct", rec.WinRatePct, 200.0/3, 1e-9)
	if rec.TotalTradingDays != 4 {
		t.Errorf("TotalTradingDays = %d", rec.TotalTradingDays)
	}
}

func TestComputeBuyHold_AnnualizedCompoundsOverHoldingPeriod(t *testing.T) {
	start := day(2020, time.January, 1)
	series := seriesOf(start, 100, 150, 200)
	win := window("TEST", start, start.AddDate(3, 0, 0), 3)

	rec := ComputeBuyHold(win, series, DefaultConfig())

	// 100 -> 200 over a declared 3-year period: 2^(1/3) - 1.
	want := (math.Pow(2, 1.0/3) - 1) * 100
	within(t, "AnnualizedReturnPct", rec.AnnualizedReturnPct, want, 1e-9)
}

func TestComputeBuyHold_MonotonicSeriesHasZeroDrawdown(t *testing.T) {
	start := day(2020, time.January, 1)
	series := seriesOf(start, 100, 105, 111, 118)
	win := window("TEST", start, start.AddDate(0, 0, 3), 1)

	rec := ComputeBuyHold(win, series, DefaultConfig())

	if rec.MaxDrawdownPct != 0 {
		t.Errorf("MaxDrawdownPct = %v, want 0", rec.MaxDrawdownPct)
	}
	if rec.MaxLossFromEntryPct != 0 {
		t.Errorf("MaxLossFromEntryPct = %v, want 0", rec.MaxLossFromEntryPct)
	}
	// Zero drawdown means the Calmar denominator vanishes.
	if rec.CalmarRatio != 0 {
		t.Errorf("CalmarRatio = %v, want 0", rec.CalmarRatio)
	}
}

func TestComputeBuyHold_FlatSeriesHasZeroRatios(t *testing.T) {
	start := day(2020, time.January, 1)
	series := seriesOf(start, 100, 100, 100, 100)
	win := window("TEST", start, start.AddDate(0, 0, 3), 1)

	rec := ComputeBuyHold(win, series, DefaultConfig())

	if rec.VolatilityPct != 0 {
		t.Errorf("VolatilityPct = %v, want 0", rec.VolatilityPct)
	}
	if rec.SharpeRatio != 0 || rec.SortinoRatio != 0 || rec.CalmarRatio != 0 {
		t.Errorf("ratios = %v/%v/%v, want all 0",
			rec.SharpeRatio, rec.SortinoRatio, rec.CalmarRatio)
	}
	if rec.WinRatePct != 0 {
		t.Errorf("WinRatePct = %v, want 0", rec.WinRatePct)
	}
}
