package analytics

import (
	"errors"
	"testing"
	"time"

	"asset-performance-lab/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dailySeries builds a gap-free daily series of count samples from start.
func dailySeries(start time.Time, count int, price func(i int) float64) []domain.PriceSample {
	series := make([]domain.PriceSample, count)
	for i := range series {
		series[i] = domain.PriceSample{Date: start.AddDate(0, 0, i), PriceUSD: price(i)}
	}
	return series
}

func flat(v float64) func(int) float64 {
	return func(int) float64 { return v }
}

func TestValidateWindow_AcceptsCompleteSeries(t *testing.T) {
	start := day(2020, time.January, 1)
	end := day(2021, time.January, 1)
	series := dailySeries(start, 367, flat(100)) // leap year span + inclusive end

	if err := DefaultConfig().ValidateWindow(series, start, end, 1); err != nil {
		t.Fatalf("ValidateWindow: %v", err)
	}
}

func TestValidateWindow_RejectsTooFewSamples(t *testing.T) {
	start := day(2020, time.January, 1)
	end := day(2021, time.January, 1)
	series := dailySeries(start, 200, flat(100)) // below the 0.7 * 365 floor

	err := DefaultConfig().ValidateWindow(series, start, end, 1)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestValidateWindow_RejectsLateFirstSample(t *testing.T) {
	start := day(2020, time.January, 1)
	end := day(2021, time.January, 1)
	series := dailySeries(start.AddDate(0, 0, 1), 366, flat(100))

	err := DefaultConfig().ValidateWindow(series, start, end, 1)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestValidateWindow_RejectsEarlyLastSample(t *testing.T) {
	start := day(2020, time.January, 1)
	end := day(2021, time.January, 1)
	series := dailySeries(start, 360, flat(100)) // ends days before the window does

	err := DefaultConfig().ValidateWindow(series, start, end, 1)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}
