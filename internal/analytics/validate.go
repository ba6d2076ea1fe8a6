package analytics

import (
	"errors"
	"fmt"
	"time"

	"asset-performance-lab/internal/domain"
)

// ErrInsufficientData marks a window the validator rejected. It is the
// expected, frequent outcome for assets that did not yet exist or stopped
// trading inside the window; callers count it as a skip, never an error.
var ErrInsufficientData = errors.New("insufficient data for window")

// Config carries the computation constants shared by both calculators.
type Config struct {
	RiskFreeRate      float64 // annualized, e.g. 0.02
	MinDataFraction   float64 // minimum observed/expected day ratio, e.g. 0.7
	SpanToleranceDays int     // slack on the expected first-to-last span, e.g. 10
}

// DefaultConfig mirrors the constants of the production runs.
func DefaultConfig() Config {
	return Config{
		RiskFreeRate:      0.02,
		MinDataFraction:   0.7,
		SpanToleranceDays: 10,
	}
}

// ValidateWindow decides whether a fetched series supports evaluating the
// window at all. Every check guards the same guarantee: an investor could
// have entered exactly on the start date and observed the asset trading
// through exactly the end date. Partial windows would silently bias CAGR
// and drawdown statistics, so they are rejected outright.
//
// Returns nil to accept, or an error wrapping ErrInsufficientData naming
// the failed check.
func (c Config) ValidateWindow(series []domain.PriceSample, start, end time.Time, holdingYears int) error {
	expectedDays := holdingYears * 365
	minRequired := int(float64(expectedDays) * c.MinDataFraction)

	if len(series) < minRequired {
		return fmt.Errorf("%w: %d samples, need %d", ErrInsufficientData, len(series), minRequired)
	}

	first := series[0].Date
	if !first.Equal(start) {
		return fmt.Errorf("%w: first sample %s, window starts %s",
			ErrInsufficientData, first.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	last := series[len(series)-1].Date
	if !last.Equal(end) {
		return fmt.Errorf("%w: last sample %s, window ends %s",
			ErrInsufficientData, last.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	actualDays := int(last.Sub(first).Hours() / 24)
	if actualDays < expectedDays-c.SpanToleranceDays {
		return fmt.Errorf("%w: span %d days, expected %d", ErrInsufficientData, actualDays, expectedDays)
	}

	return nil
}
