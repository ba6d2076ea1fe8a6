// Package analytics computes performance statistics over validated daily
// price series: the buy-and-hold metric vector, the DCA purchase simulation,
// and the shared window-validation gate in front of both.
package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// tradingDaysPerYear is 365 rather than 252: series are forward-filled to
// include non-trading days so every asset class annualizes the same way.
const tradingDaysPerYear = 365

// dailyReturns computes simple day-over-day returns: r[i] = (p[i+1]-p[i])/p[i].
func dailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	return returns
}

// finiteReturns drops NaN and Inf samples, which arise from zero or
// near-zero denominators in portfolio-value return series.
func finiteReturns(returns []float64) []float64 {
	out := make([]float64, 0, len(returns))
	for _, r := range returns {
		if !math.IsNaN(r) && !math.IsInf(r, 0) {
			out = append(out, r)
		}
	}
	return out
}

// annualizedVolatility is the sample standard deviation of daily returns
// scaled by sqrt(365). Returns 0 for fewer than 2 samples.
func annualizedVolatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * math.Sqrt(tradingDaysPerYear)
}

// downsideDeviation is the sample standard deviation of the strictly
// negative returns, annualized. Returns 0 when fewer than 2 samples are
// negative, since a sample deviation is undefined there.
func downsideDeviation(returns []float64) float64 {
	var negative []float64
	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	if len(negative) < 2 {
		return 0
	}
	return stat.StdDev(negative, nil) * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown tracks a running peak and returns the most negative
// peak-relative decline as a positive percentage, with the index where it
// occurred. Ties keep the first occurrence.
func maxDrawdown(values []float64) (pct float64, idx int) {
	if len(values) < 2 {
		return 0, 0
	}

	peak := values[0]
	maxDD := 0.0
	maxIdx := 0

	for i, v := range values {
		if v > peak {
			peak = v
		}
		dd := (v - peak) / peak
		if dd < maxDD {
			maxDD = dd
			maxIdx = i
		}
	}

	return math.Abs(maxDD * 100), maxIdx
}

// maxLossFromEntry finds the minimum price relative to the entry price.
// Unlike drawdown this measures pain against the investor's actual cost,
// not against any interim peak. The returned percentage is signed (<= 0
// whenever the series ever trades below entry).
func maxLossFromEntry(prices []float64, entry float64) (pct float64, idx int) {
	if len(prices) == 0 {
		return 0, 0
	}

	minPrice := prices[0]
	minIdx := 0
	for i, p := range prices {
		if p < minPrice {
			minPrice = p
			minIdx = i
		}
	}

	return (minPrice - entry) / entry * 100, minIdx
}

// Ratio denominators of exactly 0 resolve to 0 rather than NaN so that
// downstream ranking stays stable.

func sharpeRatio(annualizedReturnPct, volatilityPct, riskFreeRate float64) float64 {
	if volatilityPct == 0 {
		return 0
	}
	return (annualizedReturnPct/100 - riskFreeRate) / (volatilityPct / 100)
}

func sortinoRatio(annualizedReturnPct, downsideDev, riskFreeRate float64) float64 {
	if downsideDev == 0 {
		return 0
	}
	return (annualizedReturnPct/100 - riskFreeRate) / downsideDev
}

func calmarRatio(annualizedReturnPct, maxDrawdownPct float64) float64 {
	if maxDrawdownPct == 0 {
		return 0
	}
	return (annualizedReturnPct / 100) / (maxDrawdownPct / 100)
}

func minMax(values []float64) (min, max float64) {
	if len(values) == 0 {
		return 0, 0
	}
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
