package analytics

import (
	"math"

	"asset-performance-lab/internal/domain"
)

// ComputeBuyHold calculates the full buy-and-hold performance vector for a
// validated series. The series must already have passed ValidateWindow for
// this window; insufficient data is signalled there, never here.
//
// The annualized return compounds over the declared holding period rather
// than the observed day count, tying the rate to the contractual window
// length even when the observed span differs within tolerance.
func ComputeBuyHold(win domain.EvaluationWindow, series []domain.PriceSample, cfg Config) *domain.BuyHoldRecord {
	prices := make([]float64, len(series))
	for i, s := range series {
		prices[i] = s.PriceUSD
	}

	startPrice := prices[0]
	endPrice := prices[len(prices)-1]
	minPrice, maxPrice := minMax(prices)

	totalReturnPct := (endPrice - startPrice) / startPrice * 100
	annualizedReturnPct := (math.Pow(endPrice/startPrice, 1/float64(win.HoldingYears)) - 1) * 100

	returns := dailyReturns(prices)
	volatilityPct := annualizedVolatility(returns) * 100
	downsideDev := downsideDeviation(returns)

	ddPct, ddIdx := maxDrawdown(prices)
	lossPct, lossIdx := maxLossFromEntry(prices, startPrice)

	positive, negative := 0, 0
	for _, r := range returns {
		if r > 0 {
			positive++
		} else if r < 0 {
			negative++
		}
	}
	winRatePct := 0.0
	if len(returns) > 0 {
		winRatePct = float64(positive) / float64(len(returns)) * 100
	}

	spanDays := int(win.End.Sub(win.Start).Hours() / 24)
	completenessPct := 0.0
	if spanDays > 0 {
		completenessPct = float64(len(series)) / float64(spanDays) * 100
	}

	return &domain.BuyHoldRecord{
		Symbol:       win.Asset.Symbol,
		AssetClass:   win.Asset.Class,
		StartDate:    win.Start,
		EndDate:      win.End,
		HoldingYears: win.HoldingYears,

		StartPrice: startPrice,
		EndPrice:   endPrice,
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,

		TotalReturnPct:      totalReturnPct,
		AnnualizedReturnPct: annualizedReturnPct,

		VolatilityPct:        volatilityPct,
		MaxDrawdownPct:       ddPct,
		MaxDrawdownDate:      series[ddIdx].Date,
		MaxLossFromEntryPct:  lossPct,
		MaxLossFromEntryDate: series[lossIdx].Date,

		SharpeRatio:  sharpeRatio(annualizedReturnPct, volatilityPct, cfg.RiskFreeRate),
		SortinoRatio: sortinoRatio(annualizedReturnPct, downsideDev, cfg.RiskFreeRate),
		CalmarRatio:  calmarRatio(annualizedReturnPct, ddPct),

		PositiveDays:        positive,
		NegativeDays:        negative,
		WinRatePct:          winRatePct,
		TotalTradingDays:    len(series),
		DataCompletenessPct: completenessPct,
	}
}
