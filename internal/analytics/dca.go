package analytics

import (
	"errors"
	"math"
	"time"

	"asset-performance-lab/internal/domain"
)

// ErrNoPurchases is returned when no scheduled date has an observable price,
// e.g. a malformed schedule or an asset with no overlap. Callers treat it
// exactly like a rejected window: a skip, not a failure.
var ErrNoPurchases = errors.New("no executable purchases in schedule")

type purchase struct {
	date     time.Time
	price    float64
	units    float64
	invested float64
}

// SimulateDCA runs a fixed-contribution purchase simulation against a
// validated series and computes the DCA performance vector.
//
// Scheduled dates absent from the series are silently skipped with no
// make-up purchase: a standing order simply does not execute on a day with
// no observable price. Volatility, drawdown and loss-from-cost are measured
// only over the active sub-series starting at the first purchase, since the
// portfolio value is trivially zero before it and would distort them.
func SimulateDCA(win domain.EvaluationWindow, freq domain.Frequency, series []domain.PriceSample, purchaseDates []time.Time, contribution float64, cfg Config) (*domain.DCARecord, error) {
	const day = "2006-01-02"

	priceByDate := make(map[string]float64, len(series))
	for _, s := range series {
		priceByDate[s.Date.Format(day)] = s.PriceUSD
	}

	var purchases []purchase
	totalInvested := 0.0
	totalUnits := 0.0
	for _, d := range purchaseDates {
		price, ok := priceByDate[d.Format(day)]
		if !ok {
			continue
		}
		units := contribution / price
		purchases = append(purchases, purchase{date: d, price: price, units: units, invested: contribution})
		totalInvested += contribution
		totalUnits += units
	}

	if len(purchases) == 0 {
		return nil, ErrNoPurchases
	}

	prices := make([]float64, len(series))
	for i, s := range series {
		prices[i] = s.PriceUSD
	}

	finalPrice := prices[len(prices)-1]
	finalValue := totalUnits * finalPrice
	averagePrice := totalInvested / totalUnits

	// Walk the series once, accumulating units and invested capital as
	// purchases come due. Purchases are in series order because the
	// schedule generator emits sorted dates.
	portfolioValues := make([]float64, len(series))
	costBasis := make([]float64, len(series))
	nextPurchase := 0
	unitsSoFar := 0.0
	investedSoFar := 0.0
	for i, s := range series {
		for nextPurchase < len(purchases) && !purchases[nextPurchase].date.After(s.Date) {
			unitsSoFar += purchases[nextPurchase].units
			investedSoFar += purchases[nextPurchase].invested
			nextPurchase++
		}
		portfolioValues[i] = unitsSoFar * prices[i]
		costBasis[i] = investedSoFar
	}

	firstActive := 0
	for i, pv := range portfolioValues {
		if pv > 0 {
			firstActive = i
			break
		}
	}
	active := portfolioValues[firstActive:]

	returns := finiteReturns(dailyReturns(active))
	volatilityPct := annualizedVolatility(returns) * 100
	downsideDev := downsideDeviation(returns)

	ddPct, ddIdx := maxDrawdown(active)
	maxDrawdownDate := series[firstActive+ddIdx].Date

	// Worst unrealized loss against the growing cost basis. The first
	// active sample always has a positive basis: a nonzero portfolio
	// value implies at least one executed purchase.
	maxLoss := (portfolioValues[firstActive] - costBasis[firstActive]) / costBasis[firstActive]
	maxLossDate := series[firstActive].Date
	for i := firstActive + 1; i < len(series); i++ {
		if costBasis[i] <= 0 {
			continue
		}
		loss := (portfolioValues[i] - costBasis[i]) / costBasis[i]
		if loss < maxLoss {
			maxLoss = loss
			maxLossDate = series[i].Date
		}
	}
	maxLossPct := maxLoss * 100

	bestPrice := purchases[0].price
	worstPrice := purchases[0].price
	for _, p := range purchases[1:] {
		if p.price < bestPrice {
			bestPrice = p.price
		}
		if p.price > worstPrice {
			worstPrice = p.price
		}
	}
	priceVariancePct := 0.0
	if bestPrice > 0 {
		priceVariancePct = (worstPrice - bestPrice) / bestPrice * 100
	}

	totalReturnPct := 0.0
	if totalInvested > 0 {
		totalReturnPct = (finalValue - totalInvested) / totalInvested * 100
	}

	// Lump-sum baseline: the same capital deployed entirely on day one.
	lumpsumUnits := totalInvested / prices[0]
	lumpsumFinal := lumpsumUnits * finalPrice
	lumpsumReturnPct := 0.0
	if totalInvested > 0 {
		lumpsumReturnPct = (lumpsumFinal - totalInvested) / totalInvested * 100
	}

	observedYears := series[len(series)-1].Date.Sub(series[0].Date).Hours() / 24 / 365
	annualizedReturnPct := 0.0
	if observedYears > 0 && totalInvested > 0 {
		annualizedReturnPct = (math.Pow(finalValue/totalInvested, 1/observedYears) - 1) * 100
	}

	minPrice, maxPrice := minMax(prices)

	return &domain.DCARecord{
		Symbol:       win.Asset.Symbol,
		AssetClass:   win.Asset.Class,
		StartDate:    win.Start,
		EndDate:      win.End,
		HoldingYears: win.HoldingYears,
		Frequency:    freq,

		TotalInvested:        totalInvested,
		NumberOfPurchases:    len(purchases),
		AveragePurchasePrice: averagePrice,
		TotalUnitsAcquired:   totalUnits,
		FinalValue:           finalValue,

		TotalReturnPct:      totalReturnPct,
		AnnualizedReturnPct: annualizedReturnPct,

		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		FinalPrice: finalPrice,

		VolatilityPct:       volatilityPct,
		MaxDrawdownPct:      ddPct,
		MaxDrawdownDate:     maxDrawdownDate,
		MaxLossFromCostPct:  maxLossPct,
		MaxLossFromCostDate: maxLossDate,

		SharpeRatio:  sharpeRatio(annualizedReturnPct, volatilityPct, cfg.RiskFreeRate),
		SortinoRatio: sortinoRatio(annualizedReturnPct, downsideDev, cfg.RiskFreeRate),
		CalmarRatio:  calmarRatio(annualizedReturnPct, ddPct),

		BestPurchasePrice:  bestPrice,
		WorstPurchasePrice: worstPrice,
		PriceVariancePct:   priceVariancePct,

		LumpsumReturnPct: lumpsumReturnPct,
		DCAvsLumpsumDiff: totalReturnPct - lumpsumReturnPct,
	}, nil
}
