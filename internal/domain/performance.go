package domain

import "time"

// BuyHoldRecord is the computed performance vector of one lump-sum position
// held over one evaluation window. Natural key: (Symbol, StartDate, EndDate).
// Identity fields never change after first insert; recomputation overwrites
// derived fields only, via upsert.
type BuyHoldRecord struct {
	Symbol            string
	AssetClass        AssetClass
	StartDate         time.Time
	EndDate           time.Time
	HoldingYears      int

	StartPrice float64
	EndPrice   float64
	MinPrice   float64
	MaxPrice   float64

	TotalReturnPct      float64
	AnnualizedReturnPct float64 // CAGR over the declared holding period

	VolatilityPct        float64 // annualized, 365-day convention
	MaxDrawdownPct       float64 // positive magnitude
	MaxDrawdownDate      time.Time
	MaxLossFromEntryPct  float64 // signed, relative to entry price
	MaxLossFromEntryDate time.Time

	SharpeRatio  float64
	SortinoRatio float64
	CalmarRatio  float64

	PositiveDays        int
	NegativeDays        int
	WinRatePct          float64
	TotalTradingDays    int
	DataCompletenessPct float64
}
