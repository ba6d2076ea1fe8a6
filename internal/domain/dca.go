package domain

import "time"

// DCARecord is the computed performance vector of one dollar-cost-averaging
// simulation over one evaluation window.
// Natural key: (Symbol, StartDate, EndDate, Frequency).
type DCARecord struct {
	Symbol       string
	AssetClass   AssetClass
	StartDate    time.Time
	EndDate      time.Time
	HoldingYears int
	Frequency    Frequency

	TotalInvested        float64
	NumberOfPurchases    int
	AveragePurchasePrice float64 // invested / units, the cost basis per unit
	TotalUnitsAcquired   float64
	FinalValue           float64

	TotalReturnPct      float64
	AnnualizedReturnPct float64

	MinPrice   float64
	MaxPrice   float64
	FinalPrice float64

	VolatilityPct       float64 // portfolio-value returns, 365-day convention
	MaxDrawdownPct      float64 // positive magnitude, portfolio value
	MaxDrawdownDate     time.Time
	MaxLossFromCostPct  float64 // signed, relative to the growing cost basis
	MaxLossFromCostDate time.Time

	SharpeRatio  float64
	SortinoRatio float64
	CalmarRatio  float64

	BestPurchasePrice  float64
	WorstPurchasePrice float64
	PriceVariancePct   float64 // spread between worst and best purchase

	LumpsumReturnPct  float64 // same capital deployed entirely on day one
	DCAvsLumpsumDiff  float64 // TotalReturnPct - LumpsumReturnPct
}
