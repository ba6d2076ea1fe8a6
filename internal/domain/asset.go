package domain

// AssetClass identifies which price universe an asset belongs to.
type AssetClass string

const (
	ClassCrypto    AssetClass = "crypto"
	ClassCommodity AssetClass = "commodity"
	ClassIndex     AssetClass = "index"
)

// AllAssetClasses lists every evaluated price universe.
var AllAssetClasses = []AssetClass{ClassCrypto, ClassCommodity, ClassIndex}

// Asset is a tradable instrument qualified for evaluation.
type Asset struct {
	Symbol string     // provider symbol, unique within its class
	Class  AssetClass // which price universe the symbol lives in
}

// AssetInfo is the catalog entry for one listed symbol.
type AssetInfo struct {
	Symbol   string
	Class    AssetClass
	Name     string
	Currency string // ISO code of the native quote currency
}

// Frequency is a DCA contribution cadence.
type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
)

// AllFrequencies lists every supported DCA cadence.
var AllFrequencies = []Frequency{FreqDaily, FreqWeekly, FreqMonthly}
