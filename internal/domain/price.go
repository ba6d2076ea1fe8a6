package domain

import "time"

// PriceSample is one USD-normalized daily close.
// Series are gap-free within an asset's observed range: ingestion forward-fills
// non-trading days so every calendar day carries exactly one sample.
type PriceSample struct {
	Date     time.Time // calendar date, UTC midnight
	PriceUSD float64   // positive, USD-normalized close
}

// RawPrice is a provider bar before USD normalization.
// PriceUSD is nil until the normalization pass resolves it.
type RawPrice struct {
	Symbol   string
	Date     time.Time
	Price    float64  // native-currency close
	Volume   float64  // 0 for forward-filled rows
	PriceUSD *float64 // set by normalization
}

// ForexRate is one daily FX close used to normalize native prices to USD.
type ForexRate struct {
	Currency string    // ISO code of the native currency, e.g. "EUR"
	Date     time.Time // calendar date, UTC midnight
	Rate     float64   // USD per one unit of Currency
}
