package ingest

import (
	"context"
	"fmt"
	"time"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

// ForwardFill creates bars for the calendar days a symbol is missing,
// carrying the last known price forward. Filled bars get volume 0 to stay
// distinguishable from observed trades. With extendToToday the fill runs
// past the last observed bar up to today (the daily-update mode); otherwise
// only interior gaps are filled.
func ForwardFill(ctx context.Context, writer storage.PriceWriter, class domain.AssetClass, symbol string, extendToToday bool, today time.Time) (int, error) {
	series, err := writer.NativeSeries(ctx, class, symbol)
	if err != nil {
		return 0, fmt.Errorf("load native series for %s: %w", symbol, err)
	}
	if len(series) == 0 {
		return 0, nil
	}

	last := series[len(series)-1].Date
	end := last
	if extendToToday {
		end = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	}

	existing := make(map[string]struct{}, len(series))
	for _, bar := range series {
		existing[bar.Date.Format("2006-01-02")] = struct{}{}
	}

	var filled []*domain.RawPrice
	idx := 0
	lastPrice := series[0].Price
	for d := series[0].Date; !d.After(end); d = d.AddDate(0, 0, 1) {
		// Advance the carry price past every observed bar on or before d.
		for idx < len(series) && !series[idx].Date.After(d) {
			lastPrice = series[idx].Price
			idx++
		}
		if _, ok := existing[d.Format("2006-01-02")]; ok {
			continue
		}
		filled = append(filled, &domain.RawPrice{
			Symbol: symbol,
			Date:   d,
			Price:  lastPrice,
			Volume: 0,
		})
	}

	if len(filled) == 0 {
		return 0, nil
	}
	if err := writer.UpsertBulk(ctx, class, filled); err != nil {
		return 0, fmt.Errorf("insert filled bars for %s: %w", symbol, err)
	}

	return len(filled), nil
}
