package ingest

import (
	"context"
	"testing"
	"time"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestForwardFill_InteriorGaps(t *testing.T) {
	store := memory.NewPriceStore()
	ctx := context.Background()

	// Jan 2 and Jan 3 missing; Jan 5 onward missing too, but initial
	// fill stops at the last observed bar.
	bars := []*domain.RawPrice{
		{Symbol: "GCUSD", Date: day(2020, 1, 1), Price: 1500, Volume: 10},
		{Symbol: "GCUSD", Date: day(2020, 1, 4), Price: 1520, Volume: 12},
	}
	if err := store.UpsertBulk(ctx, domain.ClassCommodity, bars); err != nil {
		t.Fatalf("seed: %v", err)
	}

	filled, err := ForwardFill(ctx, store, domain.ClassCommodity, "GCUSD", false, day(2020, 1, 10))
	if err != nil {
		t.Fatalf("ForwardFill failed: %v", err)
	}
	if filled != 2 {
		t.Fatalf("Expected 2 filled days, got %d", filled)
	}

	series, err := store.NativeSeries(ctx, domain.ClassCommodity, "GCUSD")
	if err != nil {
		t.Fatalf("NativeSeries failed: %v", err)
	}
	if len(series) != 4 {
		t.Fatalf("Expected 4 bars after fill, got %d", len(series))
	}
	// Jan 2 and 3 carry Jan 1's price with volume 0.
	if series[1].Price != 1500 || series[1].Volume != 0 {
		t.Errorf("Unexpected filled bar: %+v", series[1])
	}
	if series[2].Price != 1500 || series[2].Volume != 0 {
		t.Errorf("Unexpected filled bar: %+v", series[2])
	}
	// The observed Jan 4 bar is untouched.
	if series[3].Price != 1520 || series[3].Volume != 12 {
		t.Errorf("Observed bar modified: %+v", series[3])
	}
}

func TestForwardFill_ExtendToToday(t *testing.T) {
	store := memory.NewPriceStore()
	ctx := context.Background()

	bars := []*domain.RawPrice{
		{Symbol: "GCUSD", Date: day(2020, 1, 1), Price: 1500, Volume: 10},
	}
	if err := store.UpsertBulk(ctx, domain.ClassCommodity, bars); err != nil {
		t.Fatalf("seed: %v", err)
	}

	filled, err := ForwardFill(ctx, store, domain.ClassCommodity, "GCUSD", true, day(2020, 1, 4))
	if err != nil {
		t.Fatalf("ForwardFill failed: %v", err)
	}
	if filled != 3 {
		t.Fatalf("Expected fill through today, got %d filled", filled)
	}

	series, _ := store.NativeSeries(ctx, domain.ClassCommodity, "GCUSD")
	if len(series) != 4 {
		t.Fatalf("Expected 4 bars, got %d", len(series))
	}
	last := series[len(series)-1]
	if !last.Date.Equal(day(2020, 1, 4)) || last.Price != 1500 {
		t.Errorf("Unexpected last bar: %+v", last)
	}
}

func TestForwardFill_NoDataIsNoop(t *testing.T) {
	store := memory.NewPriceStore()

	filled, err := ForwardFill(context.Background(), store, domain.ClassCrypto, "NONE", true, day(2020, 1, 1))
	if err != nil {
		t.Fatalf("ForwardFill failed: %v", err)
	}
	if filled != 0 {
		t.Errorf("Expected no fills for unknown symbol, got %d", filled)
	}
}

func TestForwardFill_GapFreeSeriesIsNoop(t *testing.T) {
	store := memory.NewPriceStore()
	ctx := context.Background()

	var bars []*domain.RawPrice
	for i := 0; i < 5; i++ {
		bars = append(bars, &domain.RawPrice{
			Symbol: "BTCUSD", Date: day(2020, 1, 1+i), Price: 100, Volume: 1,
		})
	}
	if err := store.UpsertBulk(ctx, domain.ClassCrypto, bars); err != nil {
		t.Fatalf("seed: %v", err)
	}

	filled, err := ForwardFill(ctx, store, domain.ClassCrypto, "BTCUSD", false, day(2020, 2, 1))
	if err != nil {
		t.Fatalf("ForwardFill failed: %v", err)
	}
	if filled != 0 {
		t.Errorf("Expected no fills for gap-free series, got %d", filled)
	}
}
