package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"asset-performance-lab/internal/analytics"
	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
	"asset-performance-lab/internal/storage/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seedDailySeries stores a gap-free normalized series over [start, end].
// Prices oscillate so returns are non-degenerate.
func seedDailySeries(t *testing.T, store *memory.PriceStore, symbol string, class domain.AssetClass, start, end time.Time) {
	t.Helper()

	var bars []*domain.RawPrice
	price := 100.0
	up := true
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if up {
			price *= 1.004
		} else {
			price *= 0.997
		}
		up = !up
		usd := price
		bars = append(bars, &domain.RawPrice{
			Symbol: symbol, Date: d, Price: price, PriceUSD: &usd,
		})
	}
	if err := store.UpsertBulk(context.Background(), class, bars); err != nil {
		t.Fatalf("seed series: %v", err)
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Epoch = day(2020, 1, 1)
	cfg.HoldingYears = []int{3}
	cfg.Frequencies = []domain.Frequency{domain.FreqMonthly}
	cfg.MinSamples = 100
	cfg.Workers = 2
	cfg.FlushThreshold = 10
	return cfg
}

func newTestEngine(prices storage.PriceStore, bh storage.BuyHoldStore, dca storage.DCAStore, today time.Time) *Engine {
	return New(Options{
		PriceStore:   prices,
		BuyHoldStore: bh,
		DCAStore:     dca,
		Config:       testConfig(),
		Logger:       zerolog.Nop(),
		Now:          func() time.Time { return today },
	})
}

func TestEngine_RunBuyHoldFullGrid(t *testing.T) {
	prices := memory.NewPriceStore()
	bh := memory.NewBuyHoldStore()
	dca := memory.NewDCAStore()

	// Two complete 3-year windows fit before Feb 15 2023:
	// 2020-01-01..2023-01-01 and 2020-02-01..2023-02-01.
	seedDailySeries(t, prices, "BTCUSD", domain.ClassCrypto, day(2020, 1, 1), day(2023, 2, 1))
	eng := newTestEngine(prices, bh, dca, day(2023, 2, 15))

	result, err := eng.RunBuyHold(context.Background())
	if err != nil {
		t.Fatalf("RunBuyHold failed: %v", err)
	}

	if result.Assets != 1 {
		t.Errorf("Expected 1 qualified asset, got %d", result.Assets)
	}
	if result.Tasks != 2 {
		t.Errorf("Expected 2 tasks, got %d", result.Tasks)
	}
	if result.Computed != 2 || result.Failed != 0 {
		t.Errorf("Expected 2 computed and 0 failed, got %+v", result)
	}
	if result.Written != 2 {
		t.Errorf("Expected 2 written records, got %d", result.Written)
	}

	records, err := bh.BySymbol(context.Background(), "BTCUSD")
	if err != nil {
		t.Fatalf("BySymbol failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 stored records, got %d", len(records))
	}
	if records[0].HoldingYears != 3 {
		t.Errorf("Expected holding years 3, got %d", records[0].HoldingYears)
	}
}

func TestEngine_RunIsIdempotent(t *testing.T) {
	prices := memory.NewPriceStore()
	bh := memory.NewBuyHoldStore()
	dca := memory.NewDCAStore()

	seedDailySeries(t, prices, "BTCUSD", domain.ClassCrypto, day(2020, 1, 1), day(2023, 2, 1))
	eng := newTestEngine(prices, bh, dca, day(2023, 2, 15))

	if _, err := eng.RunBuyHold(context.Background()); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	first, _ := bh.BySymbol(context.Background(), "BTCUSD")

	if _, err := eng.RunBuyHold(context.Background()); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	second, _ := bh.BySymbol(context.Background(), "BTCUSD")

	if len(first) != len(second) {
		t.Fatalf("Re-run changed record count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].TotalReturnPct != second[i].TotalReturnPct ||
			first[i].AnnualizedReturnPct != second[i].AnnualizedReturnPct {
			t.Errorf("Re-run changed stored values for window %d", i)
		}
	}
}

func TestEngine_ShortSeriesIsSkippedNotFailed(t *testing.T) {
	prices := memory.NewPriceStore()
	bh := memory.NewBuyHoldStore()
	dca := memory.NewDCAStore()

	// Enough samples to qualify the asset, but the series starts a year
	// into the first window, so validation rejects every window.
	seedDailySeries(t, prices, "LATE", domain.ClassCrypto, day(2021, 1, 1), day(2022, 1, 1))
	eng := newTestEngine(prices, bh, dca, day(2023, 2, 15))

	result, err := eng.RunBuyHold(context.Background())
	if err != nil {
		t.Fatalf("RunBuyHold failed: %v", err)
	}

	if result.Skipped != result.Tasks {
		t.Errorf("Expected all %d tasks skipped, got %d skipped and %d failed",
			result.Tasks, result.Skipped, result.Failed)
	}
	if result.Computed != 0 || result.Written != 0 {
		t.Errorf("Expected nothing computed for short series, got %+v", result)
	}
}

// faultyPriceStore fails series fetches for one symbol.
type faultyPriceStore struct {
	*memory.PriceStore
	badSymbol string
}

func (f *faultyPriceStore) GetSeries(ctx context.Context, asset domain.Asset, start, end time.Time) ([]domain.PriceSample, error) {
	if asset.Symbol == f.badSymbol {
		return nil, errors.New("connection reset")
	}
	return f.PriceStore.GetSeries(ctx, asset, start, end)
}

func TestEngine_TaskFailureIsIsolated(t *testing.T) {
	inner := memory.NewPriceStore()
	bh := memory.NewBuyHoldStore()
	dca := memory.NewDCAStore()

	seedDailySeries(t, inner, "GOOD", domain.ClassCrypto, day(2020, 1, 1), day(2023, 2, 1))
	seedDailySeries(t, inner, "BAD", domain.ClassCrypto, day(2020, 1, 1), day(2023, 2, 1))

	prices := &faultyPriceStore{PriceStore: inner, badSymbol: "BAD"}
	eng := newTestEngine(prices, bh, dca, day(2023, 2, 15))

	result, err := eng.RunBuyHold(context.Background())
	if err != nil {
		t.Fatalf("RunBuyHold failed: %v", err)
	}

	if result.Failed != 2 {
		t.Errorf("Expected 2 failed tasks for BAD, got %d", result.Failed)
	}
	if result.Computed != 2 {
		t.Errorf("Expected GOOD tasks to complete despite failures, got %d computed", result.Computed)
	}

	records, _ := bh.BySymbol(context.Background(), "GOOD")
	if len(records) != 2 {
		t.Errorf("Expected 2 records for GOOD, got %d", len(records))
	}
}

func TestEngine_RunDCAFullGrid(t *testing.T) {
	prices := memory.NewPriceStore()
	bh := memory.NewBuyHoldStore()
	dca := memory.NewDCAStore()

	seedDailySeries(t, prices, "BTCUSD", domain.ClassCrypto, day(2020, 1, 1), day(2023, 2, 1))
	eng := newTestEngine(prices, bh, dca, day(2023, 2, 15))

	result, err := eng.RunDCA(context.Background())
	if err != nil {
		t.Fatalf("RunDCA failed: %v", err)
	}

	// 2 windows x 1 frequency.
	if result.Tasks != 2 || result.Computed != 2 {
		t.Errorf("Expected 2 computed DCA tasks, got %+v", result)
	}

	records, err := dca.BySymbol(context.Background(), "BTCUSD")
	if err != nil {
		t.Fatalf("BySymbol failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 DCA records, got %d", len(records))
	}
	for _, r := range records {
		if r.Frequency != domain.FreqMonthly {
			t.Errorf("Expected monthly frequency, got %s", r.Frequency)
		}
		// 36 first-of-month purchases at 100 each, plus the end-date
		// purchase when it falls on the first.
		if r.NumberOfPurchases != 37 {
			t.Errorf("Expected 37 purchases, got %d", r.NumberOfPurchases)
		}
		if r.TotalInvested != float64(r.NumberOfPurchases)*100 {
			t.Errorf("Invested %v does not match %d purchases", r.TotalInvested, r.NumberOfPurchases)
		}
	}
}

func TestEngine_IncrementalLookback(t *testing.T) {
	prices := memory.NewPriceStore()
	bh := memory.NewBuyHoldStore()
	dca := memory.NewDCAStore()

	seedDailySeries(t, prices, "BTCUSD", domain.ClassCrypto, day(2020, 1, 1), day(2023, 2, 1))
	// Feb 5: the window ending Feb 1 just became complete.
	eng := newTestEngine(prices, bh, dca, day(2023, 2, 5))

	result, err := eng.RunBuyHoldIncremental(context.Background())
	if err != nil {
		t.Fatalf("RunBuyHoldIncremental failed: %v", err)
	}

	if result.Tasks != 1 {
		t.Fatalf("Expected exactly 1 lookback task, got %d", result.Tasks)
	}
	if result.Computed != 1 {
		t.Errorf("Expected the lookback window computed, got %+v", result)
	}

	records, _ := bh.BySymbol(context.Background(), "BTCUSD")
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if !records[0].StartDate.Equal(day(2020, 2, 1)) || !records[0].EndDate.Equal(day(2023, 2, 1)) {
		t.Errorf("Unexpected window: %s..%s", records[0].StartDate, records[0].EndDate)
	}
}

func TestEngine_IncrementalMidMonthIsEmpty(t *testing.T) {
	prices := memory.NewPriceStore()
	bh := memory.NewBuyHoldStore()
	dca := memory.NewDCAStore()

	seedDailySeries(t, prices, "BTCUSD", domain.ClassCrypto, day(2020, 1, 1), day(2023, 2, 1))
	eng := newTestEngine(prices, bh, dca, day(2023, 2, 20))

	result, err := eng.RunBuyHoldIncremental(context.Background())
	if err != nil {
		t.Fatalf("RunBuyHoldIncremental failed: %v", err)
	}
	if result.Tasks != 0 {
		t.Errorf("Expected no tasks mid-month, got %d", result.Tasks)
	}
}

// failingSink rejects every flush.
type failingSink struct {
	storage.BuyHoldStore
}

func (f *failingSink) UpsertBulk(context.Context, []*domain.BuyHoldRecord) error {
	return errors.New("disk full")
}

func TestEngine_FlushFailureAbortsRun(t *testing.T) {
	prices := memory.NewPriceStore()
	dca := memory.NewDCAStore()

	seedDailySeries(t, prices, "BTCUSD", domain.ClassCrypto, day(2020, 1, 1), day(2023, 2, 1))
	eng := newTestEngine(prices, &failingSink{}, dca, day(2023, 2, 15))

	_, err := eng.RunBuyHold(context.Background())
	if err == nil {
		t.Fatal("Expected flush failure to surface as a run error")
	}
}

// Sanity check that the engine config gate matches the analytics default.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Analytics != analytics.DefaultConfig() {
		t.Error("Engine default must carry the standard analytics gate")
	}
	if len(cfg.HoldingYears) != 8 || cfg.HoldingYears[0] != 3 || cfg.HoldingYears[7] != 10 {
		t.Errorf("Unexpected holding periods: %v", cfg.HoldingYears)
	}
	if cfg.Contribution != 100 || cfg.LookbackDays != 10 || cfg.FlushThreshold != 1000 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
}
