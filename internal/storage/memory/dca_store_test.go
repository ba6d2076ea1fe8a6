package memory

import (
	"context"
	"testing"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

func dcaRecord(symbol string, freq domain.Frequency, years int, annual float64) *domain.DCARecord {
	return &domain.DCARecord{
		Symbol:              symbol,
		AssetClass:          domain.ClassCrypto,
		StartDate:           day(2018, 1, 1),
		EndDate:             day(2018+years, 1, 1),
		HoldingYears:        years,
		Frequency:           freq,
		AnnualizedReturnPct: annual,
	}
}

func TestDCAStore_FrequencyIsPartOfKey(t *testing.T) {
	store := NewDCAStore()
	ctx := context.Background()

	records := []*domain.DCARecord{
		dcaRecord("BTCUSD", domain.FreqWeekly, 3, 20),
		dcaRecord("BTCUSD", domain.FreqMonthly, 3, 22),
	}
	if err := store.UpsertBulk(ctx, records); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	stored, err := store.BySymbol(ctx, "BTCUSD")
	if err != nil {
		t.Fatalf("BySymbol failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("Expected 2 records for distinct frequencies, got %d", len(stored))
	}
	// monthly < weekly lexically
	if stored[0].Frequency != domain.FreqMonthly || stored[1].Frequency != domain.FreqWeekly {
		t.Errorf("Expected frequency-ordered results, got %s, %s", stored[0].Frequency, stored[1].Frequency)
	}
}

func TestDCAStore_RankFiltersByFrequency(t *testing.T) {
	store := NewDCAStore()
	ctx := context.Background()

	records := []*domain.DCARecord{
		dcaRecord("AAA", domain.FreqWeekly, 3, 10),
		dcaRecord("BBB", domain.FreqWeekly, 3, 30),
		dcaRecord("CCC", domain.FreqMonthly, 3, 99),
	}
	if err := store.UpsertBulk(ctx, records); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	ranked, err := store.Rank(ctx, storage.RankQuery{
		Metric:    "annualized_return_pct",
		Frequency: domain.FreqWeekly,
	})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("Expected 2 weekly records, got %d", len(ranked))
	}
	if ranked[0].Symbol != "BBB" {
		t.Errorf("Expected BBB first, got %s", ranked[0].Symbol)
	}
}

func TestDCAStore_RankByLumpsumDiff(t *testing.T) {
	store := NewDCAStore()
	ctx := context.Background()

	a := dcaRecord("AAA", domain.FreqMonthly, 3, 10)
	a.DCAvsLumpsumDiff = -5
	b := dcaRecord("BBB", domain.FreqMonthly, 3, 10)
	b.DCAvsLumpsumDiff = 4

	if err := store.UpsertBulk(ctx, []*domain.DCARecord{a, b}); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	ranked, err := store.Rank(ctx, storage.RankQuery{Metric: "dca_vs_lumpsum_diff"})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if ranked[0].Symbol != "BBB" {
		t.Errorf("Expected BBB (diff +4) first, got %s", ranked[0].Symbol)
	}
}
