package memory

import (
	"context"
	"errors"
	"testing"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

func bhRecord(symbol string, years int, annual float64) *domain.BuyHoldRecord {
	return &domain.BuyHoldRecord{
		Symbol:              symbol,
		AssetClass:          domain.ClassCrypto,
		StartDate:           day(2018, 1, 1),
		EndDate:             day(2018+years, 1, 1),
		HoldingYears:        years,
		AnnualizedReturnPct: annual,
		TotalReturnPct:      annual * float64(years),
	}
}

func TestBuyHoldStore_UpsertReplacesByKey(t *testing.T) {
	store := NewBuyHoldStore()
	ctx := context.Background()

	if err := store.UpsertBulk(ctx, []*domain.BuyHoldRecord{bhRecord("BTCUSD", 3, 20)}); err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}
	if err := store.UpsertBulk(ctx, []*domain.BuyHoldRecord{bhRecord("BTCUSD", 3, 25)}); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	records, err := store.BySymbol(ctx, "BTCUSD")
	if err != nil {
		t.Fatalf("BySymbol failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record after re-upsert, got %d", len(records))
	}
	if records[0].AnnualizedReturnPct != 25 {
		t.Errorf("Expected recomputed metric 25, got %v", records[0].AnnualizedReturnPct)
	}
}

func TestBuyHoldStore_RankDescending(t *testing.T) {
	store := NewBuyHoldStore()
	ctx := context.Background()

	records := []*domain.BuyHoldRecord{
		bhRecord("AAA", 3, 10),
		bhRecord("BBB", 3, 30),
		bhRecord("CCC", 3, 20),
		bhRecord("DDD", 5, 99), // filtered out by holding years
	}
	if err := store.UpsertBulk(ctx, records); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	ranked, err := store.Rank(ctx, storage.RankQuery{
		Metric:       "annualized_return_pct",
		HoldingYears: 3,
		Limit:        2,
	})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("Expected limit of 2, got %d", len(ranked))
	}
	if ranked[0].Symbol != "BBB" || ranked[1].Symbol != "CCC" {
		t.Errorf("Expected BBB, CCC order, got %s, %s", ranked[0].Symbol, ranked[1].Symbol)
	}
}

func TestBuyHoldStore_RankAscending(t *testing.T) {
	store := NewBuyHoldStore()
	ctx := context.Background()

	if err := store.UpsertBulk(ctx, []*domain.BuyHoldRecord{
		bhRecord("AAA", 3, 10),
		bhRecord("BBB", 3, 30),
	}); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	ranked, err := store.Rank(ctx, storage.RankQuery{
		Metric:    "annualized_return_pct",
		Ascending: true,
	})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if ranked[0].Symbol != "AAA" {
		t.Errorf("Expected worst-first order, got %s first", ranked[0].Symbol)
	}
}

func TestBuyHoldStore_RankRejectsUnknownMetric(t *testing.T) {
	store := NewBuyHoldStore()

	_, err := store.Rank(context.Background(), storage.RankQuery{Metric: "symbol; DROP TABLE"})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestBuyHoldStore_ReturnsCopies(t *testing.T) {
	store := NewBuyHoldStore()
	ctx := context.Background()

	if err := store.UpsertBulk(ctx, []*domain.BuyHoldRecord{bhRecord("BTCUSD", 3, 20)}); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	records, _ := store.BySymbol(ctx, "BTCUSD")
	records[0].AnnualizedReturnPct = -1

	again, _ := store.BySymbol(ctx, "BTCUSD")
	if again[0].AnnualizedReturnPct != 20 {
		t.Errorf("Store leaked internal state: %v", again[0].AnnualizedReturnPct)
	}
}
