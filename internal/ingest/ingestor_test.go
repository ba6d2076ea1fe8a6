package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage/memory"
)

func TestIngestor_Run(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Query().Get("symbol")
		if symbol == "EMPTY" {
			w.Write([]byte(`[]`))
			return
		}
		// A weekend gap between Jan 3 (Fri) and Jan 6 (Mon).
		fmt.Fprintf(w, `[
			{"symbol":%q,"date":"2020-01-02","price":100,"volume":10},
			{"symbol":%q,"date":"2020-01-03","price":101,"volume":11},
			{"symbol":%q,"date":"2020-01-06","price":103,"volume":13}
		]`, symbol, symbol, symbol)
	}))
	defer server.Close()

	store := memory.NewPriceStore()
	ing := NewIngestor(IngestorOptions{
		Client:  NewClient(server.URL, "test-key", zerolog.Nop()),
		Writer:  store,
		Class:   domain.ClassIndex,
		Workers: 2,
		Logger:  zerolog.Nop(),
		Now:     func() time.Time { return day(2020, 1, 8) },
	})

	result, err := ing.Run(context.Background(), []string{"^GSPC", "^GDAXI", "EMPTY"}, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Errors != 0 {
		t.Errorf("Expected no errors, got %d", result.Errors)
	}
	if result.Fetched != 6 || result.Upserted != 6 {
		t.Errorf("Expected 6 bars fetched and upserted, got %+v", result)
	}
	// Jan 4 and Jan 5 per symbol.
	if result.Filled != 4 {
		t.Errorf("Expected 4 filled bars, got %d", result.Filled)
	}

	series, err := store.NativeSeries(context.Background(), domain.ClassIndex, "^GSPC")
	if err != nil {
		t.Fatalf("NativeSeries failed: %v", err)
	}
	if len(series) != 5 {
		t.Fatalf("Expected gap-free 5-day series, got %d bars", len(series))
	}
	if series[2].Price != 101 || series[2].Volume != 0 {
		t.Errorf("Expected Jan 4 forward-filled from Jan 3, got %+v", series[2])
	}
}

func TestIngestor_DailyModeExtendsToToday(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("from"); got != "2020-01-05" {
			t.Errorf("Expected daily lookback from 2020-01-05, got %s", got)
		}
		w.Write([]byte(`[{"symbol":"BTCUSD","date":"2020-01-10","price":100,"volume":10}]`))
	}))
	defer server.Close()

	store := memory.NewPriceStore()
	ing := NewIngestor(IngestorOptions{
		Client: NewClient(server.URL, "test-key", zerolog.Nop()),
		Writer: store,
		Class:  domain.ClassCrypto,
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return day(2020, 1, 15) },
	})

	result, err := ing.Run(context.Background(), []string{"BTCUSD"}, true)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// Jan 11 through Jan 15.
	if result.Filled != 5 {
		t.Errorf("Expected 5 filled bars through today, got %d", result.Filled)
	}
}

func TestIngestor_FetchErrorIsIsolated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "BAD" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"symbol":"GOOD","date":"2020-01-02","price":100,"volume":10}]`))
	}))
	defer server.Close()

	store := memory.NewPriceStore()
	ing := NewIngestor(IngestorOptions{
		Client: NewClient(server.URL, "test-key", zerolog.Nop()),
		Writer: store,
		Class:  domain.ClassCrypto,
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return day(2020, 1, 2) },
	})

	result, err := ing.Run(context.Background(), []string{"GOOD", "BAD"}, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Errors != 1 {
		t.Errorf("Expected 1 error, got %d", result.Errors)
	}
	if result.Upserted != 1 {
		t.Errorf("Expected GOOD upserted despite BAD failing, got %+v", result)
	}
}
