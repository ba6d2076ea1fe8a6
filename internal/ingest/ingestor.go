package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/observability"
	"asset-performance-lab/internal/storage"
)

// fullHistoryFrom is the earliest bar requested on an initial fill.
var fullHistoryFrom = time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC)

// dailyLookbackDays is how far back a daily update re-fetches, so provider
// corrections within the window converge.
const dailyLookbackDays = 10

// Ingestor fetches provider bars for one asset class and keeps the stored
// series gap-free.
type Ingestor struct {
	client  *Client
	writer  storage.PriceWriter
	class   domain.AssetClass
	workers int
	now     func() time.Time
	log     zerolog.Logger
}

// IngestorOptions for creating an Ingestor.
type IngestorOptions struct {
	Client  *Client
	Writer  storage.PriceWriter
	Class   domain.AssetClass
	Workers int
	Logger  zerolog.Logger

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// NewIngestor creates a new Ingestor.
func NewIngestor(opts IngestorOptions) *Ingestor {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Ingestor{
		client:  opts.Client,
		writer:  opts.Writer,
		class:   opts.Class,
		workers: workers,
		now:     now,
		log:     opts.Logger.With().Str("component", "ingest").Str("class", string(opts.Class)).Logger(),
	}
}

// Result is the folded outcome of one ingestion pass.
type Result struct {
	Symbols  int
	Fetched  int
	Upserted int
	Filled   int
	Errors   int
	Elapsed  time.Duration
}

// Run fetches and stores bars for every symbol. In daily mode only the last
// few days are re-fetched and the forward fill extends to today; otherwise
// the full history is pulled and only interior gaps are filled.
func (ing *Ingestor) Run(ctx context.Context, symbols []string, daily bool) (*Result, error) {
	started := ing.now()
	ing.log.Info().Int("symbols", len(symbols)).Bool("daily", daily).Msg("ingestion started")

	from := fullHistoryFrom
	if daily {
		from = ing.now().AddDate(0, 0, -dailyLookbackDays)
	}

	type outcome struct {
		fetched  int
		upserted int
		filled   int
		err      error
	}

	symbolCh := make(chan string)
	outCh := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < ing.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range symbolCh {
				fetched, upserted, filled, err := ing.ingestSymbol(ctx, symbol, from, daily)
				outCh <- outcome{fetched: fetched, upserted: upserted, filled: filled, err: err}
			}
		}()
	}

	go func() {
		defer close(symbolCh)
		for _, symbol := range symbols {
			select {
			case symbolCh <- symbol:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outCh)
	}()

	result := &Result{Symbols: len(symbols)}
	for out := range outCh {
		if out.err != nil {
			result.Errors++
			continue
		}
		result.Fetched += out.fetched
		result.Upserted += out.upserted
		result.Filled += out.filled
	}
	result.Elapsed = ing.now().Sub(started)

	if result.Errors == 0 {
		observability.DefaultMetrics.LastSuccessfulIngest.SetToCurrentTime()
	}
	ing.log.Info().
		Int("fetched", result.Fetched).
		Int("upserted", result.Upserted).
		Int("filled", result.Filled).
		Int("errors", result.Errors).
		Dur("elapsed", result.Elapsed).
		Msg("ingestion finished")

	return result, ctx.Err()
}

func (ing *Ingestor) ingestSymbol(ctx context.Context, symbol string, from time.Time, daily bool) (fetched, upserted, filled int, err error) {
	fetchStart := ing.now()
	bars, err := ing.client.HistoricalDaily(ctx, symbol, from)
	if err != nil {
		ing.log.Warn().Err(err).Str("symbol", symbol).Msg("fetch failed")
		observability.DefaultMetrics.FetchErrors.WithLabelValues(string(ing.class)).Inc()
		return 0, 0, 0, err
	}
	observability.DefaultMetrics.FetchLatency.
		WithLabelValues(string(ing.class)).Observe(ing.now().Sub(fetchStart).Seconds())

	if len(bars) == 0 {
		return 0, 0, 0, nil
	}

	raw := make([]*domain.RawPrice, 0, len(bars))
	for _, bar := range bars {
		date, parseErr := time.ParseInLocation("2006-01-02", bar.Date, time.UTC)
		if parseErr != nil {
			ing.log.Warn().Str("symbol", symbol).Str("date", bar.Date).Msg("malformed bar date")
			continue
		}
		raw = append(raw, &domain.RawPrice{
			Symbol: symbol,
			Date:   date,
			Price:  bar.Price,
			Volume: bar.Volume,
		})
	}

	if err := ing.writer.UpsertBulk(ctx, ing.class, raw); err != nil {
		ing.log.Warn().Err(err).Str("symbol", symbol).Msg("upsert failed")
		return len(bars), 0, 0, err
	}

	filled, err = ForwardFill(ctx, ing.writer, ing.class, symbol, daily, ing.now())
	if err != nil {
		ing.log.Warn().Err(err).Str("symbol", symbol).Msg("forward fill failed")
		return len(bars), len(raw), 0, err
	}

	observability.RecordIngest(string(ing.class), len(bars), len(raw), filled)
	return len(bars), len(raw), filled, nil
}
