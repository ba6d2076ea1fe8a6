package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"asset-performance-lab/internal/analytics"
	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/observability"
	"asset-performance-lab/internal/schedule"
)

const strategyDCA = "dca"

// dcaTask crosses one grid cell with a contribution cadence.
type dcaTask struct {
	task
	freq domain.Frequency
}

type dcaOutcome struct {
	record  *domain.DCARecord
	skipped bool
	err     error
}

// RunDCA simulates dollar-cost averaging for the full window grid across
// every configured frequency.
func (e *Engine) RunDCA(ctx context.Context) (*RunResult, error) {
	assets, err := e.qualifyAssets(ctx)
	if err != nil {
		return nil, err
	}
	return e.runDCATasks(ctx, len(assets), e.crossFrequencies(e.fullGrid(assets)))
}

// RunDCAIncremental simulates dollar-cost averaging for the windows that
// became complete inside the configured lookback.
func (e *Engine) RunDCAIncremental(ctx context.Context) (*RunResult, error) {
	assets, err := e.qualifyAssets(ctx)
	if err != nil {
		return nil, err
	}
	return e.runDCATasks(ctx, len(assets), e.crossFrequencies(e.lookbackGrid(assets)))
}

func (e *Engine) crossFrequencies(tasks []task) []dcaTask {
	out := make([]dcaTask, 0, len(tasks)*len(e.cfg.Frequencies))
	for _, t := range tasks {
		for _, freq := range e.cfg.Frequencies {
			out = append(out, dcaTask{task: t, freq: freq})
		}
	}
	return out
}

func (e *Engine) runDCATasks(ctx context.Context, assetCount int, tasks []dcaTask) (*RunResult, error) {
	started := e.now()
	e.log.Info().
		Str("strategy", strategyDCA).
		Int("assets", assetCount).
		Int("tasks", len(tasks)).
		Msg("run started")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	taskCh := make(chan dcaTask)
	outCh := make(chan dcaOutcome)

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range taskCh {
				outCh <- e.computeDCATask(ctx, t)
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for _, t := range tasks {
			select {
			case taskCh <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outCh)
	}()

	result := &RunResult{Assets: assetCount, Tasks: len(tasks)}
	batch := make([]*domain.DCARecord, 0, e.cfg.FlushThreshold)
	var flushErr error

	for out := range outCh {
		switch {
		case out.err != nil:
			result.Failed++
		case out.skipped:
			result.Skipped++
		default:
			result.Computed++
			batch = append(batch, out.record)
			if len(batch) >= e.cfg.FlushThreshold && flushErr == nil {
				if err := e.flushDCA(ctx, batch, result); err != nil {
					flushErr = err
					cancel()
				}
				batch = batch[:0]
			}
		}
	}

	if flushErr == nil && len(batch) > 0 {
		flushErr = e.flushDCA(ctx, batch, result)
	}

	result.Elapsed = e.now().Sub(started)
	if flushErr != nil {
		observability.DefaultMetrics.RunDuration.
			WithLabelValues(strategyDCA, "error").Observe(result.Elapsed.Seconds())
		return result, fmt.Errorf("flush dca records: %w", flushErr)
	}

	observability.DefaultMetrics.RunDuration.
		WithLabelValues(strategyDCA, "ok").Observe(result.Elapsed.Seconds())
	observability.DefaultMetrics.LastSuccessfulRun.
		WithLabelValues(strategyDCA).SetToCurrentTime()
	e.log.Info().
		Str("strategy", strategyDCA).
		Int("computed", result.Computed).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Int("written", result.Written).
		Dur("elapsed", result.Elapsed).
		Msg("run finished")

	return result, nil
}

func (e *Engine) computeDCATask(ctx context.Context, t dcaTask) dcaOutcome {
	taskStart := e.now()

	series, err := e.prices.GetSeries(ctx, t.asset, t.window.Start, t.window.End)
	if err != nil {
		e.log.Warn().Err(err).
			Str("symbol", t.asset.Symbol).
			Time("start", t.window.Start).
			Msg("series fetch failed")
		observability.RecordTaskFailed(strategyDCA)
		return dcaOutcome{err: err}
	}

	if err := e.cfg.Analytics.ValidateWindow(series, t.window.Start, t.window.End, t.window.HoldingYears); err != nil {
		if errors.Is(err, analytics.ErrInsufficientData) {
			observability.RecordTaskSkipped(strategyDCA)
			return dcaOutcome{skipped: true}
		}
		observability.RecordTaskFailed(strategyDCA)
		return dcaOutcome{err: err}
	}

	purchaseDates := schedule.PurchaseDates(t.window.Start, t.window.End, t.freq)
	record, err := analytics.SimulateDCA(t.window.For(t.asset), t.freq, series, purchaseDates, e.cfg.Contribution, e.cfg.Analytics)
	if err != nil {
		if errors.Is(err, analytics.ErrNoPurchases) {
			observability.RecordTaskSkipped(strategyDCA)
			return dcaOutcome{skipped: true}
		}
		e.log.Warn().Err(err).
			Str("symbol", t.asset.Symbol).
			Str("frequency", string(t.freq)).
			Time("start", t.window.Start).
			Msg("dca simulation failed")
		observability.RecordTaskFailed(strategyDCA)
		return dcaOutcome{err: err}
	}

	observability.RecordTaskComputed(strategyDCA, e.now().Sub(taskStart).Seconds())
	return dcaOutcome{record: record}
}

func (e *Engine) flushDCA(ctx context.Context, batch []*domain.DCARecord, result *RunResult) error {
	flushStart := e.now()
	if err := e.dca.UpsertBulk(ctx, batch); err != nil {
		return err
	}
	result.Written += len(batch)
	observability.RecordFlush(strategyDCA, len(batch), e.now().Sub(flushStart).Seconds())
	return nil
}
