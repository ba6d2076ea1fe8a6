package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"asset-performance-lab/internal/analytics"
	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/observability"
)

const strategyBuyHold = "buy_and_hold"

// buyHoldOutcome is one worker's report for one task.
type buyHoldOutcome struct {
	record  *domain.BuyHoldRecord
	skipped bool
	err     error
}

// RunBuyHold computes buy-and-hold performance for the full window grid.
func (e *Engine) RunBuyHold(ctx context.Context) (*RunResult, error) {
	assets, err := e.qualifyAssets(ctx)
	if err != nil {
		return nil, err
	}
	return e.runBuyHoldTasks(ctx, len(assets), e.fullGrid(assets))
}

// RunBuyHoldIncremental computes buy-and-hold performance for the windows
// that became complete inside the configured lookback.
func (e *Engine) RunBuyHoldIncremental(ctx context.Context) (*RunResult, error) {
	assets, err := e.qualifyAssets(ctx)
	if err != nil {
		return nil, err
	}
	return e.runBuyHoldTasks(ctx, len(assets), e.lookbackGrid(assets))
}

func (e *Engine) runBuyHoldTasks(ctx context.Context, assetCount int, tasks []task) (*RunResult, error) {
	started := e.now()
	e.log.Info().
		Str("strategy", strategyBuyHold).
		Int("assets", assetCount).
		Int("tasks", len(tasks)).
		Msg("run started")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	taskCh := make(chan task)
	outCh := make(chan buyHoldOutcome)

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range taskCh {
				outCh <- e.computeBuyHoldTask(ctx, t)
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
	batch := make([]*domain.BuyHoldRecord, 0, e.cfg.FlushThreshold)
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
				if err := e.flushBuyHold(ctx, batch, result); err != nil {
					flushErr = err
					cancel()
				}
				batch = batch[:0]
			}
		}
	}

	if flushErr == nil && len(batch) > 0 {
		flushErr = e.flushBuyHold(ctx, batch, result)
	}

	result.Elapsed = e.now().Sub(started)
	if flushErr != nil {
		observability.DefaultMetrics.RunDuration.
			WithLabelValues(strategyBuyHold, "error").Observe(result.Elapsed.Seconds())
		return result, fmt.Errorf("flush buy-and-hold records: %w", flushErr)
	}

	observability.DefaultMetrics.RunDuration.
		WithLabelValues(strategyBuyHold, "ok").Observe(result.Elapsed.Seconds())
	observability.DefaultMetrics.LastSuccessfulRun.
		WithLabelValues(strategyBuyHold).SetToCurrentTime()
	e.log.Info().
		Str("strategy", strategyBuyHold).
		Int("computed", result.Computed).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Int("written", result.Written).
		Dur("elapsed", result.Elapsed).
		Msg("run finished")

	return result, nil
}

func (e *Engine) computeBuyHoldTask(ctx context.Context, t task) buyHoldOutcome {
	taskStart := e.now()

	series, err := e.prices.GetSeries(ctx, t.asset, t.window.Start, t.window.End)
	if err != nil {
		e.log.Warn().Err(err).
			Str("symbol", t.asset.Symbol).
			Time("start", t.window.Start).
			Msg("series fetch failed")
		observability.RecordTaskFailed(strategyBuyHold)
		return buyHoldOutcome{err: err}
	}

	if err := e.cfg.Analytics.ValidateWindow(series, t.window.Start, t.window.End, t.window.HoldingYears); err != nil {
		if errors.Is(err, analytics.ErrInsufficientData) {
			e.log.Debug().
				Str("symbol", t.asset.Symbol).
				Time("start", t.window.Start).
				Int("years", t.window.HoldingYears).
				Msg("window rejected")
			observability.RecordTaskSkipped(strategyBuyHold)
			return buyHoldOutcome{skipped: true}
		}
		observability.RecordTaskFailed(strategyBuyHold)
		return buyHoldOutcome{err: err}
	}

	record := analytics.ComputeBuyHold(t.window.For(t.asset), series, e.cfg.Analytics)
	observability.RecordTaskComputed(strategyBuyHold, e.now().Sub(taskStart).Seconds())
	return buyHoldOutcome{record: record}
}

func (e *Engine) flushBuyHold(ctx context.Context, batch []*domain.BuyHoldRecord, result *RunResult) error {
	flushStart := e.now()
	if err := e.buyHold.UpsertBulk(ctx, batch); err != nil {
		return err
	}
	result.Written += len(batch)
	observability.RecordFlush(strategyBuyHold, len(batch), e.now().Sub(flushStart).Seconds())
	return nil
}
