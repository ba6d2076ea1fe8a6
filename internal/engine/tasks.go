package engine

import (
	"context"
	"fmt"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/schedule"
)

// task is one (asset, window) cell of the computation grid. DCA runs expand
// it further by contribution cadence.
type task struct {
	asset  domain.Asset
	window schedule.Window
}

// qualifyAssets resolves the evaluated universe: every symbol of every class
// with at least MinSamples normalized samples since Epoch. The same
// predicate serves full and incremental runs.
func (e *Engine) qualifyAssets(ctx context.Context) ([]domain.Asset, error) {
	var assets []domain.Asset
	for _, class := range domain.AllAssetClasses {
		classAssets, err := e.prices.QualifyingAssets(ctx, class, e.cfg.Epoch, e.cfg.MinSamples)
		if err != nil {
			return nil, fmt.Errorf("qualify %s assets: %w", class, err)
		}
		e.log.Debug().
			Str("class", string(class)).
			Int("assets", len(classAssets)).
			Msg("qualified assets")
		assets = append(assets, classAssets...)
	}
	return assets, nil
}

// fullGrid expands every window of every holding period for every asset.
func (e *Engine) fullGrid(assets []domain.Asset) []task {
	today := e.now().UTC()

	var tasks []task
	for _, years := range e.cfg.HoldingYears {
		for _, win := range schedule.Windows(e.cfg.Epoch, years, today) {
			for _, asset := range assets {
				tasks = append(tasks, task{asset: asset, window: win})
			}
		}
	}
	return tasks
}

// lookbackGrid expands only the windows that became complete inside the
// incremental lookback: those ending on a first-of-month date within the
// last LookbackDays. Shortly after a month boundary this is one window per
// holding period per asset; on most days it is empty.
func (e *Engine) lookbackGrid(assets []domain.Asset) []task {
	today := e.now().UTC()
	ends := schedule.LookbackStarts(today, e.cfg.LookbackDays)

	var tasks []task
	for _, years := range e.cfg.HoldingYears {
		for _, win := range schedule.WindowsEnding(ends, years, today) {
			for _, asset := range assets {
				tasks = append(tasks, task{asset: asset, window: win})
			}
		}
	}
	return tasks
}
