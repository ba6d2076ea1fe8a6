// Package schedule enumerates evaluation windows and DCA purchase dates.
// Everything here is a pure function of its inputs: given the same epoch,
// holding periods and reference date it produces the same set every time,
// which is what makes incremental re-runs idempotent.
package schedule

import (
	"time"

	"asset-performance-lab/internal/domain"
)

// Window is one (start, end, holding period) evaluation span.
type Window struct {
	Start        time.Time
	End          time.Time
	HoldingYears int
}

// monthStart snaps t to the first day of its month, UTC midnight.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Windows enumerates every evaluation window for one holding period.
// Start dates step one month at a time from the first of epoch's month;
// a window is emitted only when its end date (start plus exactly
// holdingYears calendar years) does not exceed today.
func Windows(epoch time.Time, holdingYears int, today time.Time) []Window {
	var out []Window

	cur := monthStart(epoch)
	for {
		end := cur.AddDate(holdingYears, 0, 0)
		if end.After(today) {
			break
		}
		out = append(out, Window{Start: cur, End: end, HoldingYears: holdingYears})
		cur = cur.AddDate(0, 1, 0)
	}

	return out
}

// LookbackStarts returns the first-of-month dates falling within the last
// lookbackDays days before today, newest first. This is the narrow
// parameterization of the incremental monthly pass: on most days it is
// empty, shortly after a month boundary it holds one date. The pass treats
// each as a window END date, so the windows that just became complete are
// the ones recomputed.
func LookbackStarts(today time.Time, lookbackDays int) []time.Time {
	var starts []time.Time
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	for i := 0; i < lookbackDays; i++ {
		d := day.AddDate(0, 0, -i)
		if d.Day() == 1 {
			starts = append(starts, d)
		}
	}

	return starts
}

// WindowsFrom builds the windows for an explicit set of start dates,
// filtering out any whose end date exceeds today.
func WindowsFrom(starts []time.Time, holdingYears int, today time.Time) []Window {
	var out []Window
	for _, s := range starts {
		end := s.AddDate(holdingYears, 0, 0)
		if end.After(today) {
			continue
		}
		out = append(out, Window{Start: s, End: end, HoldingYears: holdingYears})
	}
	return out
}

// WindowsEnding builds the windows that close on the given end dates. Ends
// after today are filtered out so a pass never evaluates an open window.
func WindowsEnding(ends []time.Time, holdingYears int, today time.Time) []Window {
	var out []Window
	for _, end := range ends {
		if end.After(today) {
			continue
		}
		out = append(out, Window{
			Start:        end.AddDate(-holdingYears, 0, 0),
			End:          end,
			HoldingYears: holdingYears,
		})
	}
	return out
}

// For converts a window into an evaluation window for a concrete asset.
func (w Window) For(asset domain.Asset) domain.EvaluationWindow {
	return domain.EvaluationWindow{
		Asset:        asset,
		Start:        w.Start,
		End:          w.End,
		HoldingYears: w.HoldingYears,
	}
}
