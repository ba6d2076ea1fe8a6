package domain

import "time"

// EvaluationWindow is one (asset, start, end, holding period) candidate.
// End is always Start advanced by exactly HoldingYears calendar years, both
// anchored to the first day of a month. Windows are ephemeral: constructed by
// the schedule generator, evaluated once, never persisted.
type EvaluationWindow struct {
	Asset        Asset
	Start        time.Time
	End          time.Time
	HoldingYears int
}
