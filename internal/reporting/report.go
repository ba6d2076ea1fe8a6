package reporting

import "time"

// Report is the operator-facing summary of one processing cycle: the engine
// passes that ran plus the current leaderboards.
type Report struct {
	GeneratedAt  time.Time
	Runs         []RunSummary
	Leaderboards []LeaderboardSection
}

// RunSummary folds the outcome counters of one engine pass.
type RunSummary struct {
	Strategy string // "buy_and_hold" or "dca"
	Mode     string // "full" or "incremental"
	Assets   int
	Tasks    int
	Computed int
	Skipped  int
	Failed   int
	Written  int
	Elapsed  time.Duration
}

// TasksPerSecond is the throughput of the pass, 0 for an instant run.
func (r RunSummary) TasksPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Tasks) / r.Elapsed.Seconds()
}

// LeaderboardSection is one ranked table of the report.
type LeaderboardSection struct {
	Title        string
	Strategy     string
	Metric       string
	HoldingYears int
	Rows         []LeaderboardRow
}

// LeaderboardRow is one ranked window.
type LeaderboardRow struct {
	Rank                int
	Symbol              string
	Class               string
	StartDate           string // yyyy-mm-dd
	EndDate             string // yyyy-mm-dd
	AnnualizedReturnPct float64
	MaxDrawdownPct      float64
	SharpeRatio         float64
}
