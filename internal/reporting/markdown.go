package reporting

import (
	"fmt"
	"strings"
	"time"
)

func formatTitle(strategy string, years int) string {
	return fmt.Sprintf("%s, %d-Year Windows", strategy, years)
}

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Performance Run Summary\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	sb.WriteString("## Engine Runs\n\n")
	if len(r.Runs) > 0 {
		sb.WriteString("| Strategy | Mode | Assets | Tasks | Computed | Skipped | Failed | Written | Elapsed | Tasks/s |\n")
		sb.WriteString("|----------|------|--------|-------|----------|---------|--------|---------|---------|--------|\n")
		for _, run := range r.Runs {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %d | %d | %d | %s | %.1f |\n",
				run.Strategy, run.Mode,
				run.Assets, run.Tasks, run.Computed, run.Skipped, run.Failed, run.Written,
				run.Elapsed.Round(time.Millisecond), run.TasksPerSecond()))
		}
	} else {
		sb.WriteString("No engine runs in this cycle.\n")
	}
	sb.WriteString("\n")

	for _, section := range r.Leaderboards {
		sb.WriteString(fmt.Sprintf("## %s\n\n", section.Title))
		if len(section.Rows) == 0 {
			sb.WriteString("No records.\n\n")
			continue
		}
		sb.WriteString("| # | Symbol | Class | Window | CAGR % | Max DD % | Sharpe |\n")
		sb.WriteString("|---|--------|-------|--------|--------|----------|--------|\n")
		for _, row := range section.Rows {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s to %s | %.2f | %.2f | %.2f |\n",
				row.Rank, row.Symbol, row.Class, row.StartDate, row.EndDate,
				row.AnnualizedReturnPct, row.MaxDrawdownPct, row.SharpeRatio))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
