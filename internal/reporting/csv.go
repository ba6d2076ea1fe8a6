package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders one leaderboard section as a CSV string.
func RenderCSV(section LeaderboardSection) string {
	var sb strings.Builder

	sb.WriteString("rank,symbol,asset_class,start_date,end_date,annualized_return_pct,max_drawdown_pct,sharpe_ratio\n")
	for _, row := range section.Rows {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s,%s,%.6f,%.6f,%.6f\n",
			row.Rank,
			row.Symbol,
			row.Class,
			row.StartDate,
			row.EndDate,
			row.AnnualizedReturnPct,
			row.MaxDrawdownPct,
			row.SharpeRatio,
		))
	}

	return sb.String()
}
