package reporting

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFiles writes the report to dir: run_summary.md plus one CSV per
// leaderboard section.
func WriteFiles(dir string, report *Report) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(dir, "run_summary.md")
	if err := os.WriteFile(path, []byte(RenderMarkdown(report)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	for _, section := range report.Leaderboards {
		name := fmt.Sprintf("leaderboard_%s_%dy.csv", section.Strategy, section.HoldingYears)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(RenderCSV(section)), 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	return nil
}
