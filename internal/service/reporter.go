package service

import (
	"fmt"
	"strings"
	"time"
)

// GenerateConsoleReport formats a loop result for terminal output
func GenerateConsoleReport(result *LoopResult) string {
	var builder strings.Builder
	builder.WriteString("Evaluation Loop Report\n")
	builder.WriteString("======================\n")
	builder.WriteString(fmt.Sprintf("Run ID: %s\n", result.RunID))
	builder.WriteString(fmt.Sprintf("Races: %d\n", result.Races))
	builder.WriteString(fmt.Sprintf("Strategies: %d\n", result.Strategies))
	builder.WriteString(fmt.Sprintf("Experience Rows: %d\n", result.ExperienceRows))
	if result.ExperiencePath != "" {
		builder.WriteString(fmt.Sprintf("Experience File: %s\n", result.ExperiencePath))
	}
	builder.WriteString(fmt.Sprintf("Playbook: %s\n", result.PlaybookPath))
	builder.WriteString(fmt.Sprintf("Duration: %s\n", result.Duration.Round(time.Millisecond)))

	global := result.Playbook.Global
	builder.WriteString("\nGlobal\n")
	builder.WriteString("------\n")
	builder.WriteString(fmt.Sprintf("Total Bets: %d\n", global.TotalBets))
	builder.WriteString(fmt.Sprintf("Total Staked: %.2f\n", global.TotalStaked))
	builder.WriteString(fmt.Sprintf("Total Profit: %.2f\n", global.TotalProfit))
	builder.WriteString(fmt.Sprintf("POT: %.2f%%\n", global.PotPct))
	if global.HitRate != nil {
		builder.WriteString(fmt.Sprintf("Hit Rate: %.2f%%\n", *global.HitRate*100))
	}

	if len(result.Playbook.Strategies) > 0 {
		builder.WriteString("\nTop Strategies\n")
		builder.WriteString("--------------\n")
		top := result.Playbook.Strategies
		if len(top) > 5 {
			top = top[:5]
		}
		for _, s := range top {
			roi := "n/a"
			if s.ROIPct != nil {
				roi = fmt.Sprintf("%.2f%%", *s.ROIPct)
			}
			sig := ""
			if s.Significant != nil && *s.Significant {
				sig = " *"
			}
			builder.WriteString(fmt.Sprintf("%s  bets=%d roi=%s pot=%.2f%%%s\n",
				s.StrategyID, s.Bets, roi, s.PotPct, sig))
		}
	}

	return builder.String()
}
