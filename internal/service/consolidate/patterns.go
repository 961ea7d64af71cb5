package consolidate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/internal/service/memory"
)

// Textual outcome markers used by the trading bots in fact content.
var (
	winMarkers  = []string{"win", "won", "profit", "tp hit"}
	lossMarkers = []string{"loss", "lost", "stopped out", "sl hit"}
)

// lastCompletedWeek returns the Monday 00:00 and Sunday 23:59:59 UTC bounds
// of the most recently finished Monday-Sunday week.
func lastCompletedWeek(now time.Time) (time.Time, time.Time) {
	now = now.UTC()

	// Monday of the current week.
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	thisMonday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -(weekday - 1))

	start := thisMonday.AddDate(0, 0, -7)
	end := thisMonday.Add(-time.Second)
	return start, end
}

type weekAggregate struct {
	total     int
	wins      int
	losses    int
	bySource  map[string]int
	byEntity  map[string][2]int // entity -> [wins, losses]
	byContext map[string]int
}

// weeklyPatterns aggregates the finished week and hands only the aggregate,
// never raw facts, to the summarizer; the result is written as a dated
// report document.
func (c *Consolidator) weeklyPatterns(ctx context.Context, now time.Time) StageStatus {
	started := time.Now()
	from, to := lastCompletedWeek(now)

	facts, err := c.facts.Between(ctx, from, to)
	if err != nil {
		return stageResult(OutcomeError, err.Error(), started)
	}
	if len(facts) == 0 {
		return stageResult(OutcomeSkipped, "no facts in week", started)
	}

	agg := aggregateWeek(facts)
	report := renderAggregate(from, to, agg)

	insights, err := c.summarizer.Summarize(ctx, report)
	if err != nil {
		return stageResult(OutcomeError, err.Error(), started)
	}

	if err := os.MkdirAll(c.reportsDir, 0755); err != nil {
		return stageResult(OutcomeError, err.Error(), started)
	}
	path := filepath.Join(c.reportsDir, "week-"+from.Format("2006-01-02")+".md")
	doc := fmt.Sprintf("# Week %s to %s\n\n%s\n## Insights\n\n%s\n",
		from.Format("2006-01-02"), to.Format("2006-01-02"), report, insights)
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return stageResult(OutcomeError, err.Error(), started)
	}

	return stageResult(OutcomeOK, fmt.Sprintf("%d facts aggregated", agg.total), started)
}

func aggregateWeek(facts []core.Fact) weekAggregate {
	agg := weekAggregate{
		bySource:  make(map[string]int),
		byEntity:  make(map[string][2]int),
		byContext: make(map[string]int),
	}

	for _, f := range facts {
		agg.total++
		source := string(f.Source)
		if source == "" {
			source = "unknown"
		}
		agg.bySource[source]++
		if f.Context != "" {
			agg.byContext[f.Context]++
		}

		content := strings.ToLower(f.Content)
		win := containsAny(content, winMarkers)
		loss := containsAny(content, lossMarkers)
		if win {
			agg.wins++
		}
		if loss {
			agg.losses++
		}
		if !win && !loss {
			continue
		}

		for _, m := range memory.ExtractMentions(f.Content, f.Context) {
			counts := agg.byEntity[m.Name]
			if win {
				counts[0]++
			}
			if loss {
				counts[1]++
			}
			agg.byEntity[m.Name] = counts
		}
	}
	return agg
}

func renderAggregate(from, to time.Time, agg weekAggregate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Activity %s to %s\n\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Total facts: %d\n", agg.total)
	fmt.Fprintf(&b, "- Wins: %d, Losses: %d\n", agg.wins, agg.losses)
	if agg.wins+agg.losses > 0 {
		rate := float64(agg.wins) / float64(agg.wins+agg.losses) * 100
		fmt.Fprintf(&b, "- Win rate: %.1f%%\n", rate)
	}

	b.WriteString("\n### By source\n")
	for _, source := range sortedKeys(agg.bySource) {
		fmt.Fprintf(&b, "- %s: %d\n", source, agg.bySource[source])
	}

	if len(agg.byEntity) > 0 {
		b.WriteString("\n### Per-entity outcomes\n")
		names := make([]string, 0, len(agg.byEntity))
		for name := range agg.byEntity {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			counts := agg.byEntity[name]
			total := counts[0] + counts[1]
			if total == 0 {
				continue
			}
			rate := float64(counts[0]) / float64(total) * 100
			fmt.Fprintf(&b, "- %s: %d wins / %d losses (%.1f%%)\n", name, counts[0], counts[1], rate)
		}
	}

	b.WriteString("\n")
	return b.String()
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
