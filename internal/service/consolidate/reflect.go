package consolidate

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sandevgo/recall/internal/core"
)

// yesterdayWindow returns the UTC bounds [00:00:00, 23:59:59] of the day
// before now.
func yesterdayWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	y := now.AddDate(0, 0, -1)
	from := time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(y.Year(), y.Month(), y.Day(), 23, 59, 59, 0, time.UTC)
	return from, to
}

// dailyReflect synthesizes yesterday's facts into prose, appends it to the
// running knowledge document and stores it back as a recallable fact.
// Zero facts in the window is a skipped run, not an error. The stage must
// finish inside the configured budget; exceeding it is a failure.
func (c *Consolidator) dailyReflect(ctx context.Context, now time.Time) StageStatus {
	started := time.Now()
	from, to := yesterdayWindow(now)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReflectBudget)
	defer cancel()

	facts, err := c.facts.Between(ctx, from, to)
	if err != nil {
		return stageResult(OutcomeError, err.Error(), started)
	}
	if len(facts) == 0 {
		return stageResult(OutcomeSkipped, "no facts in window", started)
	}

	prompt := groupBySource(facts)
	prose, err := c.summarizer.Summarize(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return stageResult(OutcomeError, fmt.Sprintf("reflect budget exceeded: %v", ctx.Err()), started)
		}
		return stageResult(OutcomeError, err.Error(), started)
	}

	section := fmt.Sprintf("\n## %s\n\n%s\n", from.Format("2006-01-02"), prose)
	if err := appendFile(c.knowledgePath, section); err != nil {
		return stageResult(OutcomeError, err.Error(), started)
	}

	if _, err := c.memory.RetainFact(ctx, core.RetainRequest{
		Content:    prose,
		Context:    "daily_reflection",
		Source:     core.SourceSystem,
		Confidence: 1.0,
	}); err != nil {
		return stageResult(OutcomeError, err.Error(), started)
	}

	return stageResult(OutcomeOK, fmt.Sprintf("%d facts reflected", len(facts)), started)
}

// groupBySource renders facts as one block per source, sources sorted for
// deterministic prompts.
func groupBySource(facts []core.Fact) string {
	groups := make(map[string][]core.Fact)
	for _, f := range facts {
		source := string(f.Source)
		if source == "" {
			source = "unknown"
		}
		groups[source] = append(groups[source], f)
	}

	sources := make([]string, 0, len(groups))
	for s := range groups {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	var b strings.Builder
	for _, s := range sources {
		fmt.Fprintf(&b, "## %s\n", s)
		for _, f := range groups[s] {
			fmt.Fprintf(&b, "- %s\n", f.Content)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func appendFile(path, text string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}
	return nil
}

func stageResult(outcome, detail string, started time.Time) StageStatus {
	return StageStatus{
		Outcome:   outcome,
		Detail:    detail,
		ElapsedMS: time.Since(started).Milliseconds(),
	}
}
