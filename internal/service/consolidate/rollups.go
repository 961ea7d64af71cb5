package consolidate

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/recall/internal/core"
)

const rollupEntityLimit = 200

// rollups re-derives entity summaries from recent mentions and measures
// preference drift inside the lookback window. Summaries are derived state:
// overwriting them is safe and repeatable.
func (c *Consolidator) rollups(ctx context.Context, now time.Time) StageStatus {
	started := time.Now()
	lookback := core.TimeFilter(core.FilterWeek)
	if c.cfg.RollupLookbackDays > 7 {
		lookback = core.FilterMonth
	}

	entities, err := c.entities.List(ctx, "", rollupEntityLimit)
	if err != nil {
		return stageResult(OutcomeError, err.Error(), started)
	}

	updated := 0
	for _, e := range entities {
		recent, err := c.facts.SearchByEntity(ctx, e.Name, 5, lookback)
		if err != nil {
			return stageResult(OutcomeError, err.Error(), started)
		}
		if len(recent) == 0 {
			continue
		}

		summary := fmt.Sprintf("%d mention(s) in the last %d days. Latest: %s",
			len(recent), c.cfg.RollupLookbackDays, recent[0].Content)
		if err := c.entities.UpdateSummary(ctx, e.ID, summary); err != nil {
			return stageResult(OutcomeError, err.Error(), started)
		}
		updated++
	}

	prefs, err := c.prefs.All(ctx)
	if err != nil {
		return stageResult(OutcomeError, err.Error(), started)
	}
	windowStart := now.UTC().AddDate(0, 0, -c.cfg.RollupLookbackDays)
	drifted := 0
	for _, p := range prefs {
		if p.UpdatedAt.After(windowStart) {
			drifted++
		}
	}

	return stageResult(OutcomeOK,
		fmt.Sprintf("%d entity summaries updated, %d preferences drifted", updated, drifted), started)
}
