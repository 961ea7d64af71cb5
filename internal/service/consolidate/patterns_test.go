package consolidate

import (
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/recall/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestYesterdayWindow(t *testing.T) {
	now := time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC)
	from, to := yesterdayWindow(now)

	assert.Equal(t, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 1, 9, 23, 59, 59, 0, time.UTC), to)
}

func TestYesterdayWindow_MonthBoundary(t *testing.T) {
	now := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)
	from, to := yesterdayWindow(now)

	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), to)
}

func TestLastCompletedWeek(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "midweek",
			now:       time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC), // Wednesday
			wantStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "monday starts a fresh week",
			now:       time.Date(2024, 1, 8, 0, 30, 0, 0, time.UTC),
			wantStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "sunday still belongs to the running week",
			now:       time.Date(2024, 1, 7, 23, 0, 0, 0, time.UTC),
			wantStart: time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := lastCompletedWeek(tt.now)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestAggregateWeek(t *testing.T) {
	facts := []core.Fact{
		{Content: "TP hit on BONK scalp", Source: core.SourceTreasury, Context: "trade_result"},
		{Content: "stopped out of WIF position", Source: core.SourceTreasury, Context: "trade_result"},
		{Content: "neutral market note", Source: core.SourceTelegram},
	}

	agg := aggregateWeek(facts)

	assert.Equal(t, 3, agg.total)
	assert.Equal(t, 1, agg.wins)
	assert.Equal(t, 1, agg.losses)
	assert.Equal(t, 2, agg.bySource["treasury"])
	assert.Equal(t, 1, agg.bySource["telegram"])
	assert.Equal(t, [2]int{1, 0}, agg.byEntity["BONK"])
	assert.Equal(t, [2]int{0, 1}, agg.byEntity["WIF"])
	assert.Equal(t, 2, agg.byContext["trade_result"])
}

func TestRenderAggregate(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC)
	agg := weekAggregate{
		total:    4,
		wins:     3,
		losses:   1,
		bySource: map[string]int{"treasury": 4},
		byEntity: map[string][2]int{"BONK": {3, 1}},
	}

	report := renderAggregate(from, to, agg)

	assert.Contains(t, report, "Total facts: 4")
	assert.Contains(t, report, "Win rate: 75.0%")
	assert.Contains(t, report, "- treasury: 4")
	assert.Contains(t, report, "- BONK: 3 wins / 1 losses (75.0%)")
}

func TestRenderAggregate_NoOutcomes(t *testing.T) {
	agg := weekAggregate{total: 2, bySource: map[string]int{"telegram": 2}}
	report := renderAggregate(time.Time{}, time.Time{}, agg)
	assert.False(t, strings.Contains(report, "Win rate"))
}
