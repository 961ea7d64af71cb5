package memory

import (
	"testing"
	"time"

	"github.com/sandevgo/recall/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuseRRF_SharedHitAccumulates(t *testing.T) {
	keyword := []core.SearchResult{
		{FactID: 1, Content: "keyword only"},
		{FactID: 2, Content: "shared"},
	}
	vector := []core.SearchResult{
		{Content: "shared"},
	}

	fused := fuseRRF(60,
		rankedList{weight: 0.5, results: keyword},
		rankedList{weight: 0.5, results: vector},
	)

	require.Len(t, fused, 2)

	// Keyword rank 2 contributes 0.5/62, vector rank 1 adds 0.5/61; the
	// shared hit overtakes the keyword-only one.
	assert.Equal(t, "shared", fused[0].Content)
	assert.Equal(t, 0.5/62+0.5/61, fused[0].Score)
	assert.Equal(t, "keyword only", fused[1].Content)
	assert.Equal(t, 0.5/61, fused[1].Score)

	// The record carrying fact metadata wins the merge.
	assert.Equal(t, int64(2), fused[0].FactID)
}

func TestFuseRRF_VectorRecordUpgraded(t *testing.T) {
	// Vector hit arrives first without a fact id; the keyword record for the
	// same content supplies it.
	vector := []core.SearchResult{{Content: "shared", Score: 0.91}}
	keyword := []core.SearchResult{{FactID: 7, Content: "shared"}}

	fused := fuseRRF(60,
		rankedList{weight: 0.5, results: vector},
		rankedList{weight: 0.5, results: keyword},
	)

	require.Len(t, fused, 1)
	assert.Equal(t, int64(7), fused[0].FactID)
	assert.Equal(t, 0.5/61+0.5/61, fused[0].Score)
}

func TestFuseRRF_TieBreaksByFirstAppearance(t *testing.T) {
	a := []core.SearchResult{{FactID: 1, Content: "first"}}
	b := []core.SearchResult{{FactID: 2, Content: "second"}}

	fused := fuseRRF(60,
		rankedList{weight: 0.5, results: a},
		rankedList{weight: 0.5, results: b},
	)

	require.Len(t, fused, 2)
	assert.Equal(t, "first", fused[0].Content)
	assert.Equal(t, "second", fused[1].Content)
	assert.Equal(t, fused[0].Score, fused[1].Score)
}

func TestApplyFilters(t *testing.T) {
	fixed := time.Date(2025, 8, 20, 15, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return fixed }
	defer func() { timeNow = time.Now }()

	results := []core.SearchResult{
		{Content: "keeps", Source: core.SourceTelegram, Confidence: 0.9, Timestamp: fixed.Add(-time.Hour)},
		{Content: "too weak", Source: core.SourceTelegram, Confidence: 0.2, Timestamp: fixed.Add(-time.Hour)},
		{Content: "wrong source", Source: core.SourceX, Confidence: 0.9, Timestamp: fixed.Add(-time.Hour)},
		{Content: "too old", Source: core.SourceTelegram, Confidence: 0.9, Timestamp: fixed.AddDate(0, 0, -8)},
	}

	got := applyFilters(results, core.SearchFilters{
		TimeFilter:    core.FilterWeek,
		Source:        core.SourceTelegram,
		MinConfidence: 0.5,
	})

	require.Len(t, got, 1)
	assert.Equal(t, "keeps", got[0].Content)
}

func TestApplyFilters_NoConstraints(t *testing.T) {
	results := []core.SearchResult{
		{Content: "a", Confidence: 0.1},
		{Content: "b", Confidence: 0.9},
	}
	got := applyFilters(results, core.SearchFilters{})
	assert.Len(t, got, 2)
}
