package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/internal/storage/sqlite"
	"github.com/sandevgo/recall/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retain(t *testing.T, repo *sqlite.FactRepo, content string, ts time.Time, opts ...func(*core.Fact)) int64 {
	t.Helper()
	fact := core.Fact{
		Content:    content,
		Confidence: 1.0,
		Timestamp:  ts,
	}
	for _, opt := range opts {
		opt(&fact)
	}
	id, err := repo.Retain(context.Background(), fact, nil)
	require.NoError(t, err)
	return id
}

func withSource(s core.Source) func(*core.Fact) {
	return func(f *core.Fact) { f.Source = s }
}

func withConfidence(c float64) func(*core.Fact) {
	return func(f *core.Fact) { f.Confidence = c }
}

func TestFactRepo_RetainAndGet(t *testing.T) {
	repo := sqlite.NewFactRepo(test.NewDB(t))
	ctx := context.Background()

	id, err := repo.Retain(ctx, core.Fact{
		Content:    "KR8TIV token launched on Solana",
		Context:    "launch notes",
		Source:     core.SourceTelegram,
		Confidence: 0.8,
	}, []core.Mention{{Name: "KR8TIV", Type: core.EntityToken, Text: "KR8TIV"}})
	require.NoError(t, err)
	require.NotZero(t, id)

	fact, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "KR8TIV token launched on Solana", fact.Content)
	assert.Equal(t, "launch notes", fact.Context)
	assert.Equal(t, core.SourceTelegram, fact.Source)
	assert.Equal(t, 0.8, fact.Confidence)
	assert.Equal(t, core.FactActive, fact.State)

	// The mention row joins the fact to its lazily created entity.
	results, err := repo.SearchByEntity(ctx, "KR8TIV", 10, core.FilterAll)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].FactID)
}

func TestFactRepo_GetUnknown(t *testing.T) {
	repo := sqlite.NewFactRepo(test.NewDB(t))

	_, err := repo.Get(context.Background(), 9999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFactRepo_ArchiveVisibility(t *testing.T) {
	repo := sqlite.NewFactRepo(test.NewDB(t))
	ctx := context.Background()

	id := retain(t, repo, "archived insight about treasury flows", time.Now().UTC())
	require.NoError(t, repo.Archive(ctx, id))
	// Idempotent.
	require.NoError(t, repo.Archive(ctx, id))

	results, err := repo.Search(ctx, "treasury flows", 10, core.SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = repo.Search(ctx, "treasury flows", 10, core.SearchFilters{IncludeArchived: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].FactID)
}

func TestFactRepo_ArchiveUnknown(t *testing.T) {
	repo := sqlite.NewFactRepo(test.NewDB(t))
	assert.ErrorIs(t, repo.Archive(context.Background(), 424242), core.ErrNotFound)
}

func TestFactRepo_SearchFilters(t *testing.T) {
	repo := sqlite.NewFactRepo(test.NewDB(t))
	ctx := context.Background()

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	todayID := retain(t, repo, "momentum trade on BONK today", midnight.Add(time.Second), withSource(core.SourceTreasury))
	retain(t, repo, "momentum trade on BONK yesterday", midnight.Add(-2*time.Hour), withSource(core.SourceTelegram))
	retain(t, repo, "momentum trade low conviction", now, withConfidence(0.2))

	tests := []struct {
		name    string
		query   string
		filters core.SearchFilters
		wantIDs []int64
	}{
		{
			name:    "today filter keeps one second after midnight, drops yesterday",
			query:   "momentum BONK",
			filters: core.SearchFilters{TimeFilter: core.FilterToday},
			wantIDs: []int64{todayID},
		},
		{
			name:    "source filter",
			query:   "momentum BONK",
			filters: core.SearchFilters{Source: core.SourceTreasury},
			wantIDs: []int64{todayID},
		},
		{
			name:    "confidence floor drops weak fact",
			query:   "momentum conviction",
			filters: core.SearchFilters{MinConfidence: 0.5},
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := repo.Search(ctx, tt.query, 10, tt.filters)
			require.NoError(t, err)

			var ids []int64
			for _, r := range results {
				ids = append(ids, r.FactID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFactRepo_SearchScoresNonNegative(t *testing.T) {
	repo := sqlite.NewFactRepo(test.NewDB(t))
	ctx := context.Background()

	retain(t, repo, "whale accumulation detected on chain", time.Now().UTC())

	results, err := repo.Search(ctx, "whale accumulation", 10, core.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.GreaterOrEqual(t, results[0].Score, 0.0)
}

func TestFactRepo_SearchSpecialCharacters(t *testing.T) {
	repo := sqlite.NewFactRepo(test.NewDB(t))
	ctx := context.Background()

	retain(t, repo, `user said "risk-on" for Q3`, time.Now().UTC())

	// Reserved FTS syntax must be treated as literals, not operators.
	for _, query := range []string{`"risk-on"`, `risk-on AND NOT`, `(Q3)`} {
		_, err := repo.Search(ctx, query, 10, core.SearchFilters{})
		require.NoError(t, err, "query %q", query)
	}
}

func TestFactRepo_Recent(t *testing.T) {
	repo := sqlite.NewFactRepo(test.NewDB(t))
	ctx := context.Background()

	now := time.Now().UTC()
	retain(t, repo, "oldest fact", now.Add(-2*time.Hour), withSource(core.SourceX))
	newest := retain(t, repo, "newest fact", now, withSource(core.SourceTelegram))

	results, err := repo.Recent(ctx, 10, core.SourceUnset)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, newest, results[0].FactID)

	results, err = repo.Recent(ctx, 10, core.SourceX)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "oldest fact", results[0].Content)
}

func TestFactRepo_ArchiveOlderThan(t *testing.T) {
	repo := sqlite.NewFactRepo(test.NewDB(t))
	ctx := context.Background()

	now := time.Now().UTC()
	staleID := retain(t, repo, "stale market note", now.AddDate(0, 0, -40))
	freshID := retain(t, repo, "fresh market note", now)

	archived, err := repo.ArchiveOlderThan(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, staleID, archived[0].ID)
	assert.Equal(t, core.FactArchived, archived[0].State)

	stale, err := repo.Get(ctx, staleID)
	require.NoError(t, err)
	assert.Equal(t, core.FactArchived, stale.State)

	fresh, err := repo.Get(ctx, freshID)
	require.NoError(t, err)
	assert.Equal(t, core.FactActive, fresh.State)

	// Nothing left past retention.
	archived, err = repo.ArchiveOlderThan(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Empty(t, archived)
}

func TestFactRepo_Between(t *testing.T) {
	repo := sqlite.NewFactRepo(test.NewDB(t))
	ctx := context.Background()

	day := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	retain(t, repo, "inside window", day.Add(10*time.Hour))
	retain(t, repo, "outside window", day.AddDate(0, 0, 2))

	facts, err := repo.Between(ctx, day, day.Add(23*time.Hour+59*time.Minute+59*time.Second))
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "inside window", facts[0].Content)
}
