package sqlite_test

import (
	"context"
	"testing"

	"github.com/sandevgo/recall/internal/storage/sqlite"
	"github.com/sandevgo/recall/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferenceRepo_ConfidenceEvolution(t *testing.T) {
	repo := sqlite.NewPreferenceRepo(test.NewDB(t))
	ctx := context.Background()

	// First observation lands at the neutral starting point.
	p, err := repo.Upsert(ctx, 1, "trading", "risk_profile", "aggressive", true)
	require.NoError(t, err)
	assert.Equal(t, 0.5, p.Confidence)
	assert.Equal(t, 1, p.EvidenceCount)

	// Three confirmations climb to 0.8.
	for i := 0; i < 3; i++ {
		p, err = repo.Upsert(ctx, 1, "trading", "risk_profile", "aggressive", true)
		require.NoError(t, err)
	}
	assert.InDelta(t, 0.8, p.Confidence, 1e-9)
	assert.Equal(t, 4, p.EvidenceCount)

	// One contradiction drops faster than a confirmation climbs.
	p, err = repo.Upsert(ctx, 1, "trading", "risk_profile", "conservative", false)
	require.NoError(t, err)
	assert.InDelta(t, 0.65, p.Confidence, 1e-9)

	// Last write wins on the stored value.
	prefs, err := repo.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	assert.Equal(t, "conservative", prefs[0].Value)
	assert.Equal(t, 5, prefs[0].EvidenceCount)
}

func TestPreferenceRepo_ConfidenceClamps(t *testing.T) {
	repo := sqlite.NewPreferenceRepo(test.NewDB(t))
	ctx := context.Background()

	var err error
	for i := 0; i < 10; i++ {
		_, err = repo.Upsert(ctx, 2, "ui", "theme", "dark", true)
		require.NoError(t, err)
	}
	p, err := repo.Upsert(ctx, 2, "ui", "theme", "dark", true)
	require.NoError(t, err)
	assert.InDelta(t, 0.95, p.Confidence, 1e-9, "confirmations cap at 0.95")

	for i := 0; i < 10; i++ {
		p, err = repo.Upsert(ctx, 2, "ui", "theme", "light", false)
		require.NoError(t, err)
	}
	assert.InDelta(t, 0.10, p.Confidence, 1e-9, "contradictions floor at 0.10")
}

func TestPreferenceRepo_DefaultCategory(t *testing.T) {
	repo := sqlite.NewPreferenceRepo(test.NewDB(t))

	p, err := repo.Upsert(context.Background(), 3, "", "timezone", "UTC", true)
	require.NoError(t, err)
	assert.Equal(t, "general", p.Category)
}

func TestPreferenceRepo_ValueConflicts(t *testing.T) {
	repo := sqlite.NewPreferenceRepo(test.NewDB(t))
	ctx := context.Background()

	// Same key in two categories with diverging values. Both need to clear
	// the confidence threshold before the pair counts as a conflict.
	_, err := repo.Upsert(ctx, 7, "trading", "risk_profile", "aggressive", true)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, 7, "general", "risk_profile", "conservative", true)
	require.NoError(t, err)

	pairs, err := repo.ValueConflicts(ctx, 0.4)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, pairs[0][0].Key, pairs[0][1].Key)
	assert.NotEqual(t, pairs[0][0].Value, pairs[0][1].Value)

	// Raising the bar above both confidences hides the pair.
	pairs, err = repo.ValueConflicts(ctx, 0.6)
	require.NoError(t, err)
	assert.Empty(t, pairs)

	// Agreement on the value is never a conflict.
	_, err = repo.Upsert(ctx, 7, "general", "risk_profile", "aggressive", true)
	require.NoError(t, err)
	pairs, err = repo.ValueConflicts(ctx, 0.4)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
