package consolidate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")

	in := Status{
		RunID:     "run-1",
		StartedAt: time.Date(2024, 1, 10, 3, 0, 0, 0, time.UTC),
		Outcome:   OutcomeOK,
		Stages: map[string]StageStatus{
			"daily_reflect": {Outcome: OutcomeOK, Detail: "5 facts reflected", ElapsedMS: 120},
		},
		LastReflectDate: "2024-01-09",
		LastWeekStart:   "2024-01-01",
	}
	require.NoError(t, saveStatus(path, in))

	out, err := loadStatus(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// The atomic write leaves no temp file behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoadStatus_Missing(t *testing.T) {
	s, err := loadStatus(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, s.RunID)
	assert.NotNil(t, s.Stages)
}

func TestLoadStatus_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := loadStatus(path)
	assert.Error(t, err)
}

func TestOverallOutcome(t *testing.T) {
	tests := []struct {
		name   string
		stages map[string]StageStatus
		want   string
	}{
		{"all skipped", map[string]StageStatus{"a": {Outcome: OutcomeSkipped}}, OutcomeSkipped},
		{"one ok", map[string]StageStatus{"a": {Outcome: OutcomeSkipped}, "b": {Outcome: OutcomeOK}}, OutcomeOK},
		{"error dominates", map[string]StageStatus{"a": {Outcome: OutcomeOK}, "b": {Outcome: OutcomeError}}, OutcomeError},
		{"empty", map[string]StageStatus{}, OutcomeSkipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, overallOutcome(tt.stages))
		})
	}
}
