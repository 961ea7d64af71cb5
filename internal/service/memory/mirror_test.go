package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandevgo/recall/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyLog_Append(t *testing.T) {
	dir := t.TempDir()
	mirror := NewDailyLog(dir)

	ts := time.Date(2025, 8, 20, 14, 30, 5, 0, time.UTC)
	require.NoError(t, mirror.Append(core.Fact{
		Content:   "first fact of the day",
		Source:    core.SourceTelegram,
		Timestamp: ts,
	}))
	require.NoError(t, mirror.Append(core.Fact{
		Content:   "second fact",
		Timestamp: ts.Add(time.Minute),
	}))

	data, err := os.ReadFile(filepath.Join(dir, "2025-08-20.md"))
	require.NoError(t, err)

	want := "# Facts 2025-08-20\n\n" +
		"- [14:30:05] [telegram] first fact of the day\n" +
		"- [14:31:05] [unknown] second fact\n"
	assert.Equal(t, want, string(data))
}

func TestDailyLog_SplitsByDay(t *testing.T) {
	dir := t.TempDir()
	mirror := NewDailyLog(dir)

	require.NoError(t, mirror.Append(core.Fact{
		Content:   "late",
		Timestamp: time.Date(2025, 8, 20, 23, 59, 59, 0, time.UTC),
	}))
	require.NoError(t, mirror.Append(core.Fact{
		Content:   "early",
		Timestamp: time.Date(2025, 8, 21, 0, 0, 1, 0, time.UTC),
	}))

	_, err := os.Stat(filepath.Join(dir, "2025-08-20.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "2025-08-21.md"))
	assert.NoError(t, err)
}
