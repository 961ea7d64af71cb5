package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSource(t *testing.T) {
	for _, valid := range []string{"telegram", "treasury", "x", "bags_intel", "buy_tracker", "system", ""} {
		s, err := ParseSource(valid)
		require.NoError(t, err, valid)
		assert.Equal(t, Source(valid), s)
	}

	_, err := ParseSource("usenet")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestParseTimeFilter(t *testing.T) {
	f, err := ParseTimeFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	f, err = ParseTimeFilter("week")
	require.NoError(t, err)
	assert.Equal(t, FilterWeek, f)

	_, err = ParseTimeFilter("fortnight")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestTimeFilterCutoff(t *testing.T) {
	now := time.Date(2024, 1, 10, 15, 42, 7, 0, time.UTC)

	tests := []struct {
		filter TimeFilter
		want   time.Time
	}{
		{FilterToday, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{FilterWeek, now.AddDate(0, 0, -7)},
		{FilterMonth, now.AddDate(0, 0, -30)},
		{FilterQuarter, now.AddDate(0, 0, -90)},
		{FilterYear, now.AddDate(0, 0, -365)},
		{FilterAll, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Cutoff(now))
		})
	}
}

func TestTimeFilterCutoff_NormalizesZone(t *testing.T) {
	// 23:30 in UTC+2 is 21:30 UTC the same day; the midnight alignment must
	// happen in UTC, not the caller's zone.
	zone := time.FixedZone("UTC+2", 2*3600)
	now := time.Date(2024, 1, 10, 23, 30, 0, 0, zone)

	got := FilterToday.Cutoff(now)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), got)
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "telegram:12345", SessionKey("telegram", "12345"))
}

func TestValidateConfidence(t *testing.T) {
	assert.NoError(t, ValidateConfidence(0))
	assert.NoError(t, ValidateConfidence(0.5))
	assert.NoError(t, ValidateConfidence(1))
	assert.Error(t, ValidateConfidence(-0.01))
	assert.Error(t, ValidateConfidence(1.01))
}

func TestErrorUnwrapping(t *testing.T) {
	inner := errors.New("disk full")
	serr := &StorageError{Op: "retain", Err: inner}
	assert.ErrorIs(t, serr, inner)

	aerr := &AdapterUnavailableError{Backend: "chromem", Err: inner}
	assert.ErrorIs(t, aerr, inner)
}
