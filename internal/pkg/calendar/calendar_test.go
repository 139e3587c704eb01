package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodayUsesOperatingTimezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 03:30 UTC is still the previous evening in New York.
	now := time.Date(2026, 3, 10, 3, 30, 0, 0, time.UTC)
	cal := New(ny, func() time.Time { return now })

	assert.Equal(t, "2026-03-09", cal.Today().String())
	assert.Equal(t, "2026-03-10", DayOf(now, time.UTC).String())
}

func TestAddDaysCrossesMonthAndYear(t *testing.T) {
	d := NewDay(2026, time.January, 1)
	assert.Equal(t, "2025-12-31", d.AddDays(-1).String())
	assert.Equal(t, "2026-03-01", NewDay(2026, time.February, 28).AddDays(1).String())
}

func TestDaySQLRoundTrip(t *testing.T) {
	d := NewDay(2026, time.October, 16)

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16", v)

	var scanned Day
	require.NoError(t, scanned.Scan([]byte("2026-10-16")))
	assert.Equal(t, d, scanned)

	var empty Day
	v, err = empty.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsZero())
}

func TestStartIsMidnightInLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	start := NewDay(2026, time.July, 4).Start(ny)
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, ny, start.Location())
	assert.Equal(t, "2026-07-04T04:00:00Z", start.UTC().Format(time.RFC3339))
}
