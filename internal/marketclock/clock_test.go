package marketclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClock(t *testing.T) *Clock {
	t.Helper()
	c, err := New()
	require.NoError(t, err)
	return c
}

func et(t *testing.T, value string) time.Time {
	t.Helper()
	c := newClock(t)
	parsed, err := time.ParseInLocation("2006-01-02 15:04", value, c.Location())
	require.NoError(t, err)
	return parsed
}

func TestIsOpen(t *testing.T) {
	c := newClock(t)

	tests := []struct {
		name string
		when string
		open bool
	}{
		{"weekday midday", "2026-03-10 11:00", true},
		{"at the close", "2026-03-10 16:00", true},
		{"before the open", "2026-03-10 09:00", false},
		{"after hours", "2026-03-10 18:30", false},
		{"saturday", "2026-03-14 11:00", false},
		{"sunday", "2026-03-15 11:00", false},
		{"christmas", "2026-12-25 11:00", false},
		{"juneteenth", "2026-06-19 11:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			open, reason := c.IsOpen(et(t, tt.when))
			assert.Equal(t, tt.open, open)
			if !tt.open {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestIsTradingDay(t *testing.T) {
	c := newClock(t)

	assert.True(t, c.IsTradingDay(et(t, "2026-03-10 02:00")))
	assert.False(t, c.IsTradingDay(et(t, "2026-03-14 11:00")))
	assert.False(t, c.IsTradingDay(et(t, "2026-07-03 11:00"))) // observed holiday
}

func TestNextRunSameDay(t *testing.T) {
	c := newClock(t)

	// 10:00 Tuesday, hours {11, 15}: next run is 11:00 the same day.
	next := c.NextRun(et(t, "2026-03-10 10:00"), []int{15, 11})
	assert.Equal(t, et(t, "2026-03-10 11:00"), next)
}

func TestNextRunSkipsWeekend(t *testing.T) {
	c := newClock(t)

	// Friday after the last slot rolls over the weekend to Monday.
	next := c.NextRun(et(t, "2026-03-13 16:30"), []int{11})
	assert.Equal(t, et(t, "2026-03-16 11:00"), next)
}

func TestNextRunSkipsHoliday(t *testing.T) {
	c := newClock(t)

	// Christmas 2026 falls on Friday; Thursday evening jumps to Monday.
	next := c.NextRun(et(t, "2026-12-24 20:00"), []int{11})
	assert.Equal(t, et(t, "2026-12-28 11:00"), next)
}

func TestNextRunMarketOpenHourUsesHalfPast(t *testing.T) {
	c := newClock(t)

	next := c.NextRun(et(t, "2026-03-10 07:00"), []int{9})
	assert.Equal(t, et(t, "2026-03-10 09:30"), next)
}
