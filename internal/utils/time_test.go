package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftserve/internal/utils"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "midweek",
			in:   date(2026, time.August, 26, 15, 30),
			want: date(2026, time.August, 24, 0, 0),
		},
		{
			name: "monday stays put",
			in:   date(2026, time.August, 24, 0, 0),
			want: date(2026, time.August, 24, 0, 0),
		},
		{
			name: "sunday belongs to the week that started six days earlier",
			in:   date(2026, time.August, 30, 23, 59),
			want: date(2026, time.August, 24, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.StartOfWeek(tt.in))
		})
	}
}

func TestPreviousWeekWindow(t *testing.T) {
	start, end := utils.PreviousWeekWindow(date(2026, time.August, 26, 10, 0))

	assert.Equal(t, date(2026, time.August, 17, 0, 0), start)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, time.Sunday, end.Weekday())
	assert.Equal(t, 23, end.Hour())
	assert.True(t, end.Before(date(2026, time.August, 24, 0, 0)))
}

func TestPeriodWindow(t *testing.T) {
	now := date(2026, time.August, 26, 12, 0)

	start, end, err := utils.PeriodWindow("today", now)
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.August, 26, 0, 0), start)
	assert.Equal(t, 26, end.Day())
	assert.Equal(t, 23, end.Hour())

	start, end, err = utils.PeriodWindow("month", now)
	require.NoError(t, err)
	assert.Equal(t, 1, start.Day())
	assert.Equal(t, 31, end.Day())

	_, _, err = utils.PeriodWindow("fortnight", now)
	assert.Error(t, err)
}

func TestInClockWindows(t *testing.T) {
	windows := []string{"11:00-14:00", "18:00-21:00"}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"inside lunch window", date(2026, time.August, 26, 12, 30), true},
		{"window start is inclusive", date(2026, time.August, 26, 11, 0), true},
		{"window end is exclusive", date(2026, time.August, 26, 14, 0), false},
		{"between windows", date(2026, time.August, 26, 16, 0), false},
		{"inside dinner window", date(2026, time.August, 26, 19, 45), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.InClockWindows(tt.at, windows))
		})
	}

	t.Run("window wrapping midnight", func(t *testing.T) {
		late := []string{"22:00-02:00"}
		assert.True(t, utils.InClockWindows(date(2026, time.August, 26, 23, 15), late))
		assert.True(t, utils.InClockWindows(date(2026, time.August, 27, 1, 59), late))
		assert.False(t, utils.InClockWindows(date(2026, time.August, 27, 3, 0), late))
	})

	t.Run("malformed windows are skipped", func(t *testing.T) {
		assert.False(t, utils.InClockWindows(date(2026, time.August, 26, 12, 0), []string{"noon-ish", "11:00"}))
	})
}
