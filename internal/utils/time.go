package utils

import (
	"fmt"
	"strings"
	"time"
)

func FormatTimeISO(t time.Time) string {
	return t.Format(time.RFC3339)
}

func ParseTimeISO(timeStr string) (time.Time, error) {
	return time.Parse(time.RFC3339, timeStr)
}

func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, 999999999, t.Location())
}

func StartOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday as 7
	}
	return StartOfDay(t.AddDate(0, 0, -weekday+1))
}

func EndOfWeek(t time.Time) time.Time {
	return EndOfDay(StartOfWeek(t).AddDate(0, 0, 6))
}

func StartOfMonth(t time.Time) time.Time {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}

func EndOfMonth(t time.Time) time.Time {
	return EndOfDay(StartOfMonth(t).AddDate(0, 1, -1))
}

func StartOfYear(t time.Time) time.Time {
	year, _, _ := t.Date()
	return time.Date(year, 1, 1, 0, 0, 0, 0, t.Location())
}

func EndOfYear(t time.Time) time.Time {
	return EndOfDay(StartOfYear(t).AddDate(1, 0, -1))
}

// PeriodWindow resolves a named earnings period to its date bounds.
func PeriodWindow(period string, now time.Time) (start, end time.Time, err error) {
	switch period {
	case "today", "day":
		return StartOfDay(now), EndOfDay(now), nil
	case "week":
		return StartOfWeek(now), EndOfWeek(now), nil
	case "month":
		return StartOfMonth(now), EndOfMonth(now), nil
	case "year":
		return StartOfYear(now), EndOfYear(now), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown period %q", period)
	}
}

// PreviousWeekWindow returns the Monday-to-Sunday window that ended
// before now. Weekly payouts settle this window.
func PreviousWeekWindow(now time.Time) (start, end time.Time) {
	start = StartOfWeek(now).AddDate(0, 0, -7)
	end = EndOfDay(start.AddDate(0, 0, 6))
	return start, end
}

// InClockWindows reports whether t's local wall-clock time falls inside any
// of the given "HH:MM-HH:MM" windows. Windows may wrap past midnight.
func InClockWindows(t time.Time, windows []string) bool {
	minutes := t.Hour()*60 + t.Minute()

	for _, window := range windows {
		parts := strings.Split(window, "-")
		if len(parts) != 2 {
			continue
		}
		start, err := parseClockMinutes(parts[0])
		if err != nil {
			continue
		}
		end, err := parseClockMinutes(parts[1])
		if err != nil {
			continue
		}

		if start <= end {
			if minutes >= start && minutes < end {
				return true
			}
		} else if minutes >= start || minutes < end {
			return true
		}
	}

	return false
}

func parseClockMinutes(s string) (int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
