package timeslot

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date wire format used throughout the API.
const DateLayout = "2006-01-02"

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return d, nil
}

func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// WeekdayName returns the full weekday name ("Monday" .. "Sunday") used by
// provider working-day lists.
func WeekdayName(d time.Time) string {
	return d.Weekday().String()
}

// SameDate reports whether two instants fall on the same calendar date,
// ignoring clock time.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MinutesOfDay converts an instant's clock time to the canonical
// minutes-since-midnight value.
func MinutesOfDay(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}
