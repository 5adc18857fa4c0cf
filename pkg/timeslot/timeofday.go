package timeslot

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is a clock value expressed as minutes since midnight.
// Valid values are in [0, 1439].
type TimeOfDay int

const MinutesPerDay = 24 * 60

// Parse24 parses a zero-padded 24-hour clock string such as "09:00" or "14:30".
func Parse24(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid 24-hour time %q, expected HH:MM", s)
	}

	hour, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, fmt.Errorf("invalid 24-hour time %q, expected HH:MM", s)
	}
	minute, err := strconv.Atoi(s[3:])
	if err != nil {
		return 0, fmt.Errorf("invalid 24-hour time %q, expected HH:MM", s)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}

	return TimeOfDay(hour*60 + minute), nil
}

// Parse12 parses a 12-hour clock string such as "9:00 AM" or "2:30 PM".
// The hour has no leading zero and the meridiem is uppercase, separated
// by a single space.
func Parse12(s string) (TimeOfDay, error) {
	clock, meridiem, found := strings.Cut(s, " ")
	if !found || (meridiem != "AM" && meridiem != "PM") {
		return 0, fmt.Errorf("invalid 12-hour time %q, expected H:MM AM or H:MM PM", s)
	}

	hourStr, minuteStr, found := strings.Cut(clock, ":")
	if !found || len(hourStr) < 1 || len(hourStr) > 2 || len(minuteStr) != 2 {
		return 0, fmt.Errorf("invalid 12-hour time %q, expected H:MM AM or H:MM PM", s)
	}

	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return 0, fmt.Errorf("invalid 12-hour time %q, expected H:MM AM or H:MM PM", s)
	}
	minute, err := strconv.Atoi(minuteStr)
	if err != nil {
		return 0, fmt.Errorf("invalid 12-hour time %q, expected H:MM AM or H:MM PM", s)
	}

	if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}

	if hour == 12 {
		hour = 0
	}
	if meridiem == "PM" {
		hour += 12
	}

	return TimeOfDay(hour*60 + minute), nil
}

// Parse accepts either representation, trying the 24-hour form first.
func Parse(s string) (TimeOfDay, error) {
	if t, err := Parse24(s); err == nil {
		return t, nil
	}
	if t, err := Parse12(s); err == nil {
		return t, nil
	}
	return 0, fmt.Errorf("unrecognized time %q", s)
}

// Format24 renders the value as a zero-padded 24-hour string, e.g. "09:00".
func (t TimeOfDay) Format24() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Format12 renders the value as a 12-hour string with no leading zero on
// the hour, e.g. "9:00 AM" or "2:30 PM".
func (t TimeOfDay) Format12() string {
	hour := int(t) / 60
	minute := int(t) % 60

	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}

	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}

	return fmt.Sprintf("%d:%02d %s", hour12, minute, meridiem)
}

// Representations returns both string forms of the value. Conflict queries
// match against either, so a slot stored as "14:30" blocks a request for
// "2:30 PM" and vice versa.
func (t TimeOfDay) Representations() []string {
	return []string{t.Format24(), t.Format12()}
}

// AddMinutes returns the value shifted forward. The result may exceed the
// day bound; callers building grids compare against the window end.
func (t TimeOfDay) AddMinutes(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}
