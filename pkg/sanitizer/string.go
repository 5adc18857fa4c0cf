package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeText is used for free-form fields such as feedback, diagnosis
// and provider notes.
func NormalizeText(text string) string {
	return TrimAndNormalize(text)
}

// NormalizeWeekday maps any casing of a weekday name to its canonical
// title-cased form. Unknown values normalize to "".
func NormalizeWeekday(day string) string {
	day = strings.ToLower(TrimAndNormalize(day))

	switch day {
	case "monday":
		return "Monday"
	case "tuesday":
		return "Tuesday"
	case "wednesday":
		return "Wednesday"
	case "thursday":
		return "Thursday"
	case "friday":
		return "Friday"
	case "saturday":
		return "Saturday"
	case "sunday":
		return "Sunday"
	}
	return ""
}
