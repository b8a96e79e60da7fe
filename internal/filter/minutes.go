// Package filter implements the recipe filter engine: time extraction, query
// tokenization, the visibility predicate, match highlighting and the filter
// pass over a page's records.
package filter

import (
	"regexp"
	"strconv"
)

var (
	minutesRe = regexp.MustCompile(`(?i)(\d+)\s*min`)
	integerRe = regexp.MustCompile(`(\d+)\b`)
	digitRe   = regexp.MustCompile(`\d`)
)

// ExtractMinutes returns the first integer in text that is followed by a
// "min" unit ("10 mins", "5min", "20 Minutes"). When no such number exists it
// falls back to the first bare integer. ok is false when text holds no usable
// integer.
func ExtractMinutes(text string) (minutes int, ok bool) {
	if text == "" {
		return 0, false
	}
	m := minutesRe.FindStringSubmatch(text)
	if m == nil {
		m = integerRe.FindStringSubmatch(text)
	}
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		// Out of range for int.
		return 0, false
	}
	return n, true
}

// extractMinutesPtr is ExtractMinutes returning nil for "absent".
func extractMinutesPtr(text string) *int {
	n, ok := ExtractMinutes(text)
	if !ok {
		return nil
	}
	return &n
}

// ParseBound converts a selected maximum-time value into a bound. Values that
// are empty or contain no digit mean "no bound" and yield nil.
func ParseBound(value string) *int {
	if value == "" || !digitRe.MatchString(value) {
		return nil
	}
	return extractMinutesPtr(value)
}

// RecordMinutes extracts the minutes shown in a card's time label, or nil.
func RecordMinutes(label string) *int {
	return extractMinutesPtr(label)
}
