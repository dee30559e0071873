package normalize

import (
	"strconv"
	"strings"
	"time"
)

// monthAbbrev maps Spanish and English month abbreviations (dots removed,
// lower case) to months.
var monthAbbrev = map[string]time.Month{
	"ene": time.January, "jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"abr": time.April, "apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"ago": time.August, "aug": time.August,
	"sep": time.September, "sept": time.September,
	"oct": time.October,
	"nov": time.November,
	"dic": time.December, "dec": time.December,
}

// ParseDateA parses "DD/MM/YYYY".
func ParseDateA(raw string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	return calendarDate(year, month, day)
}

// ParseDateB parses "D MMM YYYY" with a Spanish or English month
// abbreviation ("5 Mar 2025", "12 sept. 2024").
func ParseDateB(raw string) (time.Time, bool) {
	parts := strings.Fields(raw)
	if len(parts) < 3 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	month, ok := monthAbbrev[strings.ReplaceAll(strings.ToLower(parts[1]), ".", "")]
	if !ok {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, false
	}
	return calendarDate(year, int(month), day)
}

// calendarDate rejects dates that time.Date would silently normalize.
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
