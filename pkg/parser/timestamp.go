package parser

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DateOrder is the preferred field order for numeric dates.
type DateOrder string

const (
	// DayFirst reads 03/04/2024 as 3 April.
	DayFirst DateOrder = "day-first"

	// MonthFirst reads 03/04/2024 as 4 March.
	MonthFirst DateOrder = "month-first"
)

// ParseDateOrder validates a date order name. The empty string selects DayFirst.
func ParseDateOrder(s string) (DateOrder, error) {
	switch DateOrder(s) {
	case "", DayFirst:
		return DayFirst, nil
	case MonthFirst:
		return MonthFirst, nil
	default:
		return "", fmt.Errorf("invalid date order %q (must be day-first or month-first)", s)
	}
}

var (
	dayFirstLayouts   = []string{"2/1/2006", "2/1/06"}
	monthFirstLayouts = []string{"1/2/2006", "1/2/06"}
	clockLayouts      = []string{"15:04", "15:04:05", "3:04 PM", "3:04:05 PM"}

	dateSeparators = strings.NewReplacer(".", "/", "-", "/")
)

// ParseDate parses a header date such as "01/02/2023", "15.01.24" or
// "3-4-2024". The preferred order is tried first; the other order is used
// only when the preferred one cannot be a valid date (e.g. a month of 13).
func ParseDate(s string, order DateOrder) (time.Time, error) {
	norm := dateSeparators.Replace(strings.TrimSpace(s))

	layouts := append(append([]string{}, dayFirstLayouts...), monthFirstLayouts...)
	if order == MonthFirst {
		layouts = append(append([]string{}, monthFirstLayouts...), dayFirstLayouts...)
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, norm); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// ParseClock parses a header time in 24-hour form ("21:04", "21:04:11") or
// 12-hour form with a marker ("9:04 pm", "9:04:11PM", "9:04 a"). The result
// carries the clock fields on the zero date.
func ParseClock(s string) (time.Time, error) {
	norm := normalizeClock(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, norm); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", s)
}

// ParseTimestamp combines a header date and time.
func ParseTimestamp(date, clock string, order DateOrder) (time.Time, error) {
	d, err := ParseDate(date, order)
	if err != nil {
		return time.Time{}, err
	}
	c, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, time.UTC), nil
}

// normalizeClock rewrites the marker to the form time.Parse expects:
// a single space, upper case, dots removed, "A"/"P" widened to "AM"/"PM".
func normalizeClock(s string) string {
	s = strings.TrimSpace(formatChars.Replace(s))
	i := strings.IndexFunc(s, unicode.IsLetter)
	if i < 0 {
		return s
	}
	clock := strings.TrimSpace(s[:i])
	marker := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s[i:]), ".", ""))
	marker = strings.Join(strings.Fields(marker), "")
	if len(marker) == 1 {
		marker += "M"
	}
	return clock + " " + marker
}
