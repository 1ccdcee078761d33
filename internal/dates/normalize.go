package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Layout is the canonical date layout returned by Normalize.
const Layout = "2006-01-02"

// ErrNoMatch means the input did not look like any supported date.
var ErrNoMatch = errors.New("could not parse date")

// ErrInvalidDate means the input had a supported shape but named a day
// that does not exist, like 31.02.2025.
var ErrInvalidDate = fmt.Errorf("%w: not a calendar date", ErrNoMatch)

var markerRegex = regexp.MustCompile(`(?i)^(?:MHD|EXP)[:\s]*`)

// order says which submatch holds which part; 0 means absent.
type order struct{ day, month, year int }

type format struct {
	name  string
	re    *regexp.Regexp
	order order
	// monthName is set when the month group is an abbreviation.
	monthName bool
}

// Numeric groups must not be embedded in a longer digit run.
const (
	lead  = `(?:^|\D)`
	trail = `(?:\D|$)`
)

var formats = []format{
	{name: "DD.MM.YYYY", re: regexp.MustCompile(lead + `(\d{2})\.(\d{2})\.(\d{4})` + trail), order: order{day: 1, month: 2, year: 3}},
	{name: "MM.YYYY", re: regexp.MustCompile(lead + `(\d{2})\.(\d{4})` + trail), order: order{month: 1, year: 2}},
	{name: "DD/MM/YYYY", re: regexp.MustCompile(lead + `(\d{2})[/-](\d{2})[/-](\d{4})` + trail), order: order{day: 1, month: 2, year: 3}},
	{name: "MM/YYYY", re: regexp.MustCompile(lead + `(\d{2})[/-](\d{4})` + trail), order: order{month: 1, year: 2}},
	{name: "YYYY-MM-DD", re: regexp.MustCompile(lead + `(\d{4})[/.-](\d{2})[/.-](\d{2})` + trail), order: order{year: 1, month: 2, day: 3}},
	{
		name:      "DD MMM YYYY",
		re:        regexp.MustCompile(`(?i)` + lead + `(\d{2})[\s.]+(JAN|FEB|MÄR|MAR|APR|MAI|MAY|JUN|JUL|AUG|SEP|OKT|OCT|NOV|DEZ|DEC)[\s.]+(\d{4})` + trail),
		order:     order{day: 1, month: 2, year: 3},
		monthName: true,
	},
}

var monthAbbrev = map[string]time.Month{
	"JAN": time.January,
	"FEB": time.February,
	"MÄR": time.March, "MAR": time.March,
	"APR": time.April,
	"MAI": time.May, "MAY": time.May,
	"JUN": time.June,
	"JUL": time.July,
	"AUG": time.August,
	"SEP": time.September,
	"OKT": time.October, "OCT": time.October,
	"NOV": time.November,
	"DEZ": time.December, "DEC": time.December,
}

// Normalize converts a raw date string (an OCR candidate, a scanner
// hand-off, or user input) into YYYY-MM-DD. Formats are tried in a fixed
// order and the first one whose shape matches decides the result. Two
// leading numbers are read day first. A month and year without a day
// resolve to the last day of that month.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(norm.NFC.String(raw))
	s = markerRegex.ReplaceAllString(s, "")

	for _, f := range formats {
		m := f.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}

		year, _ := strconv.Atoi(m[f.order.year])
		var month time.Month
		if f.monthName {
			month = monthAbbrev[strings.ToUpper(m[f.order.month])]
		} else {
			n, _ := strconv.Atoi(m[f.order.month])
			month = time.Month(n)
		}
		if month < time.January || month > time.December {
			return "", fmt.Errorf("%w: %q has month %d", ErrInvalidDate, raw, month)
		}

		last := daysIn(year, month)
		day := last
		if f.order.day != 0 {
			day, _ = strconv.Atoi(m[f.order.day])
			if day < 1 || day > last {
				return "", fmt.Errorf("%w: %q has day %d", ErrInvalidDate, raw, day)
			}
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day), nil
	}

	return "", fmt.Errorf("%w: %q", ErrNoMatch, raw)
}

// ParseDate normalizes raw and returns midnight of that day in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	s, err := Normalize(raw)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(Layout, s, loc)
}

// daysIn returns the number of days in month, counting leap years.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
