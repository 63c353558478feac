package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/releasecal/pkg/errors"
	"github.com/matzehuels/releasecal/pkg/release"
)

// Quarter is a three-month period of a year. Index is 0-based: 0 covers
// January to March, 3 covers October to December.
type Quarter struct {
	Year  int `json:"year"`
	Index int `json:"index"`
}

// NewQuarter returns the quarter with the given 0-based index.
func NewQuarter(year, index int) (Quarter, error) {
	if index < 0 || index > 3 {
		return Quarter{}, errors.New(errors.ErrCodeInvalidQuarter, "quarter index %d out of range 0..3", index)
	}
	return Quarter{Year: year, Index: index}, nil
}

// QuarterOf returns the quarter containing d.
func QuarterOf(d release.Day) Quarter {
	return Quarter{Year: d.Year, Index: (int(d.Month) - 1) / 3}
}

// FirstQuarter returns the first quarter of a year range, where browsing
// starts.
func FirstQuarter(yr release.YearRange) Quarter {
	return Quarter{Year: yr.Min}
}

var quarterPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(\d{4})\s*[-_ ]?\s*q([1-4])$`),
	regexp.MustCompile(`^q([1-4])\s*[-_ ]?\s*(\d{4})$`),
}

// ParseQuarter accepts "2022Q1", "2022-q1", "Q1 2022" and "q1-2022".
func ParseQuarter(s string) (Quarter, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	for i, re := range quarterPatterns {
		m := re.FindStringSubmatch(in)
		if m == nil {
			continue
		}
		yearPart, qPart := m[1], m[2]
		if i == 1 {
			yearPart, qPart = m[2], m[1]
		}
		year, _ := strconv.Atoi(yearPart)
		q, _ := strconv.Atoi(qPart)
		return Quarter{Year: year, Index: q - 1}, nil
	}
	return Quarter{}, errors.New(errors.ErrCodeInvalidQuarter, "cannot parse quarter %q", s)
}

// Months returns the three months of the quarter.
func (q Quarter) Months() [3]time.Month {
	first := time.Month(q.Index*3 + 1)
	return [3]time.Month{first, first + 1, first + 2}
}

// Contains reports whether d falls in the quarter.
func (q Quarter) Contains(d release.Day) bool {
	return QuarterOf(d) == q
}

// Days returns every day of the quarter in order.
func (q Quarter) Days() []release.Day {
	var days []release.Day
	for _, m := range q.Months() {
		days = append(days, MonthDays(q.Year, m)...)
	}
	return days
}

// Label is the display form, e.g. "Q1 2022".
func (q Quarter) Label() string {
	return fmt.Sprintf("Q%d %d", q.Index+1, q.Year)
}

// String is the compact form used in URLs and cache keys, e.g. "2022Q1".
func (q Quarter) String() string {
	return fmt.Sprintf("%dQ%d", q.Year, q.Index+1)
}

// Next returns the following quarter. Moving past Q4 only happens while the
// year is below yr.Max; otherwise q is returned unchanged.
func (q Quarter) Next(yr release.YearRange) Quarter {
	switch {
	case q.Index < 3:
		q.Index++
	case q.Year < yr.Max:
		q.Year++
		q.Index = 0
	}
	return q
}

// Prev returns the preceding quarter. Moving before Q1 only happens while the
// year is above yr.Min; otherwise q is returned unchanged.
func (q Quarter) Prev(yr release.YearRange) Quarter {
	switch {
	case q.Index > 0:
		q.Index--
	case q.Year > yr.Min:
		q.Year--
		q.Index = 3
	}
	return q
}

// MarshalText implements encoding.TextMarshaler.
func (q Quarter) MarshalText() ([]byte, error) { return []byte(q.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Quarter) UnmarshalText(b []byte) error {
	parsed, err := ParseQuarter(string(b))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthDays returns every day of the month in order.
func MonthDays(year int, month time.Month) []release.Day {
	n := DaysIn(year, month)
	days := make([]release.Day, n)
	for i := range days {
		days[i] = release.Day{Year: year, Month: month, Day: i + 1}
	}
	return days
}

// LeadingBlanks returns how many cells precede the 1st of the month in a
// Sunday-first week grid.
func LeadingBlanks(year int, month time.Month) int {
	return int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
}
