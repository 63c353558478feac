package release

import (
	"fmt"
	"time"

	"github.com/matzehuels/releasecal/pkg/errors"
)

// DayLayout is the canonical text form of a Day.
const DayLayout = "2006-01-02"

// Day is a calendar day without a time of day or location.
//
// Days are compared by their year/month/day components, never by timestamps,
// so two records released on the same calendar day always land in the same
// bucket regardless of the time zone they were recorded in.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDay returns the day for the given components, rejecting combinations
// that do not exist on the calendar (e.g. February 30).
func NewDay(year int, month time.Month, day int) (Day, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Day{}, errors.New(errors.ErrCodeInvalidDate,
			"%04d-%02d-%02d is not a calendar date", year, int(month), day)
	}
	return Day{Year: year, Month: month, Day: day}, nil
}

// MustDay is like NewDay but panics on invalid input. It is meant for
// constants and tests.
func MustDay(year int, month time.Month, day int) Day {
	d, err := NewDay(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// DayOf truncates t to its calendar day in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// ParseDay parses a day in DayLayout form.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, errors.Wrap(errors.ErrCodeInvalidDate, err, "parse day %q", s)
	}
	return DayOf(t), nil
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Ordinal returns the number of days since 1970-01-01.
// Differences between ordinals are exact whole-day counts.
func (d Day) Ordinal() int {
	return int(d.Time().Unix() / 86400)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o.
func (d Day) Compare(o Day) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// Before reports whether d is strictly earlier than o.
func (d Day) Before(o Day) bool { return d.Compare(o) < 0 }

// After reports whether d is strictly later than o.
func (d Day) After(o Day) bool { return d.Compare(o) > 0 }

// AddDays returns the day n days after d (n may be negative).
func (d Day) AddDays(n int) Day { return DayOf(d.Time().AddDate(0, 0, n)) }

// Weekday returns the day of the week.
func (d Day) Weekday() time.Weekday { return d.Time().Weekday() }

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool { return d == Day{} }

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Range is an inclusive range of days.
type Range struct {
	Start Day `json:"start"`
	End   Day `json:"end"`
}

// DefaultRange is the range releases are accepted in when none is configured.
var DefaultRange = Range{
	Start: Day{Year: 2022, Month: time.January, Day: 1},
	End:   Day{Year: 2024, Month: time.January, Day: 31},
}

// Contains reports whether d lies within the range, bounds included.
func (r Range) Contains(d Day) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Validate checks that the range is non-empty.
func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return errors.New(errors.ErrCodeInvalidDate, "range bounds must be set")
	}
	if r.End.Before(r.Start) {
		return errors.New(errors.ErrCodeInvalidDate, "range end %s is before start %s", r.End, r.Start)
	}
	return nil
}

func (r Range) String() string { return r.Start.String() + ".." + r.End.String() }

// YearRange is the span of years the calendar can navigate.
type YearRange struct {
	Min, Max int
}

// DefaultYearRange is used when a dataset is empty.
var DefaultYearRange = YearRange{Min: 2022, Max: 2024}

// Contains reports whether year lies within the range.
func (y YearRange) Contains(year int) bool { return year >= y.Min && year <= y.Max }
