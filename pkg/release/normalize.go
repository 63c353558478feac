package release

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/matzehuels/releasecal/pkg/errors"
)

// Row is one raw record as produced by an ingestion source, keyed by column
// name. Values are strings, numbers, booleans, time.Time or nil.
type Row map[string]any

// Source columns.
const (
	ColumnDate        = "Release Date"
	ColumnCategory    = "Group / Category"
	ColumnDescription = "Feature Description"
)

// NoDescription replaces an empty feature description.
const NoDescription = "No description available"

// Column alternates accepted in addition to the canonical names.
var (
	dateColumns        = []string{ColumnDate, "date"}
	categoryColumns    = []string{ColumnCategory, "category", "group"}
	descriptionColumns = []string{ColumnDescription, "description"}
)

// Alias rewrites any category containing Contains (case-insensitive) to
// Category.
type Alias struct {
	Contains string `toml:"contains" json:"contains"`
	Category string `toml:"category" json:"category"`
}

// DefaultAliases merges every meeting-related category into "Meeting".
var DefaultAliases = []Alias{{Contains: "meeting", Category: "Meeting"}}

// NormalizeOptions controls Normalize.
type NormalizeOptions struct {
	// Range filters records by release day. Zero means DefaultRange.
	Range Range
	// Aliases are applied in order, first match wins. Nil means
	// DefaultAliases; an empty non-nil slice disables aliasing.
	Aliases []Alias
}

// SkippedRow describes a row Normalize dropped.
type SkippedRow struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Report summarizes a Normalize run.
type Report struct {
	Total       int          `json:"total"`
	Accepted    int          `json:"accepted"`
	InvalidDate int          `json:"invalid_date"`
	OutOfRange  int          `json:"out_of_range"`
	Skipped     []SkippedRow `json:"skipped,omitempty"`
}

// maxSkippedDetails bounds Report.Skipped.
const maxSkippedDetails = 20

// Normalize converts raw rows into records.
//
// Rows whose release date cannot be parsed are dropped and counted; they are
// not an error. Rows outside the range are dropped too. The remaining records
// keep the ingestion order of rows.
func Normalize(rows []Row, opts NormalizeOptions) ([]Record, Report, error) {
	rng := opts.Range
	if rng == (Range{}) {
		rng = DefaultRange
	}
	if err := rng.Validate(); err != nil {
		return nil, Report{}, err
	}
	aliases := opts.Aliases
	if aliases == nil {
		aliases = DefaultAliases
	}

	report := Report{Total: len(rows)}
	skip := func(i int, format string, args ...any) {
		if len(report.Skipped) < maxSkippedDetails {
			report.Skipped = append(report.Skipped, SkippedRow{Index: i, Reason: fmt.Sprintf(format, args...)})
		}
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		rawDate := row.get(dateColumns...)
		day, err := ParseDate(rawDate)
		if err != nil {
			report.InvalidDate++
			skip(i, "invalid date %v", rawDate)
			continue
		}
		if !rng.Contains(day) {
			report.OutOfRange++
			skip(i, "%s outside %s", day, rng)
			continue
		}

		category := ApplyAliases(strings.TrimSpace(stringify(row.get(categoryColumns...))), aliases)
		rawDesc := strings.TrimSpace(stringify(row.get(descriptionColumns...)))
		desc := rawDesc
		if desc == "" {
			desc = NoDescription
		}

		rec := NewRecord(i, day, category, desc)
		rec.Impact = Impact(rawDesc)
		rec.Raw = row.toStrings()
		records = append(records, rec)
	}
	report.Accepted = len(records)
	return records, report, nil
}

// ApplyAliases returns the category of the first alias whose Contains
// occurs in category, or category itself. An empty category becomes
// Uncategorized before aliases are tried.
func ApplyAliases(category string, aliases []Alias) string {
	if category == "" {
		category = Uncategorized
	}
	lower := strings.ToLower(category)
	for _, a := range aliases {
		if a.Contains != "" && strings.Contains(lower, strings.ToLower(a.Contains)) {
			return a.Category
		}
	}
	return category
}

// dateLayouts are tried in order for string dates.
var dateLayouts = []string{
	DayLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate converts a raw date value into a Day. Strings are matched
// against the supported layouts; numbers (and numeric strings) are read as
// spreadsheet serial dates. A timestamp keeps the calendar day it was
// written with.
func ParseDate(v any) (Day, error) {
	switch x := v.(type) {
	case nil:
		return Day{}, errors.New(errors.ErrCodeInvalidDate, "missing date")
	case Day:
		return x, nil
	case time.Time:
		if x.IsZero() {
			return Day{}, errors.New(errors.ErrCodeInvalidDate, "zero time")
		}
		return DayOf(x), nil
	case string:
		return parseDateString(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Day{}, errors.Wrap(errors.ErrCodeInvalidDate, err, "parse date %q", x)
		}
		return fromSerial(f)
	case float64:
		return fromSerial(x)
	case float32:
		return fromSerial(float64(x))
	case int:
		return fromSerial(float64(x))
	case int32:
		return fromSerial(float64(x))
	case int64:
		return fromSerial(float64(x))
	}
	return Day{}, errors.New(errors.ErrCodeInvalidDate, "unsupported date value %T", v)
}

func parseDateString(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Day{}, errors.New(errors.ErrCodeInvalidDate, "empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DayOf(t), nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromSerial(f)
	}
	return Day{}, errors.New(errors.ErrCodeInvalidDate, "unrecognized date %q", s)
}

func fromSerial(f float64) (Day, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 1 || f > 2958465 {
		return Day{}, errors.New(errors.ErrCodeInvalidDate, "serial date %v out of range", f)
	}
	return DayOf(excelEpoch.AddDate(0, 0, int(math.Floor(f)))), nil
}

func (r Row) get(names ...string) any {
	for _, n := range names {
		if v, ok := r[n]; ok {
			return v
		}
	}
	for _, n := range names {
		want := canonicalKey(n)
		for k, v := range r {
			if canonicalKey(k) == want {
				return v
			}
		}
	}
	return nil
}

func (r Row) toStrings() map[string]string {
	out := make(map[string]string, len(r))
	for k, v := range r {
		out[k] = stringify(v)
	}
	return out
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// canonicalKey lowercases s and drops everything but letters and digits.
func canonicalKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
