// Package calendar answers temporal aggregation queries over a release
// snapshot: features per day, month and quarter, the gap since the previous
// release, maximum daily counts and per-category weights.
//
// An Index is built once per snapshot and is read-only afterwards, so it can
// be queried from many goroutines. An empty snapshot is a normal state and
// yields empty results, never errors.
package calendar

import (
	"cmp"
	"slices"
	"sort"
	"time"

	"github.com/matzehuels/releasecal/pkg/release"
	"github.com/matzehuels/releasecal/pkg/treemap"
)

// Index buckets the records of one snapshot by calendar day.
type Index struct {
	snap     *release.Snapshot
	byDay    map[release.Day][]release.Record
	ordinals []int // distinct release days, ascending
}

// NewIndex builds an index over snap. A nil snapshot is treated as empty.
func NewIndex(snap *release.Snapshot) *Index {
	if snap == nil {
		snap = new(release.Store).Snapshot()
	}

	ix := &Index{
		snap:  snap,
		byDay: make(map[release.Day][]release.Record),
	}
	for _, r := range snap.Records() {
		if _, seen := ix.byDay[r.Date]; !seen {
			ix.ordinals = append(ix.ordinals, r.Date.Ordinal())
		}
		ix.byDay[r.Date] = append(ix.byDay[r.Date], r)
	}
	slices.Sort(ix.ordinals)
	return ix
}

// Snapshot returns the snapshot the index was built from.
func (ix *Index) Snapshot() *release.Snapshot { return ix.snap }

// FeaturesOnDay returns the records released on d in ingestion order.
// The result must not be modified.
func (ix *Index) FeaturesOnDay(d release.Day) []release.Record {
	return ix.byDay[d]
}

// CountOnDay returns len(FeaturesOnDay(d)).
func (ix *Index) CountOnDay(d release.Day) int {
	return len(ix.byDay[d])
}

// FeaturesInMonth returns the records released in the given month.
func (ix *Index) FeaturesInMonth(year int, month time.Month) []release.Record {
	return ix.filter(func(d release.Day) bool { return d.Year == year && d.Month == month })
}

// FeaturesInQuarter returns the records released in q.
func (ix *Index) FeaturesInQuarter(q Quarter) []release.Record {
	return ix.filter(q.Contains)
}

func (ix *Index) filter(keep func(release.Day) bool) []release.Record {
	var out []release.Record
	for _, r := range ix.snap.Records() {
		if keep(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// DaysSincePreviousRelease returns the number of days between d and the
// latest release strictly before d, or 0 if there is none.
func (ix *Index) DaysSincePreviousRelease(d release.Day) int {
	ord := d.Ordinal()
	i := sort.SearchInts(ix.ordinals, ord)
	if i == 0 {
		return 0
	}
	return ord - ix.ordinals[i-1]
}

// MaxDailyCount returns the largest per-day record count over days.
func (ix *Index) MaxDailyCount(days []release.Day) int {
	best := 0
	for _, d := range days {
		best = max(best, len(ix.byDay[d]))
	}
	return best
}

// ColorFunc maps a category to a display color.
type ColorFunc func(category string) string

// CategoryWeights groups records by category and returns one treemap item
// per category weighted by its record count. Items are sorted by count,
// descending, with ties in first-seen order. colors may be nil.
func CategoryWeights(records []release.Record, colors ColorFunc) []treemap.Item {
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		if counts[r.Category] == 0 {
			order = append(order, r.Category)
		}
		counts[r.Category]++
	}

	items := make([]treemap.Item, len(order))
	for i, cat := range order {
		items[i] = treemap.Item{Name: cat, Value: float64(counts[cat])}
		if colors != nil {
			items[i].Color = colors(cat)
		}
	}
	slices.SortStableFunc(items, func(a, b treemap.Item) int { return cmp.Compare(b.Value, a.Value) })
	return items
}

// CategoryCount is the number of records of one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats summarizes a quarter.
type Stats struct {
	Quarter    Quarter         `json:"quarter"`
	Total      int             `json:"total"`
	Categories []CategoryCount `json:"categories"`
}

// QuarterStats counts the records of q per category. Every category of the
// whole dataset is listed, including those with no records in q, sorted by
// count descending with ties in first-seen order.
func (ix *Index) QuarterStats(q Quarter) Stats {
	recs := ix.FeaturesInQuarter(q)

	counts := make(map[string]int, len(ix.snap.Categories()))
	for _, r := range recs {
		counts[r.Category]++
	}

	cats := make([]CategoryCount, 0, len(ix.snap.Categories()))
	for _, c := range ix.snap.Categories() {
		cats = append(cats, CategoryCount{Category: c, Count: counts[c]})
	}
	slices.SortStableFunc(cats, func(a, b CategoryCount) int { return cmp.Compare(b.Count, a.Count) })

	return Stats{Quarter: q, Total: len(recs), Categories: cats}
}
