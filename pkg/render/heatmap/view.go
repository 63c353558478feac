package heatmap

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/releasecal/pkg/calendar"
	"github.com/matzehuels/releasecal/pkg/errors"
	"github.com/matzehuels/releasecal/pkg/observability"
	"github.com/matzehuels/releasecal/pkg/palette"
	"github.com/matzehuels/releasecal/pkg/release"
	"github.com/matzehuels/releasecal/pkg/treemap"
)

// CellBounds is the unit square treemaps are laid out in.
var CellBounds = treemap.Rect{X0: 0, Y0: 0, X1: 100, Y1: 100}

// DetailsTitleLayout formats the title of the day details view.
const DetailsTitleLayout = "January 2, 2006"

// Options control view building.
type Options struct {
	Palette *palette.Palette
	Heat    palette.HeatOptions
	// Parallelism bounds concurrent day layouts. Defaults to GOMAXPROCS.
	Parallelism int
}

func (o Options) withDefaults() Options {
	if o.Palette == nil {
		o.Palette = palette.Default()
	}
	if o.Heat.Scheme == "" {
		o.Heat.Scheme = palette.SchemeHue
	}
	if o.Parallelism <= 0 {
		o.Parallelism = runtime.GOMAXPROCS(0)
	}
	return o
}

// View is implemented by *QuarterView and *DayView.
type View interface {
	view()
}

// DayCell is one day of a month grid.
type DayCell struct {
	Day   release.Day `json:"day"`
	Count int         `json:"count"`
	// Fill is the heat color, empty for days without releases.
	Fill      string         `json:"fill,omitempty"`
	DaysSince int            `json:"days_since_previous"`
	Nodes     []treemap.Node `json:"nodes,omitempty"`
}

// MonthView is one month grid of a quarter.
type MonthView struct {
	Year          int        `json:"year"`
	Month         time.Month `json:"month"`
	Name          string     `json:"name"`
	Count         int        `json:"count"`
	LeadingBlanks int        `json:"leading_blanks"`
	Days          []DayCell  `json:"days"`
}

// StatEntry is a category row of the quarter stats panel.
type StatEntry struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Color    string `json:"color"`
}

// QuarterView is the heatmap of one quarter.
type QuarterView struct {
	Quarter   calendar.Quarter    `json:"quarter"`
	Label     string              `json:"label"`
	Months    []MonthView         `json:"months"`
	MaxCount  int                 `json:"max_count"`
	Total     int                 `json:"total"`
	Stats     []StatEntry         `json:"stats"`
	Heat      palette.HeatOptions `json:"heat"`
	ColorName string              `json:"color_name"`
}

func (*QuarterView) view() {}

// CategoryGroup lists the records of one category on a day.
type CategoryGroup struct {
	Category string           `json:"category"`
	Color    string           `json:"color"`
	Records  []release.Record `json:"records"`
}

// DayView is the details of a single day.
type DayView struct {
	Day       release.Day     `json:"day"`
	Title     string          `json:"title"`
	Count     int             `json:"count"`
	DaysSince int             `json:"days_since_previous"`
	Nodes     []treemap.Node  `json:"nodes"`
	Groups    []CategoryGroup `json:"groups"`
}

func (*DayView) view() {}

// BuildQuarter builds the view of q. Day treemaps are laid out concurrently;
// the first layout error aborts the build.
func BuildQuarter(ctx context.Context, idx *calendar.Index, q calendar.Quarter, opts Options) (*QuarterView, error) {
	opts = opts.withDefaults()
	days := q.Days()
	peak := idx.MaxDailyCount(days)

	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, "quarter", len(days))

	cells := make([]DayCell, len(days))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallelism)
	for i, d := range days {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cell, err := buildCell(idx, d, peak, opts)
			cells[i] = cell
			return err
		})
	}
	err := g.Wait()
	observability.Pipeline().OnLayoutComplete(ctx, "quarter", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	v := &QuarterView{
		Quarter:   q,
		Label:     q.Label(),
		MaxCount:  peak,
		Heat:      opts.Heat,
		ColorName: palette.ColorName(opts.Heat.Hue),
	}

	offset := 0
	for _, m := range q.Months() {
		n := calendar.DaysIn(q.Year, m)
		mv := MonthView{
			Year:          q.Year,
			Month:         m,
			Name:          m.String(),
			LeadingBlanks: calendar.LeadingBlanks(q.Year, m),
			Days:          cells[offset : offset+n],
		}
		for _, c := range mv.Days {
			mv.Count += c.Count
		}
		v.Months = append(v.Months, mv)
		offset += n
	}

	stats := idx.QuarterStats(q)
	v.Total = stats.Total
	v.Stats = make([]StatEntry, len(stats.Categories))
	for i, c := range stats.Categories {
		v.Stats[i] = StatEntry{Category: c.Category, Count: c.Count, Color: opts.Palette.Color(c.Category)}
	}
	return v, nil
}

func buildCell(idx *calendar.Index, d release.Day, peak int, opts Options) (DayCell, error) {
	recs := idx.FeaturesOnDay(d)
	cell := DayCell{
		Day:       d,
		Count:     len(recs),
		Fill:      palette.HeatFill(len(recs), peak, opts.Heat),
		DaysSince: idx.DaysSincePreviousRelease(d),
	}
	if len(recs) == 0 {
		return cell, nil
	}

	nodes, err := treemap.Layout(calendar.CategoryWeights(recs, opts.Palette.Color), CellBounds)
	if err != nil {
		return cell, errors.Wrap(errors.GetCode(err), err, "layout %s", d)
	}
	cell.Nodes = nodes
	return cell, nil
}

// BuildDay builds the details view of d. Records are grouped by category
// in first-seen order.
func BuildDay(ctx context.Context, idx *calendar.Index, d release.Day, opts Options) (*DayView, error) {
	opts = opts.withDefaults()
	recs := idx.FeaturesOnDay(d)

	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, "day", len(recs))
	nodes, err := treemap.Layout(calendar.CategoryWeights(recs, opts.Palette.Color), CellBounds)
	observability.Pipeline().OnLayoutComplete(ctx, "day", time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "layout %s", d)
	}

	v := &DayView{
		Day:       d,
		Title:     d.Time().Format(DetailsTitleLayout),
		Count:     len(recs),
		DaysSince: idx.DaysSincePreviousRelease(d),
		Nodes:     nodes,
	}

	pos := make(map[string]int)
	for _, r := range recs {
		i, ok := pos[r.Category]
		if !ok {
			i = len(v.Groups)
			pos[r.Category] = i
			v.Groups = append(v.Groups, CategoryGroup{Category: r.Category, Color: opts.Palette.Color(r.Category)})
		}
		v.Groups[i].Records = append(v.Groups[i].Records, r)
	}
	return v, nil
}
