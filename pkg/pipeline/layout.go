package pipeline

import (
	"context"

	"github.com/matzehuels/releasecal/pkg/calendar"
	"github.com/matzehuels/releasecal/pkg/release"
	"github.com/matzehuels/releasecal/pkg/render/heatmap"
)

// BuildQuarterView builds the view model of q without touching the cache.
// The browser and the stats command use it directly.
func BuildQuarterView(ctx context.Context, snap *release.Snapshot, q calendar.Quarter, opts Options) (*heatmap.QuarterView, error) {
	opts.SetLayoutDefaults()
	return heatmap.BuildQuarter(ctx, calendar.NewIndex(orEmpty(snap)), q, opts.ViewOptions())
}

// BuildDayView builds the details view of d without touching the cache.
func BuildDayView(ctx context.Context, snap *release.Snapshot, d release.Day, opts Options) (*heatmap.DayView, error) {
	opts.SetLayoutDefaults()
	return heatmap.BuildDay(ctx, calendar.NewIndex(orEmpty(snap)), d, opts.ViewOptions())
}
