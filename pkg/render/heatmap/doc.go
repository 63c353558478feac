// Package heatmap renders release calendars.
//
// # Overview
//
// Rendering happens in two steps:
//
//  1. Build a view model from a [calendar.Index]: [BuildQuarter] produces
//     three month grids whose day cells carry a heat fill, the gap to the
//     previous release and the day's category treemap; [BuildDay] produces
//     the details of a single day.
//  2. Render the view: [RenderSVG] and [RenderDaySVG] draw SVG, [RenderJSON]
//     encodes either view, and [RenderPNG] and [RenderPDF] convert the SVG
//     with rsvg-convert.
//
// Treemap geometry is computed by [treemap.Layout] in a 100x100 unit square
// and only scaled here.
//
// # Usage
//
//	idx := calendar.NewIndex(store.Snapshot())
//	view, err := heatmap.BuildQuarter(ctx, idx, q, heatmap.Options{})
//	svg := heatmap.RenderSVG(view, heatmap.WithDayLinks("/days/"))
//
// [calendar.Index]: github.com/matzehuels/releasecal/pkg/calendar.Index
// [treemap.Layout]: github.com/matzehuels/releasecal/pkg/treemap.Layout
package heatmap
