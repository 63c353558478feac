// Package render holds output helpers shared by the calendar renderers.
//
// # Overview
//
// Renderers produce SVG. The [ToPDF] and [ToPNG] functions convert any SVG
// to other formats using the external rsvg-convert tool (from librsvg):
//
//	svg := heatmap.RenderSVG(view)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # Heatmap
//
// The [heatmap] subpackage turns a calendar index into view models for a
// quarter or a single day and renders them as SVG, JSON, PNG or PDF.
//
// [heatmap]: github.com/matzehuels/releasecal/pkg/render/heatmap
package render
