package heatmap

import "github.com/matzehuels/releasecal/pkg/render"

// RasterOption configures [RenderPNG] and [RenderPDF].
type RasterOption func(*rasterRenderer)

type rasterRenderer struct {
	svgOpts []SVGOption
	scale   float64
}

// WithSVGOptions passes options through to the underlying SVG renderer.
func WithSVGOptions(opts ...SVGOption) RasterOption {
	return func(r *rasterRenderer) { r.svgOpts = opts }
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) RasterOption {
	return func(r *rasterRenderer) { r.scale = s }
}

func newRasterRenderer(opts ...RasterOption) rasterRenderer {
	r := rasterRenderer{scale: 2.0}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// SVG renders either view kind as SVG.
func SVG(v View, opts ...SVGOption) []byte {
	switch x := v.(type) {
	case *QuarterView:
		return RenderSVG(x, opts...)
	case *DayView:
		return RenderDaySVG(x, opts...)
	}
	return nil
}

// RenderPNG renders the view as PNG via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(v View, opts ...RasterOption) ([]byte, error) {
	r := newRasterRenderer(opts...)
	return render.ToPNG(SVG(v, r.svgOpts...), r.scale)
}

// RenderPDF renders the view as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(v View, opts ...RasterOption) ([]byte, error) {
	r := newRasterRenderer(opts...)
	return render.ToPDF(SVG(v, r.svgOpts...))
}
