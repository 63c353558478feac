package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/releasecal/pkg/observability"
	"github.com/matzehuels/releasecal/pkg/render/heatmap"
)

// Render encodes a view in the formats of opts.
func Render(ctx context.Context, view heatmap.View, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		start := time.Now()
		observability.Pipeline().OnRenderStart(ctx, format)

		data, err := renderFormat(view, format, opts)
		observability.Pipeline().OnRenderComplete(ctx, format, len(data), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(view heatmap.View, format string, opts Options) ([]byte, error) {
	svgOpts := opts.SVGOptions()
	switch format {
	case FormatSVG:
		return heatmap.SVG(view, svgOpts...), nil
	case FormatJSON:
		return heatmap.RenderJSON(view)
	case FormatPNG:
		return heatmap.RenderPNG(view, heatmap.WithSVGOptions(svgOpts...), heatmap.WithScale(opts.Scale))
	case FormatPDF:
		return heatmap.RenderPDF(view, heatmap.WithSVGOptions(svgOpts...))
	}
	return nil, ValidateFormat(format)
}
