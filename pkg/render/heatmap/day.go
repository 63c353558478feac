package heatmap

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/releasecal/pkg/treemap"
)

const (
	detailsTreemap = 420.0
	detailsList    = 420.0
	detailsLine    = 18.0
	detailsGroup   = 30.0
)

// RenderDaySVG draws the day details: a large treemap on the left and the
// day's records grouped by category on the right.
func RenderDaySVG(v *DayView, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)

	listHeight := 0.0
	for _, g := range v.Groups {
		listHeight += detailsGroup + float64(len(g.Records))*detailsLine
	}
	width := 3*margin + detailsTreemap + detailsList
	height := margin + titleHeight + max(detailsTreemap, listHeight) + margin

	var buf bytes.Buffer
	openSVG(&buf, width, height)

	title := r.title
	if title == "" {
		title = v.Title
	}
	fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" font-size="22" font-weight="bold">%s</text>`+"\n",
		margin, margin+24, escapeXML(title))
	fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" font-size="12" fill="%s" text-anchor="end">%s</text>`+"\n",
		width-margin, margin+24, mutedText, escapeXML(daySummary(v)))

	top := margin + titleHeight
	if len(v.Nodes) == 0 {
		fmt.Fprintf(&buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" stroke="%s"/>`+"\n",
			margin, top, detailsTreemap, detailsTreemap, emptyFill, gridStroke)
		fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" font-size="14" fill="%s" text-anchor="middle">No features</text>`+"\n",
			margin+detailsTreemap/2, top+detailsTreemap/2, mutedText)
	} else {
		into := treemap.Rect{X0: margin, Y0: top, X1: margin + detailsTreemap, Y1: top + detailsTreemap}
		buf.WriteString(`  <g class="mosaic">` + "\n")
		for _, n := range v.Nodes {
			renderNode(&buf, n, into, "    ", true)
		}
		buf.WriteString("  </g>\n")
	}

	x := 2*margin + detailsTreemap
	y := top
	for _, g := range v.Groups {
		fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" font-size="15" font-weight="bold" fill="%s">%s (%d)</text>`+"\n",
			x, y+18, escapeXML(g.Color), escapeXML(g.Category), len(g.Records))
		y += detailsGroup
		for _, rec := range g.Records {
			line := "• " + rec.Description
			if rec.Impact != "" {
				line += " [" + rec.Impact + "]"
			}
			fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" font-size="12">%s</text>`+"\n",
				x+8, y+12, escapeXML(truncate(line, detailsList-8, 12)))
			y += detailsLine
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func daySummary(v *DayView) string {
	s := fmt.Sprintf("%d releases", v.Count)
	if v.Count == 1 {
		s = "1 release"
	}
	if v.DaysSince > 0 {
		s += fmt.Sprintf(" · %d days since previous release", v.DaysSince)
	}
	return s
}
