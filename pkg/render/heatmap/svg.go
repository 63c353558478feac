package heatmap

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/matzehuels/releasecal/pkg/palette"
	"github.com/matzehuels/releasecal/pkg/treemap"
)

const (
	margin       = 24.0
	titleHeight  = 44.0
	monthHeader  = 28.0
	weekdayRow   = 18.0
	cellGap      = 4.0
	monthGap     = 32.0
	statRow      = 22.0
	statsHeader  = 36.0
	defaultCell  = 72.0
	emptyFill    = "#FFFFFF"
	gridStroke   = "#E0E0E0"
	mutedText    = "#6C757D"
	gridRows     = 6
	daysPerWeek  = 7
	fontFamily   = "Helvetica, Arial, sans-serif"
	cellInsetTop = 16.0
	cellInsetBot = 14.0
)

var weekdays = [daysPerWeek]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

const cellCSS = `
    .day .cell { transition: stroke-width 0.15s ease; }
    .day:hover .cell { stroke: #333; stroke-width: 2; }
    .mosaic rect { stroke: #fff; stroke-width: 0.5; }
    a { cursor: pointer; }`

// SVGOption configures [RenderSVG] and [RenderDaySVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	cell     float64
	title    string
	stats    bool
	dayLinks string
}

// WithCellSize sets the side of a day cell in pixels (default 72).
func WithCellSize(px float64) SVGOption {
	return func(r *svgRenderer) {
		if px > 0 {
			r.cell = px
		}
	}
}

// WithTitle replaces the default title.
func WithTitle(s string) SVGOption { return func(r *svgRenderer) { r.title = s } }

// WithoutStats omits the quarter statistics panel.
func WithoutStats() SVGOption { return func(r *svgRenderer) { r.stats = false } }

// WithDayLinks wraps each day with releases in a link to prefix+"YYYY-MM-DD.svg".
func WithDayLinks(prefix string) SVGOption { return func(r *svgRenderer) { r.dayLinks = prefix } }

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{cell: defaultCell, stats: true}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r svgRenderer) monthWidth() float64 {
	return daysPerWeek*r.cell + (daysPerWeek-1)*cellGap
}

func (r svgRenderer) gridHeight() float64 {
	return gridRows*r.cell + (gridRows-1)*cellGap
}

// RenderSVG draws the quarter as three month grids side by side followed by
// the category statistics.
func RenderSVG(v *QuarterView, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)

	mw := r.monthWidth()
	width := 2*margin + float64(len(v.Months))*mw + float64(max(0, len(v.Months)-1))*monthGap
	gridTop := margin + titleHeight + monthHeader + weekdayRow
	height := gridTop + r.gridHeight() + margin
	statsTop := height
	if r.stats {
		height += statsHeader + float64(max(1, len(v.Stats)))*statRow + margin
	}

	var buf bytes.Buffer
	openSVG(&buf, width, height)

	title := r.title
	if title == "" {
		title = fmt.Sprintf("%s · %d releases", v.Label, v.Total)
	}
	fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" font-size="22" font-weight="bold">%s</text>`+"\n",
		margin, margin+24, escapeXML(title))

	for i, m := range v.Months {
		x := margin + float64(i)*(mw+monthGap)
		r.renderMonth(&buf, m, x, margin+titleHeight)
	}

	if r.stats {
		renderStats(&buf, v, margin, statsTop, width-2*margin)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func openSVG(buf *bytes.Buffer, width, height float64) {
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" font-family="%s">`+"\n",
		width, height, width, height, fontFamily)
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", cellCSS)
	fmt.Fprintf(buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", emptyFill)
}

func (r svgRenderer) renderMonth(buf *bytes.Buffer, m MonthView, x, y float64) {
	fmt.Fprintf(buf, `  <g class="month" data-month="%d-%02d">`+"\n", m.Year, int(m.Month))
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="16" font-weight="bold">%s <tspan fill="%s" font-weight="normal">(%d)</tspan></text>`+"\n",
		x, y+18, m.Name, mutedText, m.Count)

	wy := y + monthHeader + 12
	for i, wd := range weekdays {
		cx := x + float64(i)*(r.cell+cellGap) + r.cell/2
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="11" fill="%s" text-anchor="middle">%s</text>`+"\n",
			cx, wy, mutedText, wd)
	}

	top := y + monthHeader + weekdayRow
	for i, c := range m.Days {
		slot := m.LeadingBlanks + i
		cx := x + float64(slot%daysPerWeek)*(r.cell+cellGap)
		cy := top + float64(slot/daysPerWeek)*(r.cell+cellGap)
		r.renderCell(buf, c, cx, cy)
	}
	buf.WriteString("  </g>\n")
}

func (r svgRenderer) renderCell(buf *bytes.Buffer, c DayCell, x, y float64) {
	link := r.dayLinks != "" && c.Count > 0
	if link {
		fmt.Fprintf(buf, `    <a href="%s%s.svg">`+"\n", escapeXML(r.dayLinks), c.Day)
	}

	fill := c.Fill
	if fill == "" {
		fill = emptyFill
	}
	ink := palette.Contrast(fill)

	fmt.Fprintf(buf, `    <g class="day" data-day="%s" data-count="%d" transform="translate(%.1f,%.1f)">`+"\n", c.Day, c.Count, x, y)
	fmt.Fprintf(buf, `      <rect class="cell" width="%.1f" height="%.1f" rx="4" fill="%s" stroke="%s"/>`+"\n",
		r.cell, r.cell, fill, gridStroke)

	if len(c.Nodes) > 0 {
		into := treemap.Rect{X0: 3, Y0: cellInsetTop, X1: r.cell - 3, Y1: r.cell - cellInsetBot}
		buf.WriteString(`      <g class="mosaic">` + "\n")
		for _, n := range c.Nodes {
			renderNode(buf, n, into, "        ", false)
		}
		buf.WriteString("      </g>\n")
	}

	fmt.Fprintf(buf, `      <text class="day-number" x="4" y="12" font-size="11" fill="%s">%d</text>`+"\n", ink, c.Day.Day)
	if c.Count > 0 {
		fmt.Fprintf(buf, `      <text class="day-count" x="%.1f" y="12" font-size="11" font-weight="bold" fill="%s" text-anchor="end">%d</text>`+"\n",
			r.cell-4, ink, c.Count)
	}
	if c.DaysSince > 0 {
		fmt.Fprintf(buf, `      <text class="days-since" x="4" y="%.1f" font-size="9" fill="%s">%dd</text>`+"\n",
			r.cell-4, ink, c.DaysSince)
	}
	buf.WriteString("    </g>\n")

	if link {
		buf.WriteString("    </a>\n")
	}
}

// renderNode draws one treemap rectangle scaled from CellBounds into into.
// With labels set, the "Name (n)" label is drawn inside when it fits.
func renderNode(buf *bytes.Buffer, n treemap.Node, into treemap.Rect, indent string, labels bool) {
	rect := n.Rect.Scale(into, CellBounds)
	if rect.Area() <= 0 {
		return
	}
	label := nodeLabel(n)
	fmt.Fprintf(buf, `%s<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s</title></rect>`+"\n",
		indent, rect.X0, rect.Y0, rect.Width(), rect.Height(), escapeXML(n.Item.Color), escapeXML(label))

	if !labels || rect.Width() < 24 || rect.Height() < 14 {
		return
	}
	size := fontSizeFor(rect.Width(), rect.Height(), len(label), 9, 18)
	fmt.Fprintf(buf, `%s<text x="%.2f" y="%.2f" font-size="%.1f" fill="%s" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
		indent, (rect.X0+rect.X1)/2, (rect.Y0+rect.Y1)/2, size, palette.Contrast(n.Item.Color),
		escapeXML(truncate(label, rect.Width(), size)))
}

func nodeLabel(n treemap.Node) string {
	return n.Item.Name + " (" + strconv.FormatFloat(n.Item.Value, 'f', -1, 64) + ")"
}

func renderStats(buf *bytes.Buffer, v *QuarterView, x, y, width float64) {
	buf.WriteString(`  <g class="stats">` + "\n")
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="16" font-weight="bold">Category statistics · %s</text>`+"\n",
		x, y+20, escapeXML(v.Label))

	if len(v.Stats) == 0 {
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="12" font-style="italic" fill="%s">No data available</text>`+"\n",
			x, y+statsHeader+14, mutedText)
		buf.WriteString("  </g>\n")
		return
	}

	top := 1
	for _, s := range v.Stats {
		top = max(top, s.Count)
	}
	labelW := 220.0
	barW := max(0, width-labelW-60)

	for i, s := range v.Stats {
		ry := y + statsHeader + float64(i)*statRow
		fmt.Fprintf(buf, `    <circle cx="%.1f" cy="%.1f" r="5" fill="%s"/>`+"\n", x+5, ry+8, escapeXML(s.Color))
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="12">%s</text>`+"\n", x+16, ry+12, escapeXML(s.Category))
		fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="12" rx="2" fill="%s"/>`+"\n",
			x+labelW, ry+2, barW*float64(s.Count)/float64(top), escapeXML(s.Color))
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="12" fill="%s">%d</text>`+"\n",
			x+labelW+barW+8, ry+12, mutedText, s.Count)
	}
	buf.WriteString("  </g>\n")
}
