// Package palette maps release categories to colors and release counts to
// heatmap fills.
//
// All colors are returned as "#rrggbb" strings so that every output format
// (SVG viewed in a browser, rasterized PNG/PDF, terminal styles) can use them
// directly.
package palette

import (
	"maps"
	"sort"
	"strings"

	"github.com/matzehuels/releasecal/pkg/errors"
)

// DefaultColor is used for categories without an assigned color.
const DefaultColor = "#78909C"

// CategoryColors is the built-in category color table.
var CategoryColors = map[string]string{
	"Meeting":                    "#F5A623",
	"Chat features":              "#4A90E2",
	"Contact Center features":    "#5E7F9A",
	"General features":           "#63A375",
	"Mail and Calendar features": "#7B68EE",
	"Phone features":             "#607D8B",
	"Team Chat features":         "#3F51B5",
	"Webinar features":           "#8BC34A",
	"Whiteboard features":        "#00BCD4",
	"Zoom Apps features":         "#009688",
	"Zoom Clips":                 "#9C27B0",
	"Zoom Clips features":        "#673AB7",
	"Zoom Mail and Calendar":     "#2196F3",
	"Uncategorized":              "#78909C",
}

// Palette resolves category colors. Lookups try the exact name first and
// then a trimmed, lowercased match. A Palette is immutable and safe for
// concurrent use.
type Palette struct {
	exact      map[string]string
	normalized map[string]string
	fallback   string
}

// Default returns the built-in palette.
func Default() *Palette {
	p, _ := New(nil, "")
	return p
}

// New returns a palette of the built-in colors with overrides applied.
// An empty fallback means DefaultColor.
func New(overrides map[string]string, fallback string) (*Palette, error) {
	if fallback == "" {
		fallback = DefaultColor
	}
	if err := errors.ValidateHexColor(fallback); err != nil {
		return nil, err
	}

	exact := maps.Clone(CategoryColors)
	for cat, color := range overrides {
		if err := errors.ValidateHexColor(color); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "color for category %q", cat)
		}
		exact[cat] = color
	}

	normalized := make(map[string]string, len(exact))
	for cat, color := range exact {
		normalized[normalize(cat)] = color
	}
	return &Palette{exact: exact, normalized: normalized, fallback: fallback}, nil
}

// Color returns the color of category.
func (p *Palette) Color(category string) string {
	if category == "" {
		return p.fallback
	}
	if c, ok := p.exact[category]; ok {
		return c
	}
	if c, ok := p.normalized[normalize(category)]; ok {
		return c
	}
	return p.fallback
}

// Fallback returns the color used for unknown categories.
func (p *Palette) Fallback() string { return p.fallback }

// Entry is one category/color pair.
type Entry struct {
	Category string `json:"category"`
	Color    string `json:"color"`
}

// Entries lists the configured categories in lexical order.
func (p *Palette) Entries() []Entry {
	out := make([]Entry, 0, len(p.exact))
	for cat, color := range p.exact {
		out = append(out, Entry{Category: cat, Color: color})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
