// Package pipeline runs the load → layout → render pipeline behind the CLI,
// the terminal browser and the preview server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read rows from a source, normalize them into records, enrich
//     them and install the result in a release.Store
//  2. Layout: index a snapshot and build the quarter or day view model
//  3. Render: encode the view as SVG, PNG, PDF or JSON
//
// Rendered artifacts are cached under keys derived from the snapshot
// fingerprint and the render options, so a repeated render of an unchanged
// dataset skips layout and rendering entirely.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	store := release.NewStore(nil)
//	loaded, err := runner.Load(ctx, store, pipeline.Options{Source: "releases.csv"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	q, _ := calendar.ParseQuarter("2023Q2")
//	result, err := runner.RenderQuarter(ctx, loaded.Snapshot, q, pipeline.Options{})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/releasecal/pkg/cache"
	"github.com/matzehuels/releasecal/pkg/errors"
	"github.com/matzehuels/releasecal/pkg/palette"
	"github.com/matzehuels/releasecal/pkg/release"
	"github.com/matzehuels/releasecal/pkg/render/heatmap"
)

const (
	// DefaultSource is used when no source is configured.
	DefaultSource = "sample:"

	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// DefaultTTL is how long rendered artifacts stay cached.
	DefaultTTL = 24 * time.Hour
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// Options contains all configuration for the pipeline.
type Options struct {
	// Load options
	Source         string          `json:"source,omitempty"`
	Seed           uint64          `json:"seed,omitempty"` // sample generator seed
	Table          string          `json:"table,omitempty"`
	Collection     string          `json:"collection,omitempty"`
	Sheet          string          `json:"sheet,omitempty"`
	ConnectTimeout time.Duration   `json:"-"`
	Range          release.Range   `json:"range"`
	Aliases        []release.Alias `json:"aliases,omitempty"`

	// Layout options
	Heat        palette.HeatOptions `json:"heat"`
	Parallelism int                 `json:"parallelism,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	CellSize float64  `json:"cell_size,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	DayLinks string   `json:"day_links,omitempty"`
	NoStats  bool     `json:"no_stats,omitempty"`
	Title    string   `json:"title,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Enricher release.Enricher `json:"-"`
	Palette  *palette.Palette `json:"-"`
	TTL      time.Duration    `json:"-"`
	Logger   *log.Logger      `json:"-"`
}

// LoadResult is the outcome of a load.
type LoadResult struct {
	Source   string
	Snapshot *release.Snapshot
	Report   release.Report
	Duration time.Duration
}

// Result contains the outputs of a render.
type Result struct {
	// View is the view model. It is nil when every artifact came from cache.
	View heatmap.View

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks whether the artifacts came from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateForLoad checks load options and applies their defaults.
func (o *Options) ValidateForLoad() error {
	if o.Source == "" {
		o.Source = DefaultSource
	}
	if o.Range == (release.Range{}) {
		o.Range = release.DefaultRange
	}
	if err := o.Range.Validate(); err != nil {
		return err
	}
	if o.Enricher == nil {
		o.Enricher = release.NopEnricher{}
	}
	o.setLogger()
	return nil
}

// SetLayoutDefaults sets default values for view building.
func (o *Options) SetLayoutDefaults() {
	if o.Palette == nil {
		o.Palette = palette.Default()
	}
	if o.Heat.Scheme == "" {
		o.Heat.Scheme = palette.SchemeHue
		if o.Heat.Hue == 0 {
			o.Heat.Hue = palette.DefaultHue
		}
	}
	o.setLogger()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for layout and rendering.
func (o *Options) ValidateForRender() error {
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := errors.ValidateHue(o.Heat.Hue); err != nil {
		return err
	}
	if _, err := palette.ParseScheme(string(o.Heat.Scheme)); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ViewOptions returns the options for the heatmap view builders.
func (o *Options) ViewOptions() heatmap.Options {
	return heatmap.Options{Palette: o.Palette, Heat: o.Heat, Parallelism: o.Parallelism}
}

// SVGOptions returns the options for the SVG renderers.
func (o *Options) SVGOptions() []heatmap.SVGOption {
	var opts []heatmap.SVGOption
	if o.CellSize > 0 {
		opts = append(opts, heatmap.WithCellSize(o.CellSize))
	}
	if o.Title != "" {
		opts = append(opts, heatmap.WithTitle(o.Title))
	}
	if o.DayLinks != "" {
		opts = append(opts, heatmap.WithDayLinks(o.DayLinks))
	}
	if o.NoStats {
		opts = append(opts, heatmap.WithoutStats())
	}
	return opts
}

// RenderKeyOpts returns cache key options for an artifact.
func (o *Options) RenderKeyOpts(format string) cache.RenderKeyOpts {
	k := cache.RenderKeyOpts{
		Format:   format,
		Hue:      o.Heat.Hue,
		Scheme:   string(o.Heat.Scheme),
		Palette:  paletteHash(o.Palette),
		CellSize: o.CellSize,
		Title:    o.Title,
		Links:    o.DayLinks,
		NoStats:  o.NoStats,
	}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	return k
}

func paletteHash(p *palette.Palette) string {
	if p == nil {
		return ""
	}
	data := fmt.Sprint(p.Entries(), p.Fallback())
	return cache.Hash([]byte(data))[:16]
}
