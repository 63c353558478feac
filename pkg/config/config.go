// Package config loads releasecal settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/releasecal/config.toml (falling back to
// ~/.config/releasecal/config.toml) unless a path is given explicitly. A
// missing default file is not an error; every setting has a default.
//
// Example:
//
//	source = "data/releases.csv"
//	sheet  = "Releases"  # workbook sources only; default is the first sheet
//
//	[range]
//	start = "2022-01-01"
//	end   = "2024-01-31"
//
//	[heatmap]
//	hue    = 210
//	scheme = "hue"
//
//	[categories]
//	default_color = "#78909C"
//	colors = { "Launch" = "#FF5722" }
//	aliases = [{ contains = "meeting", category = "Meeting" }]
//
//	[enrich]
//	mode = "random"
//	seed = 7
//
//	[cache]
//	backend = "file"
//	ttl     = "24h"
//	prefix  = "team-a:"
//
//	[telemetry]
//	enabled = false
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/releasecal/pkg/errors"
	"github.com/matzehuels/releasecal/pkg/palette"
	"github.com/matzehuels/releasecal/pkg/release"
)

// Enrichment modes.
const (
	EnrichRandom = "random"
	EnrichFields = "fields"
	EnrichNone   = "none"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the full configuration.
type Config struct {
	Source     string           `toml:"source"`
	Sheet      string           `toml:"sheet"`
	Range      RangeConfig      `toml:"range"`
	Heatmap    HeatmapConfig    `toml:"heatmap"`
	Categories CategoriesConfig `toml:"categories"`
	Enrich     EnrichConfig     `toml:"enrich"`
	Cache      CacheConfig      `toml:"cache"`
	Server     ServerConfig     `toml:"server"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
}

// RangeConfig bounds the accepted release days (inclusive, YYYY-MM-DD).
type RangeConfig struct {
	Start string `toml:"start"`
	End   string `toml:"end"`
}

// HeatmapConfig selects the heat fill.
type HeatmapConfig struct {
	Hue    float64 `toml:"hue"`
	Scheme string  `toml:"scheme"`
}

// CategoriesConfig customizes category colors and merging.
type CategoriesConfig struct {
	DefaultColor string            `toml:"default_color"`
	Colors       map[string]string `toml:"colors"`
	Aliases      []release.Alias   `toml:"aliases"`
}

// EnrichConfig selects how record metadata is filled in.
type EnrichConfig struct {
	Mode string `toml:"mode"`
	Seed uint64 `toml:"seed"`
}

// CacheConfig selects where rendered artifacts are cached.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	RedisAddr string `toml:"redis_addr"`
	TTL       string `toml:"ttl"`
	// Prefix namespaces every cache key, so several datasets or teams can
	// share one Redis database.
	Prefix string `toml:"prefix"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// TelemetryConfig toggles OpenTelemetry metrics. Metrics go to stderr
// unless Stdout is set.
type TelemetryConfig struct {
	Enabled bool `toml:"enabled"`
	Stdout  bool `toml:"stdout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source: "sample:",
		Range: RangeConfig{
			Start: release.DefaultRange.Start.String(),
			End:   release.DefaultRange.End.String(),
		},
		Heatmap:    HeatmapConfig{Hue: palette.DefaultHue, Scheme: string(palette.SchemeHue)},
		Categories: CategoriesConfig{DefaultColor: palette.DefaultColor},
		Enrich:     EnrichConfig{Mode: EnrichRandom},
		Cache:      CacheConfig{Backend: CacheFile, RedisAddr: "localhost:6379", TTL: "24h"},
		Server:     ServerConfig{Addr: "127.0.0.1:8080"},
	}
}

// DefaultPath returns the location of the user's config file.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "releasecal", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "releasecal", "config.toml")
}

// Load reads the file at path over the defaults. An empty path loads
// DefaultPath and tolerates its absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q in %s", undecoded[0].String(), path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.DateRange(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[range]")
	}
	if err := errors.ValidateHue(c.Heatmap.Hue); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[heatmap] hue")
	}
	if _, err := palette.ParseScheme(c.Heatmap.Scheme); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[heatmap] scheme")
	}
	if _, err := c.Palette(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[categories]")
	}
	for i, a := range c.Categories.Aliases {
		if a.Contains == "" || a.Category == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "[categories] alias %d needs contains and category", i)
		}
	}
	switch c.Enrich.Mode {
	case EnrichRandom, EnrichFields, EnrichNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "[enrich] unknown mode %q", c.Enrich.Mode)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "[cache] redis backend needs redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "[cache] unknown backend %q", c.Cache.Backend)
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	if strings.ContainsFunc(c.Cache.Prefix, unicode.IsSpace) {
		return errors.New(errors.ErrCodeInvalidConfig, "[cache] prefix %q must not contain spaces", c.Cache.Prefix)
	}
	return nil
}

// DateRange parses [range].
func (c *Config) DateRange() (release.Range, error) {
	start, err := release.ParseDay(c.Range.Start)
	if err != nil {
		return release.Range{}, err
	}
	end, err := release.ParseDay(c.Range.End)
	if err != nil {
		return release.Range{}, err
	}
	r := release.Range{Start: start, End: end}
	return r, r.Validate()
}

// Palette builds the category palette.
func (c *Config) Palette() (*palette.Palette, error) {
	return palette.New(c.Categories.Colors, c.Categories.DefaultColor)
}

// HeatOptions returns the heatmap settings.
func (c *Config) HeatOptions() palette.HeatOptions {
	scheme, err := palette.ParseScheme(c.Heatmap.Scheme)
	if err != nil {
		scheme = palette.SchemeHue
	}
	return palette.HeatOptions{Hue: c.Heatmap.Hue, Scheme: scheme}
}

// NormalizeOptions returns the options for release.Normalize.
func (c *Config) NormalizeOptions() (release.NormalizeOptions, error) {
	r, err := c.DateRange()
	if err != nil {
		return release.NormalizeOptions{}, err
	}
	return release.NormalizeOptions{Range: r, Aliases: c.Categories.Aliases}, nil
}

// Enricher returns the configured enrichment step.
func (c *Config) Enricher() release.Enricher {
	switch c.Enrich.Mode {
	case EnrichFields:
		return release.FieldEnricher{}
	case EnrichNone:
		return release.NopEnricher{}
	}
	return release.NewRandomEnricher(c.Enrich.Seed)
}

// CacheTTL parses [cache] ttl. Zero means entries never expire.
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil || d < 0 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "[cache] invalid ttl %q", c.Cache.TTL)
	}
	return d, nil
}
