// Package cli implements the releasecal command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/releasecal/pkg/buildinfo"
	"github.com/matzehuels/releasecal/pkg/cache"
	"github.com/matzehuels/releasecal/pkg/config"
	"github.com/matzehuels/releasecal/pkg/pipeline"
	"github.com/matzehuels/releasecal/pkg/release"
	"github.com/matzehuels/releasecal/pkg/telemetry"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "releasecal"

	// redisConnectTimeout bounds the initial redis ping retries from the CLI.
	redisConnectTimeout = 5 * time.Second
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	config     *config.Config
	shutdown   func(context.Context) error
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "releasecal",
		Short: "releasecal draws feature releases as a quarterly calendar heatmap",
		Long: `releasecal reads a dataset of dated feature releases and draws each quarter
as a calendar heatmap. Every day cell is shaded by its release count and split
into a squarified treemap of the categories shipped that day.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.teardown(cmd.Context())
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/releasecal/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the artifact cache")

	// Register all subcommands
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.dayCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.sampleCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the config file and starts telemetry before any command runs.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.config = cfg

	shutdown, err := telemetry.Init(cmd.Context(), telemetry.Enabled(cfg.Telemetry.Enabled), buildinfo.Version, telemetryWriter(cfg))
	if err != nil {
		c.Logger.Warn("telemetry disabled", "error", err)
		return nil
	}
	c.shutdown = shutdown
	return nil
}

func (c *CLI) teardown(ctx context.Context) error {
	if c.shutdown == nil {
		return nil
	}
	err := c.shutdown(context.WithoutCancel(ctx))
	c.shutdown = nil
	return err
}

func telemetryWriter(cfg *config.Config) io.Writer {
	if cfg.Telemetry.Stdout {
		return os.Stdout
	}
	return os.Stderr
}

// cfg returns the loaded config, or the defaults when setup did not run.
func (c *CLI) cfg() *config.Config {
	if c.config == nil {
		c.config = config.Default()
	}
	return c.config
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	cache, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, c.newKeyer(), c.Logger), nil
}

// newKeyer namespaces cache keys with [cache] prefix. Nil selects the
// runner's default keyer.
func (c *CLI) newKeyer() cache.Keyer {
	if prefix := c.cfg().Cache.Prefix; prefix != "" {
		return cache.NewScopedKeyer(cache.NewDefaultKeyer(), prefix)
	}
	return nil
}

// newCache opens the configured cache backend. A file cache that cannot be
// created degrades to no caching; an unreachable redis is an error.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	cfg := c.cfg()
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:           cfg.Cache.RedisAddr,
			ConnectTimeout: redisConnectTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		return rc, nil
	}

	dir, err := cache.DefaultDir()
	if err != nil {
		c.Logger.Debug("cache disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Debug("cache disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// datasetFlags are the flags shared by every command that loads releases.
type datasetFlags struct {
	source string
	sheet  string
	seed   uint64
	start  string
	end    string
	enrich string
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "dataset: file path, sqlite://, mongodb://, http(s):// or sample:[SEED] (default from config)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "workbook sheet for .xlsx sources (default first sheet)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "seed for sample data and random enrichment")
	cmd.Flags().StringVar(&f.start, "start", "", "first accepted release day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "last accepted release day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.enrich, "enrich", "", "enrichment: random, fields or none (default from config)")
}

// renderFlags are the flags shared by commands that draw heatmaps.
type renderFlags struct {
	hue      float64
	scheme   string
	formats  string
	output   string
	cellSize float64
	title    string
	noStats  bool
	refresh  bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.hue, "hue", -1, "heat hue in degrees 0-360 (default from config)")
	cmd.Flags().StringVar(&f.scheme, "scheme", "", "heat scheme: hue, blue, green, purple, rainbow")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), json, pdf, png (comma-separated)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().Float64Var(&f.cellSize, "cell-size", 0, "day cell size in pixels")
	cmd.Flags().StringVar(&f.title, "title", "", "heading drawn above the calendar")
	cmd.Flags().BoolVar(&f.noStats, "no-stats", false, "omit the category stats panel")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "re-render even when cached")
}

// loadOptions builds load options from config, overridden by flags.
func (c *CLI) loadOptions(f datasetFlags) (pipeline.Options, error) {
	cfg := *c.cfg()
	if f.source != "" {
		cfg.Source = f.source
	}
	if f.sheet != "" {
		cfg.Sheet = f.sheet
	}
	if f.start != "" {
		cfg.Range.Start = f.start
	}
	if f.end != "" {
		cfg.Range.End = f.end
	}
	if f.enrich != "" {
		cfg.Enrich.Mode = f.enrich
	}
	if f.seed != 0 {
		cfg.Enrich.Seed = f.seed
	}
	if err := cfg.Validate(); err != nil {
		return pipeline.Options{}, err
	}

	nopts, err := cfg.NormalizeOptions()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Source:   cfg.Source,
		Sheet:    cfg.Sheet,
		Seed:     f.seed,
		Range:    nopts.Range,
		Aliases:  nopts.Aliases,
		Enricher: cfg.Enricher(),
		Logger:   c.Logger,
	}, nil
}

// applyRender adds render options from config and flags to opts.
func (c *CLI) applyRender(opts *pipeline.Options, f renderFlags) error {
	cfg := *c.cfg()
	if f.hue >= 0 {
		cfg.Heatmap.Hue = f.hue
	}
	if f.scheme != "" {
		cfg.Heatmap.Scheme = f.scheme
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	p, err := cfg.Palette()
	if err != nil {
		return err
	}
	ttl, err := cfg.CacheTTL()
	if err != nil {
		return err
	}

	opts.Heat = cfg.HeatOptions()
	opts.Palette = p
	opts.TTL = ttl
	opts.Formats = parseFormats(f.formats)
	opts.CellSize = f.cellSize
	opts.Title = f.title
	opts.NoStats = f.noStats
	opts.Refresh = f.refresh
	return opts.ValidateForRender()
}

// load reads the dataset into a fresh store.
func (c *CLI) load(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*release.Store, *pipeline.LoadResult, error) {
	store := release.NewStore(nil)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Loading %s...", opts.Source))
	spinner.Start()
	res, err := runner.Load(ctx, store, opts)
	if err != nil {
		spinner.StopWithError("Load failed")
		return nil, nil, err
	}
	spinner.Stop()
	return store, res, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
