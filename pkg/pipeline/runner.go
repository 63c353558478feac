package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/releasecal/pkg/cache"
	"github.com/matzehuels/releasecal/pkg/calendar"
	"github.com/matzehuels/releasecal/pkg/observability"
	"github.com/matzehuels/releasecal/pkg/release"
	"github.com/matzehuels/releasecal/pkg/render/heatmap"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the browser and the preview server share it.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Load reads opts.Source into store and returns the new snapshot.
func (r *Runner) Load(ctx context.Context, store *release.Store, opts Options) (*LoadResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}

	src, err := OpenSource(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	recs, report, err := LoadRecords(ctx, src, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	snap := store.Replace(recs)

	res := &LoadResult{Source: src.Name(), Snapshot: snap, Report: report, Duration: time.Since(start)}
	r.Logger.Info("loaded releases",
		"source", src.Name(),
		"records", snap.Len(),
		"rows", report.Total,
		"invalid_date", report.InvalidDate,
		"out_of_range", report.OutOfRange,
		"duration", res.Duration)
	return res, nil
}

// RenderQuarter renders the heatmap of q in every requested format.
func (r *Runner) RenderQuarter(ctx context.Context, snap *release.Snapshot, q calendar.Quarter, opts Options) (*Result, error) {
	snap = orEmpty(snap)
	return r.render(ctx, snap, opts, "quarter",
		func(o *Options, format string) string {
			return r.Keyer.QuarterKey(snap.Fingerprint(), q.String(), o.RenderKeyOpts(format))
		},
		func(idx *calendar.Index, o *Options) (heatmap.View, error) {
			return heatmap.BuildQuarter(ctx, idx, q, o.ViewOptions())
		})
}

// RenderDay renders the details of d in every requested format.
func (r *Runner) RenderDay(ctx context.Context, snap *release.Snapshot, d release.Day, opts Options) (*Result, error) {
	snap = orEmpty(snap)
	return r.render(ctx, snap, opts, "day",
		func(o *Options, format string) string {
			return r.Keyer.DayKey(snap.Fingerprint(), d.String(), o.RenderKeyOpts(format))
		},
		func(idx *calendar.Index, o *Options) (heatmap.View, error) {
			return heatmap.BuildDay(ctx, idx, d, o.ViewOptions())
		})
}

// render serves every format from cache when possible and otherwise builds
// the view, renders it and caches each artifact.
func (r *Runner) render(ctx context.Context, snap *release.Snapshot, opts Options, keyType string,
	key func(*Options, string) string, build func(*calendar.Index, *Options) (heatmap.View, error)) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	if !opts.Refresh {
		if artifacts, ok := r.cached(ctx, &opts, key, keyType); ok {
			opts.Logger.Debug("artifacts from cache", "view", keyType, "formats", opts.Formats)
			return &Result{Artifacts: artifacts, CacheInfo: CacheInfo{RenderHit: true}}, nil
		}
	}

	result := &Result{}

	layoutStart := time.Now()
	view, err := build(calendar.NewIndex(snap), &opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.View = view
	result.Stats.LayoutTime = time.Since(layoutStart)

	renderStart := time.Now()
	artifacts, err := Render(ctx, view, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	for format, data := range artifacts {
		if err := r.Cache.Set(ctx, key(&opts, format), data, opts.TTL); err != nil {
			opts.Logger.Warn("cache write failed", "format", format, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, keyType, len(data))
	}

	opts.Logger.Debug("rendered",
		"view", keyType,
		"formats", opts.Formats,
		"layout", result.Stats.LayoutTime,
		"render", result.Stats.RenderTime)
	return result, nil
}

// cached returns every format from cache, or false if any is missing.
func (r *Runner) cached(ctx context.Context, opts *Options, key func(*Options, string) string, keyType string) (map[string][]byte, bool) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, hit, err := r.Cache.Get(ctx, key(opts, format))
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, keyType)
			return nil, false
		}
		observability.Cache().OnCacheHit(ctx, keyType)
		artifacts[format] = data
	}
	return artifacts, true
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func orEmpty(snap *release.Snapshot) *release.Snapshot {
	if snap == nil {
		return new(release.Store).Snapshot()
	}
	return snap
}
