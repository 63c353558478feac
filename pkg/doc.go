// Package pkg provides the core libraries for releasecal, which draws dated
// feature releases as a quarterly calendar heatmap.
//
// # Overview
//
// Every day of a quarter is a cell shaded by how many features shipped that
// day and split into a squarified treemap of the categories involved. The
// pkg directory is organized by stage:
//
//  1. [source] - Read raw rows (CSV, JSON, YAML, SQLite, MongoDB, HTTP, sample)
//  2. [release] - Normalize rows into records and hold them in a Store
//  3. [calendar] - Quarters and the temporal index over a snapshot
//  4. [treemap] - Squarified treemap layout
//  5. [palette] - Category colors and heat fills
//  6. [render] - Heatmap view models and SVG/JSON/PNG/PDF output
//  7. [pipeline] - Orchestration (load → index → layout → render) with caching
//
// # Architecture
//
//	CSV / JSON / YAML / SQLite / MongoDB / HTTP
//	         ↓
//	    [source] package (raw rows)
//	         ↓
//	    [release] package (normalize, enrich, snapshot)
//	         ↓
//	    [calendar] package (per-day index, quarter stats)
//	         ↓
//	    [render/heatmap] package (treemap per day + heat fill)
//	         ↓
//	    SVG/PDF/PNG/JSON output
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/releasecal/pkg/calendar"
//	    "github.com/matzehuels/releasecal/pkg/pipeline"
//	    "github.com/matzehuels/releasecal/pkg/release"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	store := release.NewStore(nil)
//	opts := pipeline.Options{Source: "releases.csv"}
//	if _, err := runner.Load(ctx, store, opts); err != nil {
//	    return err
//	}
//
//	q, _ := calendar.ParseQuarter("2023Q1")
//	opts.Formats = []string{"svg"}
//	res, err := runner.RenderQuarter(ctx, store.Snapshot(), q, opts)
//	svg := res.Artifacts["svg"]
//
// # Supporting Packages
//
//   - [cache] - Artifact cache (file, Redis, null)
//   - [config] - TOML configuration
//   - [errors] - Coded errors mapped to HTTP statuses
//   - [observability] - Hooks around loading, layout, rendering and serving
//   - [telemetry] - OpenTelemetry metrics behind the hooks
//   - [buildinfo] - Version stamping
//
// [source]: github.com/matzehuels/releasecal/pkg/source
// [release]: github.com/matzehuels/releasecal/pkg/release
// [calendar]: github.com/matzehuels/releasecal/pkg/calendar
// [treemap]: github.com/matzehuels/releasecal/pkg/treemap
// [palette]: github.com/matzehuels/releasecal/pkg/palette
// [render]: github.com/matzehuels/releasecal/pkg/render
// [render/heatmap]: github.com/matzehuels/releasecal/pkg/render/heatmap
// [pipeline]: github.com/matzehuels/releasecal/pkg/pipeline
// [cache]: github.com/matzehuels/releasecal/pkg/cache
// [config]: github.com/matzehuels/releasecal/pkg/config
// [errors]: github.com/matzehuels/releasecal/pkg/errors
// [observability]: github.com/matzehuels/releasecal/pkg/observability
// [telemetry]: github.com/matzehuels/releasecal/pkg/telemetry
// [buildinfo]: github.com/matzehuels/releasecal/pkg/buildinfo
package pkg
