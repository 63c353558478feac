// Package telemetry wires OpenTelemetry metrics into the observability hooks.
//
// Telemetry is off by default. It is enabled by [telemetry] enabled = true in
// the config file or by RELEASECAL_OTEL_ENABLED=true, and writes metrics to
// the given writer (stderr for the CLI) through the stdout exporter.
//
// Metrics:
//
//	releasecal.load.records          records accepted per load
//	releasecal.stage.duration        load/layout/render durations (ms)
//	releasecal.stage.errors          failed stages
//	releasecal.render.bytes          artifact sizes
//	releasecal.cache.requests        cache lookups by result (hit/miss)
//	releasecal.server.requests       preview server responses by route/status
//	releasecal.server.reloads        dataset reloads triggered by the watcher
package telemetry

import (
	"context"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/matzehuels/releasecal/pkg/observability"
)

const instrumentationScope = "github.com/matzehuels/releasecal"

// EnvEnabled turns telemetry on regardless of the config file.
const EnvEnabled = "RELEASECAL_OTEL_ENABLED"

// Enabled reports whether telemetry should run.
func Enabled(configured bool) bool {
	return configured || os.Getenv(EnvEnabled) == "true"
}

// Init installs a meter provider and registers the metric hooks. When
// disabled it installs a no-op provider and returns a no-op shutdown.
// The returned function flushes pending metrics and must be called on exit.
func Init(ctx context.Context, enabled bool, version string, w io.Writer) (func(context.Context) error, error) {
	if !enabled {
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return func(context.Context) error { return nil }, nil
	}

	exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w), stdoutmetric.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", "releasecal"),
		attribute.String("service.version", version),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(15*time.Second))),
	)
	otel.SetMeterProvider(mp)

	hooks, err := NewHooks(mp.Meter(instrumentationScope))
	if err != nil {
		_ = mp.Shutdown(ctx)
		return nil, err
	}
	hooks.Install()

	return mp.Shutdown, nil
}

// Hooks records observability events as OpenTelemetry metrics.
type Hooks struct {
	records  metric.Int64Histogram
	duration metric.Float64Histogram
	errs     metric.Int64Counter
	bytes    metric.Int64Histogram
	cache    metric.Int64Counter
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	reloads  metric.Int64Counter
}

// NewHooks creates the instruments on m.
func NewHooks(m metric.Meter) (*Hooks, error) {
	var h Hooks
	var err error
	if h.records, err = m.Int64Histogram("releasecal.load.records",
		metric.WithDescription("Records accepted per load")); err != nil {
		return nil, err
	}
	if h.duration, err = m.Float64Histogram("releasecal.stage.duration",
		metric.WithDescription("Pipeline stage duration"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if h.errs, err = m.Int64Counter("releasecal.stage.errors",
		metric.WithDescription("Failed pipeline stages")); err != nil {
		return nil, err
	}
	if h.bytes, err = m.Int64Histogram("releasecal.render.bytes",
		metric.WithDescription("Rendered artifact size"), metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if h.cache, err = m.Int64Counter("releasecal.cache.requests",
		metric.WithDescription("Cache lookups and writes by result")); err != nil {
		return nil, err
	}
	if h.requests, err = m.Int64Counter("releasecal.server.requests",
		metric.WithDescription("Preview server responses")); err != nil {
		return nil, err
	}
	if h.latency, err = m.Float64Histogram("releasecal.server.duration",
		metric.WithDescription("Preview server response time"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if h.reloads, err = m.Int64Counter("releasecal.server.reloads",
		metric.WithDescription("Dataset reloads")); err != nil {
		return nil, err
	}
	return &h, nil
}

// Install registers h as the pipeline, cache and server hooks.
func (h *Hooks) Install() {
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetServerHooks(h)
}

func (h *Hooks) stage(ctx context.Context, stage, detail string, d time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("stage", stage), attribute.String("detail", detail))
	h.duration.Record(ctx, float64(d.Microseconds())/1000, attrs)
	if err != nil {
		h.errs.Add(ctx, 1, attrs)
	}
}

func (h *Hooks) OnLoadStart(context.Context, string) {}

func (h *Hooks) OnLoadComplete(ctx context.Context, source string, records int, d time.Duration, err error) {
	h.stage(ctx, "load", source, d, err)
	if err == nil {
		h.records.Record(ctx, int64(records), metric.WithAttributes(attribute.String("source", source)))
	}
}

func (h *Hooks) OnLayoutStart(context.Context, string, int) {}

func (h *Hooks) OnLayoutComplete(ctx context.Context, view string, d time.Duration, err error) {
	h.stage(ctx, "layout", view, d, err)
}

func (h *Hooks) OnRenderStart(context.Context, string) {}

func (h *Hooks) OnRenderComplete(ctx context.Context, format string, size int, d time.Duration, err error) {
	h.stage(ctx, "render", format, d, err)
	if err == nil {
		h.bytes.Record(ctx, int64(size), metric.WithAttributes(attribute.String("format", format)))
	}
}

func (h *Hooks) OnCacheHit(ctx context.Context, keyType string) {
	h.cache.Add(ctx, 1, metric.WithAttributes(attribute.String("key", keyType), attribute.String("result", "hit")))
}

func (h *Hooks) OnCacheMiss(ctx context.Context, keyType string) {
	h.cache.Add(ctx, 1, metric.WithAttributes(attribute.String("key", keyType), attribute.String("result", "miss")))
}

func (h *Hooks) OnCacheSet(ctx context.Context, keyType string, _ int) {
	h.cache.Add(ctx, 1, metric.WithAttributes(attribute.String("key", keyType), attribute.String("result", "set")))
}

func (h *Hooks) OnRequest(context.Context, string, string) {}

func (h *Hooks) OnResponse(ctx context.Context, method, route string, status int, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	h.requests.Add(ctx, 1, attrs)
	h.latency.Record(ctx, float64(d.Microseconds())/1000, attrs)
}

func (h *Hooks) OnReload(ctx context.Context, _ int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	h.reloads.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

var (
	_ observability.PipelineHooks = (*Hooks)(nil)
	_ observability.CacheHooks    = (*Hooks)(nil)
	_ observability.ServerHooks   = (*Hooks)(nil)
)
