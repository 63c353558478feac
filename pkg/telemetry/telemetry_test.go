package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/matzehuels/releasecal/pkg/observability"
)

func collect(t *testing.T, r *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := r.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumInt(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: data is %T", m.Name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestHooksRecordMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	h, err := NewHooks(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	h.OnLoadComplete(ctx, "sample:1", 80, time.Millisecond, nil)
	h.OnLayoutComplete(ctx, "day", time.Millisecond, errors.New("boom"))
	h.OnRenderComplete(ctx, "svg", 4096, time.Millisecond, nil)
	h.OnCacheHit(ctx, "quarter")
	h.OnCacheMiss(ctx, "quarter")
	h.OnCacheSet(ctx, "quarter", 4096)
	h.OnResponse(ctx, "GET", "/", 200, time.Millisecond)
	h.OnReload(ctx, 80, nil)

	got := collect(t, reader)
	if n := sumInt(t, got["releasecal.cache.requests"]); n != 3 {
		t.Errorf("cache requests = %d, want 3", n)
	}
	if n := sumInt(t, got["releasecal.stage.errors"]); n != 1 {
		t.Errorf("stage errors = %d, want 1", n)
	}
	if n := sumInt(t, got["releasecal.server.requests"]); n != 1 {
		t.Errorf("server requests = %d, want 1", n)
	}
	for _, name := range []string{"releasecal.load.records", "releasecal.stage.duration", "releasecal.render.bytes"} {
		if _, ok := got[name]; !ok {
			t.Errorf("metric %s not recorded", name)
		}
	}
}

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), false, "dev", &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInitEnabledInstallsHooks(t *testing.T) {
	defer observability.Reset()

	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), true, "dev", &buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := observability.Cache().(*Hooks); !ok {
		t.Errorf("cache hooks = %T, want *Hooks", observability.Cache())
	}

	observability.Cache().OnCacheHit(context.Background(), "quarter")
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("releasecal.cache.requests")) {
		t.Errorf("exporter output missing cache metric")
	}
}

func TestEnabled(t *testing.T) {
	t.Setenv(EnvEnabled, "")
	if Enabled(false) {
		t.Error("Enabled(false) without env")
	}
	if !Enabled(true) {
		t.Error("Enabled(true)")
	}
	t.Setenv(EnvEnabled, "true")
	if !Enabled(false) {
		t.Error("env override ignored")
	}
}
