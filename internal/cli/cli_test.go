package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/releasecal/pkg/cache"
	"github.com/matzehuels/releasecal/pkg/calendar"
	"github.com/matzehuels/releasecal/pkg/config"
	"github.com/matzehuels/releasecal/pkg/palette"
	"github.com/matzehuels/releasecal/pkg/pipeline"
	"github.com/matzehuels/releasecal/pkg/release"
)

func newTestCLI(t *testing.T) *CLI {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	return New(io.Discard, log.InfoLevel)
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "svg", []string{"svg"}},
		{"multiple formats", "svg,pdf,png", []string{"svg", "pdf", "png"}},
		{"spaces trimmed", "svg, json", []string{"svg", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadOptions(t *testing.T) {
	c := newTestCLI(t)
	c.config = config.Default()

	opts, err := c.loadOptions(datasetFlags{})
	if err != nil {
		t.Fatalf("loadOptions() = %v", err)
	}
	if opts.Source != "sample:" || opts.Range != release.DefaultRange {
		t.Errorf("defaults = %q %v", opts.Source, opts.Range)
	}
	if _, ok := opts.Enricher.(*release.RandomEnricher); !ok {
		t.Errorf("Enricher = %T", opts.Enricher)
	}

	opts, err = c.loadOptions(datasetFlags{source: "releases.csv", start: "2023-01-01", end: "2023-06-30", enrich: "none"})
	if err != nil {
		t.Fatalf("loadOptions(flags) = %v", err)
	}
	if opts.Source != "releases.csv" || opts.Range.Start != release.MustDay(2023, time.January, 1) {
		t.Errorf("flags not applied: %q %v", opts.Source, opts.Range)
	}
	if _, ok := opts.Enricher.(release.NopEnricher); !ok {
		t.Errorf("Enricher = %T", opts.Enricher)
	}
	// Flags never leak into the loaded config.
	if c.config.Source != "sample:" {
		t.Errorf("config mutated: %q", c.config.Source)
	}

	if _, err := c.loadOptions(datasetFlags{start: "2023-02-30"}); err == nil {
		t.Error("invalid start should fail")
	}
	if _, err := c.loadOptions(datasetFlags{enrich: "magic"}); err == nil {
		t.Error("invalid enrich mode should fail")
	}
}

func TestApplyRender(t *testing.T) {
	c := newTestCLI(t)

	var opts pipeline.Options
	if err := c.applyRender(&opts, renderFlags{hue: -1}); err != nil {
		t.Fatalf("applyRender() = %v", err)
	}
	if opts.Heat.Hue != palette.DefaultHue || opts.Heat.Scheme != palette.SchemeHue {
		t.Errorf("Heat = %+v", opts.Heat)
	}
	if opts.TTL != 24*time.Hour || len(opts.Formats) != 1 {
		t.Errorf("TTL %v formats %v", opts.TTL, opts.Formats)
	}

	opts = pipeline.Options{}
	if err := c.applyRender(&opts, renderFlags{hue: 0, scheme: "green", formats: "svg,json", title: "T"}); err != nil {
		t.Fatalf("applyRender(flags) = %v", err)
	}
	if opts.Heat.Hue != 0 || opts.Heat.Scheme != palette.SchemeGreen || opts.Title != "T" || len(opts.Formats) != 2 {
		t.Errorf("flags not applied: %+v", opts)
	}

	tests := []renderFlags{
		{hue: 400},
		{hue: -1, scheme: "sepia"},
		{hue: -1, formats: "gif"},
	}
	for _, f := range tests {
		var o pipeline.Options
		if err := c.applyRender(&o, f); err == nil {
			t.Errorf("applyRender(%+v) should fail", f)
		}
	}
}

func TestNewKeyerPrefix(t *testing.T) {
	c := newTestCLI(t)
	if k := c.newKeyer(); k != nil {
		t.Errorf("newKeyer() without prefix = %T, want nil", k)
	}

	c.config.Cache.Prefix = "team-a:"
	k := c.newKeyer()
	if k == nil {
		t.Fatal("newKeyer() with prefix = nil")
	}
	want := "team-a:" + cache.NewDefaultKeyer().QuarterKey("fp", "2022Q1", cache.RenderKeyOpts{})
	if got := k.QuarterKey("fp", "2022Q1", cache.RenderKeyOpts{}); got != want {
		t.Errorf("QuarterKey() = %q, want %q", got, want)
	}

	runner, err := c.newRunner(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer runner.Close()
	if got := runner.Keyer.QuarterKey("fp", "2022Q1", cache.RenderKeyOpts{}); got != want {
		t.Error("runner should use the prefixed keyer")
	}
}

func TestNewCache(t *testing.T) {
	c := newTestCLI(t)
	ctx := context.Background()

	ch, err := c.newCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ch.(*cache.FileCache); !ok {
		t.Errorf("default cache = %T, want *cache.FileCache", ch)
	}

	c.noCache = true
	ch, _ = c.newCache(ctx)
	if _, ok := ch.(*cache.NullCache); !ok {
		t.Errorf("--no-cache cache = %T", ch)
	}

	c.noCache = false
	c.config.Cache.Backend = config.CacheNone
	ch, _ = c.newCache(ctx)
	if _, ok := ch.(*cache.NullCache); !ok {
		t.Errorf("backend none cache = %T", ch)
	}

	c.config.Cache.Backend = config.CacheRedis
	c.config.Cache.RedisAddr = "127.0.0.1:1"
	if _, err := c.newCache(ctx); err == nil {
		t.Error("unreachable redis should fail")
	}
}

func TestQuartersToRender(t *testing.T) {
	recs := []release.Record{
		release.NewRecord(0, release.MustDay(2022, time.November, 3), "Meeting", "a"),
		release.NewRecord(1, release.MustDay(2023, time.February, 9), "Chat", "b"),
	}
	snap := release.NewStore(recs).Snapshot()

	got := quartersToRender(snap, nil, true)
	var names []string
	for _, q := range got {
		names = append(names, q.String())
	}
	if strings.Join(names, ",") != "2022Q4,2023Q1" {
		t.Errorf("all quarters = %v", names)
	}

	if got := quartersToRender(snap, nil, false); len(got) != 1 || got[0].String() != "2022Q1" {
		t.Errorf("default quarter = %v", got)
	}

	explicit, _ := calendar.ParseQuarter("2023Q3")
	if got := quartersToRender(snap, &explicit, true); len(got) != 1 || got[0] != explicit {
		t.Errorf("explicit quarter = %v", got)
	}

	if got := quartersToRender(new(release.Store).Snapshot(), nil, true); len(got) != 1 {
		t.Errorf("empty dataset quarters = %v", got)
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		output, want string
	}{
		{"", "releases-2023Q2"},
		{"out/cal.svg", "out/cal"},
		{"out/cal.png", "out/cal"},
		{"out/cal", "out/cal"},
		{"out/cal.v2", "out/cal.v2"},
	}
	for _, tt := range tests {
		if got := outputBase(tt.output, "releases-2023Q2"); got != tt.want {
			t.Errorf("outputBase(%q) = %q, want %q", tt.output, got, tt.want)
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	artifacts := map[string][]byte{"svg": []byte("<svg/>"), "json": []byte("{}")}

	paths, err := writeArtifacts(artifacts, []string{"svg", "json"}, filepath.Join(dir, "sub", "cal"), "", false)
	if err != nil {
		t.Fatalf("writeArtifacts() = %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v", paths)
	}
	data, err := os.ReadFile(filepath.Join(dir, "sub", "cal.svg"))
	if err != nil || string(data) != "<svg/>" {
		t.Errorf("cal.svg = %q, %v", data, err)
	}

	exact := filepath.Join(dir, "exact.image")
	paths, err = writeArtifacts(artifacts, []string{"svg"}, filepath.Join(dir, "ignored"), exact, true)
	if err != nil || len(paths) != 1 || paths[0] != exact {
		t.Errorf("single output paths = %v, %v", paths, err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestStatsLine(t *testing.T) {
	line := statsLine(84, 9, true)
	for _, want := range []string{"84 releases", "9 categories", iconCached} {
		if !strings.Contains(line, want) {
			t.Errorf("statsLine() = %q, missing %q", line, want)
		}
	}
	if !strings.Contains(statsLine(0, 0, false), iconFresh) {
		t.Error("statsLine should mark fresh renders")
	}
}

func TestSampleCommand(t *testing.T) {
	c := newTestCLI(t)
	root := c.RootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"sample", "--seed", "5"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("sample: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(out.Bytes(), &rows); err != nil {
		t.Fatalf("sample output is not JSON: %v", err)
	}
	if len(rows) < 50 {
		t.Errorf("sample wrote %d rows", len(rows))
	}
}

func TestRenderCommand(t *testing.T) {
	c := newTestCLI(t)
	root := c.RootCommand()

	out := filepath.Join(t.TempDir(), "cal")
	root.SetArgs([]string{"render", "2022Q2", "--source", "sample:4", "--no-cache", "-f", "svg,json", "-o", out})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("render: %v", err)
	}

	svg, err := os.ReadFile(out + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("svg output = %.60q", svg)
	}
	raw, err := os.ReadFile(out + ".json")
	if err != nil {
		t.Fatal(err)
	}
	var view struct {
		Label string `json:"label"`
	}
	if err := json.Unmarshal(raw, &view); err != nil || view.Label != "Q2 2022" {
		t.Errorf("json output label = %q, %v", view.Label, err)
	}
}

func TestRenderCommandInvalidQuarter(t *testing.T) {
	c := newTestCLI(t)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"render", "2022Q5", "--no-cache"})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("render of an invalid quarter should fail")
	}
}

func TestConfigFlag(t *testing.T) {
	c := newTestCLI(t)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"sample", "--config", filepath.Join(t.TempDir(), "missing.toml")})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("an explicit missing config should fail")
	}
}
