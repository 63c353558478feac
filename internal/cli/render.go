package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/releasecal/pkg/calendar"
	"github.com/matzehuels/releasecal/pkg/pipeline"
	"github.com/matzehuels/releasecal/pkg/release"
)

// renderCommand creates the render command, which draws quarter heatmaps.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		data datasetFlags
		rf   renderFlags
		all  bool
	)

	cmd := &cobra.Command{
		Use:   "render [quarter]",
		Short: "Render a quarter heatmap to SVG, PNG, PDF or JSON",
		Long: `Render a quarter of the release calendar.

The quarter is given as 2023Q2, 2023-q2 or "Q2 2023". Without an argument the
first quarter of the dataset is rendered; --all renders every quarter between
the first and the last release.

Rendered artifacts are cached by dataset fingerprint and options, so an
unchanged dataset renders instantly on the next run.`,
		Example: `  releasecal render 2023Q2
  releasecal render --source releases.csv --all -f svg,png -o out/calendar
  releasecal render Q1-2022 --hue 120 --title "Zoom releases"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var quarter string
			if len(args) == 1 {
				quarter = args[0]
			}
			return c.runRender(cmd.Context(), data, rf, quarter, all)
		},
	}

	data.register(cmd)
	rf.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "render every quarter of the dataset")
	return cmd
}

func (c *CLI) runRender(ctx context.Context, data datasetFlags, rf renderFlags, quarter string, all bool) error {
	opts, err := c.loadOptions(data)
	if err != nil {
		return err
	}
	if err := c.applyRender(&opts, rf); err != nil {
		return err
	}

	var explicit *calendar.Quarter
	if quarter != "" {
		q, err := calendar.ParseQuarter(quarter)
		if err != nil {
			return err
		}
		explicit = &q
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	store, loaded, err := c.load(ctx, runner, opts)
	if err != nil {
		return err
	}
	reportLoad(loaded)
	snap := store.Snapshot()

	quarters := quartersToRender(snap, explicit, all)
	prog := newProgress(c.Logger)
	cached := true
	var written []string
	for _, q := range quarters {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", q.Label()))
		spinner.Start()
		res, err := runner.RenderQuarter(ctx, snap, q, opts)
		if err != nil {
			spinner.StopWithError("Render failed")
			return fmt.Errorf("render %s: %w", q, err)
		}
		spinner.Stop()
		cached = cached && res.CacheInfo.RenderHit

		base := outputBase(rf.output, "releases-"+q.String())
		if rf.output != "" && len(quarters) > 1 {
			base += "-" + q.String()
		}
		paths, err := writeArtifacts(res.Artifacts, opts.Formats, base, rf.output, len(quarters) == 1)
		if err != nil {
			return err
		}
		written = append(written, paths...)
	}
	prog.done(fmt.Sprintf("Rendered %d quarter(s)", len(quarters)))

	printSuccess("Rendered %s", quarterSpan(quarters))
	for _, p := range written {
		printFile(p)
	}
	printStats(snap.Len(), len(snap.Categories()), cached)
	printNewline()
	printNextStep("Browse interactively", "releasecal browse --source "+opts.Source)
	return nil
}

// quartersToRender picks the explicit quarter, every quarter spanned by the
// data (all), or the first quarter of the dataset's year range.
func quartersToRender(snap *release.Snapshot, explicit *calendar.Quarter, all bool) []calendar.Quarter {
	if explicit != nil {
		return []calendar.Quarter{*explicit}
	}
	span, ok := snap.DateSpan()
	if !all || !ok {
		return []calendar.Quarter{calendar.FirstQuarter(snap.YearRange())}
	}

	yr := snap.YearRange()
	last := calendar.QuarterOf(span.End)
	var out []calendar.Quarter
	for q := calendar.QuarterOf(span.Start); ; q = q.Next(yr) {
		out = append(out, q)
		if q == last {
			break
		}
	}
	return out
}

func quarterSpan(qs []calendar.Quarter) string {
	if len(qs) == 1 {
		return qs[0].Label()
	}
	return qs[0].Label() + " to " + qs[len(qs)-1].Label()
}

// reportLoad prints how many rows were accepted and why others were dropped.
func reportLoad(res *pipeline.LoadResult) {
	printInfo("Loaded %s from %s", StyleNumber.Render(fmt.Sprint(res.Snapshot.Len())), res.Source)
	if n := res.Report.InvalidDate; n > 0 {
		printWarning("%d row(s) skipped: unparseable release date", n)
	}
	if n := res.Report.OutOfRange; n > 0 {
		printDetail("%d row(s) outside the date range", n)
	}
}

// outputBase derives the base path (without extension) for artifacts.
// An explicit output with a known format extension has it stripped.
func outputBase(output, fallback string) string {
	if output == "" {
		return fallback
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if pipeline.ValidFormats[ext] {
		return strings.TrimSuffix(output, "."+ext)
	}
	return output
}

// writeArtifacts writes one file per format. With a single format and an
// explicit output file, that exact path is used.
func writeArtifacts(artifacts map[string][]byte, formats []string, base, output string, single bool) ([]string, error) {
	var paths []string
	for _, format := range formats {
		path := base + "." + format
		if single && len(formats) == 1 && output != "" && filepath.Ext(output) != "" {
			path = output
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return paths, fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return paths, fmt.Errorf("write output %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths, nil
}
