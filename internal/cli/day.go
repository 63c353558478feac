package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/matzehuels/releasecal/pkg/errors"
	"github.com/matzehuels/releasecal/pkg/pipeline"
	"github.com/matzehuels/releasecal/pkg/release"
	"github.com/matzehuels/releasecal/pkg/render/heatmap"
)

// dayCommand creates the day command, which shows the details of one day.
func (c *CLI) dayCommand() *cobra.Command {
	var (
		data  datasetFlags
		rf    renderFlags
		write bool
	)

	cmd := &cobra.Command{
		Use:   "day <date>",
		Short: "Show the releases of one day",
		Long: `Show the releases of one day grouped by category.

The date is YYYY-MM-DD or a natural expression such as "last friday" or
"3 days ago". With --write (or -o/-f) the day treemap is rendered to files too.`,
		Example: `  releasecal day 2023-03-14
  releasecal day "last monday" --source releases.csv
  releasecal day 2022-06-01 -f svg,json -o june-first`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDayArg(strings.Join(args, " "), time.Now())
			if err != nil {
				return err
			}
			write = write || rf.output != "" || rf.formats != ""
			return c.runDay(cmd.Context(), data, rf, d, write)
		},
	}

	data.register(cmd)
	rf.register(cmd)
	cmd.Flags().BoolVarP(&write, "write", "w", false, "render the day treemap to files")
	return cmd
}

// dateParser understands English relative dates.
var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseDayArg accepts YYYY-MM-DD, the other layouts release.ParseDate knows,
// or a natural-language date relative to now. Bare numbers are rejected
// rather than read as spreadsheet serials.
func parseDayArg(s string, now time.Time) (release.Day, error) {
	s = strings.TrimSpace(s)
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return release.Day{}, errors.New(errors.ErrCodeInvalidDate, "cannot understand date %q; use YYYY-MM-DD", s)
	}
	if d, err := release.ParseDate(s); err == nil {
		return d, nil
	}
	r, err := dateParser.Parse(s, now)
	if err != nil || r == nil {
		return release.Day{}, errors.New(errors.ErrCodeInvalidDate, "cannot understand date %q", s)
	}
	return release.DayOf(r.Time), nil
}

func (c *CLI) runDay(ctx context.Context, data datasetFlags, rf renderFlags, d release.Day, write bool) error {
	opts, err := c.loadOptions(data)
	if err != nil {
		return err
	}
	if err := c.applyRender(&opts, rf); err != nil {
		return err
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

	// The terminal listing always needs the view model, so build it outside
	// the artifact cache.
	view, err := pipeline.BuildDayView(ctx, store.Snapshot(), d, opts)
	if err != nil {
		return err
	}
	printNewline()
	fmt.Print(formatDay(view))

	if !write {
		return nil
	}
	res, err := runner.RenderDay(ctx, store.Snapshot(), d, opts)
	if err != nil {
		return fmt.Errorf("render %s: %w", d, err)
	}
	paths, err := writeArtifacts(res.Artifacts, opts.Formats, outputBase(rf.output, "releases-"+d.String()), rf.output, true)
	if err != nil {
		return err
	}
	printNewline()
	printSuccess("Rendered %s", view.Title)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// formatDay renders a day view as terminal text.
func formatDay(v *heatmap.DayView) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(v.Title))
	b.WriteString("\n")

	if v.Count == 0 {
		b.WriteString(StyleDim.Render("No features released on this day."))
		b.WriteString("\n")
		return b.String()
	}

	summary := fmt.Sprintf("%d feature(s)", v.Count)
	if v.DaysSince > 0 {
		summary += fmt.Sprintf(" · %d day(s) since the previous release", v.DaysSince)
	}
	b.WriteString(StyleDim.Render(summary))
	b.WriteString("\n")

	for _, g := range v.Groups {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(g.Color)).Render("●")
		b.WriteString(fmt.Sprintf("\n%s %s %s\n", dot, StyleValue.Bold(true).Render(g.Category), StyleDim.Render(fmt.Sprintf("(%d)", len(g.Records)))))
		for _, r := range g.Records {
			b.WriteString("  • " + r.Description)
			if meta := recordMeta(r); meta != "" {
				b.WriteString(" " + StyleDim.Render(meta))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// recordMeta summarizes the enrichment fields of r.
func recordMeta(r release.Record) string {
	var parts []string
	if r.Impact != "" {
		parts = append(parts, r.Impact+" impact")
	}
	if r.Team != "" {
		parts = append(parts, r.Team)
	}
	if r.BugCount > 0 {
		parts = append(parts, fmt.Sprintf("%d bug(s)", r.BugCount))
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
