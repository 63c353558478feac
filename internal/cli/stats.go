package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/releasecal/pkg/calendar"
	"github.com/matzehuels/releasecal/pkg/palette"
	"github.com/matzehuels/releasecal/pkg/release"
)

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var (
		data   datasetFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "stats [quarter]",
		Short: "Print release counts per category",
		Long: `Print release counts per category for one quarter, or for every quarter of
the dataset when no quarter is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var quarter string
			if len(args) == 1 {
				quarter = args[0]
			}
			return c.runStats(cmd.Context(), data, quarter, asJSON)
		},
	}

	data.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func (c *CLI) runStats(ctx context.Context, data datasetFlags, quarter string, asJSON bool) error {
	opts, err := c.loadOptions(data)
	if err != nil {
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
	snap := store.Snapshot()
	idx := calendar.NewIndex(snap)

	quarters := quartersToRender(snap, explicit, explicit == nil)
	stats := make([]calendar.Stats, len(quarters))
	for i, q := range quarters {
		stats[i] = idx.QuarterStats(q)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	reportLoad(loaded)
	printNewline()
	p, err := c.cfg().Palette()
	if err != nil {
		return err
	}
	if explicit != nil {
		fmt.Println(StyleTitle.Render(explicit.Label()))
		fmt.Println(categoryTable(stats[0], p))
		return nil
	}
	fmt.Println(quarterTable(stats, snap))
	return nil
}

// categoryTable lists each category of one quarter with its color swatch.
func categoryTable(st calendar.Stats, p *palette.Palette) string {
	rows := make([][]string, 0, len(st.Categories))
	for _, cc := range st.Categories {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color(cc.Category))).Render("■")
		rows = append(rows, []string{swatch, cc.Category, strconv.Itoa(cc.Count)})
	}
	return newTable("", "Category", "Releases").Rows(rows...).Render() +
		"\n" + StyleDim.Render(fmt.Sprintf("  %d release(s)", st.Total))
}

// quarterTable summarizes every quarter with its busiest category.
func quarterTable(stats []calendar.Stats, snap *release.Snapshot) string {
	rows := make([][]string, 0, len(stats))
	for _, st := range stats {
		top := "—"
		if len(st.Categories) > 0 && st.Categories[0].Count > 0 {
			top = fmt.Sprintf("%s (%d)", st.Categories[0].Category, st.Categories[0].Count)
		}
		rows = append(rows, []string{st.Quarter.Label(), strconv.Itoa(st.Total), top})
	}
	return newTable("Quarter", "Releases", "Top category").Rows(rows...).Render() +
		"\n" + StyleDim.Render(fmt.Sprintf("  %d release(s) in %d categories", snap.Len(), len(snap.Categories())))
}

func newTable(headers ...string) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}
