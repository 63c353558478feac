package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/releasecal/pkg/calendar"
	"github.com/matzehuels/releasecal/pkg/pipeline"
	"github.com/matzehuels/releasecal/pkg/release"
	"github.com/matzehuels/releasecal/pkg/render/heatmap"
)

// Browser styles
var (
	browseCursorStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	browseEmptyStyle  = lipgloss.NewStyle().Foreground(colorDim)
	browseMonthStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	browsePaneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// browseCommand creates the interactive quarter browser.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		data datasetFlags
		rf   renderFlags
	)

	cmd := &cobra.Command{
		Use:   "browse [quarter]",
		Short: "Browse the release calendar in the terminal",
		Long: `Browse the release calendar quarter by quarter.

Keys: ←/→ change quarter, h/l move one day, j/k (or ↓/↑) move one week,
q quits. The pane below the calendar lists the releases of the selected day.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var quarter string
			if len(args) == 1 {
				quarter = args[0]
			}
			return c.runBrowse(cmd.Context(), data, rf, quarter)
		},
	}

	data.register(cmd)
	cmd.Flags().Float64Var(&rf.hue, "hue", -1, "heat hue in degrees 0-360 (default from config)")
	cmd.Flags().StringVar(&rf.scheme, "scheme", "", "heat scheme: hue, blue, green, purple, rainbow")
	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, data datasetFlags, rf renderFlags, quarter string) error {
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

	store, _, err := c.load(ctx, runner, opts)
	if err != nil {
		return err
	}

	m, err := newBrowseModel(ctx, store.Snapshot(), opts)
	if err != nil {
		return err
	}
	if quarter != "" {
		q, err := calendar.ParseQuarter(quarter)
		if err != nil {
			return err
		}
		if err := m.setQuarter(q); err != nil {
			return err
		}
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// browseModel is the bubbletea model of the quarter browser.
type browseModel struct {
	ctx     context.Context
	snap    *release.Snapshot
	opts    pipeline.Options
	years   release.YearRange
	quarter calendar.Quarter
	cursor  release.Day
	view    *heatmap.QuarterView
	day     *heatmap.DayView
	err     error
}

func newBrowseModel(ctx context.Context, snap *release.Snapshot, opts pipeline.Options) (*browseModel, error) {
	m := &browseModel{ctx: ctx, snap: snap, opts: opts, years: snap.YearRange()}
	if err := m.setQuarter(calendar.FirstQuarter(m.years)); err != nil {
		return nil, err
	}
	return m, nil
}

// setQuarter rebuilds the quarter view and moves the cursor to the busiest
// day of q, or its first day.
func (m *browseModel) setQuarter(q calendar.Quarter) error {
	view, err := pipeline.BuildQuarterView(m.ctx, m.snap, q, m.opts)
	if err != nil {
		return err
	}
	m.quarter = q
	m.view = view

	days := q.Days()
	cursor := days[0]
	best := 0
	for _, mv := range view.Months {
		for _, cell := range mv.Days {
			if cell.Count > best {
				best, cursor = cell.Count, cell.Day
			}
		}
	}
	return m.setCursor(cursor)
}

func (m *browseModel) setCursor(d release.Day) error {
	if !m.quarter.Contains(d) {
		return nil
	}
	day, err := pipeline.BuildDayView(m.ctx, m.snap, d, m.opts)
	if err != nil {
		return err
	}
	m.cursor = d
	m.day = day
	return nil
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "right", "]", "n":
		m.err = m.moveQuarter(m.quarter.Next(m.years))
	case "left", "[", "p":
		m.err = m.moveQuarter(m.quarter.Prev(m.years))
	case "l":
		m.err = m.setCursor(m.cursor.AddDays(1))
	case "h":
		m.err = m.setCursor(m.cursor.AddDays(-1))
	case "j", "down":
		m.err = m.setCursor(m.cursor.AddDays(7))
	case "k", "up":
		m.err = m.setCursor(m.cursor.AddDays(-7))
	}
	return m, nil
}

func (m *browseModel) moveQuarter(q calendar.Quarter) error {
	if q == m.quarter {
		return nil
	}
	return m.setQuarter(q)
}

func (m *browseModel) View() string {
	var b strings.Builder

	title := fmt.Sprintf("%s · %d release(s) · %s heat", m.view.Label, m.view.Total, m.view.ColorName)
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ quarter  h/l day  j/k week  q quit"))
	b.WriteString("\n\n")

	months := make([]string, len(m.view.Months))
	for i, mv := range m.view.Months {
		months[i] = m.renderMonth(mv)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, months...))
	b.WriteString("\n")

	if m.day != nil {
		b.WriteString(browsePaneStyle.Render(strings.TrimRight(formatDay(m.day), "\n")))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error() + "\n")
	}
	return b.String()
}

// renderMonth draws one month as a Sunday-first grid of day numbers on
// their heat fill.
func (m *browseModel) renderMonth(mv heatmap.MonthView) string {
	var b strings.Builder
	b.WriteString(browseMonthStyle.Render(fmt.Sprintf("%-16s", mv.Name)))
	b.WriteString(StyleDim.Render(fmt.Sprintf("%5d", mv.Count)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("Su Mo Tu We Th Fr Sa"))
	b.WriteString("\n")

	col := 0
	for i := 0; i < mv.LeadingBlanks; i++ {
		b.WriteString("   ")
		col++
	}
	for _, cell := range mv.Days {
		b.WriteString(m.renderCell(cell))
		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		} else {
			b.WriteString(" ")
		}
	}
	return lipgloss.NewStyle().MarginRight(3).Render(strings.TrimRight(b.String(), " \n"))
}

func (m *browseModel) renderCell(cell heatmap.DayCell) string {
	label := fmt.Sprintf("%2d", cell.Day.Day)
	style := browseEmptyStyle
	if cell.Fill != "" {
		style = lipgloss.NewStyle().Background(lipgloss.Color(cell.Fill)).Foreground(lipgloss.Color("#000000"))
	}
	if cell.Day == m.cursor {
		style = browseCursorStyle
	}
	return style.Render(label)
}
