package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/releasecal/pkg/calendar"
	"github.com/matzehuels/releasecal/pkg/pipeline"
	"github.com/matzehuels/releasecal/pkg/release"
)

func browseSnapshot() *release.Snapshot {
	recs := []release.Record{
		release.NewRecord(0, release.MustDay(2022, time.January, 5), "Meeting", "Major new layout"),
		release.NewRecord(1, release.MustDay(2022, time.February, 9), "Chat features", "Threads"),
		release.NewRecord(2, release.MustDay(2022, time.February, 9), "Meeting", "Minor fix"),
		release.NewRecord(3, release.MustDay(2022, time.May, 20), "Phone features", "Call park"),
	}
	return release.NewStore(recs).Snapshot()
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseModelStartsOnBusiestDay(t *testing.T) {
	m, err := newBrowseModel(context.Background(), browseSnapshot(), pipeline.Options{})
	if err != nil {
		t.Fatalf("newBrowseModel() = %v", err)
	}
	if m.quarter.String() != "2022Q1" {
		t.Errorf("quarter = %s, want 2022Q1", m.quarter)
	}
	if m.cursor != release.MustDay(2022, time.February, 9) {
		t.Errorf("cursor = %v, want the busiest day", m.cursor)
	}
	if m.day == nil || m.day.Count != 2 {
		t.Errorf("day view = %+v", m.day)
	}
}

func TestBrowseModelQuarterNavigation(t *testing.T) {
	m, err := newBrowseModel(context.Background(), browseSnapshot(), pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.quarter.String() != "2022Q2" {
		t.Errorf("after right: %s", m.quarter)
	}
	if m.cursor != release.MustDay(2022, time.May, 20) {
		t.Errorf("cursor = %v", m.cursor)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.quarter.String() != "2022Q1" {
		t.Errorf("left should clamp at the first quarter, got %s", m.quarter)
	}

	for i := 0; i < 4; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyRight})
	}
	if m.quarter.String() != "2022Q4" {
		t.Errorf("right should clamp at the last year, got %s", m.quarter)
	}
}

func TestBrowseModelDayCursor(t *testing.T) {
	m, err := newBrowseModel(context.Background(), browseSnapshot(), pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}
	q, _ := calendar.ParseQuarter("2022Q1")
	first := q.Days()[0]
	if err := m.setCursor(first); err != nil {
		t.Fatal(err)
	}

	m.Update(keyRunes("h"))
	if m.cursor != first {
		t.Errorf("h at the first day moved to %v", m.cursor)
	}
	m.Update(keyRunes("l"))
	if m.cursor != first.AddDays(1) {
		t.Errorf("l moved to %v", m.cursor)
	}
	m.Update(keyRunes("j"))
	if m.cursor != first.AddDays(8) {
		t.Errorf("j moved to %v", m.cursor)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != first.AddDays(1) {
		t.Errorf("up moved to %v", m.cursor)
	}
}

func TestBrowseModelViewAndQuit(t *testing.T) {
	m, err := newBrowseModel(context.Background(), browseSnapshot(), pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}
	out := m.View()
	for _, want := range []string{"Q1 2022", "January", "February", "March", "Su Mo Tu We Th Fr Sa", "Threads"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	if _, cmd := m.Update(keyRunes("q")); cmd == nil {
		t.Error("q should quit")
	}
}
