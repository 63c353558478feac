package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/releasecal/pkg/errors"
	"github.com/matzehuels/releasecal/pkg/release"
	"github.com/matzehuels/releasecal/pkg/render/heatmap"
)

func TestParseDayArg(t *testing.T) {
	now := time.Date(2023, time.March, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want release.Day
	}{
		{"2023-03-14", release.MustDay(2023, time.March, 14)},
		{" 2022-01-03 ", release.MustDay(2022, time.January, 3)},
		{"yesterday", release.MustDay(2023, time.March, 14)},
		{"3 days ago", release.MustDay(2023, time.March, 12)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDayArg(tt.in, now)
			if err != nil {
				t.Fatalf("parseDayArg(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseDayArg(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	for _, in := range []string{"gibberish", "3", "44564", "1.5"} {
		if _, err := parseDayArg(in, now); !errors.Is(err, errors.ErrCodeInvalidDate) {
			t.Errorf("parseDayArg(%q) error = %v, want %v", in, err, errors.ErrCodeInvalidDate)
		}
	}
}

func TestFormatDay(t *testing.T) {
	d := release.MustDay(2023, time.March, 14)
	meeting := release.NewRecord(0, d, "Meeting", "Major new layout")
	meeting.BugCount = 2
	chat := release.NewRecord(1, d, "Chat features", "Threaded replies")

	v := &heatmap.DayView{
		Day:       d,
		Title:     "March 14, 2023",
		Count:     2,
		DaysSince: 5,
		Groups: []heatmap.CategoryGroup{
			{Category: "Meeting", Color: "#F5A623", Records: []release.Record{meeting}},
			{Category: "Chat features", Color: "#78909C", Records: []release.Record{chat}},
		},
	}

	out := formatDay(v)
	for _, want := range []string{"March 14, 2023", "2 feature(s)", "5 day(s)", "Meeting", "Major new layout", "2 bug(s)", "Chat features", "Threaded replies"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatDay() missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Meeting") > strings.Index(out, "Chat features") {
		t.Error("groups should keep their order")
	}

	empty := formatDay(&heatmap.DayView{Day: d, Title: "March 14, 2023"})
	if !strings.Contains(empty, "No features") {
		t.Errorf("formatDay(empty) = %q", empty)
	}
}
