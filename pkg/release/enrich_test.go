package release

import (
	"reflect"
	"slices"
	"testing"
	"time"
)

func TestImpact(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"", ImpactMedium},
		{"Major redesign of the lobby", ImpactHigh},
		{"Brand NEW whiteboard", ImpactHigh},
		{"Minor tweak to buttons", ImpactLow},
		{"Small fix for notifications", ImpactLow},
		{"New fix for audio", ImpactHigh},
		{"Improved audio quality", ImpactMedium},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := Impact(tt.desc); got != tt.want {
				t.Errorf("Impact(%q) = %q, want %q", tt.desc, got, tt.want)
			}
		})
	}
}

func TestRandomEnricherDeterministic(t *testing.T) {
	a := EnrichAll(testRecords(), NewRandomEnricher(42))
	b := EnrichAll(testRecords(), NewRandomEnricher(42))

	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different enrichment")
	}

	for _, r := range a {
		if !slices.Contains(Teams, r.Team) {
			t.Errorf("team %q not in demo set", r.Team)
		}
		if !slices.Contains(Contributors, r.Contributor) {
			t.Errorf("contributor %q not in demo set", r.Contributor)
		}
		if r.BugCount < 0 || r.BugCount > 4 {
			t.Errorf("bug count %d out of range", r.BugCount)
		}
		if r.TimeToRelease < 10 || r.TimeToRelease > 39 {
			t.Errorf("time to release %d out of range", r.TimeToRelease)
		}
		if len(r.Dependencies) > 2 {
			t.Errorf("got %d dependencies, want at most 2", len(r.Dependencies))
		}
		seen := map[string]bool{}
		for _, d := range r.Dependencies {
			if seen[d] {
				t.Errorf("duplicate dependency %q", d)
			}
			seen[d] = true
		}
	}
}

func TestRandomEnricherReuse(t *testing.T) {
	e := NewRandomEnricher(42)
	first := EnrichAll(testRecords(), e)
	second := EnrichAll(testRecords(), e)
	if !reflect.DeepEqual(first, second) {
		t.Error("reusing an enricher changed its output")
	}

	reversed := testRecords()
	slices.Reverse(reversed)
	got := EnrichAll(reversed, e)
	slices.Reverse(got)
	if !reflect.DeepEqual(first, got) {
		t.Error("enrichment depends on record order")
	}
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	in := testRecords()
	orig := slices.Clone(in)

	_ = EnrichAll(in, NewRandomEnricher(1))

	if !reflect.DeepEqual(in, orig) {
		t.Error("EnrichAll modified its input")
	}
}

func TestFieldEnricher(t *testing.T) {
	r := NewRecord(0, MustDay(2022, time.May, 3), "Phone features", "Call queues")
	r.Raw = map[string]string{
		"team":            "Backend",
		"Contributor":     " Wei Zhang ",
		"BUG_COUNT":       "3",
		"Complexity":      "High",
		"Time To Release": "not a number",
		"Dependencies":    "API, Database, API,",
	}

	got := FieldEnricher{}.Enrich(r)

	if got.Team != "Backend" {
		t.Errorf("Team = %q", got.Team)
	}
	if got.Contributor != "Wei Zhang" {
		t.Errorf("Contributor = %q", got.Contributor)
	}
	if got.BugCount != 3 {
		t.Errorf("BugCount = %d", got.BugCount)
	}
	if got.TimeToRelease != 0 {
		t.Errorf("TimeToRelease = %d, want 0 for malformed input", got.TimeToRelease)
	}
	if want := []string{"API", "Database"}; !reflect.DeepEqual(got.Dependencies, want) {
		t.Errorf("Dependencies = %v, want %v", got.Dependencies, want)
	}
}

func TestNopEnricher(t *testing.T) {
	in := testRecords()
	if out := EnrichAll(in, NopEnricher{}); !reflect.DeepEqual(in, out) {
		t.Error("NopEnricher changed records")
	}
	if out := EnrichAll(in, nil); !reflect.DeepEqual(in, out) {
		t.Error("nil enricher changed records")
	}
}
