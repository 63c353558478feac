package release

import (
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
)

// Enricher fills in the engineering metadata of a record (team, contributor,
// bug count and so on). Implementations return a new record and never modify
// their argument.
type Enricher interface {
	Enrich(Record) Record
}

// EnrichAll applies e to every record and returns the results as a new slice.
// A nil enricher leaves records unchanged.
func EnrichAll(records []Record, e Enricher) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		if e == nil {
			out[i] = r
			continue
		}
		out[i] = e.Enrich(r)
	}
	return out
}

// NopEnricher returns records unchanged.
type NopEnricher struct{}

func (NopEnricher) Enrich(r Record) Record { return r }

// Demo values for RandomEnricher.
var (
	Teams = []string{
		"Frontend", "Backend", "Mobile", "Security", "Infrastructure",
		"Design", "API", "QA", "DevOps",
	}
	Contributors = []string{
		"Sarah Chen", "Michael Johnson", "Amit Patel", "Jessica Kim",
		"Carlos Rodriguez", "Emma Thompson", "David Wilson", "Olga Petrov",
		"Marcus Lee", "Hannah Garcia", "James Moore", "Fatima Ali",
		"Ryan Taylor", "Sophia Martinez", "Noah Anderson", "Wei Zhang",
	}
	Complexities    = []string{"Low", "Medium", "High"}
	DependencyNames = []string{"API", "Authentication", "Database", "Frontend", "Notifications", "Payments"}
)

// RandomEnricher fills metadata with seeded pseudo-random demo values. Each
// record draws from its own stream derived from the seed and the record ID,
// so enriching the same records again yields the same output. It is safe for
// concurrent use.
type RandomEnricher struct {
	seed uint64
}

// NewRandomEnricher returns a RandomEnricher seeded with seed.
func NewRandomEnricher(seed uint64) *RandomEnricher {
	return &RandomEnricher{seed: seed}
}

func (e *RandomEnricher) Enrich(r Record) Record {
	h := fnv.New64a()
	h.Write([]byte(r.ID))
	rng := rand.New(rand.NewPCG(e.seed, h.Sum64()))

	r.Team = pick(rng, Teams)
	r.Contributor = pick(rng, Contributors)
	r.BugCount = rng.IntN(5)
	r.Complexity = pick(rng, Complexities)
	r.TimeToRelease = 10 + rng.IntN(30)

	var deps []string
	for range rng.IntN(3) {
		if d := pick(rng, DependencyNames); !slices.Contains(deps, d) {
			deps = append(deps, d)
		}
	}
	return r.withDependencies(deps)
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.IntN(len(from))]
}

// Column names read by FieldEnricher.
const (
	ColumnTeam          = "Team"
	ColumnContributor   = "Contributor"
	ColumnBugCount      = "Bug Count"
	ColumnComplexity    = "Complexity"
	ColumnTimeToRelease = "Time To Release"
	ColumnDependencies  = "Dependencies"
)

// FieldEnricher reads metadata from the record's raw source columns. Column
// names are matched case-insensitively; missing or malformed values leave the
// field at its zero value.
type FieldEnricher struct{}

func (FieldEnricher) Enrich(r Record) Record {
	get := func(col string) string { return lookup(r.Raw, col) }

	r.Team = get(ColumnTeam)
	r.Contributor = get(ColumnContributor)
	r.Complexity = get(ColumnComplexity)
	r.BugCount = atoiOrZero(get(ColumnBugCount))
	r.TimeToRelease = atoiOrZero(get(ColumnTimeToRelease))

	var deps []string
	for _, d := range strings.Split(get(ColumnDependencies), ",") {
		if d = strings.TrimSpace(d); d != "" && !slices.Contains(deps, d) {
			deps = append(deps, d)
		}
	}
	return r.withDependencies(deps)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// lookup finds col in raw, falling back to a match on the canonical key
// ("Bug Count", "bug_count" and "BUGCOUNT" are the same column).
func lookup(raw map[string]string, col string) string {
	if v, ok := raw[col]; ok {
		return strings.TrimSpace(v)
	}
	want := canonicalKey(col)
	for k, v := range raw {
		if canonicalKey(k) == want {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

var (
	highImpactKeywords = []string{"major", "significant", "new", "revolutionary", "transform"}
	lowImpactKeywords  = []string{"minor", "small", "fix", "tweak"}
)

// Impact classifies a feature description by keyword. High-impact keywords
// take precedence over low-impact ones; anything else is Medium.
func Impact(description string) string {
	desc := strings.ToLower(description)
	if desc == "" {
		return ImpactMedium
	}
	for _, kw := range highImpactKeywords {
		if strings.Contains(desc, kw) {
			return ImpactHigh
		}
	}
	for _, kw := range lowImpactKeywords {
		if strings.Contains(desc, kw) {
			return ImpactLow
		}
	}
	return ImpactMedium
}
