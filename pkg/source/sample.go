package source

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/releasecal/pkg/release"
)

// SampleCategories are the categories the sample generator draws from.
var SampleCategories = []string{
	"Meeting", "Chat features", "Contact Center features", "General features",
	"Mail and Calendar features", "Phone features", "Team Chat features",
	"Webinar features", "Whiteboard features",
}

var sampleImpacts = []string{release.ImpactHigh, release.ImpactMedium, release.ImpactLow}

// Sample generates a synthetic dataset: two to five releases in every month
// from January 2022 to January 2024, each on a day between the 1st and the
// 28th. The same seed always produces the same rows.
type Sample struct {
	Seed uint64
}

func (s *Sample) Name() string { return "sample:" + strconv.FormatUint(s.Seed, 10) }

func (s *Sample) Load(ctx context.Context) ([]release.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return GenerateSample(s.Seed), nil
}

// GenerateSample returns the sample rows sorted by release day.
func GenerateSample(seed uint64) []release.Row {
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed))

	type dated struct {
		day release.Day
		row release.Row
	}
	var out []dated

	for year := 2022; year <= 2024; year++ {
		for month := time.January; month <= time.December; month++ {
			if year == 2024 && month > time.January {
				break
			}
			n := 2 + rng.IntN(4)
			for i := range n {
				d := release.Day{Year: year, Month: month, Day: 1 + rng.IntN(28)}
				category := SampleCategories[rng.IntN(len(SampleCategories))]
				team := release.Teams[rng.IntN(len(release.Teams))]
				deps := release.Teams[:1+rng.IntN(3)]

				out = append(out, dated{day: d, row: release.Row{
					release.ColumnDate:          d.String(),
					release.ColumnCategory:      category,
					release.ColumnDescription:   fmt.Sprintf("Sample %s feature %d", category, i+1),
					release.ColumnTeam:          team,
					"Impact":                    sampleImpacts[rng.IntN(len(sampleImpacts))],
					release.ColumnComplexity:    release.Complexities[rng.IntN(len(release.Complexities))],
					release.ColumnTimeToRelease: strconv.Itoa(5 + rng.IntN(30)),
					release.ColumnBugCount:      strconv.Itoa(rng.IntN(5)),
					release.ColumnDependencies:  strings.Join(deps, ", "),
				}})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].day.Before(out[j].day) })

	rows := make([]release.Row, len(out))
	for i, o := range out {
		rows[i] = o.row
	}
	return rows
}
