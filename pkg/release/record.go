package release

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Uncategorized is the category assigned to records without one.
const Uncategorized = "Uncategorized"

// Impact levels.
const (
	ImpactHigh   = "High"
	ImpactMedium = "Medium"
	ImpactLow    = "Low"
)

// recordNamespace seeds the deterministic record IDs.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/matzehuels/releasecal/record"))

// Record is a single feature release.
//
// Records are values and are never modified once built: Raw and Dependencies
// are shared between copies and must be treated as read-only. Enrichers
// return new records instead of mutating their input.
type Record struct {
	ID            string            `json:"id"`
	Date          Day               `json:"date"`
	Category      string            `json:"category"`
	Description   string            `json:"description"`
	Impact        string            `json:"impact"`
	Team          string            `json:"team,omitempty"`
	Contributor   string            `json:"contributor,omitempty"`
	BugCount      int               `json:"bug_count"`
	Complexity    string            `json:"complexity,omitempty"`
	TimeToRelease int               `json:"time_to_release,omitempty"`
	Dependencies  []string          `json:"dependencies,omitempty"`
	Raw           map[string]string `json:"-"`
}

// NewRecord builds a record with a deterministic ID derived from its
// position in the ingested sequence and its identifying fields.
func NewRecord(seq int, date Day, category, description string) Record {
	if category == "" {
		category = Uncategorized
	}
	return Record{
		ID:          RecordID(seq, date, category, description),
		Date:        date,
		Category:    category,
		Description: description,
		Impact:      Impact(description),
	}
}

// RecordID returns the UUIDv5 identifying a record. Identical inputs always
// produce identical IDs; two records colliding on date and category still get
// distinct IDs through their sequence number.
func RecordID(seq int, date Day, category, description string) string {
	key := fmt.Sprintf("%d|%s|%s|%s", seq, date, category, description)
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}

// withDependencies returns a copy of r holding its own dependency slice.
func (r Record) withDependencies(deps []string) Record {
	r.Dependencies = slices.Clone(deps)
	return r
}
