package release

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"sync"
	"sync/atomic"
)

// Snapshot is an immutable view of the dataset at one point in time.
//
// Every query answered from one snapshot observes the same records. A
// snapshot is safe for concurrent use.
type Snapshot struct {
	records    []Record
	categories []string
	span       Range
	version    uint64

	fpOnce      sync.Once
	fingerprint string
}

func newSnapshot(records []Record, version uint64) *Snapshot {
	recs := slices.Clone(records)

	seen := make(map[string]struct{}, 16)
	var cats []string
	var first, last Day
	for i, r := range recs {
		if _, ok := seen[r.Category]; !ok {
			seen[r.Category] = struct{}{}
			cats = append(cats, r.Category)
		}
		if i == 0 || r.Date.Before(first) {
			first = r.Date
		}
		if i == 0 || r.Date.After(last) {
			last = r.Date
		}
	}

	return &Snapshot{
		records:    recs,
		categories: cats,
		span:       Range{Start: first, End: last},
		version:    version,
	}
}

// Records returns the records in ingestion order. The slice must not be modified.
func (s *Snapshot) Records() []Record { return s.records }

// Len returns the number of records.
func (s *Snapshot) Len() int { return len(s.records) }

// Categories returns the distinct categories in first-seen order.
func (s *Snapshot) Categories() []string { return s.categories }

// DateSpan returns the earliest and latest release day. ok is false for an
// empty dataset.
func (s *Snapshot) DateSpan() (span Range, ok bool) {
	return s.span, len(s.records) > 0
}

// YearRange returns the span of years covered by the records, or
// DefaultYearRange for an empty dataset.
func (s *Snapshot) YearRange() YearRange {
	if len(s.records) == 0 {
		return DefaultYearRange
	}
	return YearRange{Min: s.span.Start.Year, Max: s.span.End.Year}
}

// Version increases by one on every Store.Replace.
func (s *Snapshot) Version() uint64 { return s.version }

// Fingerprint is a content hash of the records, stable across processes.
// It is used to key rendered artifacts.
func (s *Snapshot) Fingerprint() string {
	s.fpOnce.Do(func() {
		h := sha256.New()
		enc := json.NewEncoder(h)
		for _, r := range s.records {
			_ = enc.Encode(r)
		}
		s.fingerprint = hex.EncodeToString(h.Sum(nil))[:16]
	})
	return s.fingerprint
}

// Store holds the current dataset snapshot.
//
// Readers call Snapshot and work against the returned value; Replace swaps
// in a complete new dataset atomically, so a reader never sees a partially
// loaded dataset. The zero Store is empty and ready to use.
type Store struct {
	cur     atomic.Pointer[Snapshot]
	version atomic.Uint64
}

// NewStore returns a store holding records.
func NewStore(records []Record) *Store {
	s := &Store{}
	s.Replace(records)
	return s
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() *Snapshot {
	if snap := s.cur.Load(); snap != nil {
		return snap
	}
	empty := newSnapshot(nil, 0)
	if s.cur.CompareAndSwap(nil, empty) {
		return empty
	}
	return s.cur.Load()
}

// Replace installs records as the new dataset and returns its snapshot.
// The slice is copied; callers may reuse it afterwards.
func (s *Store) Replace(records []Record) *Snapshot {
	snap := newSnapshot(records, s.version.Add(1))
	s.cur.Store(snap)
	return snap
}
