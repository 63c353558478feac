package release

import (
	"sync"
	"testing"
	"time"
)

func testRecords() []Record {
	return []Record{
		NewRecord(0, MustDay(2023, time.March, 2), "Chat features", "Threads"),
		NewRecord(1, MustDay(2022, time.January, 1), "Meeting", "Major revamp"),
		NewRecord(2, MustDay(2022, time.January, 1), "Chat features", "Emoji fix"),
	}
}

func TestStoreSnapshot(t *testing.T) {
	s := NewStore(testRecords())
	snap := s.Snapshot()

	if snap.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", snap.Len())
	}
	if snap.Records()[0].Description != "Threads" {
		t.Errorf("Records() not in ingestion order: %v", snap.Records()[0])
	}

	cats := snap.Categories()
	if len(cats) != 2 || cats[0] != "Chat features" || cats[1] != "Meeting" {
		t.Errorf("Categories() = %v", cats)
	}

	span, ok := snap.DateSpan()
	if !ok {
		t.Fatal("DateSpan() ok = false")
	}
	if span.Start != MustDay(2022, time.January, 1) || span.End != MustDay(2023, time.March, 2) {
		t.Errorf("DateSpan() = %v", span)
	}
	if yr := snap.YearRange(); yr != (YearRange{Min: 2022, Max: 2023}) {
		t.Errorf("YearRange() = %+v", yr)
	}
}

func TestStoreEmpty(t *testing.T) {
	var s Store
	snap := s.Snapshot()

	if snap.Len() != 0 {
		t.Errorf("Len() = %d, want 0", snap.Len())
	}
	if _, ok := snap.DateSpan(); ok {
		t.Error("DateSpan() ok = true for empty store")
	}
	if snap.YearRange() != DefaultYearRange {
		t.Errorf("YearRange() = %+v, want %+v", snap.YearRange(), DefaultYearRange)
	}
}

func TestStoreReplace(t *testing.T) {
	recs := testRecords()
	s := NewStore(recs)
	before := s.Snapshot()

	recs[0].Description = "mutated"
	if before.Records()[0].Description != "Threads" {
		t.Error("snapshot shares the caller's slice")
	}

	after := s.Replace(recs[:1])
	if after.Version() != before.Version()+1 {
		t.Errorf("Version() = %d, want %d", after.Version(), before.Version()+1)
	}
	if before.Len() != 3 {
		t.Errorf("old snapshot changed: Len() = %d", before.Len())
	}
	if s.Snapshot() != after {
		t.Error("Snapshot() does not return the replaced snapshot")
	}
}

func TestStoreConcurrentReplace(t *testing.T) {
	s := NewStore(testRecords())
	full := testRecords()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				if (i+j)%2 == 0 {
					s.Replace(full)
					continue
				}
				snap := s.Snapshot()
				if n := snap.Len(); n != 3 {
					t.Errorf("observed partial snapshot with %d records", n)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestFingerprint(t *testing.T) {
	a := NewStore(testRecords()).Snapshot().Fingerprint()
	b := NewStore(testRecords()).Snapshot().Fingerprint()
	if a != b {
		t.Errorf("fingerprints differ for identical data: %s vs %s", a, b)
	}

	c := NewStore(testRecords()[:2]).Snapshot().Fingerprint()
	if a == c {
		t.Error("fingerprint did not change with data")
	}
}

func TestRecordID(t *testing.T) {
	d := MustDay(2022, time.January, 1)
	if RecordID(0, d, "Meeting", "x") != RecordID(0, d, "Meeting", "x") {
		t.Error("RecordID is not deterministic")
	}
	if RecordID(0, d, "Meeting", "x") == RecordID(1, d, "Meeting", "x") {
		t.Error("colliding records share an ID")
	}
}
