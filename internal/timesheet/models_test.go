package timesheet

import (
	"math/rand"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestNewEntryIDFormat(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	now := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

	id := newEntryID(now, rng)
	if id == "" {
		t.Fatal("empty id")
	}

	// The id starts with the base36 millisecond timestamp.
	prefix := strconv.FormatInt(now.UnixMilli(), 36)
	if id[:len(prefix)] != prefix {
		t.Fatalf("id %q should start with %q", id, prefix)
	}
	if len(id) != len(prefix)+9 {
		t.Fatalf("id %q should carry a 9-char random suffix", id)
	}
}

func TestNewEntryIDCollisions(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	now := time.Now()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := newEntryID(now, rng)
		if seen[id] {
			t.Fatalf("duplicate id %q after %d generations", id, i)
		}
		seen[id] = true
	}
}

func TestMigrateEntryIDsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	now := time.Now()

	entries := []Entry{
		{Date: "2026-08-01", ProjectID: 1, Hours: 1},
		{ID: "fixed", Date: "2026-08-02", ProjectID: 1, Hours: 2},
		{Date: "2026-08-03", ProjectID: 2, Hours: 3},
	}

	if !migrateEntryIDs(entries, now, rng) {
		t.Fatal("first pass should report changes")
	}
	first := []string{entries[0].ID, entries[1].ID, entries[2].ID}
	if first[0] == "" || first[2] == "" {
		t.Fatal("missing ids should be assigned")
	}
	if first[1] != "fixed" {
		t.Fatalf("existing id changed to %q", first[1])
	}

	// Second pass must not change any id.
	if migrateEntryIDs(entries, now, rng) {
		t.Fatal("second pass should report no changes")
	}
	for i, want := range first {
		if entries[i].ID != want {
			t.Fatalf("entry %d id changed on second pass: %q != %q", i, entries[i].ID, want)
		}
	}
}

func TestSnapshotRoundTripPreservesFieldNames(t *testing.T) {
	snap := Snapshot{
		Projects:  []Project{{ID: 1, Name: "P", Color: "#111"}},
		Entries:   []Entry{{ID: "x", Date: "2026-08-01", ProjectID: 1, Hours: 1.5}},
		LastSaved: time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC),
	}

	raw, err := encodeSnapshot(snap)
	if err != nil {
		t.Fatal(err)
	}

	// The wire names are part of the storage format.
	for _, want := range []string{`"projects"`, `"entries"`, `"lastSaved"`, `"projectId"`, `"createdAt"`, `"synced"`} {
		if !strings.Contains(raw, want) {
			t.Fatalf("encoded snapshot missing %s: %s", want, raw)
		}
	}

	decoded, err := decodeSnapshot(raw)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Entries[0].ProjectID != 1 || !decoded.LastSaved.Equal(snap.LastSaved) {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestDefaultProjectsAreStable(t *testing.T) {
	a := defaultProjects()
	b := defaultProjects()
	if len(a) != 4 || len(b) != 4 {
		t.Fatalf("expected 4 default projects, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("default projects should be fixed")
		}
	}
}
