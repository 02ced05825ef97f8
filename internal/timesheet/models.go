// Package timesheet owns the in-memory project and entry collections and
// mediates every read and write of the durable snapshot, keeping a redundant
// primary+backup copy with retry on failure.
package timesheet

import (
	"encoding/json"
	"math/rand"
	"strconv"
	"time"
)

// DateLayout is the calendar-date encoding used by Entry.Date.
const DateLayout = "2006-01-02"

type Project struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Entry struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	ProjectID int64     `json:"projectId"`
	Hours     float64   `json:"hours"`
	CreatedAt time.Time `json:"createdAt"`
	Synced    bool      `json:"synced"`
}

// Snapshot is the serialized form written to the primary and backup keys.
type Snapshot struct {
	Projects  []Project `json:"projects"`
	Entries   []Entry   `json:"entries"`
	LastSaved time.Time `json:"lastSaved"`
}

// DaySummary is aggregated hours for one project on one day.
type DaySummary struct {
	Date         string
	ProjectID    int64
	ProjectName  string
	ProjectColor string
	Hours        float64
	EntryCount   int
}

// defaultProjects seeds a first run (or a run where both snapshot copies
// are unreadable).
func defaultProjects() []Project {
	return []Project{
		{ID: 1, Name: "General", Color: "#6C63FF"},
		{ID: 2, Name: "Development", Color: "#2EC4B6"},
		{ID: 3, Name: "Meetings", Color: "#F39C12"},
		{ID: 4, Name: "Admin", Color: "#FF6B6B"},
	}
}

func decodeSnapshot(raw string) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func encodeSnapshot(snap Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// newEntryID builds an id from a base36 millisecond timestamp plus random
// base36 suffix. Ids sort roughly by creation time; they are not globally
// unique, which is fine for a single-user store.
func newEntryID(now time.Time, rng *rand.Rand) string {
	const suffixLen = 9
	suffix := make([]byte, suffixLen)
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	for i := range suffix {
		suffix[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return strconv.FormatInt(now.UnixMilli(), 36) + string(suffix)
}

// migrateEntryIDs assigns ids to entries that lack one. Running it again
// over the same entries changes nothing.
func migrateEntryIDs(entries []Entry, now time.Time, rng *rand.Rand) bool {
	changed := false
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = newEntryID(now, rng)
			changed = true
		}
	}
	return changed
}
