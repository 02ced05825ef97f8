package timesheet

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"timegrid/internal/storage"
)

// Storage keys. Everything under KeyPrefix belongs to this application and
// is subject to cleanup when writes start failing.
const (
	PrimaryKey = "workTimesheet_data"
	BackupKey  = "workTimesheet_backup"
	KeyPrefix  = "workTimesheet_"
)

const (
	maxRetries      = 3
	retryStep       = time.Second
	savedNoticeLag  = 500 * time.Millisecond
	cleanupKeyLimit = 10
	cleanupBatch    = 5
)

// Notifier receives user-visible notices. The TUI shows them in the status
// line; serve mode logs them.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Info(string)  {}
func (nopNotifier) Error(string) {}

// Manager mediates all access to the project and entry collections and
// their durable snapshot.
type Manager struct {
	mu       sync.Mutex
	kv       storage.KV
	projects []Project
	entries  []Entry
	online   bool
	savedAt  time.Time
	retries  int

	notifier Notifier
	sched    scheduler
	now      func() time.Time
	rng      *rand.Rand

	noticeSlot timerSlot // debounced saved-at indicator update
	retrySlot  timerSlot // pending backoff retry
}

// Option configures a Manager.
type Option func(*Manager)

func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func withScheduler(s scheduler) Option {
	return func(m *Manager) { m.sched = s }
}

// New creates a Manager over kv. Call Load before using it.
func New(kv storage.KV, opts ...Option) *Manager {
	m := &Manager{
		kv:       kv,
		online:   true,
		notifier: nopNotifier{},
		sched:    realScheduler{},
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Close cancels any pending timers. Data already handed to Save is durable;
// a pending retry is abandoned.
func (m *Manager) Close() {
	m.noticeSlot.cancel()
	m.retrySlot.cancel()
}

// Load populates the collections from the primary snapshot, falling back to
// the backup (promoting it back into the primary key) and finally to seeded
// defaults. Corrupt data never propagates as an error.
func (m *Manager) Load() {
	if raw, ok, err := m.kv.Get(PrimaryKey); err == nil && ok {
		if snap, perr := decodeSnapshot(raw); perr == nil {
			m.adopt(snap)
			return
		}
	}

	// Primary missing or unreadable: try the backup and self-heal the
	// primary copy from it.
	if raw, ok, err := m.kv.Get(BackupKey); err == nil && ok {
		if snap, perr := decodeSnapshot(raw); perr == nil {
			m.adopt(snap)
			// Best effort; a failed promotion just means the next Load
			// walks the same path again.
			m.kv.Set(PrimaryKey, raw)
			return
		}
	}

	m.mu.Lock()
	m.projects = defaultProjects()
	m.entries = nil
	m.mu.Unlock()
}

func (m *Manager) adopt(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects = snap.Projects
	m.entries = snap.Entries
	if m.projects == nil {
		m.projects = []Project{}
	}
	if m.entries == nil {
		m.entries = []Entry{}
	}
	migrateEntryIDs(m.entries, m.now(), m.rng)
}

// Save writes the snapshot to both the primary and backup keys. On write
// failure it runs storage cleanup and returns the error; the caller decides
// whether to retry. A debounced saved-at indicator update is scheduled
// either way and performs no durable write itself.
func (m *Manager) Save() error {
	m.mu.Lock()
	snap := Snapshot{
		Projects:  append([]Project(nil), m.projects...),
		Entries:   append([]Entry(nil), m.entries...),
		LastSaved: m.now(),
	}
	m.mu.Unlock()

	raw, err := encodeSnapshot(snap)

	m.noticeSlot.schedule(m.sched, savedNoticeLag, func() {
		m.mu.Lock()
		m.savedAt = snap.LastSaved
		m.mu.Unlock()
	})

	if err != nil {
		return err
	}
	if err := m.kv.Set(PrimaryKey, raw); err != nil {
		m.cleanup()
		return err
	}
	if err := m.kv.Set(BackupKey, raw); err != nil {
		m.cleanup()
		return err
	}
	return nil
}

// cleanup reclaims space from old namespaced keys: when more than
// cleanupKeyLimit keys share KeyPrefix, the cleanupBatch lexicographically
// smallest are deleted. The live primary and backup keys are never eligible.
func (m *Manager) cleanup() {
	keys, err := m.kv.Keys(KeyPrefix)
	if err != nil || len(keys) <= cleanupKeyLimit {
		return
	}

	var victims []string
	for _, k := range keys {
		if k == PrimaryKey || k == BackupKey {
			continue
		}
		victims = append(victims, k)
	}
	sort.Strings(victims)

	n := cleanupBatch
	if n > len(victims) {
		n = len(victims)
	}
	for _, k := range victims[:n] {
		m.kv.Delete(k)
	}
}

// SaveWithRetry is the mutation-triggered save path: attempt immediately,
// then retry with linear backoff (1s, 2s, 3s). A new call cancels any
// pending retry and starts a fresh sequence.
func (m *Manager) SaveWithRetry() {
	m.retrySlot.cancel()
	m.mu.Lock()
	m.retries = 0
	m.mu.Unlock()
	m.attemptSave()
}

func (m *Manager) attemptSave() {
	if err := m.Save(); err == nil {
		m.mu.Lock()
		m.retries = 0
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	if m.retries >= maxRetries {
		m.mu.Unlock()
		m.notifier.Error("Could not save your data. Changes are kept in memory only.")
		return
	}
	m.retries++
	n := m.retries
	m.mu.Unlock()

	m.retrySlot.schedule(m.sched, time.Duration(n)*retryStep, m.attemptSave)
}

// ---- Mutations ----

// AddEntry records hours for a project on a date and persists the change.
func (m *Manager) AddEntry(date string, projectID int64, hours float64) Entry {
	m.mu.Lock()
	e := Entry{
		ID:        newEntryID(m.now(), m.rng),
		Date:      date,
		ProjectID: projectID,
		Hours:     hours,
		CreatedAt: m.now(),
		Synced:    m.online,
	}
	m.entries = append(m.entries, e)
	m.mu.Unlock()

	m.SaveWithRetry()
	return e
}

// DeleteEntry removes the entry with the given id and reports whether an
// entry was removed. The save only runs when one was.
func (m *Manager) DeleteEntry(id string) bool {
	m.mu.Lock()
	found := false
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			found = true
			break
		}
	}
	m.mu.Unlock()

	if found {
		m.SaveWithRetry()
	}
	return found
}

// AddProject creates a project with the next free id and persists it.
// Projects are never deleted.
func (m *Manager) AddProject(name, color string) Project {
	m.mu.Lock()
	var maxID int64
	for _, p := range m.projects {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	p := Project{ID: maxID + 1, Name: name, Color: color}
	m.projects = append(m.projects, p)
	m.mu.Unlock()

	m.SaveWithRetry()
	return p
}

// ---- Network state ----

// SetOnline flips the connectivity flag. A transition to online triggers
// the synchronization hook; a transition to offline only notifies.
func (m *Manager) SetOnline(online bool) {
	m.mu.Lock()
	was := m.online
	m.online = online
	m.mu.Unlock()

	if online == was {
		return
	}
	if online {
		m.notifier.Info("Back online.")
		m.syncPending()
	} else {
		m.notifier.Info("Offline. Changes are saved locally.")
	}
}

func (m *Manager) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// syncPending is where entries with Synced=false would be pushed to a
// backend. There is no backend; the hook is a deliberate no-op.
func (m *Manager) syncPending() {}

// ---- Read API ----

func (m *Manager) Projects() []Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Project(nil), m.projects...)
}

func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

func (m *Manager) ProjectByID(id int64) (Project, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// EntriesOn returns the entries for one calendar date, oldest first.
func (m *Manager) EntriesOn(date string) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out
}

// HoursOn returns total hours recorded on a date.
func (m *Manager) HoursOn(date string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, e := range m.entries {
		if e.Date == date {
			total += e.Hours
		}
	}
	return total
}

// DaySummaries aggregates hours per project per day for dates in
// [from, to). Entries whose project no longer exists are skipped, matching
// the rendering rule that dangling references show nothing.
func (m *Manager) DaySummaries(from, to time.Time) []DaySummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	fromStr := from.Format(DateLayout)
	toStr := to.Format(DateLayout)

	type key struct {
		date      string
		projectID int64
	}
	acc := make(map[key]*DaySummary)
	var order []key

	for _, e := range m.entries {
		if e.Date < fromStr || e.Date >= toStr {
			continue
		}
		var proj *Project
		for i := range m.projects {
			if m.projects[i].ID == e.ProjectID {
				proj = &m.projects[i]
				break
			}
		}
		if proj == nil {
			continue
		}
		k := key{date: e.Date, projectID: e.ProjectID}
		s, ok := acc[k]
		if !ok {
			s = &DaySummary{
				Date:         e.Date,
				ProjectID:    proj.ID,
				ProjectName:  proj.Name,
				ProjectColor: proj.Color,
			}
			acc[k] = s
			order = append(order, k)
		}
		s.Hours += e.Hours
		s.EntryCount++
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].date != order[j].date {
			return order[i].date < order[j].date
		}
		return acc[order[i]].ProjectName < acc[order[j]].ProjectName
	})

	out := make([]DaySummary, 0, len(order))
	for _, k := range order {
		out = append(out, *acc[k])
	}
	return out
}

// SavedAt returns the time of the last save as observed by the debounced
// indicator update. Zero until the first save settles.
func (m *Manager) SavedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.savedAt
}

// Snapshot returns a copy of the full in-memory state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Projects:  append([]Project(nil), m.projects...),
		Entries:   append([]Entry(nil), m.entries...),
		LastSaved: m.savedAt,
	}
}
