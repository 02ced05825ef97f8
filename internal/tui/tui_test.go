package tui

import (
	"strings"
	"testing"
	"time"

	"timegrid/internal/storage"
	"timegrid/internal/timesheet"
)

func newTestManager(t *testing.T) *timesheet.Manager {
	t.Helper()
	kv, err := storage.OpenMemory()
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	m := timesheet.New(kv)
	m.Load()
	t.Cleanup(m.Close)
	return m
}

// ============================================================
// Calendar model
// ============================================================

func TestCalendarStartsOnToday(t *testing.T) {
	m := newTestManager(t)
	c := newCalendarModel(m)

	now := time.Now()
	if c.cursor.Day() != now.Day() || c.cursor.Month() != now.Month() {
		t.Fatalf("cursor should start on today, got %v", c.cursor)
	}
	if c.month.Day() != 1 {
		t.Fatal("month should be normalized to its first day")
	}
}

func TestCalendarSetCursorFollowsMonth(t *testing.T) {
	m := newTestManager(t)
	c := newCalendarModel(m)

	c.setCursor(time.Date(2026, time.March, 31, 0, 0, 0, 0, time.Local))
	c.setCursor(c.cursor.AddDate(0, 0, 1)) // into April

	if c.month.Month() != time.April {
		t.Fatalf("month should follow cursor, got %v", c.month.Month())
	}
	if c.cursor.Day() != 1 {
		t.Fatalf("expected April 1, got %v", c.cursor)
	}
}

func TestCalendarClampCursor(t *testing.T) {
	m := newTestManager(t)
	c := newCalendarModel(m)

	// Jan 31, then step the month forward: Feb has no 31st.
	c.setCursor(time.Date(2026, time.January, 31, 0, 0, 0, 0, time.Local))
	c.month = c.month.AddDate(0, 1, 0)
	c.clampCursor()

	if c.cursor.Month() != time.February {
		t.Fatalf("cursor should be in February, got %v", c.cursor.Month())
	}
	if c.cursor.Day() != 28 {
		t.Fatalf("expected Feb 28, got %d", c.cursor.Day())
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		month time.Time
		want  int
	}{
		{time.Date(2026, time.January, 1, 0, 0, 0, 0, time.Local), 31},
		{time.Date(2026, time.February, 1, 0, 0, 0, 0, time.Local), 28},
		{time.Date(2028, time.February, 1, 0, 0, 0, 0, time.Local), 29},
		{time.Date(2026, time.April, 1, 0, 0, 0, 0, time.Local), 30},
	}
	for _, tt := range tests {
		got := daysInMonth(tt.month)
		if got != tt.want {
			t.Errorf("daysInMonth(%v) = %d, want %d", tt.month.Month(), got, tt.want)
		}
	}
}

func TestCalendarDayDotsSkipDanglingProjects(t *testing.T) {
	m := newTestManager(t)
	c := newCalendarModel(m)

	e := m.AddEntry("2026-08-10", 1, 4)
	m.AddEntry("2026-08-10", 9999, 2) // no such project
	if e.ID == "" {
		t.Fatal("entry should get an id")
	}

	dots := c.renderDayDots("2026-08-10")
	if strings.Count(dots, "●") != 1 {
		t.Fatalf("expected one dot, got %q", dots)
	}
}

func TestCalendarViewRenders(t *testing.T) {
	m := newTestManager(t)
	c := newCalendarModel(m)
	c.setSize(120, 40)
	m.AddEntry(c.cursorDate(), 1, 7.5)

	out := c.view()
	if out == "" {
		t.Fatal("calendar view rendered empty")
	}
	if !strings.Contains(out, c.month.Format("January 2006")) {
		t.Fatal("calendar view missing month title")
	}
}

func TestValidateHours(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"7.5", true},
		{" 8 ", true},
		{"24", true},
		{"0", false},
		{"-1", false},
		{"25", false},
		{"abc", false},
		{"", false},
	}
	for _, tt := range tests {
		err := validateHours(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("validateHours(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
		}
	}
}

// ============================================================
// Projects model
// ============================================================

func TestProjectsTotals(t *testing.T) {
	m := newTestManager(t)
	p := newProjectsModel(m)

	m.AddEntry("2026-08-03", 1, 4)
	m.AddEntry("2026-08-04", 1, 3.5)
	m.AddEntry("2026-08-04", 2, 2)

	totals := p.projectTotals()
	if totals[1].hours != 7.5 || totals[1].count != 2 {
		t.Fatalf("unexpected totals for project 1: %+v", totals[1])
	}
	if totals[2].hours != 2 || totals[2].count != 1 {
		t.Fatalf("unexpected totals for project 2: %+v", totals[2])
	}
}

func TestProjectsViewListsSeededProjects(t *testing.T) {
	m := newTestManager(t)
	p := newProjectsModel(m)
	p.setSize(120, 40)

	out := p.view()
	for _, name := range []string{"General", "Development", "Meetings", "Admin"} {
		if !strings.Contains(out, name) {
			t.Fatalf("projects view missing %q", name)
		}
	}
}

// ============================================================
// Stats model
// ============================================================

func TestStatsWeekRangeStartsMonday(t *testing.T) {
	m := newTestManager(t)
	s := newStatsModel(m)
	s.mode = statsWeekly

	from, to := s.dateRange()
	if from.Weekday() != time.Monday {
		t.Fatalf("week should start on Monday, got %v", from.Weekday())
	}
	if !to.Equal(from.AddDate(0, 0, 7)) {
		t.Fatal("week range should span 7 days")
	}
}

func TestStatsMonthRange(t *testing.T) {
	m := newTestManager(t)
	s := newStatsModel(m)
	s.mode = statsMonthly

	from, to := s.dateRange()
	if from.Day() != 1 {
		t.Fatal("month range should start on the 1st")
	}
	if !to.Equal(from.AddDate(0, 1, 0)) {
		t.Fatal("month range should span one month")
	}

	s.offset = 2
	shifted, _ := s.dateRange()
	if !shifted.Equal(from.AddDate(0, -2, 0)) {
		t.Fatalf("offset 2 should go two months back, got %v", shifted)
	}
}

func TestStatsRebuildPicksUpEntries(t *testing.T) {
	m := newTestManager(t)
	s := newStatsModel(m)
	s.setSize(120, 40)

	today := time.Now().Format(timesheet.DateLayout)
	m.AddEntry(today, 1, 6)

	s.rebuild()
	if len(s.summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(s.summaries))
	}
	if s.summaries[0].Hours != 6 {
		t.Fatalf("unexpected hours: %v", s.summaries[0].Hours)
	}

	out := s.view()
	if !strings.Contains(out, "General") {
		t.Fatal("stats view missing project name")
	}
}

// ============================================================
// Notifier
// ============================================================

func TestNotifierTake(t *testing.T) {
	n := NewNotifier()

	if _, _, ok := n.take(); ok {
		t.Fatal("empty notifier should have nothing to take")
	}

	n.Info("saved")
	text, isErr, ok := n.take()
	if !ok || text != "saved" || isErr {
		t.Fatalf("unexpected notice: %q %v %v", text, isErr, ok)
	}

	if _, _, ok := n.take(); ok {
		t.Fatal("take should clear the notice")
	}

	n.Info("first")
	n.Error("second")
	text, isErr, _ = n.take()
	if text != "second" || !isErr {
		t.Fatal("latest notice should win")
	}
}

// ============================================================
// Helper functions
// ============================================================

func TestFormatHours(t *testing.T) {
	tests := []struct {
		h    float64
		want string
	}{
		{0, "0h"},
		{8, "8h"},
		{7.5, "7.50h"},
		{1.25, "1.25h"},
	}
	for _, tt := range tests {
		got := formatHours(tt.h)
		if got != tt.want {
			t.Errorf("formatHours(%v) = %q, want %q", tt.h, got, tt.want)
		}
	}
}

func TestMinMax(t *testing.T) {
	if min(3, 5) != 3 || min(5, 3) != 3 || min(3, 3) != 3 {
		t.Fatal("min misbehaves")
	}
	if max(3, 5) != 5 || max(5, 3) != 5 || max(3, 3) != 3 {
		t.Fatal("max misbehaves")
	}
}

// ============================================================
// View state
// ============================================================

func TestViewNames(t *testing.T) {
	if len(viewNames) != 3 {
		t.Fatalf("expected 3 view names, got %d", len(viewNames))
	}
	expected := []string{"Calendar", "Projects", "Stats"}
	for i, name := range expected {
		if viewNames[i] != name {
			t.Fatalf("viewNames[%d] = %q, want %q", i, viewNames[i], name)
		}
	}
}

func TestViewStateConstants(t *testing.T) {
	if viewCalendar != 0 || viewProjects != 1 || viewStats != 2 {
		t.Fatal("view state constants out of order")
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	m := newTestManager(t)
	app := NewApp(m, NewNotifier())

	if app.activeView != viewCalendar {
		t.Fatal("default view should be calendar")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.exportPicking {
		t.Fatal("export picker should be hidden by default")
	}
}

func TestAppIsFormActiveDefault(t *testing.T) {
	m := newTestManager(t)
	app := NewApp(m, NewNotifier())

	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppViewStates(t *testing.T) {
	m := newTestManager(t)
	app := NewApp(m, NewNotifier())
	app.width = 120
	app.height = 40
	app.calendar.setSize(120, 36)
	app.projects.setSize(120, 36)
	app.stats.setSize(120, 36)

	views := []viewState{viewCalendar, viewProjects, viewStats}
	for _, v := range views {
		app.activeView = v
		output := app.View()
		if output == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	m := newTestManager(t)
	app := NewApp(m, NewNotifier())
	app.width = 120
	app.height = 40

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppFooterShowsConnectivity(t *testing.T) {
	m := newTestManager(t)
	app := NewApp(m, NewNotifier())
	app.width = 120
	app.height = 40

	if !strings.Contains(app.renderFooter(), "online") {
		t.Fatal("footer should show online state")
	}

	m.SetOnline(false)
	if !strings.Contains(app.renderFooter(), "offline") {
		t.Fatal("footer should show offline state")
	}
}

func TestAppLoadingState(t *testing.T) {
	m := newTestManager(t)
	app := NewApp(m, NewNotifier())

	output := app.View()
	if output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppStatusMessage(t *testing.T) {
	m := newTestManager(t)
	app := NewApp(m, NewNotifier())
	app.width = 120
	app.height = 40
	app.status = "test status"

	footer := app.renderFooter()
	if !strings.Contains(footer, "test status") {
		t.Fatal("footer should contain status message")
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	bindings := keys.ShortHelp()
	if len(bindings) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test — just verify they don't panic)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"dayCell", func() string { return dayCellStyle.Render("test") }},
		{"dayCellCursor", func() string { return dayCellCursorStyle.Render("test") }},
		{"dayCellToday", func() string { return dayCellTodayStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"accent", func() string { return accentStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
	}

	for _, s := range styles {
		result := s.fn()
		if result == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}
