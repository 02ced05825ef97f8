package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"timegrid/internal/timesheet"
)

type calendarModel struct {
	manager *timesheet.Manager
	width   int
	height  int

	month  time.Time // first day of the displayed month
	cursor time.Time // selected day

	dayFocus    bool // true = navigating the selected day's entries
	entryCursor int

	formActive  bool
	form        *huh.Form
	formProject *int64
	formHours   *string
}

func newCalendarModel(m *timesheet.Manager) calendarModel {
	now := time.Now()
	var projectID int64
	hours := ""
	return calendarModel{
		manager:     m,
		month:       time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local),
		cursor:      time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local),
		formProject: &projectID,
		formHours:   &hours,
	}
}

func (c *calendarModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

func (c calendarModel) cursorDate() string {
	return c.cursor.Format(timesheet.DateLayout)
}

func (c calendarModel) update(msg tea.Msg) (calendarModel, tea.Cmd) {
	if c.formActive && c.form != nil {
		return c.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	if c.dayFocus {
		return c.updateDayFocus(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, keys.Left):
		c.setCursor(c.cursor.AddDate(0, 0, -1))
	case key.Matches(keyMsg, keys.Right):
		c.setCursor(c.cursor.AddDate(0, 0, 1))
	case key.Matches(keyMsg, keys.Up):
		c.setCursor(c.cursor.AddDate(0, 0, -7))
	case key.Matches(keyMsg, keys.Down):
		c.setCursor(c.cursor.AddDate(0, 0, 7))
	case key.Matches(keyMsg, keys.PrevMonth):
		c.month = c.month.AddDate(0, -1, 0)
		c.clampCursor()
	case key.Matches(keyMsg, keys.NextMonth):
		c.month = c.month.AddDate(0, 1, 0)
		c.clampCursor()
	case key.Matches(keyMsg, keys.Today):
		now := time.Now()
		c.setCursor(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local))
	case key.Matches(keyMsg, keys.Add):
		return c.showEntryForm()
	case key.Matches(keyMsg, keys.Enter):
		if len(c.manager.EntriesOn(c.cursorDate())) > 0 {
			c.dayFocus = true
			c.entryCursor = 0
		}
	}
	return c, nil
}

func (c calendarModel) updateDayFocus(msg tea.KeyMsg) (calendarModel, tea.Cmd) {
	entries := c.manager.EntriesOn(c.cursorDate())
	switch {
	case key.Matches(msg, keys.Back):
		c.dayFocus = false
	case key.Matches(msg, keys.Up):
		if c.entryCursor > 0 {
			c.entryCursor--
		}
	case key.Matches(msg, keys.Down):
		if c.entryCursor < len(entries)-1 {
			c.entryCursor++
		}
	case key.Matches(msg, keys.Delete):
		if c.entryCursor < len(entries) {
			id := entries[c.entryCursor].ID
			c.manager.DeleteEntry(id)
			if c.entryCursor > 0 {
				c.entryCursor--
			}
			if len(entries) == 1 {
				c.dayFocus = false
			}
			return c, func() tea.Msg { return statusMsg{text: "Entry deleted"} }
		}
	case key.Matches(msg, keys.Add):
		return c.showEntryForm()
	}
	return c, nil
}

// setCursor moves the selection and keeps the displayed month in sync.
func (c *calendarModel) setCursor(d time.Time) {
	c.cursor = d
	c.month = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.Local)
}

// clampCursor pulls the cursor into the displayed month after month
// navigation.
func (c *calendarModel) clampCursor() {
	if c.cursor.Year() == c.month.Year() && c.cursor.Month() == c.month.Month() {
		return
	}
	day := min(c.cursor.Day(), daysInMonth(c.month))
	c.cursor = time.Date(c.month.Year(), c.month.Month(), day, 0, 0, 0, 0, time.Local)
}

func daysInMonth(month time.Time) int {
	return month.AddDate(0, 1, -1).Day()
}

func (c calendarModel) showEntryForm() (calendarModel, tea.Cmd) {
	projects := c.manager.Projects()
	if len(projects) == 0 {
		return c, func() tea.Msg {
			return statusMsg{text: "Create a project first (press 2, then n)", isError: true}
		}
	}

	*c.formProject = projects[0].ID
	*c.formHours = ""

	options := make([]huh.Option[int64], len(projects))
	for i, p := range projects {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("●")
		options[i] = huh.NewOption(fmt.Sprintf("%s %s", dot, p.Name), p.ID)
	}

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().Title("Project").Options(options...).Value(c.formProject),
			huh.NewInput().Title("Hours").Placeholder("7.5").Value(c.formHours).
				Validate(validateHours),
		),
	).WithShowHelp(true).WithShowErrors(true)

	c.formActive = true
	return c, c.form.Init()
}

func validateHours(s string) error {
	h, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("enter a number of hours")
	}
	if h <= 0 || h > 24 {
		return fmt.Errorf("hours must be between 0 and 24")
	}
	return nil
}

func (c calendarModel) updateForm(msg tea.Msg) (calendarModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			c.formActive = false
			c.form = nil
			return c, nil
		}
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State == huh.StateCompleted {
		c.formActive = false
		hours, err := strconv.ParseFloat(strings.TrimSpace(*c.formHours), 64)
		if err != nil {
			return c, nil
		}
		date := c.cursorDate()
		c.manager.AddEntry(date, *c.formProject, hours)
		return c, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Logged %s on %s", formatHours(hours), date)}
		}
	}

	return c, cmd
}

func (c calendarModel) view() string {
	if c.formActive && c.form != nil {
		title := titleStyle.Render("Log hours — " + c.cursor.Format("Mon, Jan 2"))
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", c.form.View())
		return activePanelStyle.Width(c.width - 4).Render(content)
	}

	header := titleStyle.Render(c.month.Format("January 2006"))
	monthHours := c.monthTotal()
	if monthHours > 0 {
		header += mutedStyle.Render("  ·  " + formatHours(monthHours) + " logged")
	}

	grid := c.renderGrid()
	dayPanel := c.renderDayPanel()

	nav := mutedStyle.Render("  [/]: month  t: today  a: add  enter: day entries")

	return lipgloss.JoinVertical(lipgloss.Left, " "+header, grid, dayPanel, nav)
}

func (c calendarModel) monthTotal() float64 {
	from := c.month
	to := c.month.AddDate(0, 1, 0)
	var total float64
	for _, s := range c.manager.DaySummaries(from, to) {
		total += s.Hours
	}
	return total
}

func (c calendarModel) renderGrid() string {
	const cellWidth = 8

	var headerCells []string
	for _, wd := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		headerCells = append(headerCells, mutedStyle.Width(cellWidth+2).Align(lipgloss.Center).Render(wd))
	}
	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, headerCells...)}

	today := time.Now().Format(timesheet.DateLayout)

	// Monday-based offset of the month's first day.
	offset := (int(c.month.Weekday()) + 6) % 7
	days := daysInMonth(c.month)

	day := 1
	for day <= days {
		var cells []string
		for col := 0; col < 7; col++ {
			if (len(rows) == 1 && col < offset) || day > days {
				cells = append(cells, lipgloss.NewStyle().Width(cellWidth+2).Render(""))
				continue
			}

			date := time.Date(c.month.Year(), c.month.Month(), day, 0, 0, 0, 0, time.Local)
			dateStr := date.Format(timesheet.DateLayout)

			numStyle := dayNumStyle
			if dateStr == today {
				numStyle = dayNumTodayStyle
			}
			num := numStyle.Render(fmt.Sprintf("%2d", day))

			hoursLine := ""
			if h := c.manager.HoursOn(dateStr); h > 0 {
				hoursLine = dayHoursStyle.Render(formatHours(h))
			}
			dots := c.renderDayDots(dateStr)

			content := lipgloss.JoinVertical(lipgloss.Left,
				num,
				lipgloss.NewStyle().Width(cellWidth-2).Render(hoursLine),
				dots,
			)

			style := dayCellStyle
			if dateStr == c.cursorDate() {
				style = dayCellCursorStyle
			} else if dateStr == today {
				style = dayCellTodayStyle
			}
			cells = append(cells, style.Width(cellWidth).Render(content))

			day++
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderDayDots shows one colored dot per project with hours on the day.
func (c calendarModel) renderDayDots(date string) string {
	entries := c.manager.EntriesOn(date)
	seen := make(map[int64]bool)
	var dots []string
	for _, e := range entries {
		if seen[e.ProjectID] {
			continue
		}
		seen[e.ProjectID] = true
		p, ok := c.manager.ProjectByID(e.ProjectID)
		if !ok {
			// Dangling project reference: render nothing for it.
			continue
		}
		dots = append(dots, lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("●"))
		if len(dots) == 4 {
			break
		}
	}
	return strings.Join(dots, "")
}

func (c calendarModel) renderDayPanel() string {
	w := c.width - 4
	entries := c.manager.EntriesOn(c.cursorDate())

	title := titleStyle.Render(c.cursor.Format("Monday, January 2"))
	if h := c.manager.HoursOn(c.cursorDate()); h > 0 {
		title += mutedStyle.Render("  ·  " + formatHours(h))
	}

	var lines []string
	lines = append(lines, title)
	lines = append(lines, "")

	if len(entries) == 0 {
		lines = append(lines, mutedStyle.Render("No entries. Press a to log hours."))
	}

	for i, e := range entries {
		cursor := "  "
		style := normalItemStyle
		if c.dayFocus && i == c.entryCursor {
			cursor = "> "
			style = selectedItemStyle
		}

		name := ""
		dot := " "
		if p, ok := c.manager.ProjectByID(e.ProjectID); ok {
			name = p.Name
			dot = lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("●")
		} else {
			// Entries pointing at a removed project keep their hours but
			// show no project details.
			continue
		}

		synced := ""
		if !e.Synced {
			synced = warningStyle.Render("  (unsynced)")
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s%s %-20s %8s", cursor, dot, name, formatHours(e.Hours)))+synced)
	}

	if c.dayFocus {
		lines = append(lines, "")
		lines = append(lines, mutedStyle.Render("  j/k: move  d: delete  esc: back"))
	}

	style := panelStyle
	if c.dayFocus {
		style = activePanelStyle
	}
	return style.Width(w).Render(strings.Join(lines, "\n"))
}
