package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"timegrid/internal/timesheet"
)

// projectColors are offered when creating a project.
var projectColors = []string{
	"#6C63FF", "#2EC4B6", "#F39C12", "#FF6B6B",
	"#2ECC71", "#7AA2F7", "#E74C3C", "#9B59B6",
}

type projectsModel struct {
	manager *timesheet.Manager
	width   int
	height  int

	cursor int

	formActive bool
	form       *huh.Form
	formName   *string
	formColor  *string
}

func newProjectsModel(m *timesheet.Manager) projectsModel {
	name := ""
	color := projectColors[0]
	return projectsModel{
		manager:   m,
		formName:  &name,
		formColor: &color,
	}
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	projects := p.manager.Projects()

	switch {
	case key.Matches(keyMsg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(keyMsg, keys.Down):
		if p.cursor < len(projects)-1 {
			p.cursor++
		}
	case key.Matches(keyMsg, keys.New), key.Matches(keyMsg, keys.Add):
		return p.showForm()
	}
	return p, nil
}

func (p projectsModel) showForm() (projectsModel, tea.Cmd) {
	*p.formName = ""
	*p.formColor = projectColors[0]

	options := make([]huh.Option[string], len(projectColors))
	for i, c := range projectColors {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render("██")
		options[i] = huh.NewOption(fmt.Sprintf("%s %s", swatch, c), c)
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Placeholder("Project name").Value(p.formName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewSelect[string]().Title("Color").Options(options...).Value(p.formColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		name := strings.TrimSpace(*p.formName)
		if name == "" {
			return p, nil
		}
		proj := p.manager.AddProject(name, *p.formColor)
		return p, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Project %q created", proj.Name)}
		}
	}

	return p, cmd
}

func (p projectsModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		title := titleStyle.Render("New Project")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View())
		return activePanelStyle.Width(w).Render(content)
	}

	projects := p.manager.Projects()
	totals := p.projectTotals()

	var lines []string
	lines = append(lines, titleStyle.Render("Projects"))
	lines = append(lines, "")

	if len(projects) == 0 {
		lines = append(lines, mutedStyle.Render("No projects. Press n to create one."))
	}

	lines = append(lines, mutedStyle.Render(fmt.Sprintf("    %-24s %10s %8s", "Name", "Hours", "Entries")))
	lines = append(lines, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 46))))

	for i, proj := range projects {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(proj.Color)).Render("●")
		t := totals[proj.ID]
		lines = append(lines, style.Render(fmt.Sprintf("%s%s %-22s %10s %8d",
			cursor, dot, proj.Name, formatHours(t.hours), t.count)))
	}

	lines = append(lines, "")
	lines = append(lines, mutedStyle.Render("  n: new project"))

	return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
}

type projectTotal struct {
	hours float64
	count int
}

func (p projectsModel) projectTotals() map[int64]projectTotal {
	totals := make(map[int64]projectTotal)
	for _, e := range p.manager.Entries() {
		t := totals[e.ProjectID]
		t.hours += e.Hours
		t.count++
		totals[e.ProjectID] = t
	}
	return totals
}
