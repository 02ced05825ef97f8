package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"timegrid/internal/timesheet"
)

type statsMode int

const (
	statsWeekly statsMode = iota
	statsMonthly
)

type statsModel struct {
	manager *timesheet.Manager
	width   int
	height  int

	mode      statsMode
	summaries []timesheet.DaySummary
	offset    int // periods back from the current one (0 = current)

	chart barchart.Model
}

func newStatsModel(m *timesheet.Manager) statsModel {
	return statsModel{
		manager: m,
		chart:   barchart.New(60, 12),
	}
}

func (s *statsModel) setSize(w, h int) {
	s.width = w
	s.height = h
	s.rebuild()
}

func (s statsModel) dateRange() (time.Time, time.Time) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	switch s.mode {
	case statsMonthly:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.Local)
		start = start.AddDate(0, -s.offset, 0)
		return start, start.AddDate(0, 1, 0)
	default:
		// Week starts on Monday.
		weekday := today.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		start := today.AddDate(0, 0, -int(weekday-time.Monday))
		start = start.AddDate(0, 0, -7*s.offset)
		return start, start.AddDate(0, 0, 7)
	}
}

func (s statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Left), key.Matches(keyMsg, keys.PrevMonth):
		s.offset++
		s.rebuild()
	case key.Matches(keyMsg, keys.Right), key.Matches(keyMsg, keys.NextMonth):
		if s.offset > 0 {
			s.offset--
		}
		s.rebuild()
	case key.Matches(keyMsg, keys.Enter):
		if s.mode == statsWeekly {
			s.mode = statsMonthly
		} else {
			s.mode = statsWeekly
		}
		s.offset = 0
		s.rebuild()
	}
	return s, nil
}

func (s *statsModel) rebuild() {
	from, to := s.dateRange()
	s.summaries = s.manager.DaySummaries(from, to)
	s.buildChart(from, to)
}

func (s *statsModel) buildChart(from, to time.Time) {
	chartWidth := s.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if s.height > 30 {
		chartHeight = 16
	}

	s.chart = barchart.New(chartWidth, chartHeight)

	// One bar per day; monthly view groups days into stacked bars too.
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format(timesheet.DateLayout)
		label := d.Format("Mon 02")
		if s.mode == statsMonthly {
			label = d.Format("02")
		}

		var values []barchart.BarValue
		for _, sum := range s.summaries {
			if sum.Date == dateStr {
				style := lipgloss.NewStyle().Foreground(lipgloss.Color(sum.ProjectColor))
				values = append(values, barchart.BarValue{
					Name:  sum.ProjectName,
					Value: sum.Hours,
					Style: style,
				})
			}
		}

		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: values,
		})
	}

	s.chart.PushAll(bars)
	s.chart.Draw()
}

func (s statsModel) view() string {
	w := s.width - 4

	weekTab := inactiveTabStyle.Render("Week")
	monthTab := inactiveTabStyle.Render("Month")
	if s.mode == statsWeekly {
		weekTab = activeTabStyle.Render("Week")
	} else {
		monthTab = activeTabStyle.Render("Month")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, weekTab, monthTab)

	from, to := s.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s — %s",
		from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Stats"), "  ", modeTabs, "  ", dateLabel,
	)

	chartView := s.chart.View()
	legend := s.renderLegend()
	tableView := s.renderSummaryTable(w)
	totalLine := s.renderTotal()

	nav := mutedStyle.Render("  ←/→: navigate  enter: week/month")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", legend, "", tableView, "", totalLine, nav,
		),
	)
}

func (s statsModel) renderSummaryTable(w int) string {
	if len(s.summaries) == 0 {
		return mutedStyle.Render("  No hours logged in this period")
	}

	var rows []string
	headerRow := mutedStyle.Render(fmt.Sprintf("  %-12s %-22s %8s %8s", "Date", "Project", "Hours", "Entries"))
	rows = append(rows, headerRow)
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 54))))

	for _, sum := range s.summaries {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(sum.ProjectColor)).Render("●")
		rows = append(rows, fmt.Sprintf("  %-12s %s %-20s %8s %8d",
			sum.Date, colorDot, sum.ProjectName, formatHours(sum.Hours), sum.EntryCount,
		))
	}

	return strings.Join(rows, "\n")
}

func (s statsModel) renderLegend() string {
	seen := make(map[int64]bool)
	var items []string
	for _, sum := range s.summaries {
		if seen[sum.ProjectID] {
			continue
		}
		seen[sum.ProjectID] = true
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(sum.ProjectColor)).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, sum.ProjectName))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}

func (s statsModel) renderTotal() string {
	var total float64
	for _, sum := range s.summaries {
		total += sum.Hours
	}
	if total == 0 {
		return ""
	}
	return titleStyle.Render("  Total: " + formatHours(total))
}
