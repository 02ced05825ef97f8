package tui

import (
	"fmt"
	"sync"
	"time"
)

// viewState represents the currently active view.
type viewState int

const (
	viewCalendar viewState = iota
	viewProjects
	viewStats
)

var viewNames = []string{"Calendar", "Projects", "Stats"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type dataChangedMsg struct{}

type exportDoneMsg struct {
	path string
}

// --- Notifier ---

// Notifier bridges manager notifications into the status line. The manager
// calls Info/Error from timer callbacks; the app polls on every tick.
type Notifier struct {
	mu      sync.Mutex
	text    string
	isError bool
	set     bool
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Info(msg string) {
	n.mu.Lock()
	n.text, n.isError, n.set = msg, false, true
	n.mu.Unlock()
}

func (n *Notifier) Error(msg string) {
	n.mu.Lock()
	n.text, n.isError, n.set = msg, true, true
	n.mu.Unlock()
}

// take returns the pending notice, if any, and clears it.
func (n *Notifier) take() (string, bool, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.set {
		return "", false, false
	}
	n.set = false
	return n.text, n.isError, true
}

// --- Helpers ---

func formatHours(h float64) string {
	if h == float64(int64(h)) {
		return fmt.Sprintf("%.0fh", h)
	}
	return fmt.Sprintf("%.2fh", h)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
