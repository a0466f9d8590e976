package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"relayctl/internal/fleet"
)

// DashboardPageModel renders the fleet overview statistics.
type DashboardPageModel struct {
	width  int
	height int

	stats    fleet.Stats
	loadedAt time.Time

	styles Styles
}

// NewDashboardPageModel creates the dashboard page.
func NewDashboardPageModel(styles Styles) DashboardPageModel {
	return DashboardPageModel{styles: styles}
}

// Update handles messages.
func (m DashboardPageModel) Update(msg tea.Msg) (DashboardPageModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "r" {
		return m, func() tea.Msg { return ReloadRequestedMsg{} }
	}
	return m, nil
}

// UpdateContent recomputes the derived values from a fresh snapshot.
func (m *DashboardPageModel) UpdateContent(stats fleet.Stats, loadedAt time.Time) {
	m.stats = stats
	m.loadedAt = loadedAt
}

// SetSize updates the size.
func (m *DashboardPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m DashboardPageModel) statCard(title, value string) string {
	inner := m.styles.Muted.Render(title) + "\n" + m.styles.Bold.Render(value)
	return m.styles.Card.Width(18).Render(inner)
}

// ratioBar renders the online ratio as a filled bar.
func (m DashboardPageModel) ratioBar(width int) string {
	if width < 10 {
		width = 10
	}
	filled := int(m.stats.OnlineRatio * float64(width))
	if filled > width {
		filled = width
	}
	bar := m.styles.Success.Render(strings.Repeat("█", filled)) +
		m.styles.Muted.Render(strings.Repeat("░", width-filled))
	return bar
}

// View renders the page.
func (m DashboardPageModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render(" Fleet Overview ") + "\n\n")

	ratio := fmt.Sprintf("%.1f%%", m.stats.OnlineRatio*100)
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		m.statCard("Devices", fmt.Sprintf("%d", m.stats.Total)), " ",
		m.statCard("Online", fmt.Sprintf("%d", m.stats.Online)), " ",
		m.statCard("Offline", fmt.Sprintf("%d", m.stats.Offline)), " ",
		m.statCard("Online Ratio", ratio),
	)
	sb.WriteString(cards + "\n\n")

	barWidth := m.width - 8
	if barWidth <= 0 {
		barWidth = 40
	}
	sb.WriteString(m.ratioBar(barWidth) + "\n\n")

	if m.loadedAt.IsZero() {
		sb.WriteString(m.styles.Muted.Render("No data yet. Press [r] to load the fleet.") + "\n")
	} else {
		sb.WriteString(m.styles.Muted.Render("Loaded "+m.loadedAt.Format("15:04:05")+"  [r] Reload") + "\n")
	}
	return sb.String()
}
