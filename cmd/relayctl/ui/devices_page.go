package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"relayctl/internal/fleet"
	"relayctl/internal/types"
)

// DevicesPageModel renders the device registry snapshot.
type DevicesPageModel struct {
	width  int
	height int
	table  table.Model

	devices  []types.Device
	loadedAt time.Time

	styles Styles
}

// NewDevicesPageModel creates the devices page.
func NewDevicesPageModel(styles Styles) DevicesPageModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Phone", Width: 16},
			{Title: "Status", Width: 8},
			{Title: "Last Seen", Width: 20},
			{Title: "SIM Slots", Width: 36},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	return DevicesPageModel{
		table:  t,
		styles: styles,
	}
}

// Update handles messages.
func (m DevicesPageModel) Update(msg tea.Msg) (DevicesPageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return m, func() tea.Msg { return ReloadRequestedMsg{} }
		case "enter":
			if phone := m.SelectedPhone(); phone != "" {
				return m, func() tea.Msg { return OpenMessagesForMsg{Phone: phone} }
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// UpdateContent replaces the rendered snapshot. Called by the console after
// every successful registry load; a failed load keeps the previous rows.
func (m *DevicesPageModel) UpdateContent(devices []types.Device, loadedAt time.Time) {
	m.devices = devices
	m.loadedAt = loadedAt

	rows := make([]table.Row, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, table.Row{
			d.Phone,
			d.StatusString(),
			d.LastSeenString(),
			d.SlotSummary(),
		})
	}
	m.table.SetRows(rows)
}

// SelectedPhone returns the phone of the highlighted row, or "".
func (m DevicesPageModel) SelectedPhone() string {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

// SetSize updates the size.
func (m *DevicesPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetWidth(w - 4)
	if h > 8 {
		m.table.SetHeight(h - 8)
	}
}

// View renders the page.
func (m DevicesPageModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render(" Devices ") + "\n\n")

	stats := fleet.ComputeStats(m.devices)
	summary := fmt.Sprintf("%d devices | %d online | %d offline", stats.Total, stats.Online, stats.Offline)
	if !m.loadedAt.IsZero() {
		summary += " | loaded " + m.loadedAt.Format("15:04:05")
	}
	sb.WriteString(m.styles.Info.Render(summary) + "\n\n")

	if len(m.devices) == 0 {
		sb.WriteString(m.styles.Muted.Render("No devices. Press [r] to reload.") + "\n")
		return sb.String()
	}

	sb.WriteString(m.table.View())
	sb.WriteString("\n" + m.styles.Muted.Render("[r] Reload  [Enter] Messages for device  [↑/↓] Select"))
	return sb.String()
}
