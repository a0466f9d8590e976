package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"relayctl/internal/sms"
	"relayctl/internal/types"
)

// messagesFocus tracks which part of the page receives keys.
type messagesFocus int

const (
	focusTable messagesFocus = iota
	focusSearch
	focusCompose
	focusConfirm
)

// pageSizes are the page size presets cycled with +/-.
var pageSizes = []int{10, 25, 50}

// composeForm holds the send-command inputs. The form survives failed
// dispatches so the operator can retry without re-entering anything.
type composeForm struct {
	inputs   [4]textinput.Model // device phone, slot, target phone, content
	focusIdx int
}

func newComposeForm() composeForm {
	var f composeForm
	labels := []string{"Device phone", "SIM slot (0 or 1)", "Target phone", "Message text"}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = labels[i]
		ti.CharLimit = 500
		ti.Width = 40
		f.inputs[i] = ti
	}
	f.inputs[1].CharLimit = 1
	f.inputs[3].Width = 60
	return f
}

func (f *composeForm) focus(idx int) {
	f.focusIdx = idx
	for i := range f.inputs {
		if i == idx {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

func (f *composeForm) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.focus(0)
}

// command builds the send command from the form. A non-numeric slot maps
// to -1 so validation downstream rejects it with a clear message.
func (f *composeForm) command() types.SendCommand {
	slot, err := strconv.Atoi(strings.TrimSpace(f.inputs[1].Value()))
	if err != nil {
		slot = -1
	}
	return types.SendCommand{
		Phone:       strings.TrimSpace(f.inputs[0].Value()),
		Slot:        slot,
		TargetPhone: strings.TrimSpace(f.inputs[2].Value()),
		Content:     f.inputs[3].Value(),
	}
}

// MessagesPageModel is the message search/command page. It reads the engine
// directly for local state (pagination, list) and raises request messages
// for anything that needs a network round trip.
type MessagesPageModel struct {
	width  int
	height int

	engine *sms.Engine

	phoneInput textinput.Model
	slotFilter int // -1 = both slots

	table table.Model
	pager paginator.Model

	focus   messagesFocus
	compose composeForm

	styles Styles
}

// NewMessagesPageModel creates the messages page bound to an engine.
func NewMessagesPageModel(engine *sms.Engine, styles Styles) MessagesPageModel {
	ti := textinput.New()
	ti.Placeholder = "Device phone..."
	ti.CharLimit = 32
	ti.Width = 24
	ti.Prompt = "search: "
	ti.PromptStyle = styles.Prompt

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 4},
			{Title: "Slot", Width: 5},
			{Title: "From", Width: 16},
			{Title: "Time", Width: 20},
			{Title: "Content", Width: 44},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	p := paginator.New()
	p.Type = paginator.Arabic
	p.PerPage = engine.PageSize()

	return MessagesPageModel{
		engine:     engine,
		phoneInput: ti,
		slotFilter: -1,
		table:      t,
		pager:      p,
		compose:    newComposeForm(),
		styles:     styles,
	}
}

// SetPhone prefills the search input (used when jumping from the devices page).
func (m *MessagesPageModel) SetPhone(phone string) {
	m.phoneInput.SetValue(phone)
}

// FocusSearch moves keyboard focus to the search input.
func (m *MessagesPageModel) FocusSearch() {
	m.focus = focusSearch
	m.phoneInput.Focus()
}

// Capturing reports whether the page wants every keystroke (an input or
// confirm prompt is active), so global tab-switch keys stay out of the way.
func (m MessagesPageModel) Capturing() bool {
	return m.focus != focusTable
}

// ComposeOpen reports whether the compose form is on screen. The console
// uses it to decide whether a send outcome should clear or preserve state.
func (m *MessagesPageModel) ComposeOpen() bool {
	return m.focus == focusCompose
}

// CloseCompose clears and closes the compose form. Called by the console
// only after the gateway accepted the instruction.
func (m *MessagesPageModel) CloseCompose() {
	m.compose.reset()
	m.focus = focusTable
}

func (m *MessagesPageModel) slotArg() *int {
	if m.slotFilter < 0 {
		return nil
	}
	slot := m.slotFilter
	return &slot
}

func (m *MessagesPageModel) searchCmd() tea.Cmd {
	phone := strings.TrimSpace(m.phoneInput.Value())
	slot := m.slotArg()
	return func() tea.Msg { return SearchRequestedMsg{Phone: phone, Slot: slot} }
}

// Update handles messages.
func (m MessagesPageModel) Update(msg tea.Msg) (MessagesPageModel, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)
	if !isKey {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	switch m.focus {
	case focusSearch:
		switch key.String() {
		case "enter":
			m.focus = focusTable
			m.phoneInput.Blur()
			return m, m.searchCmd()
		case "esc":
			m.focus = focusTable
			m.phoneInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.phoneInput, cmd = m.phoneInput.Update(msg)
		return m, cmd

	case focusCompose:
		switch key.String() {
		case "esc":
			// Closing keeps the entered values for a later retry.
			m.focus = focusTable
			return m, nil
		case "tab", "down":
			m.compose.focus((m.compose.focusIdx + 1) % len(m.compose.inputs))
			return m, nil
		case "shift+tab", "up":
			m.compose.focus((m.compose.focusIdx + len(m.compose.inputs) - 1) % len(m.compose.inputs))
			return m, nil
		case "enter":
			if m.compose.focusIdx < len(m.compose.inputs)-1 {
				m.compose.focus(m.compose.focusIdx + 1)
				return m, nil
			}
			cmd := m.compose.command()
			return m, func() tea.Msg { return SendRequestedMsg{Cmd: cmd} }
		}
		var cmd tea.Cmd
		m.compose.inputs[m.compose.focusIdx], cmd = m.compose.inputs[m.compose.focusIdx].Update(msg)
		return m, cmd

	case focusConfirm:
		switch key.String() {
		case "y", "Y":
			phone := m.engine.Phone()
			m.focus = focusTable
			return m, func() tea.Msg { return DeleteRequestedMsg{Phone: phone} }
		case "n", "N", "esc":
			m.focus = focusTable
		}
		return m, nil
	}

	// focusTable
	switch key.String() {
	case "/":
		m.FocusSearch()
		return m, nil
	case "s":
		// Cycle both -> SIM1 -> SIM2.
		m.slotFilter++
		if m.slotFilter >= types.MaxSlots {
			m.slotFilter = -1
		}
		return m, nil
	case "enter":
		return m, m.searchCmd()
	case "left", "p":
		m.engine.PrevPage()
		m.Refresh()
		return m, nil
	case "right", "n":
		m.engine.NextPage()
		m.Refresh()
		return m, nil
	case "+", "=":
		m.cyclePageSize(1)
		return m, nil
	case "-":
		m.cyclePageSize(-1)
		return m, nil
	case "c":
		if m.compose.inputs[0].Value() == "" {
			m.compose.inputs[0].SetValue(m.engine.Phone())
		}
		m.focus = focusCompose
		m.compose.focus(m.compose.focusIdx)
		return m, nil
	case "D":
		if m.engine.State() == sms.StateLoaded && m.engine.Phone() != "" {
			m.focus = focusConfirm
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *MessagesPageModel) cyclePageSize(dir int) {
	current := m.engine.PageSize()
	idx := 0
	for i, s := range pageSizes {
		if s == current {
			idx = i
			break
		}
	}
	idx += dir
	if idx < 0 || idx >= len(pageSizes) {
		return
	}
	m.engine.SetPageSize(pageSizes[idx])
	m.Refresh()
}

// Refresh rebuilds the table and paginator from the engine. Called after
// every engine state change.
func (m *MessagesPageModel) Refresh() {
	items := m.engine.PageItems()
	start := (m.engine.Page() - 1) * m.engine.PageSize()

	rows := make([]table.Row, 0, len(items))
	for i, msg := range items {
		content := strings.ReplaceAll(msg.Content, "\n", " ")
		rows = append(rows, table.Row{
			strconv.Itoa(start + i + 1),
			fmt.Sprintf("SIM%d", msg.Slot+1),
			msg.Sender,
			msg.TimeString(),
			content,
		})
	}
	m.table.SetRows(rows)

	m.pager.PerPage = m.engine.PageSize()
	m.pager.SetTotalPages(len(m.engine.Messages()))
	m.pager.Page = m.engine.Page() - 1
}

// SetSize updates the size.
func (m *MessagesPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetWidth(w - 4)
	if h > 10 {
		m.table.SetHeight(h - 10)
	}
}

func (m MessagesPageModel) slotFilterLabel() string {
	if m.slotFilter < 0 {
		return "both"
	}
	return fmt.Sprintf("SIM%d", m.slotFilter+1)
}

// View renders the page.
func (m MessagesPageModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render(" Messages ") + "\n\n")

	searchStyle := m.styles.Card
	if m.focus == focusSearch {
		searchStyle = searchStyle.BorderForeground(m.styles.Theme.Primary)
	}
	searchBar := searchStyle.Render(m.phoneInput.View()) +
		"  " + m.styles.Muted.Render("slots: ") + m.styles.Bold.Render(m.slotFilterLabel())
	sb.WriteString(searchBar + "\n\n")

	if m.focus == focusCompose {
		sb.WriteString(m.renderCompose())
		return sb.String()
	}

	switch m.engine.State() {
	case sms.StateLoading:
		sb.WriteString(m.styles.Muted.Render("Searching...") + "\n")
	case sms.StateIdle:
		sb.WriteString(m.styles.Muted.Render("No search yet. [/] to enter a phone, [Enter] to search.") + "\n")
	case sms.StateLoaded:
		total := len(m.engine.Messages())
		header := fmt.Sprintf("%s | %d messages | page size %d", m.engine.Phone(), total, m.engine.PageSize())
		sb.WriteString(m.styles.Info.Render(header) + "\n")
		sb.WriteString(m.table.View() + "\n")
		if total > 0 {
			sb.WriteString("  " + m.pager.View() + "\n")
		}
	}

	if m.focus == focusConfirm {
		warn := fmt.Sprintf("Delete ALL messages on %s (both slots)? [y/n]", m.engine.Phone())
		sb.WriteString("\n" + m.styles.Warning.Render(warn) + "\n")
	} else {
		sb.WriteString("\n" + m.styles.Muted.Render(
			"[/] Search  [s] Slot filter  [←/→] Page  [+/-] Page size  [c] Compose  [D] Delete all"))
	}
	return sb.String()
}

func (m MessagesPageModel) renderCompose() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Send SMS") + "\n")
	for i := range m.compose.inputs {
		cursor := "  "
		if i == m.compose.focusIdx {
			cursor = m.styles.Prompt.Render("> ")
		}
		sb.WriteString(cursor + m.compose.inputs[i].View() + "\n")
	}
	sb.WriteString("\n" + m.styles.Muted.Render("[Tab] Next field  [Enter] Send  [Esc] Back (keeps draft)") + "\n")
	return lipgloss.NewStyle().Padding(0, 1).Render(sb.String())
}
