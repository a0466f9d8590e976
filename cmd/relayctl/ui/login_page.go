package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LoginPageModel collects gateway credentials. It raises LoginRequestedMsg;
// the console performs the round trip and switches pages on success.
type LoginPageModel struct {
	width  int
	height int

	username textinput.Model
	password textinput.Model
	focusIdx int

	styles Styles
}

// NewLoginPageModel creates the login page.
func NewLoginPageModel(styles Styles) LoginPageModel {
	user := textinput.New()
	user.Placeholder = "Username"
	user.CharLimit = 64
	user.Width = 28
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "Password"
	pass.CharLimit = 128
	pass.Width = 28
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '*'

	return LoginPageModel{
		username: user,
		password: pass,
		styles:   styles,
	}
}

// Reset clears both fields and refocuses the username input. Used after a
// rejected login and when the session is forced back to this page.
func (m *LoginPageModel) Reset() {
	m.username.SetValue("")
	m.password.SetValue("")
	m.focusIdx = 0
	m.username.Focus()
	m.password.Blur()
}

func (m *LoginPageModel) setFocus(idx int) {
	m.focusIdx = idx
	if idx == 0 {
		m.username.Focus()
		m.password.Blur()
	} else {
		m.username.Blur()
		m.password.Focus()
	}
}

// Update handles messages.
func (m LoginPageModel) Update(msg tea.Msg) (LoginPageModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			m.setFocus((m.focusIdx + 1) % 2)
			return m, nil
		case "shift+tab", "up":
			m.setFocus((m.focusIdx + 1) % 2)
			return m, nil
		case "enter":
			if m.focusIdx == 0 {
				m.setFocus(1)
				return m, nil
			}
			user := strings.TrimSpace(m.username.Value())
			pass := m.password.Value()
			return m, func() tea.Msg { return LoginRequestedMsg{Username: user, Password: pass} }
		}
	}

	var cmd tea.Cmd
	if m.focusIdx == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// SetSize updates the size.
func (m *LoginPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// View renders the page.
func (m LoginPageModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Sign in to gateway") + "\n\n")
	sb.WriteString("  " + m.username.View() + "\n")
	sb.WriteString("  " + m.password.View() + "\n\n")
	sb.WriteString(m.styles.Muted.Render("[Tab] Switch field  [Enter] Sign in"))

	card := m.styles.Card.Render(sb.String())
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, card)
	}
	return card
}
