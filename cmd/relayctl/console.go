package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"relayctl/cmd/relayctl/ui"
	"relayctl/internal/api"
	"relayctl/internal/config"
	"relayctl/internal/fleet"
	"relayctl/internal/logging"
	"relayctl/internal/session"
	"relayctl/internal/sms"
	"relayctl/internal/types"
)

// page identifies the active console page.
type page int

const (
	pageLogin page = iota
	pageDashboard
	pageDevices
	pageMessages
	pageHelp
)

const (
	noticeTTL      = 4 * time.Second
	requestTimeout = 30 * time.Second
)

// Result messages produced by async commands.
type (
	devicesLoadedMsg struct{ err error }

	searchResultMsg struct {
		gen   uint64
		phone string
		msgs  []types.Message
		err   error
	}

	sendResultMsg struct {
		res sms.SendResult
		err error
	}

	deleteResultMsg struct {
		phone string
		err   error
	}

	loginResultMsg struct{ err error }

	noticeExpiredMsg struct{ seq int }
)

// consoleModel is the root bubbletea model. It owns the gateway client, the
// registry, the message engine and the session; pages only raise intent.
type consoleModel struct {
	cfg      *config.Config
	sess     *session.Session
	client   *api.Client
	registry *fleet.Registry
	engine   *sms.Engine

	current page

	login     ui.LoginPageModel
	dashboard ui.DashboardPageModel
	devices   ui.DevicesPageModel
	messages  ui.MessagesPageModel
	help      ui.HelpPageModel

	spinner   spinner.Model
	isLoading bool

	notice    ui.Notice
	noticeSeq int

	width  int
	height int

	styles ui.Styles
	log    *logging.Logger
}

func newConsoleModel(cfg *config.Config, sess *session.Session, client *api.Client) consoleModel {
	theme := ui.ThemeByName(cfg.UI.Theme)
	styles := ui.NewStyles(theme)

	registry := fleet.NewRegistry(client)
	engine := sms.NewEngine(client, cfg.Query.BulkLimit, cfg.Query.PreviewLimit, cfg.Query.PageSize)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	current := pageDashboard
	if !sess.Authenticated() {
		current = pageLogin
	}

	return consoleModel{
		cfg:       cfg,
		sess:      sess,
		client:    client,
		registry:  registry,
		engine:    engine,
		current:   current,
		login:     ui.NewLoginPageModel(styles),
		dashboard: ui.NewDashboardPageModel(styles),
		devices:   ui.NewDevicesPageModel(styles),
		messages:  ui.NewMessagesPageModel(engine, styles),
		help:      ui.NewHelpPageModel(styles, theme.IsDark),
		spinner:   sp,
		styles:    styles,
		log:       logging.Get(logging.CategoryConsole),
	}
}

// Init starts the spinner and, with a stored session, the first reload.
func (m consoleModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.sess.Authenticated() {
		cmds = append(cmds, m.reloadCmd())
	}
	return tea.Batch(cmds...)
}

func (m *consoleModel) reloadCmd() tea.Cmd {
	m.isLoading = true
	registry := m.registry
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return devicesLoadedMsg{err: registry.Load(ctx)}
	}
}

func (m *consoleModel) searchCmd(phone string, slot *int) tea.Cmd {
	gen, err := m.engine.BeginSearch(phone)
	if err != nil {
		return m.setNotice(ui.NoticeWarning, "Enter a device phone first")
	}
	m.isLoading = true
	m.messages.Refresh()
	engine := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		msgs, err := engine.Fetch(ctx, phone, slot)
		return searchResultMsg{gen: gen, phone: phone, msgs: msgs, err: err}
	}
}

func (m *consoleModel) sendCmd(cmd types.SendCommand) tea.Cmd {
	m.isLoading = true
	engine := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := engine.Send(ctx, cmd)
		return sendResultMsg{res: res, err: err}
	}
}

func (m *consoleModel) deleteCmd(phone string) tea.Cmd {
	m.isLoading = true
	engine := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return deleteResultMsg{phone: phone, err: engine.DeleteAll(ctx, phone)}
	}
}

func (m *consoleModel) loginCmd(username, password string) tea.Cmd {
	m.isLoading = true
	client := m.client
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		token, err := client.Login(ctx, username, password)
		if err != nil {
			return loginResultMsg{err: err}
		}
		return loginResultMsg{err: sess.SetToken(token)}
	}
}

func (m *consoleModel) setNotice(kind ui.NoticeKind, text string) tea.Cmd {
	m.noticeSeq++
	m.notice = ui.Notice{Kind: kind, Text: text, Seq: m.noticeSeq}
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// dropSession forces the console back to the sign-in page after a 401.
func (m *consoleModel) dropSession() tea.Cmd {
	if err := m.sess.Clear(); err != nil {
		m.log.Warn("clearing session: %v", err)
	}
	m.login.Reset()
	m.current = pageLogin
	return m.setNotice(ui.NoticeError, "Session expired, sign in again")
}

// failNotice routes an operation error to the right treatment. Returns the
// notice command, or a relogin redirect for authentication failures.
func (m *consoleModel) failNotice(op string, err error) tea.Cmd {
	if api.IsUnauthorized(err) {
		return m.dropSession()
	}
	m.log.Warn("%s: %v", op, err)
	return m.setNotice(ui.NoticeError, fmt.Sprintf("%s: %v", op, err))
}

// Update handles messages.
func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		content := msg.Height - 4
		m.login.SetSize(msg.Width, content)
		m.dashboard.SetSize(msg.Width, content)
		m.devices.SetSize(msg.Width, content)
		m.messages.SetSize(msg.Width, content)
		m.help.SetSize(msg.Width, content)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case noticeExpiredMsg:
		if msg.seq == m.notice.Seq {
			m.notice = ui.Notice{}
		}
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}

	// Intent raised by pages.
	case ui.ReloadRequestedMsg:
		return m, m.reloadCmd()
	case ui.SearchRequestedMsg:
		return m, m.searchCmd(msg.Phone, msg.Slot)
	case ui.SendRequestedMsg:
		return m, m.sendCmd(msg.Cmd)
	case ui.DeleteRequestedMsg:
		return m, m.deleteCmd(msg.Phone)
	case ui.OpenMessagesForMsg:
		m.current = pageMessages
		m.messages.SetPhone(msg.Phone)
		return m, m.searchCmd(msg.Phone, nil)
	case ui.LoginRequestedMsg:
		if msg.Username == "" || msg.Password == "" {
			return m, m.setNotice(ui.NoticeWarning, "Username and password are required")
		}
		return m, m.loginCmd(msg.Username, msg.Password)
	case ui.LogoutRequestedMsg:
		return m, m.dropSession()

	// Results of async commands.
	case devicesLoadedMsg:
		m.isLoading = false
		if msg.err != nil {
			return m, m.failNotice("Device reload failed", msg.err)
		}
		m.dashboard.UpdateContent(m.registry.Stats(), m.registry.LoadedAt())
		m.devices.UpdateContent(m.registry.Devices(), m.registry.LoadedAt())
		return m, nil

	case searchResultMsg:
		applied := m.engine.ApplyResult(msg.gen, msg.phone, msg.msgs, msg.err)
		if !applied {
			return m, nil
		}
		m.isLoading = false
		m.messages.Refresh()
		if msg.err != nil {
			return m, m.failNotice("Search failed", msg.err)
		}
		return m, nil

	case sendResultMsg:
		m.isLoading = false
		if msg.err != nil {
			return m, m.failNotice("Send failed", msg.err)
		}
		if !msg.res.Accepted {
			// Compose state stays intact for a corrected retry.
			return m, m.setNotice(ui.NoticeWarning, "Gateway rejected send: "+msg.res.Reason)
		}
		m.messages.CloseCompose()
		return m, m.setNotice(ui.NoticeSuccess, "Send instruction accepted")

	case deleteResultMsg:
		m.isLoading = false
		if msg.err != nil {
			return m, m.failNotice("Delete failed", msg.err)
		}
		m.messages.Refresh()
		return m, m.setNotice(ui.NoticeSuccess, "Deleted all messages on "+msg.phone)

	case loginResultMsg:
		m.isLoading = false
		if msg.err != nil {
			m.login.Reset()
			return m, m.failNoticeLogin(msg.err)
		}
		m.current = pageDashboard
		return m, tea.Batch(m.setNotice(ui.NoticeSuccess, "Signed in"), m.reloadCmd())
	}

	return m.updatePage(msg)
}

// failNoticeLogin differs from failNotice: a 401 here is a wrong credential,
// not an expired session, so it stays on the login page with a plain error.
func (m *consoleModel) failNoticeLogin(err error) tea.Cmd {
	if api.IsUnauthorized(err) {
		return m.setNotice(ui.NoticeError, "Sign in rejected: wrong username or password")
	}
	return m.setNotice(ui.NoticeError, fmt.Sprintf("Sign in failed: %v", err))
}

// handleGlobalKey handles quit and page switching. Keys pass through to the
// page when it is capturing text input.
func (m *consoleModel) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}
	if m.current == pageLogin {
		return nil, false
	}
	if m.current == pageMessages && m.messages.Capturing() {
		return nil, false
	}

	switch msg.String() {
	case "q":
		return tea.Quit, true
	case "1":
		m.current = pageDashboard
		return nil, true
	case "2":
		m.current = pageDevices
		return nil, true
	case "3":
		m.current = pageMessages
		m.messages.Refresh()
		return nil, true
	case "?":
		m.current = pageHelp
		return nil, true
	case "ctrl+l":
		return m.dropSession(), true
	}
	return nil, false
}

func (m consoleModel) updatePage(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.current {
	case pageLogin:
		m.login, cmd = m.login.Update(msg)
	case pageDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case pageDevices:
		m.devices, cmd = m.devices.Update(msg)
	case pageMessages:
		m.messages, cmd = m.messages.Update(msg)
	case pageHelp:
		m.help, cmd = m.help.Update(msg)
	}
	return m, cmd
}

func (m consoleModel) renderTabs() string {
	if m.current == pageLogin {
		return m.styles.Header.Render(" relayctl ")
	}
	tabs := []struct {
		p     page
		label string
	}{
		{pageDashboard, "1 Dashboard"},
		{pageDevices, "2 Devices"},
		{pageMessages, "3 Messages"},
		{pageHelp, "? Help"},
	}
	parts := make([]string, 0, len(tabs)+1)
	parts = append(parts, m.styles.Header.Render(" relayctl "))
	for _, t := range tabs {
		style := m.styles.TabIdle
		if t.p == m.current {
			style = m.styles.TabActive
		}
		parts = append(parts, style.Render(t.label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...) + "\n"
}

func (m consoleModel) renderFooter() string {
	left := ""
	if m.isLoading {
		left = m.spinner.View() + " working..."
	} else if m.notice.Text != "" {
		left = m.notice.Render(m.styles)
	}
	right := "signed out"
	if m.sess.Authenticated() {
		right = "signed in"
	}
	return m.styles.Footer.Render(left + "  " + m.styles.Muted.Render("["+right+"]"))
}

// View renders the console.
func (m consoleModel) View() string {
	var body string
	switch m.current {
	case pageLogin:
		body = m.login.View()
	case pageDashboard:
		body = m.dashboard.View()
	case pageDevices:
		body = m.devices.View()
	case pageMessages:
		body = m.messages.View()
	case pageHelp:
		body = m.help.View()
	}
	return m.renderTabs() + "\n" + m.styles.Content.Render(body) + "\n" + m.renderFooter()
}
