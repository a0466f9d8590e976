package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"relayctl/internal/api"
	"relayctl/internal/fleet"
	"relayctl/internal/sms"
	"relayctl/internal/types"
)

// nullQuerier satisfies sms.Querier for pages that never go over the wire
// in these tests.
type nullQuerier struct{}

func (nullQuerier) QueryMessages(context.Context, api.MessageQuery) ([]types.Message, error) {
	return nil, nil
}
func (nullQuerier) SendMessage(context.Context, types.SendCommand) error { return nil }
func (nullQuerier) DeleteMessages(context.Context, string, int) error    { return nil }

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func testMessages(n int) []types.Message {
	msgs := make([]types.Message, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, types.Message{
			Phone:     "15550001111",
			Slot:      i % 2,
			Sender:    "1555200" + string(rune('0'+i%10)) + "000",
			Content:   "message body",
			Timestamp: 1700000000 + int64(i),
		})
	}
	return msgs
}

// loadedEngine returns an engine holding a finished search for phone.
func loadedEngine(phone string, msgs []types.Message, pageSize int) *sms.Engine {
	engine := sms.NewEngine(nullQuerier{}, 50, 10, pageSize)
	gen, _ := engine.BeginSearch(phone)
	engine.ApplyResult(gen, phone, msgs, nil)
	return engine
}

func TestDevicesPageRendersSnapshot(t *testing.T) {
	model := NewDevicesPageModel(NewStyles(LightTheme()))
	model.SetSize(100, 30)

	devices := []types.Device{
		{
			Phone:    "15550001111",
			Online:   true,
			LastSeen: 1700000000,
			Slots:    []types.SimSlot{{Slot: 0, Carrier: "T-Mobile"}},
		},
		{Phone: "15550002222", Online: false},
	}
	model.UpdateContent(devices, time.Now())

	view := model.View()
	if !strings.Contains(view, "15550001111") {
		t.Fatalf("expected device phone in view")
	}
	if !strings.Contains(view, "T-Mobile") {
		t.Fatalf("expected carrier in view")
	}
	if !strings.Contains(view, "offline") {
		t.Fatalf("expected offline status in view")
	}
}

func TestDevicesPageReloadKey(t *testing.T) {
	model := NewDevicesPageModel(NewStyles(LightTheme()))
	model.SetSize(100, 30)

	model, cmd := model.Update(keyRune('r'))
	if cmd == nil {
		t.Fatalf("expected a command from the reload key")
	}
	if _, ok := cmd().(ReloadRequestedMsg); !ok {
		t.Fatalf("expected ReloadRequestedMsg")
	}
	_ = model
}

func TestDevicesPageEnterOpensMessages(t *testing.T) {
	model := NewDevicesPageModel(NewStyles(LightTheme()))
	model.SetSize(100, 30)
	model.UpdateContent([]types.Device{{Phone: "15550001111", Online: true}}, time.Now())

	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected a command from enter")
	}
	open, ok := cmd().(OpenMessagesForMsg)
	if !ok {
		t.Fatalf("expected OpenMessagesForMsg")
	}
	if open.Phone != "15550001111" {
		t.Fatalf("expected selected phone, got %q", open.Phone)
	}
	_ = model
}

func TestDashboardPageRendersStats(t *testing.T) {
	model := NewDashboardPageModel(NewStyles(LightTheme()))
	model.SetSize(100, 30)

	stats := fleet.ComputeStats([]types.Device{
		{Phone: "a", Online: true},
		{Phone: "b", Online: true},
		{Phone: "c", Online: false},
	})
	model.UpdateContent(stats, time.Now())

	view := model.View()
	if !strings.Contains(view, "3") {
		t.Fatalf("expected device total in view")
	}
	if !strings.Contains(view, "2") {
		t.Fatalf("expected online count in view")
	}
}

func TestMessagesPageSearchFlow(t *testing.T) {
	engine := sms.NewEngine(nullQuerier{}, 50, 10, 10)
	model := NewMessagesPageModel(engine, NewStyles(LightTheme()))
	model.SetSize(100, 30)

	view := model.View()
	if !strings.Contains(view, "No search yet") {
		t.Fatalf("expected idle hint in view")
	}

	model, _ = model.Update(keyRune('/'))
	for _, r := range "15550001111" {
		model, _ = model.Update(keyRune(r))
	}
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected a command from search submit")
	}
	req, ok := cmd().(SearchRequestedMsg)
	if !ok {
		t.Fatalf("expected SearchRequestedMsg")
	}
	if req.Phone != "15550001111" {
		t.Fatalf("expected typed phone, got %q", req.Phone)
	}
	if req.Slot != nil {
		t.Fatalf("expected nil slot filter by default")
	}
}

func TestMessagesPageSlotFilterCycle(t *testing.T) {
	engine := sms.NewEngine(nullQuerier{}, 50, 10, 10)
	model := NewMessagesPageModel(engine, NewStyles(LightTheme()))
	model.SetSize(100, 30)

	if !strings.Contains(model.View(), "both") {
		t.Fatalf("expected both-slots filter initially")
	}

	model, _ = model.Update(keyRune('s'))
	if !strings.Contains(model.View(), "SIM1") {
		t.Fatalf("expected SIM1 filter after one cycle")
	}
	model, _ = model.Update(keyRune('s'))
	if !strings.Contains(model.View(), "SIM2") {
		t.Fatalf("expected SIM2 filter after two cycles")
	}
	model, _ = model.Update(keyRune('s'))
	if !strings.Contains(model.View(), "both") {
		t.Fatalf("expected wrap back to both slots")
	}
}

func TestMessagesPageRendersLoadedList(t *testing.T) {
	engine := loadedEngine("15550001111", testMessages(3), 10)
	model := NewMessagesPageModel(engine, NewStyles(LightTheme()))
	model.SetSize(120, 40)
	model.Refresh()

	view := model.View()
	if !strings.Contains(view, "3 messages") {
		t.Fatalf("expected message count in view")
	}
	if !strings.Contains(view, "message body") {
		t.Fatalf("expected message content in view")
	}
}

func TestMessagesPagePagination(t *testing.T) {
	engine := loadedEngine("15550001111", testMessages(23), 10)
	model := NewMessagesPageModel(engine, NewStyles(LightTheme()))
	model.SetSize(120, 40)
	model.Refresh()

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRight})
	if engine.Page() != 2 {
		t.Fatalf("expected page 2 after right key, got %d", engine.Page())
	}
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if engine.Page() != 1 {
		t.Fatalf("expected page 1 after left key, got %d", engine.Page())
	}

	// Page size change resets to the first page.
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRight})
	model, _ = model.Update(keyRune('+'))
	if engine.PageSize() != 25 {
		t.Fatalf("expected page size 25, got %d", engine.PageSize())
	}
	if engine.Page() != 1 {
		t.Fatalf("expected reset to page 1 after size change, got %d", engine.Page())
	}
	_ = model
}

func TestMessagesPageComposePreservedOnEscape(t *testing.T) {
	engine := loadedEngine("15550001111", testMessages(2), 10)
	model := NewMessagesPageModel(engine, NewStyles(LightTheme()))
	model.SetSize(120, 40)
	model.Refresh()

	model, _ = model.Update(keyRune('c'))
	if !model.ComposeOpen() {
		t.Fatalf("expected compose form open")
	}
	view := model.View()
	if !strings.Contains(view, "15550001111") {
		t.Fatalf("expected device phone prefilled from current search")
	}

	// Close and reopen: the draft must survive.
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if model.ComposeOpen() {
		t.Fatalf("expected compose form closed after escape")
	}
	model, _ = model.Update(keyRune('c'))
	if !strings.Contains(model.View(), "15550001111") {
		t.Fatalf("expected draft preserved after reopen")
	}

	// An accepted send closes and clears the form.
	model.CloseCompose()
	if model.ComposeOpen() {
		t.Fatalf("expected compose form closed after accepted send")
	}
}

func TestMessagesPageDeleteConfirm(t *testing.T) {
	engine := loadedEngine("15550001111", testMessages(2), 10)
	model := NewMessagesPageModel(engine, NewStyles(LightTheme()))
	model.SetSize(120, 40)
	model.Refresh()

	model, _ = model.Update(keyRune('D'))
	if !strings.Contains(model.View(), "Delete ALL messages") {
		t.Fatalf("expected confirm prompt in view")
	}

	// Declining leaves the list alone and raises nothing.
	model, cmd := model.Update(keyRune('n'))
	if cmd != nil {
		t.Fatalf("expected no command when declining")
	}

	model, _ = model.Update(keyRune('D'))
	model, cmd = model.Update(keyRune('y'))
	if cmd == nil {
		t.Fatalf("expected a command when confirming")
	}
	del, ok := cmd().(DeleteRequestedMsg)
	if !ok {
		t.Fatalf("expected DeleteRequestedMsg")
	}
	if del.Phone != "15550001111" {
		t.Fatalf("expected current phone in delete request, got %q", del.Phone)
	}
}

func TestMessagesPageDeleteNeedsLoadedSearch(t *testing.T) {
	engine := sms.NewEngine(nullQuerier{}, 50, 10, 10)
	model := NewMessagesPageModel(engine, NewStyles(LightTheme()))
	model.SetSize(120, 40)

	model, _ = model.Update(keyRune('D'))
	if strings.Contains(model.View(), "Delete ALL messages") {
		t.Fatalf("expected no confirm prompt without a loaded search")
	}
}

func TestLoginPageSubmit(t *testing.T) {
	model := NewLoginPageModel(NewStyles(LightTheme()))
	model.SetSize(80, 24)

	for _, r := range "admin" {
		model, _ = model.Update(keyRune(r))
	}
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter}) // move to password
	for _, r := range "secret" {
		model, _ = model.Update(keyRune(r))
	}
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected a command from login submit")
	}
	req, ok := cmd().(LoginRequestedMsg)
	if !ok {
		t.Fatalf("expected LoginRequestedMsg")
	}
	if req.Username != "admin" || req.Password != "secret" {
		t.Fatalf("unexpected credentials: %q / %q", req.Username, req.Password)
	}

	// The password never renders in clear text.
	if strings.Contains(model.View(), "secret") {
		t.Fatalf("expected password to be masked in view")
	}
}

func TestHelpPageRenders(t *testing.T) {
	model := NewHelpPageModel(NewStyles(LightTheme()), false)
	model.SetSize(100, 30)

	view := model.View()
	if !strings.Contains(view, "relayctl") {
		t.Fatalf("expected title in help view")
	}
	if !strings.Contains(view, "Scroll") {
		t.Fatalf("expected scroll hint in help view")
	}
}
