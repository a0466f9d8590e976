package ui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# relayctl

Operator console for an SMS relay fleet.

## Pages

| Key | Page |
|-----|------|
| ` + "`1`" + ` | Dashboard - fleet totals and online ratio |
| ` + "`2`" + ` | Devices - registry snapshot, one row per device |
| ` + "`3`" + ` | Messages - search, send, delete |
| ` + "`?`" + ` | This help |

## Devices

* ` + "`r`" + ` reloads the registry. A failed reload keeps the previous snapshot.
* ` + "`Enter`" + ` jumps to the messages page scoped to the selected device.

## Messages

* ` + "`/`" + ` focuses the search input, ` + "`Enter`" + ` runs the search.
* ` + "`s`" + ` cycles the slot filter: both, SIM1, SIM2.
* ` + "`←/→`" + ` move between pages; ` + "`+` / `-`" + ` change the page size
  (changing it jumps back to the first page).
* ` + "`c`" + ` opens the compose form. A draft that the gateway rejects is
  kept on screen so it can be corrected and resent.
* ` + "`D`" + ` deletes every message on the current device, both SIM slots.

## Session

Credentials are requested on start when no token is stored. Any request the
gateway answers with 401 drops the session and returns to the sign-in page.

Quit with ` + "`q`" + ` or ` + "`Ctrl+C`" + `.
`

// HelpPageModel renders the key reference as markdown in a viewport.
type HelpPageModel struct {
	width    int
	height   int
	viewport viewport.Model
	dark     bool
	styles   Styles
}

// NewHelpPageModel creates the help page.
func NewHelpPageModel(styles Styles, dark bool) HelpPageModel {
	vp := viewport.New(80, 20)
	m := HelpPageModel{viewport: vp, dark: dark, styles: styles}
	m.render(80)
	return m
}

func (m *HelpPageModel) render(width int) {
	var renderer *glamour.TermRenderer
	if m.dark {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
	} else {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(width),
		)
	}
	if renderer == nil {
		m.viewport.SetContent(helpMarkdown)
		return
	}
	out, err := renderer.Render(helpMarkdown)
	if err != nil {
		m.viewport.SetContent(helpMarkdown)
		return
	}
	m.viewport.SetContent(out)
}

// Update handles messages.
func (m HelpPageModel) Update(msg tea.Msg) (HelpPageModel, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// SetSize updates the size.
func (m *HelpPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	if h > 4 {
		m.viewport.Height = h - 4
	}
	wrap := w - 4
	if wrap > 100 {
		wrap = 100
	}
	if wrap > 0 {
		m.render(wrap)
	}
}

// View renders the page.
func (m HelpPageModel) View() string {
	return m.viewport.View() + "\n" + m.styles.Muted.Render("[↑/↓] Scroll")
}
