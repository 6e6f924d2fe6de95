package cli

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/boardsync/internal/cli/formatter"
)

// boardChangedMsg is sent by store subscriptions whenever the board or
// the roster changes.
type boardChangedMsg struct{}

type watchKeyMap struct {
	Quit key.Binding
}

func defaultWatchKeys() watchKeyMap {
	return watchKeyMap{
		Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// watchModel shows the rendered board in a scrollable viewport and
// re-renders it on every boardChangedMsg.
type watchModel struct {
	render func() string
	keys   watchKeyMap
	vp     viewport.Model
	ready  bool
}

func newWatchModel(render func() string) watchModel {
	return watchModel{render: render, keys: defaultWatchKeys()}
}

func (m watchModel) Init() tea.Cmd { return nil }

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := max(msg.Height-1, 1)
		if !m.ready {
			m.vp = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = height
		}
		m.vp.SetContent(m.render())
		return m, nil
	case boardChangedMsg:
		if m.ready {
			m.vp.SetContent(m.render())
		}
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
	}
	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m watchModel) View() string {
	if !m.ready {
		// No size yet, e.g. output is not a terminal.
		return m.render()
	}
	var b strings.Builder
	b.WriteString(m.vp.View())
	b.WriteString("\n")
	b.WriteString(formatter.Dim("q quit  ↑/↓ scroll"))
	return b.String()
}
