// Package info provides the info tab: configuration, store status and build
// information.
package info

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/codepulse/internal/app"
	"github.com/j-veylop/codepulse/internal/config"
	"github.com/j-veylop/codepulse/internal/services"
)

// Source reports store status. *services.Manager implements it.
type Source interface {
	Status() (services.Status, error)
}

// keyMap defines the key bindings specific to the info tab.
type keyMap struct {
	Refresh key.Binding
	Copy    key.Binding
	Up      key.Binding
	Down    key.Binding
}

// defaultKeyMap returns the default key bindings for the info tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy spool path"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

type statusLoadedMsg struct {
	status services.Status
	err    error
}

// Model represents the info tab state.
type Model struct {
	state    *app.State
	config   *config.Config
	source   Source
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	status    *services.Status
	statusErr error
}

// New creates a new info model.
func New(state *app.State, cfg *config.Config, source Source) *Model {
	return &Model{
		state:    state,
		config:   cfg,
		source:   source,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the info tab.
func (m *Model) Init() tea.Cmd {
	return m.loadStatusCmd()
}

func (m *Model) loadStatusCmd() tea.Cmd {
	if m.source == nil {
		return nil
	}
	return func() tea.Msg {
		st, err := m.source.Status()
		return statusLoadedMsg{status: st, err: err}
	}
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case statusLoadedMsg:
		m.statusErr = msg.err
		if msg.err == nil {
			st := msg.status
			m.status = &st
		}

	case app.StatsUpdatedMsg:
		return m, m.loadStatusCmd()

	case app.TabSwitchMsg:
		if msg.Tab == app.TabInfo {
			return m, m.loadStatusCmd()
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Refresh):
			return m, m.loadStatusCmd()
		case key.Matches(msg, m.keys.Copy):
			if m.config != nil && m.config.SpoolPath != "" {
				path := m.config.SpoolPath
				return m, func() tea.Msg {
					return app.CopyToClipboardMsg{Text: path}
				}
			}
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Copy,
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Copy, m.keys.Refresh},
		{m.keys.Up, m.keys.Down},
	}
}
