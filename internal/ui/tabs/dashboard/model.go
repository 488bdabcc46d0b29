// Package dashboard provides the summary tab: totals, streak, level, the
// daily chart and per-dimension breakdowns for the selected range.
package dashboard

import (
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/codepulse/internal/app"
	"github.com/j-veylop/codepulse/internal/models"
	"github.com/j-veylop/codepulse/internal/ui/components"
)

// Source provides summaries. *services.Manager implements it.
type Source interface {
	Summary(user string, r models.TimeRange) (*models.Summary, error)
}

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	ToggleRange key.Binding
	Refresh     key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// summaryLoadedMsg is sent when a summary is loaded.
type summaryLoadedMsg struct {
	summary *models.Summary
}

// summaryErrorMsg is sent when a summary could not be loaded.
type summaryErrorMsg struct {
	err string
}

// Model represents the dashboard tab state.
type Model struct {
	state    *app.State
	source   Source
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
	spinner  components.LoadingSpinner
	levelBar components.LevelBar

	summary     *models.Summary
	loading     bool
	lastRefresh time.Time
	errorMsg    string
}

// New creates a new dashboard model.
func New(state *app.State, source Source) *Model {
	return &Model{
		state:    state,
		source:   source,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		spinner:  components.NewSpinner("Loading summary..."),
		levelBar: components.NewLevelBar(),
	}
}

// Init initializes the dashboard tab.
func (m *Model) Init() tea.Cmd {
	return m.reload()
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	return tea.Batch(m.spinner.Tick(), m.loadSummaryCmd())
}

// loadSummaryCmd creates a command to load the summary for the shared user
// and range.
func (m *Model) loadSummaryCmd() tea.Cmd {
	user := m.state.GetUser()
	r := m.state.GetTimeRange()

	return func() tea.Msg {
		if m.source == nil {
			return summaryErrorMsg{err: "Services not initialized"}
		}

		summary, err := m.source.Summary(user, r)
		if err != nil {
			return summaryErrorMsg{err: err.Error()}
		}
		return summaryLoadedMsg{summary: summary}
	}
}

// Update handles messages for the dashboard tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryLoadedMsg:
		m.summary = msg.summary
		m.loading = false
		m.lastRefresh = time.Now()
		m.errorMsg = ""
		m.state.MarkUpdated(m.lastRefresh)

	case summaryErrorMsg:
		m.loading = false
		m.errorMsg = msg.err
		return m, app.NotifyError(fmt.Sprintf("Summary error: %s", msg.err))

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case app.StatsUpdatedMsg:
		if len(msg.Users) == 0 || slices.Contains(msg.Users, m.state.GetUser()) {
			return m, m.reload()
		}

	case app.TabSwitchMsg:
		if msg.Tab == app.TabDashboard && m.isStale() {
			return m, m.reload()
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

// isStale reports whether the shown summary no longer matches the shared
// range, for example after the range was toggled on another tab.
func (m *Model) isStale() bool {
	if m.loading {
		return false
	}
	return m.summary == nil || m.summary.Range != m.state.GetTimeRange()
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleRange):
		m.state.NextTimeRange()
		return m, m.reload()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.reload()

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
}

// SetSize sets the available size for the dashboard tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleRange,
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleRange, m.keys.Refresh},
		{m.keys.Up, m.keys.Down},
	}
}
