// Package leaderboard provides the tab ranking every tracked user by coding
// time over the selected range.
package leaderboard

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codepulse/internal/app"
	"github.com/j-veylop/codepulse/internal/models"
	"github.com/j-veylop/codepulse/internal/ui/components"
	"github.com/j-veylop/codepulse/internal/ui/styles"
)

// DefaultLimit is the number of ranked users shown.
const DefaultLimit = 50

// Source provides rankings. *services.Manager implements it.
type Source interface {
	Leaderboard(r models.TimeRange, limit int) ([]models.LeaderboardEntry, error)
}

// keyMap defines the key bindings specific to the leaderboard tab.
type keyMap struct {
	Enter       key.Binding
	ToggleRange key.Binding
	Refresh     key.Binding
}

// defaultKeyMap returns the default key bindings for the leaderboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "view user"),
		),
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

type entriesLoadedMsg struct {
	r       models.TimeRange
	entries []models.LeaderboardEntry
}

type entriesErrorMsg struct {
	err string
}

// Model represents the leaderboard tab state.
type Model struct {
	state   *app.State
	source  Source
	table   table.Model
	spinner components.LoadingSpinner
	keys    keyMap
	width   int
	height  int

	entries  []models.LeaderboardEntry
	shown    models.TimeRange
	loaded   bool
	loading  bool
	errorMsg string
}

// New creates a new leaderboard model.
func New(state *app.State, source Source) *Model {
	t := table.New(
		table.WithColumns(columns(60)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = styles.TableSelectedStyle
	t.SetStyles(s)

	return &Model{
		state:   state,
		source:  source,
		table:   t,
		spinner: components.NewSpinner("Ranking users..."),
		keys:    defaultKeyMap(),
	}
}

func columns(width int) []table.Column {
	userWidth := max(width-6-10-10-8-10, 16)
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "User", Width: userWidth},
		{Title: "Time", Width: 10},
		{Title: "Streak", Width: 10},
		{Title: "Level", Width: 8},
	}
}

// Init initializes the leaderboard tab.
func (m *Model) Init() tea.Cmd {
	return m.reload()
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	return tea.Batch(m.spinner.Tick(), m.loadEntriesCmd())
}

func (m *Model) loadEntriesCmd() tea.Cmd {
	r := m.state.GetTimeRange()

	return func() tea.Msg {
		if m.source == nil {
			return entriesErrorMsg{err: "Services not initialized"}
		}

		entries, err := m.source.Leaderboard(r, DefaultLimit)
		if err != nil {
			return entriesErrorMsg{err: err.Error()}
		}
		return entriesLoadedMsg{r: r, entries: entries}
	}
}

// Update handles messages for the leaderboard tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case entriesLoadedMsg:
		m.entries = msg.entries
		m.shown = msg.r
		m.loaded = true
		m.loading = false
		m.errorMsg = ""
		m.updateTableData()

	case entriesErrorMsg:
		m.loading = false
		m.errorMsg = msg.err
		return m, app.NotifyError(fmt.Sprintf("Leaderboard error: %s", msg.err))

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case app.StatsUpdatedMsg:
		return m, m.reload()

	case app.TabSwitchMsg:
		if msg.Tab == app.TabLeaderboard && !m.loading && (!m.loaded || m.shown != m.state.GetTimeRange()) {
			return m, m.reload()
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		if row := m.table.SelectedRow(); len(row) > 1 {
			user := row[1]
			return m, func() tea.Msg {
				return app.SwitchUserMsg{User: user}
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleRange):
		m.state.NextTimeRange()
		return m, m.reload()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.reload()

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
}

// updateTableData rebuilds the table rows and keeps the cursor on the
// current user.
func (m *Model) updateTableData() {
	current := m.state.GetUser()
	rows := make([]table.Row, 0, len(m.entries))
	cursor := 0

	for i, e := range m.entries {
		if e.User == current {
			cursor = i
		}
		rows = append(rows, table.Row{
			strconv.Itoa(e.Rank),
			e.User,
			components.FormatHours(e.Hours),
			fmt.Sprintf("%d/%d", e.Streak.Current, e.Streak.Longest),
			strconv.Itoa(e.Level),
		})
	}

	m.table.SetRows(rows)
	m.table.SetCursor(cursor)
}

// SetSize sets the available size for the leaderboard tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(width - 10))
	m.table.SetHeight(max(height-12, 5))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Enter,
		m.keys.ToggleRange,
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Enter, m.keys.ToggleRange, m.keys.Refresh},
	}
}
