// Package services provides service orchestration for the CLI and TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/codepulse/internal/clock"
	"github.com/j-veylop/codepulse/internal/config"
	"github.com/j-veylop/codepulse/internal/db"
	"github.com/j-veylop/codepulse/internal/logger"
	"github.com/j-veylop/codepulse/internal/models"
	"github.com/j-veylop/codepulse/internal/services/ingest"
	"github.com/j-veylop/codepulse/internal/services/stats"
)

type (
	// StatsUpdatedEvent is emitted when new heartbeats were stored.
	StatsUpdatedEvent struct {
		Users    []string
		Inserted int
	}

	// MilestoneEvent is emitted when a user reaches a streak milestone or a
	// new level.
	MilestoneEvent struct {
		User    string
		Title   string
		Message string
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (StatsUpdatedEvent) isServiceEvent() {}
func (MilestoneEvent) isServiceEvent()    {}
func (ErrorEvent) isServiceEvent()        {}

// StreakMilestones are the current-streak lengths that trigger a notification.
var StreakMilestones = []int{3, 7, 14, 30, 50, 100, 365}

// notify delivers a desktop notification. Replaced in tests.
var notify = func(title, message string) error {
	return beeep.Notify(title, message, "")
}

// progress is the last observed streak and level of a user.
type progress struct {
	streak int
	level  int
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	database    *db.DB
	stats       *stats.Service
	ingest      *ingest.Service
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent

	progressMu   sync.Mutex
	progress     map[string]progress
	baselineOnce sync.Once

	watchOnce sync.Once
	closeOnce sync.Once
}

// NewManager opens the database and creates the stats and ingest services.
// Nothing runs in the background until Watch is called.
func NewManager(cfg *config.Config) (*Manager, error) {
	return newManager(cfg, clock.SystemClock{})
}

func newManager(cfg *config.Config, clk clock.Clock) (*Manager, error) {
	m := &Manager{
		cfg:      cfg,
		stopChan: make(chan struct{}),
		progress: make(map[string]progress),
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	statsConfig := stats.DefaultConfig()
	statsConfig.Location = cfg.Location
	statsConfig.Estimator = cfg.Estimator
	statsConfig.CacheTTL = cfg.StatsCacheTTL
	statsConfig.Clock = clk

	m.stats = stats.New(m.database, statsConfig)
	m.ingest = ingest.New(m.database, cfg.SpoolPath)

	return m, nil
}

// Watch starts watching the spool and routing ingest events to subscribers.
func (m *Manager) Watch() error {
	var err error
	m.watchOnce.Do(func() {
		m.ensureBaseline()
		if err = m.ingest.Start(); err != nil {
			err = fmt.Errorf("failed to watch spool: %w", err)
			return
		}
		go m.routeEvents()
	})
	return err
}

// Import drains the spool once and applies the same follow-up as a watched
// ingest: cache invalidation, milestone checks and a StatsUpdatedEvent.
func (m *Manager) Import(ctx context.Context) (ingest.Result, error) {
	m.ensureBaseline()

	res, err := m.ingest.ImportOnce(ctx)
	if res.Inserted > 0 {
		m.afterIngest(res)
	}
	return res, err
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.ingest.Events():
			m.handleIngestEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleIngestEvent(event ingest.Event) {
	switch event.Type {
	case ingest.EventIngested:
		if event.Result.Inserted > 0 {
			m.afterIngest(event.Result)
		}

	case ingest.EventError:
		if event.Result.Inserted > 0 {
			m.afterIngest(event.Result)
		}
		m.broadcast(ErrorEvent{
			Service: "ingest",
			Error:   event.Error,
		})
	}
}

func (m *Manager) afterIngest(res ingest.Result) {
	for _, user := range res.Users {
		m.stats.Invalidate(user)
	}

	m.broadcast(StatsUpdatedEvent{
		Users:    res.Users,
		Inserted: res.Inserted,
	})

	for _, user := range res.Users {
		m.checkProgress(user)
	}
}

// ensureBaseline records the current streak and level of every known user so
// that only progress made while running triggers notifications.
func (m *Manager) ensureBaseline() {
	m.baselineOnce.Do(func() {
		users, err := m.database.GetUsers()
		if err != nil {
			logger.Warn("failed to load users for milestone baseline", "error", err)
			return
		}

		m.progressMu.Lock()
		defer m.progressMu.Unlock()
		for _, user := range users {
			p, err := m.currentProgress(user)
			if err != nil {
				logger.Warn("failed to compute milestone baseline", "user", user, "error", err)
				continue
			}
			m.progress[user] = p
		}
	})
}

func (m *Manager) currentProgress(user string) (progress, error) {
	streak, err := m.stats.Streak(user)
	if err != nil {
		return progress{}, err
	}
	level, err := m.stats.Level(user)
	if err != nil {
		return progress{}, err
	}
	return progress{streak: streak.Current, level: level.Level}, nil
}

// checkProgress compares a user's streak and level with the previous
// observation. Users seen for the first time start from zero.
func (m *Manager) checkProgress(user string) {
	m.progressMu.Lock()
	defer m.progressMu.Unlock()

	now, err := m.currentProgress(user)
	if err != nil {
		m.broadcast(ErrorEvent{Service: "stats", Error: err})
		return
	}

	old, exists := m.progress[user]
	if !exists {
		old = progress{level: 1}
	}
	m.progress[user] = now

	for _, milestone := range StreakMilestones {
		if old.streak < milestone && now.streak >= milestone {
			m.milestone(MilestoneEvent{
				User:    user,
				Title:   fmt.Sprintf("%d-day streak!", milestone),
				Message: fmt.Sprintf("%s has coded %d days in a row.", user, now.streak),
			})
		}
	}

	if now.level > old.level {
		m.milestone(MilestoneEvent{
			User:    user,
			Title:   fmt.Sprintf("Level %d reached", now.level),
			Message: fmt.Sprintf("%s is now level %d.", user, now.level),
		})
	}
}

func (m *Manager) milestone(event MilestoneEvent) {
	logger.Info("milestone reached", "user", event.User, "title", event.Title)
	m.broadcast(event)

	if !m.cfg.Notifications {
		return
	}
	if err := notify(event.Title, event.Message); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// User returns the configured default user.
func (m *Manager) User() string {
	return m.cfg.User
}

// Summary returns the summary for a user over a time range.
func (m *Manager) Summary(user string, r models.TimeRange) (*models.Summary, error) {
	return m.stats.Summary(user, r)
}

// Streak returns the current and longest streak for a user.
func (m *Manager) Streak(user string) (models.Streak, error) {
	return m.stats.Streak(user)
}

// Level returns the all-time level for a user.
func (m *Manager) Level(user string) (models.LevelInfo, error) {
	return m.stats.Level(user)
}

// Leaderboard ranks every user by coding time in a range.
func (m *Manager) Leaderboard(r models.TimeRange, limit int) ([]models.LeaderboardEntry, error) {
	return m.stats.Leaderboard(r, limit)
}

// Status describes the store for the info tab and `pulse status`.
type Status struct {
	SchemaVersion int64
	Users         int
	Heartbeats    int
	LastIngest    *db.IngestRun
}

// Status reports the schema version, the number of tracked users, the
// configured user's heartbeat count and the latest spool import.
func (m *Manager) Status() (Status, error) {
	var st Status
	var err error

	if st.SchemaVersion, err = m.database.SchemaVersion(); err != nil {
		return st, err
	}
	users, err := m.database.GetUsers()
	if err != nil {
		return st, err
	}
	st.Users = len(users)
	if st.Heartbeats, err = m.database.CountHeartbeats(m.cfg.User); err != nil {
		return st, err
	}
	if st.LastIngest, err = m.database.GetLastIngestRun(); err != nil {
		return st, err
	}
	return st, nil
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Stats returns the stats service.
func (m *Manager) Stats() *stats.Service {
	return m.stats
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		err = errors.Join(m.ingest.Close(), m.database.Close())
	})
	return err
}
