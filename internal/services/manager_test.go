package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/j-veylop/codepulse/internal/activity"
	"github.com/j-veylop/codepulse/internal/clock"
	"github.com/j-veylop/codepulse/internal/config"
	"github.com/j-veylop/codepulse/internal/models"
	"github.com/j-veylop/codepulse/internal/services/ingest"
	"github.com/j-veylop/codepulse/internal/spool"
)

var testNow = time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC)

type notifyRecorder struct {
	mu     sync.Mutex
	titles []string
}

func (r *notifyRecorder) record(title, _ string) error {
	r.mu.Lock()
	r.titles = append(r.titles, title)
	r.mu.Unlock()
	return nil
}

func (r *notifyRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.titles...)
}

func recordNotifications(t *testing.T) *notifyRecorder {
	t.Helper()
	rec := &notifyRecorder{}
	orig := notify
	notify = rec.record
	t.Cleanup(func() { notify = orig })
	return rec
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()
	return &config.Config{
		DatabasePath:  filepath.Join(tmpDir, "test.db"),
		SpoolPath:     filepath.Join(tmpDir, "spool", "heartbeats.jsonl"),
		User:          "ada",
		Location:      time.UTC,
		Estimator:     activity.DefaultParams(),
		StatsCacheTTL: time.Minute,
		Notifications: true,
	}
}

func newTestManager(t *testing.T, cfg *config.Config) *Manager {
	t.Helper()
	mgr, err := newManager(cfg, clock.Fixed(testNow))
	if err != nil {
		t.Fatalf("newManager failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func heartbeat(id, user string, at time.Time) models.Heartbeat {
	return models.Heartbeat{ID: id, User: user, Time: at, Language: "Go", Project: "pulse"}
}

func spoolHeartbeats(t *testing.T, cfg *config.Config, hbs ...models.Heartbeat) {
	t.Helper()
	if err := spool.Append(context.Background(), cfg.SpoolPath, hbs...); err != nil {
		t.Fatalf("spool.Append failed: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	cfg := testConfig(t)
	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Close()

	if mgr.Stats() == nil {
		t.Error("Stats service should be initialized")
	}
	if mgr.Database() == nil {
		t.Error("Database should be initialized")
	}
	if mgr.User() != "ada" {
		t.Errorf("User() = %q, want ada", mgr.User())
	}
}

func TestNewManager_BadDatabasePath(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	cfg.DatabasePath = filepath.Join(blocker, "nested", "test.db")

	if _, err := NewManager(cfg); err == nil {
		t.Error("NewManager should fail when the database directory cannot be created")
	}
}

func TestManager_ImportAndQuery(t *testing.T) {
	cfg := testConfig(t)
	mgr := newTestManager(t, cfg)

	spoolHeartbeats(t, cfg,
		heartbeat("1", "ada", testNow.Add(-time.Hour)),
		heartbeat("2", "ada", testNow.Add(-time.Hour+5*time.Minute)),
	)

	res, err := mgr.Import(context.Background())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2", res.Inserted)
	}

	summary, err := mgr.Summary("ada", models.TimeRangeToday)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if want := 7.0 / 60; summary.TotalHours < want-1e-9 || summary.TotalHours > want+1e-9 {
		t.Errorf("TotalHours = %v, want %v", summary.TotalHours, want)
	}

	streak, err := mgr.Streak("ada")
	if err != nil || streak.Current != 1 {
		t.Errorf("Streak = %+v, %v", streak, err)
	}

	board, err := mgr.Leaderboard(models.TimeRange7Days, 10)
	if err != nil || len(board) != 1 || board[0].User != "ada" {
		t.Errorf("Leaderboard = %+v, %v", board, err)
	}
}

func TestManager_Status(t *testing.T) {
	cfg := testConfig(t)
	mgr := newTestManager(t, cfg)

	st, err := mgr.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.SchemaVersion < 1 {
		t.Errorf("SchemaVersion = %d, want migrated schema", st.SchemaVersion)
	}
	if st.LastIngest != nil || st.Users != 0 {
		t.Errorf("empty store status = %+v", st)
	}

	spoolHeartbeats(t, cfg,
		heartbeat("1", "ada", testNow.Add(-time.Hour)),
		heartbeat("2", "grace", testNow.Add(-time.Hour)),
	)
	if _, err := mgr.Import(context.Background()); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	st, err = mgr.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.Users != 2 || st.Heartbeats != 1 {
		t.Errorf("Users = %d, Heartbeats = %d, want 2 and 1", st.Users, st.Heartbeats)
	}
	if st.LastIngest == nil || st.LastIngest.Inserted != 2 {
		t.Errorf("LastIngest = %+v", st.LastIngest)
	}
	if mgr.Config() != cfg {
		t.Error("Config should return the manager's configuration")
	}
}

func TestManager_ImportInvalidatesCache(t *testing.T) {
	cfg := testConfig(t)
	mgr := newTestManager(t, cfg)

	before, err := mgr.Summary("ada", models.TimeRangeToday)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if before.TotalHours != 0 {
		t.Fatalf("TotalHours before import = %v", before.TotalHours)
	}

	spoolHeartbeats(t, cfg, heartbeat("1", "ada", testNow.Add(-time.Hour)))
	if _, err := mgr.Import(context.Background()); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	after, err := mgr.Summary("ada", models.TimeRangeToday)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if after.TotalHours == 0 {
		t.Error("cached summary was not invalidated by import")
	}
}

func TestManager_IngestErrorKeepsPartialProgress(t *testing.T) {
	recordNotifications(t)
	mgr := newTestManager(t, testConfig(t))

	if _, err := mgr.Summary("ada", models.TimeRangeToday); err != nil {
		t.Fatalf("Summary failed: %v", err)
	}

	// The first batch was stored before the second failed.
	stored := heartbeat("1", "ada", testNow.Add(-time.Hour))
	if _, err := mgr.Database().InsertHeartbeats([]models.Heartbeat{stored}); err != nil {
		t.Fatalf("InsertHeartbeats failed: %v", err)
	}

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	mgr.handleIngestEvent(ingest.Event{
		Type:   ingest.EventError,
		Result: ingest.Result{Batches: 1, Inserted: 1, Users: []string{"ada"}},
		Error:  errors.New("disk full"),
	})

	var sawUpdate, sawError bool
	for len(ch) > 0 {
		switch (<-ch).(type) {
		case StatsUpdatedEvent:
			sawUpdate = true
		case ErrorEvent:
			sawError = true
		}
	}
	if !sawUpdate || !sawError {
		t.Errorf("events: update=%v error=%v, want both", sawUpdate, sawError)
	}

	after, err := mgr.Summary("ada", models.TimeRangeToday)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if after.TotalHours == 0 {
		t.Error("cached summary was not invalidated after a partial ingest")
	}
}

func TestManager_StreakMilestone(t *testing.T) {
	rec := recordNotifications(t)
	cfg := testConfig(t)

	// Two days of history already stored before the manager starts.
	seed := newTestManager(t, cfg)
	spoolHeartbeats(t, cfg,
		heartbeat("d2", "ada", testNow.AddDate(0, 0, -2)),
		heartbeat("d1", "ada", testNow.AddDate(0, 0, -1)),
	)
	if _, err := seed.Import(context.Background()); err != nil {
		t.Fatalf("seed Import failed: %v", err)
	}
	_ = seed.Close()
	rec.mu.Lock()
	rec.titles = nil
	rec.mu.Unlock()

	mgr := newTestManager(t, cfg)
	ch, _ := mgr.Subscribe()

	spoolHeartbeats(t, cfg, heartbeat("d0", "ada", testNow.Add(-time.Hour)))
	if _, err := mgr.Import(context.Background()); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	titles := rec.all()
	if len(titles) != 1 || titles[0] != "3-day streak!" {
		t.Errorf("notifications = %v, want [3-day streak!]", titles)
	}

	var sawUpdate, sawMilestone bool
	for range 2 {
		select {
		case ev := <-ch:
			switch ev.(type) {
			case StatsUpdatedEvent:
				sawUpdate = true
			case MilestoneEvent:
				sawMilestone = true
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	if !sawUpdate || !sawMilestone {
		t.Errorf("sawUpdate=%v sawMilestone=%v", sawUpdate, sawMilestone)
	}
}

func TestManager_NoMilestoneForExistingProgress(t *testing.T) {
	rec := recordNotifications(t)
	cfg := testConfig(t)

	seed := newTestManager(t, cfg)
	spoolHeartbeats(t, cfg,
		heartbeat("d3", "ada", testNow.AddDate(0, 0, -3)),
		heartbeat("d2", "ada", testNow.AddDate(0, 0, -2)),
		heartbeat("d1", "ada", testNow.AddDate(0, 0, -1)),
	)
	if _, err := seed.Import(context.Background()); err != nil {
		t.Fatalf("seed Import failed: %v", err)
	}
	_ = seed.Close()
	rec.mu.Lock()
	rec.titles = nil
	rec.mu.Unlock()

	mgr := newTestManager(t, cfg)
	spoolHeartbeats(t, cfg, heartbeat("d0", "ada", testNow.Add(-time.Hour)))
	if _, err := mgr.Import(context.Background()); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	// Streak goes 3 -> 4, which crosses no milestone.
	if titles := rec.all(); len(titles) != 0 {
		t.Errorf("notifications = %v, want none", titles)
	}
}

func TestManager_LevelUp(t *testing.T) {
	rec := recordNotifications(t)
	cfg := testConfig(t)
	mgr := newTestManager(t, cfg)

	// 25 heartbeats five minutes apart: 2m + 24*5m = 122 minutes = 122 XP.
	start := testNow.Add(-3 * time.Hour)
	var hbs []models.Heartbeat
	for i := range 25 {
		hbs = append(hbs, heartbeat(string(rune('A'+i)), "grace", start.Add(time.Duration(i)*5*time.Minute)))
	}
	spoolHeartbeats(t, cfg, hbs...)

	if _, err := mgr.Import(context.Background()); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	titles := rec.all()
	if len(titles) != 1 || titles[0] != "Level 2 reached" {
		t.Errorf("notifications = %v, want [Level 2 reached]", titles)
	}
}

func TestManager_NotificationsDisabled(t *testing.T) {
	rec := recordNotifications(t)
	cfg := testConfig(t)
	cfg.Notifications = false
	mgr := newTestManager(t, cfg)
	ch, _ := mgr.Subscribe()

	var hbs []models.Heartbeat
	for i := range 25 {
		hbs = append(hbs, heartbeat(string(rune('a'+i)), "grace", testNow.Add(-3*time.Hour+time.Duration(i)*5*time.Minute)))
	}
	spoolHeartbeats(t, cfg, hbs...)
	if _, err := mgr.Import(context.Background()); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if titles := rec.all(); len(titles) != 0 {
		t.Errorf("notifications sent while disabled: %v", titles)
	}

	found := false
	for len(ch) > 0 {
		if _, ok := (<-ch).(MilestoneEvent); ok {
			found = true
		}
	}
	if !found {
		t.Error("MilestoneEvent should still be broadcast when notifications are disabled")
	}
}

func TestManager_Watch(t *testing.T) {
	recordNotifications(t)
	cfg := testConfig(t)
	mgr := newTestManager(t, cfg)
	ch, _ := mgr.Subscribe()

	if err := mgr.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	spoolHeartbeats(t, cfg, heartbeat("w", "ada", testNow.Add(-time.Minute)))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-ch:
			if update, ok := ev.(StatsUpdatedEvent); ok {
				if update.Inserted != 1 || len(update.Users) != 1 || update.Users[0] != "ada" {
					t.Errorf("StatsUpdatedEvent = %+v", update)
				}
				return
			}
			if e, ok := ev.(ErrorEvent); ok {
				t.Fatalf("ErrorEvent from %s: %v", e.Service, e.Error)
			}
		case <-deadline:
			t.Fatal("timed out waiting for StatsUpdatedEvent")
		}
	}
}

func TestManager_Subscription(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))

	ch, cmd := mgr.Subscribe()
	if ch == nil || cmd == nil {
		t.Fatal("Subscribe returned nil")
	}

	mgr.broadcast(ErrorEvent{Service: "test"})
	msg := cmd()
	if e, ok := msg.(ErrorEvent); !ok || e.Service != "test" {
		t.Errorf("cmd() = %#v, want ErrorEvent", msg)
	}

	mgr.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	if msg := WaitForEvent(ch)(); msg != nil {
		t.Errorf("WaitForEvent on closed channel = %#v, want nil", msg)
	}
}

func TestManager_CloseIdempotent(t *testing.T) {
	mgr := newTestManager(t, testConfig(t))
	if err := mgr.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
