package stats

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/codepulse/internal/activity"
	"github.com/j-veylop/codepulse/internal/clock"
	"github.com/j-veylop/codepulse/internal/db"
	"github.com/j-veylop/codepulse/internal/models"
)

var testNow = time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC)

// stepClock is a clock tests can move forward.
type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func newTestService(t *testing.T, cfg Config) (*Service, *db.DB) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if cfg.Clock == nil {
		cfg.Clock = clock.Fixed(testNow)
	}
	return New(database, cfg), database
}

var seq int

func insert(t *testing.T, database *db.DB, user string, at time.Time, language, project string) {
	t.Helper()
	seq++
	hb := models.Heartbeat{
		ID:       fmt.Sprintf("hb-%d", seq),
		User:     user,
		Time:     at,
		Language: language,
		Project:  project,
		Editor:   "vscode",
		Platform: "linux",
	}
	if _, err := database.InsertHeartbeats([]models.Heartbeat{hb}); err != nil {
		t.Fatalf("InsertHeartbeats() failed: %v", err)
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNew_Defaults(t *testing.T) {
	svc := New(nil, Config{})
	if svc.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", svc.Location())
	}
	if svc.config.Estimator != activity.DefaultParams() {
		t.Errorf("Estimator = %+v, want defaults", svc.config.Estimator)
	}
	if svc.config.Clock == nil {
		t.Error("Clock should default to the system clock")
	}
}

func TestSummary_NoData(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	summary, err := svc.Summary("ada", models.TimeRange7Days)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}

	if summary.HasData() {
		t.Error("HasData() = true for empty store")
	}
	if summary.TotalHours != 0 || summary.DailyAverage != 0 {
		t.Errorf("expected zero totals, got %v / %v", summary.TotalHours, summary.DailyAverage)
	}
	if len(summary.Days) != 7 {
		t.Fatalf("len(Days) = %d, want 7", len(summary.Days))
	}
	if summary.Days[6].Date != "2024-06-15" || summary.Days[0].Date != "2024-06-09" {
		t.Errorf("day axis = %s..%s", summary.Days[0].Date, summary.Days[6].Date)
	}
	if summary.Streak != (models.Streak{}) {
		t.Errorf("Streak = %+v, want zero", summary.Streak)
	}
	if summary.Level.Level != 1 {
		t.Errorf("Level = %d, want 1", summary.Level.Level)
	}
}

func TestSummary_Breakdown(t *testing.T) {
	svc, database := newTestService(t, Config{})

	base := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	insert(t, database, "ada", base, "Go", "pulse")
	insert(t, database, "ada", base.Add(time.Minute), "Go", "pulse")
	insert(t, database, "ada", base.Add(3*time.Minute), "Python", "")

	summary, err := svc.Summary("ada", models.TimeRangeToday)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}

	// 2m credit + 1m + 2m capped diff
	if want := 5.0 / 60; !approx(summary.TotalHours, want) {
		t.Errorf("TotalHours = %v, want %v", summary.TotalHours, want)
	}
	if summary.HeartbeatCount != 3 {
		t.Errorf("HeartbeatCount = %d, want 3", summary.HeartbeatCount)
	}

	langs := summary.Breakdowns[models.DimensionLanguage]
	if len(langs) != 2 {
		t.Fatalf("languages = %+v", langs)
	}
	if langs[0].Name != "Go" || !approx(langs[0].Hours, 3.0/60) || !approx(langs[0].Percent, 60) {
		t.Errorf("Go row = %+v, want 3m / 60%%", langs[0])
	}
	if langs[1].Name != "Python" || !approx(langs[1].Percent, 40) {
		t.Errorf("Python row = %+v, want 40%%", langs[1])
	}

	projects := summary.Breakdowns[models.DimensionProject]
	if len(projects) != 2 || projects[1].Name != models.UnknownTag {
		t.Errorf("projects = %+v, want an Unknown row", projects)
	}

	editors := summary.Breakdowns[models.DimensionEditor]
	if len(editors) != 1 || !approx(editors[0].Percent, 100) {
		t.Errorf("editors = %+v, want single 100%% row", editors)
	}
}

func TestSummary_DailyTotals(t *testing.T) {
	svc, database := newTestService(t, Config{})

	insert(t, database, "ada", time.Date(2024, 6, 13, 9, 0, 0, 0, time.UTC), "Go", "p")
	insert(t, database, "ada", time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC), "Go", "p")
	insert(t, database, "ada", time.Date(2024, 6, 15, 9, 4, 0, 0, time.UTC), "Go", "p")
	// Outside the 7 day window.
	insert(t, database, "ada", time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), "Go", "p")

	summary, err := svc.Summary("ada", models.TimeRange7Days)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}

	if summary.ActiveDays != 2 {
		t.Errorf("ActiveDays = %d, want 2", summary.ActiveDays)
	}
	if summary.HeartbeatCount != 3 {
		t.Errorf("HeartbeatCount = %d, want 3", summary.HeartbeatCount)
	}
	if summary.BestDay.Date != "2024-06-15" || !approx(summary.BestDay.Hours, 6.0/60) {
		t.Errorf("BestDay = %+v, want 2024-06-15 at 6m", summary.BestDay)
	}
	if want := (2.0/60 + 6.0/60) / 2; !approx(summary.DailyAverage, want) {
		t.Errorf("DailyAverage = %v, want %v", summary.DailyAverage, want)
	}

	hours := summary.DailyHours()
	if len(hours) != 7 || !approx(hours[4], 2.0/60) || hours[5] != 0 {
		t.Errorf("DailyHours() = %v", hours)
	}
}

func TestSummary_TimezoneBucketing(t *testing.T) {
	tokyo, err := activity.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("LoadLocation() failed: %v", err)
	}
	svc, database := newTestService(t, Config{Location: tokyo})

	// 23:30Z on the 14th is 08:30 on the 15th in Tokyo.
	insert(t, database, "ada", time.Date(2024, 6, 14, 23, 30, 0, 0, time.UTC), "Go", "p")

	summary, err := svc.Summary("ada", models.TimeRangeToday)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	if summary.HeartbeatCount != 1 {
		t.Fatalf("HeartbeatCount = %d, want 1 (heartbeat belongs to Tokyo's today)", summary.HeartbeatCount)
	}
	if summary.Days[0].Date != "2024-06-15" {
		t.Errorf("Days[0] = %s, want 2024-06-15", summary.Days[0].Date)
	}
	if summary.Timezone != "Asia/Tokyo" {
		t.Errorf("Timezone = %q", summary.Timezone)
	}

	utcSvc := New(database, Config{Clock: clock.Fixed(testNow)})
	utcSummary, err := utcSvc.Summary("ada", models.TimeRangeToday)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	if utcSummary.HeartbeatCount != 0 {
		t.Errorf("UTC today should not include the heartbeat, got %d", utcSummary.HeartbeatCount)
	}
}

func TestSummary_MidnightDST(t *testing.T) {
	santiago, err := activity.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatalf("LoadLocation() failed: %v", err)
	}
	// 2024-09-08 began at 01:00 -03; midnight was skipped.
	now := time.Date(2024, 9, 10, 16, 0, 0, 0, time.UTC)
	svc, database := newTestService(t, Config{Location: santiago, Clock: clock.Fixed(now)})

	insert(t, database, "ada", time.Date(2024, 9, 7, 16, 0, 0, 0, time.UTC), "Go", "p")
	insert(t, database, "ada", time.Date(2024, 9, 8, 3, 30, 0, 0, time.UTC), "Go", "p") // 23:30 on the 7th
	insert(t, database, "ada", time.Date(2024, 9, 8, 4, 30, 0, 0, time.UTC), "Go", "p") // 01:30 on the 8th
	insert(t, database, "ada", time.Date(2024, 9, 8, 15, 0, 0, 0, time.UTC), "Go", "p")

	summary, err := svc.Summary("ada", models.TimeRange7Days)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}

	want := []string{"2024-09-04", "2024-09-05", "2024-09-06", "2024-09-07", "2024-09-08", "2024-09-09", "2024-09-10"}
	if len(summary.Days) != len(want) {
		t.Fatalf("Days = %+v, want %d entries", summary.Days, len(want))
	}
	for i, d := range summary.Days {
		if d.Date != want[i] {
			t.Errorf("Days[%d] = %s, want %s", i, d.Date, want[i])
		}
	}
	if summary.ActiveDays != 2 {
		t.Errorf("ActiveDays = %d, want 2", summary.ActiveDays)
	}
	if summary.HeartbeatCount != 4 {
		t.Errorf("HeartbeatCount = %d, want 4", summary.HeartbeatCount)
	}
	if !approx(summary.Days[3].Hours, 4.0/60) || !approx(summary.Days[4].Hours, 4.0/60) {
		t.Errorf("DailyHours() = %v, want 4m on the 7th and the 8th", summary.DailyHours())
	}
}

func TestSummary_AllTime(t *testing.T) {
	svc, database := newTestService(t, Config{})

	insert(t, database, "ada", time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), "Go", "p")
	insert(t, database, "ada", time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC), "Go", "p")

	summary, err := svc.Summary("ada", models.TimeRangeAllTime)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	if len(summary.Days) != 15 {
		t.Errorf("len(Days) = %d, want 15", len(summary.Days))
	}
	if summary.Days[0].Date != "2024-06-01" {
		t.Errorf("first day = %s, want 2024-06-01", summary.Days[0].Date)
	}
	if !approx(summary.TotalHours, 4.0/60) {
		t.Errorf("TotalHours = %v, want 4m", summary.TotalHours)
	}
}

func TestSummary_Streak(t *testing.T) {
	svc, database := newTestService(t, Config{})

	for _, day := range []int{5, 6, 7, 14} {
		insert(t, database, "ada", time.Date(2024, 6, day, 12, 0, 0, 0, time.UTC), "Go", "p")
	}

	summary, err := svc.Summary("ada", models.TimeRangeToday)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	// Streaks look at all history regardless of range.
	if summary.Streak.Longest != 3 || summary.Streak.Current != 1 {
		t.Errorf("Streak = %+v, want {Current:1 Longest:3}", summary.Streak)
	}

	streak, err := svc.Streak("ada")
	if err != nil {
		t.Fatalf("Streak() failed: %v", err)
	}
	if streak != summary.Streak {
		t.Errorf("Streak() = %+v, want %+v", streak, summary.Streak)
	}
}

func TestSummary_Cache(t *testing.T) {
	clk := &stepClock{now: testNow}
	svc, database := newTestService(t, Config{CacheTTL: time.Minute, Clock: clk})

	insert(t, database, "ada", testNow.Add(-time.Hour), "Go", "p")
	first, err := svc.Summary("ada", models.TimeRangeToday)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}

	insert(t, database, "ada", testNow.Add(-30*time.Minute), "Go", "p")
	cached, _ := svc.Summary("ada", models.TimeRangeToday)
	if cached != first {
		t.Error("second call within TTL should return the cached summary")
	}

	svc.Invalidate("ada")
	fresh, _ := svc.Summary("ada", models.TimeRangeToday)
	if fresh == first || fresh.HeartbeatCount != 2 {
		t.Errorf("Invalidate() did not drop the cache: count %d", fresh.HeartbeatCount)
	}

	insert(t, database, "ada", testNow.Add(-10*time.Minute), "Go", "p")
	clk.now = testNow.Add(2 * time.Minute)
	expired, _ := svc.Summary("ada", models.TimeRangeToday)
	if expired.HeartbeatCount != 3 {
		t.Errorf("expired cache served stale data: count %d", expired.HeartbeatCount)
	}
}

func TestSummary_NoCache(t *testing.T) {
	svc, database := newTestService(t, Config{CacheTTL: 0})

	insert(t, database, "ada", testNow.Add(-time.Hour), "Go", "p")
	a, _ := svc.Summary("ada", models.TimeRangeToday)
	b, _ := svc.Summary("ada", models.TimeRangeToday)
	if a == b {
		t.Error("zero TTL should not cache")
	}
}

func TestLevel(t *testing.T) {
	svc, database := newTestService(t, Config{})

	level, err := svc.Level("ada")
	if err != nil {
		t.Fatalf("Level() failed: %v", err)
	}
	if level.XP != 0 || level.Level != 1 {
		t.Errorf("Level() for empty history = %+v", level)
	}

	insert(t, database, "ada", testNow.Add(-time.Hour), "Go", "p")
	level, _ = svc.Level("ada")
	if level.XP != 2 {
		t.Errorf("XP = %d, want 2 (one 2m credit)", level.XP)
	}
}
