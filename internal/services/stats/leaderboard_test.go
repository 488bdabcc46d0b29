package stats

import (
	"testing"
	"time"

	"github.com/j-veylop/codepulse/internal/models"
)

func TestLeaderboard(t *testing.T) {
	svc, database := newTestService(t, Config{})
	base := testNow.Add(-2 * time.Hour)

	// ada: 2m + 5m = 7m
	insert(t, database, "ada", base, "Go", "p")
	insert(t, database, "ada", base.Add(5*time.Minute), "Go", "p")
	// grace: 2m
	insert(t, database, "grace", base, "Go", "p")
	// linus: 2m, ties with grace
	insert(t, database, "linus", base, "C", "p")
	// ken: outside the range
	insert(t, database, "ken", testNow.AddDate(0, 0, -20), "C", "p")

	board, err := svc.Leaderboard(models.TimeRange7Days, 0)
	if err != nil {
		t.Fatalf("Leaderboard() failed: %v", err)
	}
	if len(board) != 4 {
		t.Fatalf("len(board) = %d, want 4", len(board))
	}

	want := []struct {
		user string
		rank int
	}{
		{"ada", 1},
		{"grace", 2},
		{"linus", 2},
		{"ken", 4},
	}
	for i, w := range want {
		if board[i].User != w.user || board[i].Rank != w.rank {
			t.Errorf("board[%d] = %s #%d, want %s #%d", i, board[i].User, board[i].Rank, w.user, w.rank)
		}
	}
	if board[0].Streak.Current != 1 {
		t.Errorf("ada streak = %+v, want current 1", board[0].Streak)
	}
}

func TestLeaderboard_Limit(t *testing.T) {
	svc, database := newTestService(t, Config{})
	insert(t, database, "ada", testNow.Add(-time.Hour), "Go", "p")
	insert(t, database, "grace", testNow.Add(-time.Hour), "Go", "p")

	board, err := svc.Leaderboard(models.TimeRangeToday, 1)
	if err != nil {
		t.Fatalf("Leaderboard() failed: %v", err)
	}
	if len(board) != 1 {
		t.Errorf("len(board) = %d, want 1", len(board))
	}
}

func TestLeaderboard_Empty(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	board, err := svc.Leaderboard(models.TimeRange7Days, 10)
	if err != nil {
		t.Fatalf("Leaderboard() failed: %v", err)
	}
	if len(board) != 0 {
		t.Errorf("len(board) = %d, want 0", len(board))
	}
}
