package stats

import (
	"math"
	"testing"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name      string
		hours     float64
		wantXP    int64
		wantLevel int
		wantNext  int64
	}{
		{"Zero", 0, 0, 1, 100},
		{"Negative", -1, 0, 1, 100},
		{"JustBelowLevel2", 99.0 / 60, 99, 1, 100},
		{"Level2", 100.0 / 60, 100, 2, 400},
		{"Level3", 400.0 / 60, 400, 3, 900},
		{"TenHours", 10, 600, 3, 900},
		{"HundredHours", 100, 6000, 8, 6400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LevelFor(tt.hours)
			if got.XP != tt.wantXP {
				t.Errorf("XP = %d, want %d", got.XP, tt.wantXP)
			}
			if got.Level != tt.wantLevel {
				t.Errorf("Level = %d, want %d", got.Level, tt.wantLevel)
			}
			if got.NextLevelXP != tt.wantNext {
				t.Errorf("NextLevelXP = %d, want %d", got.NextLevelXP, tt.wantNext)
			}
			if got.Progress < 0 || got.Progress >= 1 {
				t.Errorf("Progress = %v, want [0, 1)", got.Progress)
			}
		})
	}
}

func TestLevelFor_Progress(t *testing.T) {
	got := LevelFor(250.0 / 60)
	// Level 2 spans 100..400 XP.
	if math.Abs(got.Progress-0.5) > 1e-9 {
		t.Errorf("Progress = %v, want 0.5", got.Progress)
	}
}
