// Package models defines data structures and domain types.
package models

import "time"

// Streak holds current and longest consecutive active-day counts.
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Breakdown is one row of a per-dimension time split.
type Breakdown struct {
	Name    string  `json:"name"`
	Hours   float64 `json:"hours"`
	Percent float64 `json:"percent"`
}

// DailyTotal is the coding time for one local calendar day.
type DailyTotal struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// LevelInfo is the gamified progress derived from all-time coding time.
type LevelInfo struct {
	XP          int64   `json:"xp"`
	Level       int     `json:"level"`
	LevelXP     int64   `json:"level_xp"`
	NextLevelXP int64   `json:"next_level_xp"`
	Progress    float64 `json:"progress"`
}

// Summary aggregates a user's activity over a time range.
type Summary struct {
	User           string                    `json:"user"`
	Range          TimeRange                 `json:"range"`
	Timezone       string                    `json:"timezone"`
	From           time.Time                 `json:"from"`
	To             time.Time                 `json:"to"`
	TotalHours     float64                   `json:"total_hours"`
	DailyAverage   float64                   `json:"daily_average"`
	ActiveDays     int                       `json:"active_days"`
	HeartbeatCount int                       `json:"heartbeat_count"`
	BestDay        DailyTotal                `json:"best_day"`
	Days           []DailyTotal              `json:"days"`
	Breakdowns     map[Dimension][]Breakdown `json:"breakdowns"`
	Streak         Streak                    `json:"streak"`
	Level          LevelInfo                 `json:"level"`
	GeneratedAt    time.Time                 `json:"generated_at"`
}

// HasData returns true if the range contains any heartbeat.
func (s *Summary) HasData() bool {
	return s.HeartbeatCount > 0
}

// Top returns the leading row of a dimension, or false if empty.
func (s *Summary) Top(d Dimension) (Breakdown, bool) {
	rows := s.Breakdowns[d]
	if len(rows) == 0 {
		return Breakdown{}, false
	}
	return rows[0], true
}

// DailyHours returns the per-day hours in chronological order for charting.
func (s *Summary) DailyHours() []float64 {
	out := make([]float64, len(s.Days))
	for i, d := range s.Days {
		out[i] = d.Hours
	}
	return out
}

// LeaderboardEntry ranks one user by coding time.
type LeaderboardEntry struct {
	Rank   int     `json:"rank"`
	User   string  `json:"user"`
	Hours  float64 `json:"hours"`
	Streak Streak  `json:"streak"`
	Level  int     `json:"level"`
}
