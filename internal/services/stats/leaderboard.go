package stats

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/j-veylop/codepulse/internal/models"
)

// Leaderboard ranks every user by coding time in the range. Users with equal
// time share a rank. A limit <= 0 returns everyone.
func (s *Service) Leaderboard(r models.TimeRange, limit int) ([]models.LeaderboardEntry, error) {
	users, err := s.store.GetUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(users))
	for _, user := range users {
		summary, err := s.Summary(user, r)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize %s: %w", user, err)
		}
		entries = append(entries, models.LeaderboardEntry{
			User:   user,
			Hours:  summary.TotalHours,
			Streak: summary.Streak,
			Level:  summary.Level.Level,
		})
	}

	slices.SortFunc(entries, func(a, b models.LeaderboardEntry) int {
		if c := cmp.Compare(b.Hours, a.Hours); c != 0 {
			return c
		}
		return cmp.Compare(a.User, b.User)
	})

	for i := range entries {
		if i > 0 && entries[i].Hours == entries[i-1].Hours {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
