// Package stats aggregates stored heartbeats into per-range summaries,
// streaks, levels and leaderboards.
package stats

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/j-veylop/codepulse/internal/activity"
	"github.com/j-veylop/codepulse/internal/clock"
	"github.com/j-veylop/codepulse/internal/logger"
	"github.com/j-veylop/codepulse/internal/models"
)

// Store is the read side of the heartbeat database.
type Store interface {
	GetHeartbeats(user string, from, to time.Time) ([]models.Heartbeat, error)
	GetHeartbeatTimes(user string) ([]time.Time, error)
	GetFirstHeartbeatTime(user string) (time.Time, error)
	GetUsers() ([]string, error)
}

// Config holds configuration for the stats service.
type Config struct {
	Location  *time.Location
	Estimator activity.Params
	CacheTTL  time.Duration
	Clock     clock.Clock
}

// DefaultConfig returns UTC bucketing, stock estimator heuristics and a one
// minute cache.
func DefaultConfig() Config {
	return Config{
		Location:  time.UTC,
		Estimator: activity.DefaultParams(),
		CacheTTL:  time.Minute,
		Clock:     clock.SystemClock{},
	}
}

type cacheEntry struct {
	summary *models.Summary
	expires time.Time
}

// Service computes summaries. It is safe for concurrent use.
type Service struct {
	mu     sync.RWMutex
	store  Store
	config Config
	cache  map[string]cacheEntry
}

// New creates a new stats service.
func New(store Store, config Config) *Service {
	defaults := DefaultConfig()
	if config.Location == nil {
		config.Location = defaults.Location
	}
	if config.Clock == nil {
		config.Clock = defaults.Clock
	}
	if config.Estimator == (activity.Params{}) {
		config.Estimator = defaults.Estimator
	}

	return &Service{
		store:  store,
		config: config,
		cache:  make(map[string]cacheEntry),
	}
}

// Location returns the timezone used for day bucketing.
func (s *Service) Location() *time.Location {
	return s.config.Location
}

// Summary returns the user's stats for a range. Returned summaries may be
// shared between callers and must not be modified.
func (s *Service) Summary(user string, r models.TimeRange) (*models.Summary, error) {
	now := s.config.Clock.Now()
	key := cacheKey(user, r)

	if cached := s.cached(key, now); cached != nil {
		return cached, nil
	}

	summary, err := s.buildSummary(user, r, now)
	if err != nil {
		return nil, err
	}

	if s.config.CacheTTL > 0 {
		s.mu.Lock()
		s.cache[key] = cacheEntry{summary: summary, expires: now.Add(s.config.CacheTTL)}
		s.mu.Unlock()
	}

	return summary, nil
}

// Streak returns the user's current and longest streak over all history.
func (s *Service) Streak(user string) (models.Streak, error) {
	times, err := s.store.GetHeartbeatTimes(user)
	if err != nil {
		return models.Streak{}, fmt.Errorf("failed to load heartbeat history: %w", err)
	}
	return s.streakOf(times, s.config.Clock.Now()), nil
}

// Level returns the user's XP and level over all history.
func (s *Service) Level(user string) (models.LevelInfo, error) {
	times, err := s.store.GetHeartbeatTimes(user)
	if err != nil {
		return models.LevelInfo{}, fmt.Errorf("failed to load heartbeat history: %w", err)
	}
	return LevelFor(activity.EstimateTimes(times, s.config.Estimator)), nil
}

// Invalidate drops cached summaries for a user.
func (s *Service) Invalidate(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range []models.TimeRange{
		models.TimeRangeToday, models.TimeRange7Days, models.TimeRange30Days, models.TimeRangeAllTime,
	} {
		delete(s.cache, cacheKey(user, r))
	}
}

// InvalidateAll empties the cache.
func (s *Service) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string]cacheEntry)
	s.mu.Unlock()
}

func (s *Service) cached(key string, now time.Time) *models.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[key]
	if !ok || !now.Before(entry.expires) {
		return nil
	}
	return entry.summary
}

func cacheKey(user string, r models.TimeRange) string {
	return fmt.Sprintf("%s|%d", user, r)
}

// window returns the [from, to) local-day bounds of a range.
func (s *Service) window(user string, r models.TimeRange, now time.Time) (time.Time, time.Time, error) {
	loc := s.config.Location
	today := activity.StartOfDay(now, loc)
	to := activity.AddDays(now, 1, loc)

	if days := r.Days(); days > 0 {
		return activity.AddDays(now, -(days - 1), loc), to, nil
	}

	first, err := s.store.GetFirstHeartbeatTime(user)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to find first heartbeat: %w", err)
	}
	if first.IsZero() || first.After(now) {
		return today, to, nil
	}
	return activity.StartOfDay(first, loc), to, nil
}

func (s *Service) buildSummary(user string, r models.TimeRange, now time.Time) (*models.Summary, error) {
	loc := s.config.Location
	params := s.config.Estimator

	from, to, err := s.window(user, r, now)
	if err != nil {
		return nil, err
	}

	heartbeats, err := s.store.GetHeartbeats(user, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load heartbeats: %w", err)
	}

	history, err := s.store.GetHeartbeatTimes(user)
	if err != nil {
		return nil, fmt.Errorf("failed to load heartbeat history: %w", err)
	}

	summary := &models.Summary{
		User:           user,
		Range:          r,
		Timezone:       loc.String(),
		From:           from,
		To:             to,
		HeartbeatCount: len(heartbeats),
		TotalHours:     activity.EstimateDuration(heartbeats, params),
		Breakdowns:     make(map[models.Dimension][]models.Breakdown, len(models.Dimensions)),
		Streak:         s.streakOf(history, now),
		Level:          LevelFor(activity.EstimateTimes(history, params)),
		GeneratedAt:    now,
	}

	summary.Days = dailyTotals(heartbeats, from, to, loc, params)
	for _, d := range summary.Days {
		if d.Hours > 0 {
			summary.ActiveDays++
		}
		if d.Hours > summary.BestDay.Hours {
			summary.BestDay = d
		}
	}
	if summary.ActiveDays > 0 {
		summary.DailyAverage = summary.TotalHours / float64(summary.ActiveDays)
	}

	for _, dim := range models.Dimensions {
		summary.Breakdowns[dim] = breakdown(heartbeats, dim, params)
	}

	logger.Debug("built summary",
		"user", user, "range", r.String(), "heartbeats", len(heartbeats), "hours", summary.TotalHours)

	return summary, nil
}

func (s *Service) streakOf(times []time.Time, now time.Time) models.Streak {
	loc := s.config.Location
	return models.Streak(activity.ComputeStreaks(activity.NewDaySet(times, loc), loc, now))
}

// dailyTotals estimates each local day in [from, to) separately. Days without
// heartbeats are kept as zero so charts get a continuous axis.
func dailyTotals(
	heartbeats []models.Heartbeat,
	from, to time.Time,
	loc *time.Location,
	params activity.Params,
) []models.DailyTotal {
	buckets := make(map[string][]models.Heartbeat)
	for _, hb := range heartbeats {
		key := activity.DateKey(hb.Time, loc)
		buckets[key] = append(buckets[key], hb)
	}

	var days []models.DailyTotal
	end := activity.DateKey(to, loc)
	for key, ok := activity.DateKey(from, loc), true; ok && key < end; key, ok = activity.ShiftKey(key, 1) {
		days = append(days, models.DailyTotal{
			Date:  key,
			Hours: activity.EstimateDuration(buckets[key], params),
		})
	}
	return days
}

// breakdown estimates time per tag value. Percentages are shares of the sum
// of the group estimates so they always add up to 100.
func breakdown(heartbeats []models.Heartbeat, dim models.Dimension, params activity.Params) []models.Breakdown {
	groups := make(map[string][]models.Heartbeat)
	for _, hb := range heartbeats {
		tag := hb.Tag(dim)
		groups[tag] = append(groups[tag], hb)
	}

	rows := make([]models.Breakdown, 0, len(groups))
	var sum float64
	for name, group := range groups {
		hours := activity.EstimateDuration(group, params)
		sum += hours
		rows = append(rows, models.Breakdown{Name: name, Hours: hours})
	}

	for i := range rows {
		if sum > 0 {
			rows[i].Percent = rows[i].Hours / sum * 100
		}
	}

	slices.SortFunc(rows, func(a, b models.Breakdown) int {
		if c := cmp.Compare(b.Hours, a.Hours); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return rows
}
