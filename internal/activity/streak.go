package activity

import (
	"slices"
	"time"
)

// DaySet holds the local dates that saw at least one heartbeat.
type DaySet map[string]struct{}

// NewDaySet buckets instants into local dates.
func NewDaySet(times []time.Time, loc *time.Location) DaySet {
	days := make(DaySet, len(times))
	for _, t := range times {
		days.Add(DateKey(t, loc))
	}
	return days
}

// Add records a day key.
func (d DaySet) Add(key string) {
	d[key] = struct{}{}
}

// Has reports whether a day key is present.
func (d DaySet) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Sorted returns the keys in ascending date order.
func (d DaySet) Sorted() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Streak is the result of ComputeStreaks.
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// ComputeStreaks returns the current and longest runs of consecutive days.
//
// The current streak stays alive through yesterday: a user who coded
// yesterday but not yet today keeps their streak until a whole local day
// passes with no activity. This is product policy, not an off-by-one.
func ComputeStreaks(days DaySet, loc *time.Location, now time.Time) Streak {
	if len(days) == 0 {
		return Streak{}
	}
	return Streak{
		Current: currentStreak(days, loc, now),
		Longest: longestStreak(days),
	}
}

func longestStreak(days DaySet) int {
	var longest, run int
	var prev int64
	for _, key := range days.Sorted() {
		n, ok := dayNumber(key)
		if !ok {
			continue
		}
		if run > 0 && n-prev == 1 {
			run++
		} else {
			run = 1
		}
		prev = n
		longest = max(longest, run)
	}
	return longest
}

func currentStreak(days DaySet, loc *time.Location, now time.Time) int {
	key := DateKey(now, loc)
	if !days.Has(key) {
		key, _ = ShiftKey(key, -1)
		if !days.Has(key) {
			return 0
		}
	}

	count := 0
	for days.Has(key) {
		count++
		key, _ = ShiftKey(key, -1)
	}
	return count
}
