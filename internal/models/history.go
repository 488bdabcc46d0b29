// Package models defines data structures and domain types.
package models

import (
	"fmt"
	"strings"
)

// TimeRange represents the selected stats window, counted in local days.
type TimeRange int

const (
	// TimeRangeToday covers the current local day.
	TimeRangeToday TimeRange = iota
	// TimeRange7Days covers today and the six days before it.
	TimeRange7Days
	// TimeRange30Days covers today and the 29 days before it.
	TimeRange30Days
	// TimeRangeAllTime covers every recorded heartbeat.
	TimeRangeAllTime
)

// String returns the display name for a time range.
func (t TimeRange) String() string {
	switch t {
	case TimeRangeToday:
		return "Today"
	case TimeRange7Days:
		return "7 Days"
	case TimeRange30Days:
		return "30 Days"
	case TimeRangeAllTime:
		return "All Time"
	default:
		return "Unknown"
	}
}

// Days returns the number of local days in the range (0 = unlimited).
func (t TimeRange) Days() int {
	switch t {
	case TimeRangeToday:
		return 1
	case TimeRange7Days:
		return 7
	case TimeRange30Days:
		return 30
	case TimeRangeAllTime:
		return 0
	default:
		return 7
	}
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	return (t + 1) % 4
}

// ParseTimeRange accepts the short forms used on the command line.
func ParseTimeRange(s string) (TimeRange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today", "1d", "day":
		return TimeRangeToday, nil
	case "7d", "week", "":
		return TimeRange7Days, nil
	case "30d", "month":
		return TimeRange30Days, nil
	case "all", "alltime", "all-time":
		return TimeRangeAllTime, nil
	default:
		return TimeRange7Days, fmt.Errorf("unknown time range %q (want today, 7d, 30d or all)", s)
	}
}
