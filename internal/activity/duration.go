// Package activity turns raw heartbeat instants into coding time and streaks.
//
// Everything here is a pure function of its inputs: no I/O, no shared state,
// safe to call from any number of goroutines.
package activity

import (
	"slices"
	"time"
)

// Default heuristics. They are empirical and pinned by tests; change them
// through Params rather than here.
const (
	DefaultHeartbeatCredit  = 2 * time.Minute
	DefaultSessionGap       = 15 * time.Minute
	DefaultMaxHeartbeatDiff = 5 * time.Minute
)

// Params configures the duration estimator.
type Params struct {
	// HeartbeatCredit is granted to the first heartbeat of every session.
	HeartbeatCredit time.Duration
	// SessionGap is the smallest gap that starts a new session.
	SessionGap time.Duration
	// MaxHeartbeatDiff caps the time credited between two heartbeats of the
	// same session.
	MaxHeartbeatDiff time.Duration
}

// DefaultParams returns the stock 2m / 15m / 5m heuristics.
func DefaultParams() Params {
	return Params{
		HeartbeatCredit:  DefaultHeartbeatCredit,
		SessionGap:       DefaultSessionGap,
		MaxHeartbeatDiff: DefaultMaxHeartbeatDiff,
	}
}

// withDefaults fills zero fields so a partially-set Params still behaves.
func (p Params) withDefaults() Params {
	if p.HeartbeatCredit <= 0 {
		p.HeartbeatCredit = DefaultHeartbeatCredit
	}
	if p.SessionGap <= 0 {
		p.SessionGap = DefaultSessionGap
	}
	if p.MaxHeartbeatDiff <= 0 {
		p.MaxHeartbeatDiff = DefaultMaxHeartbeatDiff
	}
	return p
}

// Timestamped is anything carrying the instant a heartbeat was recorded.
type Timestamped interface {
	Timestamp() time.Time
}

// EstimateDuration returns the estimated active hours covered by heartbeats.
// The slice is not modified. Zero-valued instants are not meaningful input;
// callers drop them before estimating.
func EstimateDuration[T Timestamped](heartbeats []T, p Params) float64 {
	times := make([]time.Time, len(heartbeats))
	for i, hb := range heartbeats {
		times[i] = hb.Timestamp()
	}
	return estimateSorted(sortTimes(times), p)
}

// EstimateTimes is EstimateDuration over bare instants.
func EstimateTimes(times []time.Time, p Params) float64 {
	return estimateSorted(sortTimes(slices.Clone(times)), p)
}

func sortTimes(times []time.Time) []time.Time {
	slices.SortFunc(times, func(a, b time.Time) int { return a.Compare(b) })
	return times
}

func estimateSorted(times []time.Time, p Params) float64 {
	if len(times) == 0 {
		return 0
	}
	p = p.withDefaults()

	total := p.HeartbeatCredit
	last := times[0]
	for _, cur := range times[1:] {
		diff := cur.Sub(last)
		switch {
		case diff <= 0:
			// Duplicate instant: leave last where it is.
			continue
		case diff < p.SessionGap:
			total += min(diff, p.MaxHeartbeatDiff)
		default:
			total += p.HeartbeatCredit
		}
		last = cur
	}

	return total.Hours()
}
