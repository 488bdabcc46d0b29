// Package tracker is the editor-side half of codepulse: it decides which
// heartbeats are worth sending and hands them to the spool.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// DefaultInterval is the minimum spacing between heartbeats for the same file.
const DefaultInterval = 2 * time.Minute

// Throttle decides whether a heartbeat should be sent. The zero value sends
// the first heartbeat it sees and uses DefaultInterval.
type Throttle struct {
	LastSentAt time.Time     `json:"last_sent_at"`
	LastFile   string        `json:"last_file"`
	Interval   time.Duration `json:"-"`
}

// ShouldSend reports whether a heartbeat for file at now passes the throttle.
// Writes always pass, as does switching files or a clock that went backwards.
func (t *Throttle) ShouldSend(file string, isWrite bool, now time.Time) bool {
	if isWrite || t.LastSentAt.IsZero() || file != t.LastFile {
		return true
	}
	elapsed := now.Sub(t.LastSentAt)
	return elapsed < 0 || elapsed >= t.interval()
}

// Record notes that a heartbeat for file was sent at now.
func (t *Throttle) Record(file string, now time.Time) {
	t.LastSentAt = now
	t.LastFile = file
}

func (t *Throttle) interval() time.Duration {
	if t.Interval <= 0 {
		return DefaultInterval
	}
	return t.Interval
}

// ThrottleStore persists a Throttle between short-lived `pulse send` processes.
type ThrottleStore struct {
	path string
}

// NewThrottleStore returns a store backed by the JSON file at path.
func NewThrottleStore(path string) *ThrottleStore {
	return &ThrottleStore{path: path}
}

// Update loads the stored throttle, passes it to fn and saves it back, all
// under an exclusive file lock. The throttle is not saved if fn fails.
func (s *ThrottleStore) Update(ctx context.Context, interval time.Duration, fn func(*Throttle) error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	lock := flock.New(s.path + ".lock")
	locked, err := lock.TryLockContext(ctx, 25*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to lock throttle state: %w", err)
	}
	if !locked {
		return errors.New("failed to lock throttle state")
	}
	defer func() { _ = lock.Unlock() }()

	t, err := s.load()
	if err != nil {
		return err
	}
	t.Interval = interval

	if err := fn(t); err != nil {
		return err
	}
	return s.save(t)
}

func (s *ThrottleStore) load() (*Throttle, error) {
	t := &Throttle{}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read throttle state: %w", err)
	}
	if len(data) == 0 {
		return t, nil
	}
	if err := json.Unmarshal(data, t); err != nil {
		// A corrupt state file only costs one extra heartbeat.
		return &Throttle{}, nil
	}
	return t, nil
}

func (s *ThrottleStore) save(t *Throttle) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode throttle state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write throttle state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace throttle state: %w", err)
	}
	return nil
}
