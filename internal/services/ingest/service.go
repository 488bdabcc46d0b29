// Package ingest moves spooled heartbeats into the database, either once on
// demand or continuously by watching the spool file.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/codepulse/internal/db"
	"github.com/j-veylop/codepulse/internal/logger"
	"github.com/j-veylop/codepulse/internal/models"
	"github.com/j-veylop/codepulse/internal/spool"
)

// Event represents an ingest service event.
type Event struct {
	Type   EventType
	Result Result
	Error  error
}

// EventType defines the type of ingest event.
type EventType int

const (
	EventIngested EventType = iota
	EventError
)

// Store is the persistence the ingester writes to.
type Store interface {
	InsertHeartbeats(heartbeats []models.Heartbeat) (int, error)
	InsertIngestRun(run *db.IngestRun) error
}

// Result summarises one drain of the spool.
type Result struct {
	Batches  int
	Lines    int
	Inserted int
	Skipped  int
	// Users lists every user with at least one newly stored heartbeat.
	Users []string
}

// Service drains the spool into a Store.
type Service struct {
	store     Store
	spoolPath string

	drainMu sync.Mutex

	timerMu       sync.Mutex
	debounceTimer *time.Timer

	watcher   *fsnotify.Watcher
	eventChan chan Event
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// New creates an ingest service for the spool file at spoolPath.
func New(store Store, spoolPath string) *Service {
	return &Service{
		store:     store,
		spoolPath: spoolPath,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}
}

// Events returns the event channel for subscribing to ingest results.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// ImportOnce drains every pending batch into the store. A batch that fails to
// insert is left on disk and the error is returned together with the totals
// of the batches stored before it.
func (s *Service) ImportOnce(ctx context.Context) (res Result, err error) {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()

	users := make(map[string]struct{})
	defer func() {
		for u := range users {
			res.Users = append(res.Users, u)
		}
		slices.Sort(res.Users)
	}()

	batches, err := spool.Claim(ctx, s.spoolPath)
	if err != nil {
		return res, err
	}

	for _, path := range batches {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		batch, err := spool.Read(path)
		if err != nil {
			return res, err
		}

		inserted, err := s.store.InsertHeartbeats(batch.Heartbeats)
		if err != nil {
			return res, fmt.Errorf("failed to ingest %s: %w", filepath.Base(path), err)
		}

		run := &db.IngestRun{
			Source:   filepath.Base(path),
			Lines:    batch.Lines,
			Inserted: inserted,
			Skipped:  batch.Skipped,
		}
		if err := s.store.InsertIngestRun(run); err != nil {
			logger.Warn("failed to record ingest run", "batch", run.Source, "error", err)
		}

		if err := spool.Remove(path); err != nil {
			// Re-ingesting is harmless since inserts are idempotent by ID.
			logger.Warn("failed to remove ingested batch", "batch", path, "error", err)
		}

		res.Batches++
		res.Lines += batch.Lines
		res.Inserted += inserted
		res.Skipped += batch.Skipped
		if inserted > 0 {
			for _, hb := range batch.Heartbeats {
				users[hb.User] = struct{}{}
			}
		}
	}

	if res.Batches > 0 {
		logger.Info("spool ingested", "batches", res.Batches, "inserted", res.Inserted, "skipped", res.Skipped)
	}
	return res, nil
}

// Start drains the spool once and then watches it for new heartbeats.
func (s *Service) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.spoolPath), 0o750); err != nil {
		return fmt.Errorf("failed to create spool directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory so the spool being recreated after a claim is seen
	if err := watcher.Add(filepath.Dir(s.spoolPath)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	go s.handleChange()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop() {
	const debounceInterval = 250 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(s.spoolPath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.timerMu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleChange)
				s.timerMu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) handleChange() {
	select {
	case <-s.stopChan:
		return
	default:
	}

	res, err := s.ImportOnce(context.Background())
	if err != nil {
		logger.Error("spool ingest failed", "error", err)
		s.sendEvent(Event{Type: EventError, Error: err, Result: res})
		return
	}
	if res.Batches > 0 {
		s.sendEvent(Event{Type: EventIngested, Result: res})
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the watcher. It is safe to call more than once.
func (s *Service) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopChan)

		s.timerMu.Lock()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		s.timerMu.Unlock()

		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}
