// Package spool is the file queue between editor plugins and the ingester.
//
// Emitters append JSON lines to the spool file. The ingester claims the file
// by renaming it to a batch file under the same lock, then deletes the batch
// once its heartbeats are stored. A crash between the two leaves the batch on
// disk to be picked up by the next run.
package spool

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"github.com/j-veylop/codepulse/internal/logger"
	"github.com/j-veylop/codepulse/internal/models"
)

const (
	lockTimeout = 5 * time.Second
	lockRetry   = 25 * time.Millisecond
	batchSuffix = ".batch"

	// MaxLineSize caps one spooled heartbeat. Longer lines are skipped.
	MaxLineSize = 1024 * 1024
)

// ErrLockTimeout is returned when the spool lock cannot be acquired in time.
var ErrLockTimeout = errors.New("timed out waiting for spool lock")

// Batch is the parsed content of one claimed batch file.
type Batch struct {
	Path       string
	Heartbeats []models.Heartbeat
	Lines      int
	Skipped    int
}

// LockPath returns the lock file guarding a spool file.
func LockPath(path string) string {
	return path + ".lock"
}

// WithLock runs fn while holding the exclusive lock for path.
func WithLock(ctx context.Context, path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create spool directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	lock := flock.New(LockPath(path))
	locked, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrLockTimeout
		}
		return fmt.Errorf("failed to acquire spool lock: %w", err)
	}
	if !locked {
		return ErrLockTimeout
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release spool lock", "path", path, "error", err)
		}
	}()

	return fn()
}

// Append writes heartbeats to the spool file as JSON lines.
func Append(ctx context.Context, path string, heartbeats ...models.Heartbeat) error {
	if len(heartbeats) == 0 {
		return nil
	}

	return WithLock(ctx, path, func() error {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open spool: %w", err)
		}

		w := bufio.NewWriter(f)
		enc := json.NewEncoder(w)
		for _, hb := range heartbeats {
			if err := enc.Encode(hb); err != nil {
				_ = f.Close()
				return fmt.Errorf("failed to encode heartbeat: %w", err)
			}
		}
		if err := w.Flush(); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write spool: %w", err)
		}
		return f.Close()
	})
}

// Claim moves the current spool content into a new batch file and returns
// every batch waiting to be ingested, oldest first. Leftover batches from an
// interrupted run are included.
func Claim(ctx context.Context, path string) ([]string, error) {
	err := WithLock(ctx, path, func() error {
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) || (err == nil && info.Size() == 0) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to stat spool: %w", err)
		}

		batch := fmt.Sprintf("%s.%s%s", path, strconv.FormatInt(time.Now().UnixNano(), 10), batchSuffix)
		if err := os.Rename(path, batch); err != nil {
			return fmt.Errorf("failed to claim spool: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return Pending(path)
}

// Pending lists batch files for a spool, oldest first.
func Pending(path string) ([]string, error) {
	matches, err := filepath.Glob(path + ".*" + batchSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to list spool batches: %w", err)
	}
	slices.Sort(matches)
	return matches, nil
}

// Read parses a batch file. Malformed, incomplete and over-long lines are
// counted and skipped.
func Read(batchPath string) (*Batch, error) {
	f, err := os.Open(batchPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch: %w", err)
	}
	defer func() { _ = f.Close() }()

	batch := &Batch{Path: batchPath}
	r := bufio.NewReaderSize(f, 64*1024)
	for {
		line, tooLong, readErr := readLine(r, MaxLineSize)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("failed to read batch: %w", readErr)
		}

		if tooLong {
			batch.Lines++
			batch.Skipped++
			logger.Warn("skipping over-long spool line", "batch", batchPath, "line", batch.Lines)
		} else if line = bytes.TrimRight(line, "\r\n"); len(line) > 0 {
			batch.Lines++
			if hb, ok := parseLine(batchPath, batch.Lines, line); ok {
				batch.Heartbeats = append(batch.Heartbeats, hb)
			} else {
				batch.Skipped++
			}
		}

		if readErr != nil {
			break
		}
	}

	return batch, nil
}

// readLine reads up to and including the next newline. Once a line exceeds
// limit the rest of it is discarded and tooLong is set.
func readLine(r *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		var chunk []byte
		chunk, err = r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > limit {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, tooLong, err
	}
}

func parseLine(batchPath string, n int, line []byte) (models.Heartbeat, bool) {
	var hb models.Heartbeat
	if err := json.Unmarshal(line, &hb); err != nil {
		logger.Warn("skipping malformed spool line", "batch", batchPath, "line", n, "error", err)
		return hb, false
	}
	if hb.ID == "" || hb.User == "" || hb.Time.IsZero() {
		logger.Warn("skipping incomplete heartbeat", "batch", batchPath, "line", n)
		return hb, false
	}
	hb.Time = hb.Time.UTC()
	return hb, true
}

// Remove deletes a fully ingested batch file.
func Remove(batchPath string) error {
	if err := os.Remove(batchPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove batch: %w", err)
	}
	return nil
}
