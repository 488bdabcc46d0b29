package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// IngestRun records the outcome of draining the heartbeat spool once.
type IngestRun struct {
	ID         int64
	Source     string
	Lines      int
	Inserted   int
	Skipped    int
	FinishedAt time.Time
}

// InsertIngestRun appends an ingest audit row and sets its ID.
func (db *DB) InsertIngestRun(run *IngestRun) error {
	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	result, err := db.ExecContext(context.Background(), `
		INSERT INTO ingest_runs (source, lines, inserted, skipped, finished_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.Source, run.Lines, run.Inserted, run.Skipped, finished.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return fmt.Errorf("failed to insert ingest run: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		run.ID = id
	}
	return nil
}

// GetLastIngestRun returns the most recent ingest run, or nil if none.
func (db *DB) GetLastIngestRun() (*IngestRun, error) {
	var run IngestRun
	var finished string
	err := db.QueryRowContext(context.Background(), `
		SELECT id, source, lines, inserted, skipped, finished_at
		FROM ingest_runs
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&run.ID, &run.Source, &run.Lines, &run.Inserted, &run.Skipped, &finished)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last ingest run: %w", err)
	}

	if t, err := time.Parse("2006-01-02 15:04:05", finished); err == nil {
		run.FinishedAt = t
	} else if t, err := time.Parse(time.RFC3339, finished); err == nil {
		run.FinishedAt = t
	}
	return &run, nil
}
