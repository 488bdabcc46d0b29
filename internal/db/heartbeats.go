package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/codepulse/internal/logger"
	"github.com/j-veylop/codepulse/internal/models"
)

// InsertHeartbeats stores heartbeats in a single transaction. Heartbeats whose
// ID is already stored are ignored, so replaying a spool is harmless. It
// returns how many rows were actually inserted.
func (db *DB) InsertHeartbeats(heartbeats []models.Heartbeat) (int, error) {
	if len(heartbeats) == 0 {
		return 0, nil
	}

	query := `
		INSERT OR IGNORE INTO heartbeats (
			id, user_name, time_ms, entity, language, project, editor, platform, is_write
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	inserted := 0
	err := db.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(context.Background(), query)
		if err != nil {
			return fmt.Errorf("failed to prepare heartbeat insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, hb := range heartbeats {
			if hb.ID == "" || hb.User == "" || hb.Time.IsZero() {
				return fmt.Errorf("heartbeat missing id, user or time: %+v", hb)
			}
			result, err := stmt.ExecContext(context.Background(),
				hb.ID,
				hb.User,
				hb.Time.UnixMilli(),
				hb.Entity,
				hb.Language,
				hb.Project,
				hb.Editor,
				hb.Platform,
				boolToInt(hb.IsWrite),
			)
			if err != nil {
				return fmt.Errorf("failed to insert heartbeat %s: %w", hb.ID, err)
			}
			if n, err := result.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// GetHeartbeats returns a user's heartbeats with from <= time < to, oldest
// first. A zero from or to leaves that side of the window open.
func (db *DB) GetHeartbeats(user string, from, to time.Time) ([]models.Heartbeat, error) {
	query := `
		SELECT id, user_name, time_ms, entity, language, project, editor, platform, is_write
		FROM heartbeats
		WHERE user_name = ?
	`
	args := []any{user}
	if !from.IsZero() {
		query += " AND time_ms >= ?"
		args = append(args, from.UnixMilli())
	}
	if !to.IsZero() {
		query += " AND time_ms < ?"
		args = append(args, to.UnixMilli())
	}
	query += " ORDER BY time_ms ASC"

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query heartbeats: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var heartbeats []models.Heartbeat
	for rows.Next() {
		var hb models.Heartbeat
		var timeMs int64
		var isWrite int

		err := rows.Scan(
			&hb.ID,
			&hb.User,
			&timeMs,
			&hb.Entity,
			&hb.Language,
			&hb.Project,
			&hb.Editor,
			&hb.Platform,
			&isWrite,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan heartbeat: %w", err)
		}

		hb.Time = time.UnixMilli(timeMs).UTC()
		hb.IsWrite = isWrite != 0
		heartbeats = append(heartbeats, hb)
	}

	return heartbeats, rows.Err()
}

// GetHeartbeatTimes returns every heartbeat instant for a user, oldest first.
// Streaks are computed over this full history.
func (db *DB) GetHeartbeatTimes(user string) ([]time.Time, error) {
	query := `SELECT time_ms FROM heartbeats WHERE user_name = ? ORDER BY time_ms ASC`

	rows, err := db.QueryContext(context.Background(), query, user)
	if err != nil {
		return nil, fmt.Errorf("failed to query heartbeat times: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var times []time.Time
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, fmt.Errorf("failed to scan heartbeat time: %w", err)
		}
		times = append(times, time.UnixMilli(ms).UTC())
	}

	return times, rows.Err()
}

// GetFirstHeartbeatTime returns the earliest heartbeat instant for a user, or
// the zero time if there is none.
func (db *DB) GetFirstHeartbeatTime(user string) (time.Time, error) {
	query := `SELECT MIN(time_ms) FROM heartbeats WHERE user_name = ?`

	var ms sql.NullInt64
	err := db.QueryRowContext(context.Background(), query, user).Scan(&ms)
	if err != nil && err != sql.ErrNoRows {
		return time.Time{}, fmt.Errorf("failed to query first heartbeat: %w", err)
	}
	if !ms.Valid {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms.Int64).UTC(), nil
}

// CountHeartbeats returns the number of stored heartbeats for a user.
func (db *DB) CountHeartbeats(user string) (int, error) {
	var count int
	err := db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM heartbeats WHERE user_name = ?`, user).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count heartbeats: %w", err)
	}
	return count, nil
}

// GetUsers returns every user with at least one heartbeat, sorted by name.
func (db *DB) GetUsers() ([]string, error) {
	rows, err := db.QueryContext(context.Background(),
		`SELECT DISTINCT user_name FROM heartbeats ORDER BY user_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// DeleteHeartbeatsBefore removes a user's heartbeats older than cutoff.
func (db *DB) DeleteHeartbeatsBefore(user string, cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(context.Background(),
		`DELETE FROM heartbeats WHERE user_name = ? AND time_ms < ?`, user, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete heartbeats: %w", err)
	}
	return result.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
