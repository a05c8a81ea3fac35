package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitgrid/internal/models"
)

const logColumns = "id, goal_id, date, status, value, created_at, updated_at, is_dirty, is_deleted"

func scanLog(row interface{ Scan(...any) error }) (models.HabitLog, error) {
	var l models.HabitLog
	var value sql.NullFloat64
	var createdAt, updatedAt string
	var dirty, deleted int

	err := row.Scan(&l.ID, &l.GoalID, &l.Date, &l.Status, &value, &createdAt, &updatedAt, &dirty, &deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.HabitLog{}, ErrNotFound
		}
		return models.HabitLog{}, err
	}

	if value.Valid {
		l.Value = &value.Float64
	}
	if l.CreatedAt, err = parseStamp(createdAt, "created_at"); err != nil {
		return models.HabitLog{}, err
	}
	if l.UpdatedAt, err = parseStamp(updatedAt, "updated_at"); err != nil {
		return models.HabitLog{}, err
	}
	l.Dirty = dirty != 0
	l.Deleted = deleted != 0
	return l, nil
}

func logValue(l models.HabitLog) any {
	if l.Value == nil {
		return nil
	}
	return *l.Value
}

// SaveLog records a day's outcome for a goal. One log per goal per day:
// logging the same day again replaces the earlier status but keeps the
// original row id so the remote sees an update, not a new row.
func (s *Store) SaveLog(log models.HabitLog) error {
	now := nowStamp()
	createdAt := now
	if !log.CreatedAt.IsZero() {
		createdAt = log.CreatedAt.UTC().Format(time.RFC3339)
	}

	_, err := s.db.Exec(`
		INSERT INTO habit_logs (id, goal_id, date, status, value, created_at, updated_at, is_dirty, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, 0)
		ON CONFLICT(goal_id, date) DO UPDATE SET
			status = excluded.status,
			value = excluded.value,
			updated_at = excluded.updated_at,
			is_dirty = 1,
			is_deleted = 0`,
		log.ID, log.GoalID, log.Date, string(log.Status), logValue(log), createdAt, now)
	if err != nil {
		return fmt.Errorf("failed to save log: %w", err)
	}
	return nil
}

// LogForDate returns the log for a goal on a given day, or ErrNotFound.
func (s *Store) LogForDate(goalID, date string) (models.HabitLog, error) {
	row := s.db.QueryRow(`
		SELECT `+logColumns+`
		FROM habit_logs WHERE goal_id = ? AND date = ? AND is_deleted = 0`, goalID, date)
	return scanLog(row)
}

func (s *Store) LogsByGoal(goalID, startDate, endDate string) ([]models.HabitLog, error) {
	rows, err := s.db.Query(`
		SELECT `+logColumns+`
		FROM habit_logs
		WHERE goal_id = ? AND date BETWEEN ? AND ? AND is_deleted = 0
		ORDER BY date DESC`, goalID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.HabitLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// DeleteLog tombstones a single log row.
func (s *Store) DeleteLog(id string) error {
	_, err := s.db.Exec(`
		UPDATE habit_logs SET is_deleted = 1, is_dirty = 1, updated_at = ?
		WHERE id = ?`, nowStamp(), id)
	return err
}

// CompletedCount counts completed logs for a goal in an inclusive date range.
func (s *Store) CompletedCount(goalID, startDate, endDate string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM habit_logs
		WHERE goal_id = ? AND date BETWEEN ? AND ? AND status = ? AND is_deleted = 0`,
		goalID, startDate, endDate, string(models.StatusCompleted)).Scan(&count)
	return count, err
}

// StatusCounts tallies completed/skipped/failed logs for a goal in a range.
func (s *Store) StatusCounts(goalID, startDate, endDate string) (completed, skipped, failed int, err error) {
	rows, err := s.db.Query(`
		SELECT status, COUNT(*) FROM habit_logs
		WHERE goal_id = ? AND date BETWEEN ? AND ? AND is_deleted = 0
		GROUP BY status`, goalID, startDate, endDate)
	if err != nil {
		return 0, 0, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return 0, 0, 0, err
		}
		switch models.LogStatus(status) {
		case models.StatusCompleted:
			completed = count
		case models.StatusSkipped:
			skipped = count
		case models.StatusFailed:
			failed = count
		}
	}
	return completed, skipped, failed, rows.Err()
}

// CompletedOnDate counts how many of the given goals have a completed log on
// the date.
func (s *Store) CompletedOnDate(goalIDs []string, date string) (int, error) {
	if len(goalIDs) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(goalIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(goalIDs)+2)
	for _, id := range goalIDs {
		args = append(args, id)
	}
	args = append(args, date, string(models.StatusCompleted))

	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM habit_logs
		WHERE goal_id IN (`+placeholders+`) AND date = ? AND status = ? AND is_deleted = 0`,
		args...).Scan(&count)
	return count, err
}

func (s *Store) DirtyLogs() ([]models.HabitLog, error) {
	rows, err := s.db.Query(`
		SELECT ` + logColumns + `
		FROM habit_logs WHERE is_dirty = 1 ORDER BY updated_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.HabitLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *Store) ClearLogDirty(ids []string) error {
	return s.clearDirty("habit_logs", ids)
}

// UpsertLogFromRemote reconciles a pulled log row, same rules as users.
func (s *Store) UpsertLogFromRemote(remote models.HabitLog) error {
	local, err := scanLog(s.db.QueryRow(`
		SELECT `+logColumns+`
		FROM habit_logs WHERE id = ?`, remote.ID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if errors.Is(err, ErrNotFound) {
		if remote.Deleted {
			return nil
		}
		return s.insertRemoteLog(remote)
	}

	if local.Dirty && !local.UpdatedAt.Before(remote.UpdatedAt) {
		return nil
	}

	if remote.Deleted {
		_, err := s.db.Exec("DELETE FROM habit_logs WHERE id = ?", remote.ID)
		return err
	}
	return s.insertRemoteLog(remote)
}

func (s *Store) insertRemoteLog(l models.HabitLog) error {
	// Two devices can log the same goal and day under different row ids.
	// The natural key wins: keep an unpushed local row, otherwise make way
	// for the remote one.
	var dirtyDup int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM habit_logs
		WHERE goal_id = ? AND date = ? AND id <> ? AND is_dirty = 1`,
		l.GoalID, l.Date, l.ID).Scan(&dirtyDup)
	if err != nil {
		return err
	}
	if dirtyDup > 0 {
		return nil
	}
	if _, err := s.db.Exec(`
		DELETE FROM habit_logs WHERE goal_id = ? AND date = ? AND id <> ?`,
		l.GoalID, l.Date, l.ID); err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO habit_logs (id, goal_id, date, status, value, created_at, updated_at, is_dirty, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0)
		ON CONFLICT(id) DO UPDATE SET
			goal_id = excluded.goal_id,
			date = excluded.date,
			status = excluded.status,
			value = excluded.value,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			is_dirty = 0,
			is_deleted = 0`,
		l.ID, l.GoalID, l.Date, string(l.Status), logValue(l),
		l.CreatedAt.UTC().Format(time.RFC3339), l.UpdatedAt.UTC().Format(time.RFC3339))
	return err
}
