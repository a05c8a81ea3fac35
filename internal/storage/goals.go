package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitgrid/internal/frequency"
	"github.com/julianstephens/habitgrid/internal/models"
)

const goalColumns = "id, user_id, title, color, kind, target_value, unit, frequency_type, frequency_data, created_at, updated_at, is_dirty, is_deleted"

func scanGoal(row interface{ Scan(...any) error }) (models.Goal, error) {
	var g models.Goal
	var target sql.NullFloat64
	var freqType, freqData, createdAt, updatedAt string
	var dirty, deleted int

	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.Color, &g.Kind, &target, &g.Unit,
		&freqType, &freqData, &createdAt, &updatedAt, &dirty, &deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Goal{}, ErrNotFound
		}
		return models.Goal{}, err
	}

	if target.Valid {
		g.TargetValue = &target.Float64
	}
	g.Frequency = frequency.Parse(freqType, freqData)
	if g.CreatedAt, err = parseStamp(createdAt, "created_at"); err != nil {
		return models.Goal{}, err
	}
	if g.UpdatedAt, err = parseStamp(updatedAt, "updated_at"); err != nil {
		return models.Goal{}, err
	}
	g.Dirty = dirty != 0
	g.Deleted = deleted != 0
	return g, nil
}

func goalTarget(g models.Goal) any {
	if g.TargetValue == nil {
		return nil
	}
	return *g.TargetValue
}

// SaveGoal inserts or updates a goal and marks it dirty for the next sync.
func (s *Store) SaveGoal(goal models.Goal) error {
	freqType, freqData, err := frequency.Serialize(goal.Frequency)
	if err != nil {
		return fmt.Errorf("failed to serialize frequency: %w", err)
	}

	now := nowStamp()
	createdAt := now
	if !goal.CreatedAt.IsZero() {
		createdAt = goal.CreatedAt.UTC().Format(time.RFC3339)
	}

	_, err = s.db.Exec(`
		INSERT INTO goals (id, user_id, title, color, kind, target_value, unit, frequency_type, frequency_data, created_at, updated_at, is_dirty, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 0)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			color = excluded.color,
			kind = excluded.kind,
			target_value = excluded.target_value,
			unit = excluded.unit,
			frequency_type = excluded.frequency_type,
			frequency_data = excluded.frequency_data,
			updated_at = excluded.updated_at,
			is_dirty = 1`,
		goal.ID, goal.UserID, goal.Title, goal.Color, string(goal.Kind), goalTarget(goal), goal.Unit,
		freqType, freqData, createdAt, now)
	if err != nil {
		return fmt.Errorf("failed to save goal: %w", err)
	}
	return nil
}

func (s *Store) GetGoal(id string) (models.Goal, error) {
	row := s.db.QueryRow(`
		SELECT `+goalColumns+`
		FROM goals WHERE id = ? AND is_deleted = 0`, id)
	return scanGoal(row)
}

func (s *Store) GoalsByUser(userID string) ([]models.Goal, error) {
	rows, err := s.db.Query(`
		SELECT `+goalColumns+`
		FROM goals WHERE user_id = ? AND is_deleted = 0 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// DeleteGoal tombstones a goal and its logs.
func (s *Store) DeleteGoal(id string) error {
	now := nowStamp()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`
		UPDATE habit_logs SET is_deleted = 1, is_dirty = 1, updated_at = ?
		WHERE goal_id = ?`, now, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete goal logs: %w", err)
	}
	if _, err := tx.Exec(`
		UPDATE goals SET is_deleted = 1, is_dirty = 1, updated_at = ?
		WHERE id = ?`, now, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	return tx.Commit()
}

func (s *Store) DirtyGoals() ([]models.Goal, error) {
	rows, err := s.db.Query(`
		SELECT ` + goalColumns + `
		FROM goals WHERE is_dirty = 1 ORDER BY updated_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *Store) ClearGoalDirty(ids []string) error {
	return s.clearDirty("goals", ids)
}

// UpsertGoalFromRemote reconciles a pulled goal row, same rules as users.
func (s *Store) UpsertGoalFromRemote(remote models.Goal) error {
	local, err := scanGoal(s.db.QueryRow(`
		SELECT `+goalColumns+`
		FROM goals WHERE id = ?`, remote.ID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if errors.Is(err, ErrNotFound) {
		if remote.Deleted {
			return nil
		}
		return s.insertRemoteGoal(remote)
	}

	if local.Dirty && !local.UpdatedAt.Before(remote.UpdatedAt) {
		return nil
	}

	if remote.Deleted {
		_, err := s.db.Exec("DELETE FROM goals WHERE id = ?", remote.ID)
		return err
	}
	return s.insertRemoteGoal(remote)
}

func (s *Store) insertRemoteGoal(g models.Goal) error {
	freqType, freqData, err := frequency.Serialize(g.Frequency)
	if err != nil {
		return fmt.Errorf("failed to serialize frequency: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO goals (id, user_id, title, color, kind, target_value, unit, frequency_type, frequency_data, created_at, updated_at, is_dirty, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			title = excluded.title,
			color = excluded.color,
			kind = excluded.kind,
			target_value = excluded.target_value,
			unit = excluded.unit,
			frequency_type = excluded.frequency_type,
			frequency_data = excluded.frequency_data,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			is_dirty = 0,
			is_deleted = 0`,
		g.ID, g.UserID, g.Title, g.Color, string(g.Kind), goalTarget(g), g.Unit,
		freqType, freqData,
		g.CreatedAt.UTC().Format(time.RFC3339), g.UpdatedAt.UTC().Format(time.RFC3339))
	return err
}
