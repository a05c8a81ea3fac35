package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitgrid/internal/models"
)

var ErrNotFound = errors.New("not found")

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	var createdAt, updatedAt string
	var dirty, deleted int

	err := row.Scan(&u.ID, &u.Name, &u.Photo, &u.PinHash, &createdAt, &updatedAt, &dirty, &deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}

	if u.CreatedAt, err = parseStamp(createdAt, "created_at"); err != nil {
		return models.User{}, err
	}
	if u.UpdatedAt, err = parseStamp(updatedAt, "updated_at"); err != nil {
		return models.User{}, err
	}
	u.Dirty = dirty != 0
	u.Deleted = deleted != 0
	return u, nil
}

const userColumns = "id, name, photo, pin_hash, created_at, updated_at, is_dirty, is_deleted"

// SaveUser inserts or updates a profile and marks it dirty for the next sync.
func (s *Store) SaveUser(user models.User) error {
	now := nowStamp()
	createdAt := now
	if !user.CreatedAt.IsZero() {
		createdAt = user.CreatedAt.UTC().Format(time.RFC3339)
	}

	_, err := s.db.Exec(`
		INSERT INTO users (id, name, photo, pin_hash, created_at, updated_at, is_dirty, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, 1, 0)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			photo = excluded.photo,
			pin_hash = excluded.pin_hash,
			updated_at = excluded.updated_at,
			is_dirty = 1`,
		user.ID, user.Name, user.Photo, user.PinHash, createdAt, now)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(id string) (models.User, error) {
	row := s.db.QueryRow(`
		SELECT `+userColumns+`
		FROM users WHERE id = ? AND is_deleted = 0`, id)
	return scanUser(row)
}

func (s *Store) Users() ([]models.User, error) {
	rows, err := s.db.Query(`
		SELECT ` + userColumns + `
		FROM users WHERE is_deleted = 0 ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser tombstones a profile along with its goals and logs. The rows
// stay in place until the deletions have been pushed.
func (s *Store) DeleteUser(id string) error {
	now := nowStamp()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`
		UPDATE habit_logs SET is_deleted = 1, is_dirty = 1, updated_at = ?
		WHERE goal_id IN (SELECT id FROM goals WHERE user_id = ?)`, now, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete user logs: %w", err)
	}
	if _, err := tx.Exec(`
		UPDATE goals SET is_deleted = 1, is_dirty = 1, updated_at = ?
		WHERE user_id = ?`, now, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete user goals: %w", err)
	}
	if _, err := tx.Exec(`
		UPDATE users SET is_deleted = 1, is_dirty = 1, updated_at = ?
		WHERE id = ?`, now, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return tx.Commit()
}

// DirtyUsers returns every profile row with unpushed changes, tombstones
// included.
func (s *Store) DirtyUsers() ([]models.User, error) {
	rows, err := s.db.Query(`
		SELECT ` + userColumns + `
		FROM users WHERE is_dirty = 1 ORDER BY updated_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) ClearUserDirty(ids []string) error {
	return s.clearDirty("users", ids)
}

// UpsertUserFromRemote reconciles a pulled row using last-writer-wins. Local
// rows with unpushed changes at least as new as the remote copy are kept;
// otherwise the remote row overwrites, and a remote tombstone removes the row
// outright.
func (s *Store) UpsertUserFromRemote(remote models.User) error {
	local, err := scanUser(s.db.QueryRow(`
		SELECT `+userColumns+`
		FROM users WHERE id = ?`, remote.ID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if errors.Is(err, ErrNotFound) {
		if remote.Deleted {
			return nil
		}
		return s.insertRemoteUser(remote)
	}

	if local.Dirty && !local.UpdatedAt.Before(remote.UpdatedAt) {
		return nil
	}

	if remote.Deleted {
		_, err := s.db.Exec("DELETE FROM users WHERE id = ?", remote.ID)
		return err
	}
	return s.insertRemoteUser(remote)
}

func (s *Store) insertRemoteUser(u models.User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (id, name, photo, pin_hash, created_at, updated_at, is_dirty, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			photo = excluded.photo,
			pin_hash = excluded.pin_hash,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			is_dirty = 0,
			is_deleted = 0`,
		u.ID, u.Name, u.Photo, u.PinHash,
		u.CreatedAt.UTC().Format(time.RFC3339), u.UpdatedAt.UTC().Format(time.RFC3339))
	return err
}
