package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitgrid/internal/constants"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// LastSyncAt returns the high-water mark of the last successful pull, or the
// zero time if no sync has completed yet.
func (s *Store) LastSyncAt() (time.Time, error) {
	value, err := s.GetSetting(constants.SettingLastSyncAt)
	if errors.Is(err, ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return parseStamp(value, constants.SettingLastSyncAt)
}

func (s *Store) SetLastSyncAt(t time.Time) error {
	return s.SetSetting(constants.SettingLastSyncAt, t.UTC().Format(time.RFC3339))
}

// PurgeSynced physically removes tombstoned rows whose deletion has been
// pushed. Children go before parents to keep foreign keys happy.
func (s *Store) PurgeSynced() error {
	for _, table := range []string{"habit_logs", "goals", "users"} {
		if _, err := s.db.Exec(
			"DELETE FROM " + table + " WHERE is_deleted = 1 AND is_dirty = 0"); err != nil {
			return fmt.Errorf("failed to purge %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) clearDirty(table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := s.db.Exec(
		"UPDATE "+table+" SET is_dirty = 0 WHERE id IN ("+placeholders+")", args...)
	return err
}
