package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/habitgrid/internal/constants"
	"github.com/julianstephens/habitgrid/internal/frequency"
	"github.com/julianstephens/habitgrid/internal/logger"
	"github.com/julianstephens/habitgrid/internal/migration"
	"github.com/julianstephens/habitgrid/internal/models"
	"github.com/julianstephens/habitgrid/migrations"
)

// PostgresStore implements Store against a shared Postgres database.
type PostgresStore struct {
	connStr string
	db      *sql.DB
}

var ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")

func NewPostgres(connStr string) *PostgresStore {
	s := &PostgresStore{
		connStr: connStr,
	}
	s.ensureSearchPath()
	return s
}

func (s *PostgresStore) ensureSearchPath() {
	// Keep all app tables under their own schema
	if strings.HasPrefix(s.connStr, "postgres://") || strings.HasPrefix(s.connStr, "postgresql://") {
		u, err := url.Parse(s.connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", constants.AppName)
			u.RawQuery = q.Encode()
			s.connStr = u.String()
		}
	} else {
		if !hasDSNParam(s.connStr, "search_path") {
			s.connStr = strings.TrimSpace(s.connStr) + " search_path=" + constants.AppName
		}
	}
}

// hasDSNParam reports whether a DSN-style connection string contains the
// given parameter key (case-insensitive).
func hasDSNParam(connStr, key string) bool {
	for _, part := range strings.Fields(connStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], key) {
			return true
		}
	}
	return false
}

func hasSSLMode(connStr string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for key := range u.Query() {
			if strings.EqualFold(key, "sslmode") {
				return true
			}
		}
	}
	return hasDSNParam(connStr, "sslmode")
}

// ValidateConnString checks that a connection string parses as a PostgreSQL
// URI or DSN before it gets stored.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}

	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}
	return nil
}

func (s *PostgresStore) Init() error {
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Keep the pool small; this is a background sync connection, not a server
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + constants.AppName); err != nil {
		db.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	s.db = db

	if err := s.db.Ping(); err != nil {
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(s.connStr) {
			return fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("remote store not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, constants.ConnectivityTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PostgresStore) runMigrations() error {
	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return fmt.Errorf("failed to access postgres migrations: %w", err)
	}

	runner := migration.NewRunner(s.db, subFS)
	_, err = runner.ApplyMigrations(nil)
	return err
}

func deletedAt(deleted bool, updatedAt time.Time) any {
	if deleted {
		return updatedAt.UTC()
	}
	return nil
}

func (s *PostgresStore) UpsertUsers(users []models.User) error {
	for _, u := range users {
		_, err := s.db.Exec(`
			INSERT INTO users (id, name, photo, pin_hash, created_at, updated_at, deleted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				photo = EXCLUDED.photo,
				pin_hash = EXCLUDED.pin_hash,
				updated_at = EXCLUDED.updated_at,
				deleted_at = EXCLUDED.deleted_at`,
			u.ID, u.Name, u.Photo, u.PinHash,
			u.CreatedAt.UTC(), u.UpdatedAt.UTC(), deletedAt(u.Deleted, u.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to push user %s: %w", u.ID, err)
		}
	}
	return nil
}

func (s *PostgresStore) UpsertGoals(goals []models.Goal) error {
	for _, g := range goals {
		freqType, freqData, err := frequency.Serialize(g.Frequency)
		if err != nil {
			return fmt.Errorf("failed to serialize frequency for goal %s: %w", g.ID, err)
		}

		var target any
		if g.TargetValue != nil {
			target = *g.TargetValue
		}

		_, err = s.db.Exec(`
			INSERT INTO goals (id, user_id, title, color, kind, target_value, unit, frequency_type, frequency_data, created_at, updated_at, deleted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO UPDATE SET
				user_id = EXCLUDED.user_id,
				title = EXCLUDED.title,
				color = EXCLUDED.color,
				kind = EXCLUDED.kind,
				target_value = EXCLUDED.target_value,
				unit = EXCLUDED.unit,
				frequency_type = EXCLUDED.frequency_type,
				frequency_data = EXCLUDED.frequency_data,
				updated_at = EXCLUDED.updated_at,
				deleted_at = EXCLUDED.deleted_at`,
			g.ID, g.UserID, g.Title, g.Color, string(g.Kind), target, g.Unit,
			freqType, freqData, g.CreatedAt.UTC(), g.UpdatedAt.UTC(), deletedAt(g.Deleted, g.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to push goal %s: %w", g.ID, err)
		}
	}
	return nil
}

func (s *PostgresStore) UpsertLogs(logs []models.HabitLog) error {
	for _, l := range logs {
		var value any
		if l.Value != nil {
			value = *l.Value
		}

		_, err := s.db.Exec(`
			INSERT INTO habit_logs (id, goal_id, date, status, value, created_at, updated_at, deleted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				goal_id = EXCLUDED.goal_id,
				date = EXCLUDED.date,
				status = EXCLUDED.status,
				value = EXCLUDED.value,
				updated_at = EXCLUDED.updated_at,
				deleted_at = EXCLUDED.deleted_at`,
			l.ID, l.GoalID, l.Date, string(l.Status), value,
			l.CreatedAt.UTC(), l.UpdatedAt.UTC(), deletedAt(l.Deleted, l.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to push log %s: %w", l.ID, err)
		}
	}
	return nil
}

func (s *PostgresStore) UsersSince(since time.Time, limit int) ([]models.User, error) {
	rows, err := s.db.Query(`
		SELECT id, name, photo, pin_hash, created_at, updated_at, deleted_at
		FROM users WHERE updated_at > $1
		ORDER BY updated_at ASC LIMIT $2`, since.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var deleted sql.NullTime
		if err := rows.Scan(&u.ID, &u.Name, &u.Photo, &u.PinHash, &u.CreatedAt, &u.UpdatedAt, &deleted); err != nil {
			return nil, err
		}
		u.Deleted = deleted.Valid
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) GoalsSince(since time.Time, limit int) ([]models.Goal, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, title, color, kind, target_value, unit, frequency_type, frequency_data, created_at, updated_at, deleted_at
		FROM goals WHERE updated_at > $1
		ORDER BY updated_at ASC LIMIT $2`, since.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		var g models.Goal
		var target sql.NullFloat64
		var freqType, freqData string
		var deleted sql.NullTime
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.Color, &g.Kind, &target, &g.Unit,
			&freqType, &freqData, &g.CreatedAt, &g.UpdatedAt, &deleted); err != nil {
			return nil, err
		}
		if target.Valid {
			g.TargetValue = &target.Float64
		}
		g.Frequency = frequency.Parse(freqType, freqData)
		g.Deleted = deleted.Valid
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *PostgresStore) LogsSince(since time.Time, limit int) ([]models.HabitLog, error) {
	rows, err := s.db.Query(`
		SELECT id, goal_id, date, status, value, created_at, updated_at, deleted_at
		FROM habit_logs WHERE updated_at > $1
		ORDER BY updated_at ASC LIMIT $2`, since.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.HabitLog
	for rows.Next() {
		var l models.HabitLog
		var value sql.NullFloat64
		var deleted sql.NullTime
		if err := rows.Scan(&l.ID, &l.GoalID, &l.Date, &l.Status, &value, &l.CreatedAt, &l.UpdatedAt, &deleted); err != nil {
			return nil, err
		}
		if value.Valid {
			l.Value = &value.Float64
		}
		l.Deleted = deleted.Valid
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
