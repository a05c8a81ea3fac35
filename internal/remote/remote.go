// Package remote talks to the shared sync database. The remote never
// physically deletes rows; tombstones are carried in deleted_at so every
// device can converge on the same state.
package remote

import (
	"context"
	"time"

	"github.com/julianstephens/habitgrid/internal/models"
)

// Store is what the sync engine needs from a remote backend.
type Store interface {
	// Init opens the connection and applies pending migrations.
	Init() error
	// Ping verifies the remote is reachable. It doubles as the engine's
	// connectivity probe.
	Ping(ctx context.Context) error
	Close() error

	UpsertUsers(users []models.User) error
	UpsertGoals(goals []models.Goal) error
	UpsertLogs(logs []models.HabitLog) error

	// The Since queries return rows updated strictly after the given time,
	// oldest first, capped at limit.
	UsersSince(since time.Time, limit int) ([]models.User, error)
	GoalsSince(since time.Time, limit int) ([]models.Goal, error)
	LogsSince(since time.Time, limit int) ([]models.HabitLog, error)
}
