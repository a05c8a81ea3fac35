package models

import "time"

type LogStatus string

const (
	StatusCompleted LogStatus = "completed"
	StatusSkipped   LogStatus = "skipped"
	StatusFailed    LogStatus = "failed"
)

// HabitLog records the outcome of a goal on one calendar date. At most one
// non-deleted log exists per (GoalID, Date); writes go through a natural-key
// upsert rather than a separate uniqueness check.
type HabitLog struct {
	ID        string    `json:"id"`
	GoalID    string    `json:"goal_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Status    LogStatus `json:"status"`
	Value     *float64  `json:"value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Dirty     bool      `json:"is_dirty"`
	Deleted   bool      `json:"is_deleted"`
}
