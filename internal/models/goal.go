package models

import "time"

type GoalKind string

const (
	GoalCheckbox GoalKind = "checkbox"
	GoalNumber   GoalKind = "number"
)

type FrequencyType string

const (
	FrequencyDaily   FrequencyType = "daily"
	FrequencyWeekly  FrequencyType = "weekly"
	FrequencyMonthly FrequencyType = "monthly"
	FrequencyCustom  FrequencyType = "custom"
)

// Frequency describes when a goal is due. Exactly one payload field is
// meaningful per type; the others stay zero. Serialized to the store as a
// (type, JSON payload) column pair, see the frequency package.
type Frequency struct {
	Type FrequencyType `json:"type"`
	// Weekly: weekday numbers, 0=Sunday .. 6=Saturday.
	Days []int `json:"days,omitempty"`
	// Monthly: 1..31. Months shorter than this day are skipped entirely.
	DayOfMonth int `json:"day_of_month,omitempty"`
	// Custom: due every IntervalDays days counted from the goal's creation date.
	IntervalDays int `json:"interval_days,omitempty"`
}

// Goal is a trackable recurring habit owned by a user. Soft-deleting a goal
// cascades to its habit logs.
type Goal struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Color       string    `json:"color"`
	Kind        GoalKind  `json:"kind"`
	TargetValue *float64  `json:"target_value,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	Frequency   Frequency `json:"frequency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Dirty       bool      `json:"is_dirty"`
	Deleted     bool      `json:"is_deleted"`
}
