package models

import "time"

// User is a local profile. Profiles share one device-local store and are
// distinguished on the dashboard and leaderboard; the PIN gates profile entry.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Photo     string    `json:"photo,omitempty"`
	PinHash   string    `json:"pin_hash"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Dirty     bool      `json:"is_dirty"`
	Deleted   bool      `json:"is_deleted"`
}
