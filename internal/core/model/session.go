package model

import "time"

// SessionRecord is one row in the external analytics store.
type SessionRecord struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	SessionType     Mode      `json:"session_type"`
	DurationSeconds int       `json:"duration"`
	Completed       bool      `json:"completed"`
	Goal            string    `json:"goal,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	// Final is set once the completion record has been written; the row
	// no longer changes afterwards.
	Final bool `json:"final"`
}
