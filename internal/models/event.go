package models

import "time"

// Event represents an entry in a user's activity log.
type Event struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Type      string    `json:"type" gorm:"size:64;not null"`  // e.g., "user.register", "post.delete"
	Level     string    `json:"level" gorm:"size:16;not null"` // e.g., "info", "warn"
	Message   string    `json:"message" gorm:"type:text;not null"`
	UserID    *int64    `json:"user_id,omitempty" gorm:"index"` // Nullable for anonymous events
	CreatedAt time.Time `json:"created_at"`
}
