package models

import "time"

// User represents a registered author.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	FirstName    string    `json:"first_name" gorm:"size:100;not null"`
	LastName     string    `json:"last_name" gorm:"size:100;not null"`
	Username     string    `json:"username" gorm:"size:100;not null;uniqueIndex:users_username_key"`
	Email        string    `json:"email" gorm:"size:120;not null;uniqueIndex:users_email_key"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"` // Never expose this to the client
	CreatedAt    time.Time `json:"created_at"`
}
