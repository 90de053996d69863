package models

import "time"

// Post is a blog entry owned by the user who created it.
type Post struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	Title      string    `json:"title" gorm:"size:100;not null"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	DatePosted time.Time `json:"date_posted" gorm:"not null"`
	UserID     int64     `json:"user_id" gorm:"not null;index"`
	User       *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`

	// Tags is only populated on single-post reads.
	Tags []Tag `json:"tags,omitempty" gorm:"-"`
}

// Comment is an immutable reply to a post.
type Comment struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	DatePosted time.Time `json:"date_posted" gorm:"not null"`
	UserID     int64     `json:"user_id" gorm:"not null;index"`
	PostID     int64     `json:"post_id" gorm:"not null;index"`
	User       *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Post       *Post     `json:"-" gorm:"constraint:OnDelete:CASCADE"`

	AuthorUsername string `json:"author_username,omitempty" gorm:"->;-:migration"`
}
