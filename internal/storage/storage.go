// Package storage defines the persistence contract shared by the SQLite and
// PostgreSQL backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/blog-api/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// ConflictError reports a unique constraint violation on Field.
type ConflictError struct {
	Field string
	Err   error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unique constraint violated on %s: %v", e.Field, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// Store is implemented by every persistence backend.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error

	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id int64) (models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	// DeletePost removes the post together with its comments and tag links.
	DeletePost(ctx context.Context, id int64) error

	CreateComment(ctx context.Context, comment *models.Comment) error
	// ListComments returns a post's comments oldest first, with AuthorUsername set.
	ListComments(ctx context.Context, postID int64) ([]models.Comment, error)

	// TagPost finds or creates the tag by name and links it to the post in one
	// transaction. tag is filled with the stored row; linked is false when the
	// association already existed.
	TagPost(ctx context.Context, postID int64, tag *models.Tag) (linked bool, err error)
	ListPostTags(ctx context.Context, postID int64) ([]models.Tag, error)

	CreateEvent(ctx context.Context, event *models.Event) error
	ListEventsByUser(ctx context.Context, userID int64, limit int) ([]models.Event, error)
	// DeleteEventsBefore removes events created before cutoff and returns how many.
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
