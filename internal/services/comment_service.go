package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/storage"
	"github.com/isdelr/blog-api/internal/validation"
)

// MsgCommentInvalid is returned when a comment has no content.
const MsgCommentInvalid = "Content is required to be able to comment"

// CommentInput is the body of a comment create request. The author always
// comes from the token.
type CommentInput struct {
	Content string `json:"content"`
}

// CommentServiceProvider defines the interface for comment services.
type CommentServiceProvider interface {
	ListComments(ctx context.Context, postID int64) ([]models.Comment, error)
	CreateComment(ctx context.Context, userID, postID int64, in CommentInput) (models.Comment, error)
}

// CommentService provides business logic for comments.
type CommentService struct {
	store  storage.Store
	events EventServiceProvider
}

// NewCommentService creates a new CommentService.
func NewCommentService(store storage.Store, events EventServiceProvider) *CommentService {
	return &CommentService{store: store, events: events}
}

// ListComments returns the comments of an existing post, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, postID)
}

// CreateComment adds a comment by userID to an existing post.
func (s *CommentService) CreateComment(ctx context.Context, userID, postID int64, in CommentInput) (models.Comment, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return models.Comment{}, err
	}
	if errs := validation.Comment.Validate(validation.Form{"content": in.Content}); errs != nil {
		return models.Comment{}, invalid(MsgCommentInvalid, errs)
	}

	comment := models.Comment{
		Content:    in.Content,
		DatePosted: time.Now().UTC(),
		UserID:     userID,
		PostID:     postID,
	}
	if err := s.store.CreateComment(ctx, &comment); err != nil {
		return models.Comment{}, fmt.Errorf("failed to create comment on post %d: %w", postID, err)
	}

	s.events.CreateEvent(ctx, "comment.create", "info", fmt.Sprintf("Commented on post %d", postID), &userID)
	return comment, nil
}

func (s *CommentService) requirePost(ctx context.Context, postID int64) error {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return newError(KindNotFound, MsgPostNotFound)
		}
		return fmt.Errorf("failed to get post %d: %w", postID, err)
	}
	return nil
}
