package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/storage"
	"github.com/isdelr/blog-api/internal/validation"
	"github.com/rs/zerolog/log"
)

const (
	MsgPostNotAdded    = "Post not added"
	MsgPostNotUpdated  = "Post not updated"
	MsgPostNotFound    = "Post not found"
	MsgUpdateForbidden = "You can only update your own posts"
	MsgDeleteForbidden = "You can only delete your own posts"
)

// PostInput is the body of post create and update requests.
type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (in PostInput) form() validation.Form {
	return validation.Form{"title": in.Title, "content": in.Content}
}

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, id int64) (models.Post, error)
	CreatePost(ctx context.Context, userID int64, in PostInput) (models.Post, error)
	UpdatePost(ctx context.Context, userID, postID int64, in PostInput) (models.Post, error)
	DeletePost(ctx context.Context, userID, postID int64) error
}

// PostService provides business logic for posts and their ownership.
type PostService struct {
	store  storage.Store
	events EventServiceProvider
}

// NewPostService creates a new PostService.
func NewPostService(store storage.Store, events EventServiceProvider) *PostService {
	return &PostService{store: store, events: events}
}

// ListPosts returns every post in creation order.
func (s *PostService) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.store.ListPosts(ctx)
}

// GetPost returns a post together with its tags.
func (s *PostService) GetPost(ctx context.Context, id int64) (models.Post, error) {
	post, err := s.fetch(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	tags, err := s.store.ListPostTags(ctx, id)
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to load tags for post %d: %w", id, err)
	}
	post.Tags = tags
	return post, nil
}

// CreatePost stores a new post owned by userID.
func (s *PostService) CreatePost(ctx context.Context, userID int64, in PostInput) (models.Post, error) {
	if errs := validation.Post.Validate(in.form()); errs != nil {
		return models.Post{}, invalid(MsgPostNotAdded, errs)
	}

	post := models.Post{
		Title:      in.Title,
		Content:    in.Content,
		DatePosted: time.Now().UTC(),
		UserID:     userID,
	}
	if err := s.store.CreatePost(ctx, &post); err != nil {
		return models.Post{}, fmt.Errorf("failed to create post: %w", err)
	}

	s.events.CreateEvent(ctx, "post.create", "info", fmt.Sprintf("Post %d created", post.ID), &userID)
	log.Info().Int64("post_id", post.ID).Int64("user_id", userID).Msg("Post created")
	return post, nil
}

// UpdatePost changes the title and content of a post owned by userID. The
// ownership check runs before validation, so non-owners always get Forbidden.
func (s *PostService) UpdatePost(ctx context.Context, userID, postID int64, in PostInput) (models.Post, error) {
	post, err := s.fetch(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}
	if post.UserID != userID {
		log.Warn().Int64("post_id", postID).Int64("user_id", userID).Msg("Rejected update of foreign post")
		return models.Post{}, newError(KindForbidden, MsgUpdateForbidden)
	}
	if errs := validation.Post.Validate(in.form()); errs != nil {
		return models.Post{}, invalid(MsgPostNotUpdated, errs)
	}

	post.Title = in.Title
	post.Content = in.Content
	if err := s.store.UpdatePost(ctx, &post); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Post{}, newError(KindNotFound, MsgPostNotFound)
		}
		return models.Post{}, fmt.Errorf("failed to update post %d: %w", postID, err)
	}

	s.events.CreateEvent(ctx, "post.update", "info", fmt.Sprintf("Post %d updated", postID), &userID)
	return post, nil
}

// DeletePost removes a post owned by userID along with its comments and tag
// associations.
func (s *PostService) DeletePost(ctx context.Context, userID, postID int64) error {
	post, err := s.fetch(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		log.Warn().Int64("post_id", postID).Int64("user_id", userID).Msg("Rejected delete of foreign post")
		return newError(KindForbidden, MsgDeleteForbidden)
	}

	if err := s.store.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return newError(KindNotFound, MsgPostNotFound)
		}
		return fmt.Errorf("failed to delete post %d: %w", postID, err)
	}

	s.events.CreateEvent(ctx, "post.delete", "info", fmt.Sprintf("Post %d deleted", postID), &userID)
	log.Info().Int64("post_id", postID).Int64("user_id", userID).Msg("Post deleted")
	return nil
}

func (s *PostService) fetch(ctx context.Context, id int64) (models.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Post{}, newError(KindNotFound, MsgPostNotFound)
		}
		return models.Post{}, fmt.Errorf("failed to get post %d: %w", id, err)
	}
	return post, nil
}
