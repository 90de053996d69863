package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/storage"
	"github.com/isdelr/blog-api/internal/validation"
	"github.com/rs/zerolog/log"
)

const (
	MsgTagInvalid   = "tag_name and post_id are required"
	MsgTagForbidden = "You can only tag your own posts"
)

// TagPostInput is the body of POST /tag-post.
type TagPostInput struct {
	TagName     string `json:"tag_name"`
	PostID      int64  `json:"post_id"`
	Description string `json:"description"`
}

func (in TagPostInput) form() validation.Form {
	form := validation.Form{"tag_name": in.TagName, "description": in.Description}
	// Zero counts as missing. Any other id is looked up and may be not found.
	if in.PostID != 0 {
		form["post_id"] = strconv.FormatInt(in.PostID, 10)
	}
	return form
}

// TagResult describes the outcome of tagging a post.
type TagResult struct {
	Post models.Post
	Tag  models.Tag
	// Created is false when the post already carried the tag.
	Created bool
}

// TagServiceProvider defines the interface for tag services.
type TagServiceProvider interface {
	TagPost(ctx context.Context, userID int64, in TagPostInput) (TagResult, error)
}

// TagService attaches tags to posts.
type TagService struct {
	store  storage.Store
	posts  *PostService
	events EventServiceProvider
}

// NewTagService creates a new TagService.
func NewTagService(store storage.Store, events EventServiceProvider) *TagService {
	return &TagService{store: store, posts: NewPostService(store, events), events: events}
}

// TagPost links the tag named in.TagName to a post owned by userID, creating
// the tag on first use. Tagging twice is not an error.
func (s *TagService) TagPost(ctx context.Context, userID int64, in TagPostInput) (TagResult, error) {
	if errs := validation.TagPost.Validate(in.form()); errs != nil {
		return TagResult{}, invalid(MsgTagInvalid, errs)
	}

	post, err := s.posts.fetch(ctx, in.PostID)
	if err != nil {
		return TagResult{}, err
	}
	if post.UserID != userID {
		return TagResult{}, newError(KindForbidden, MsgTagForbidden)
	}

	tag := models.Tag{Name: in.TagName, Description: in.Description}
	linked, err := s.store.TagPost(ctx, post.ID, &tag)
	if err != nil {
		return TagResult{}, fmt.Errorf("failed to tag post %d: %w", post.ID, err)
	}

	if linked {
		s.events.CreateEvent(ctx, "post.tag", "info", fmt.Sprintf("Post %d tagged %q", post.ID, tag.Name), &userID)
		log.Info().Int64("post_id", post.ID).Str("tag", tag.Name).Msg("Post tagged")
	}
	return TagResult{Post: post, Tag: tag, Created: linked}, nil
}
