package handlers

import (
	"net/http"

	"github.com/isdelr/blog-api/internal/api/response"
	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/services"
)

// postDetail is the single-post view. Its tags key is present even when the
// post has none.
type postDetail struct {
	models.Post
	Tags []models.Tag `json:"tags"`
}

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service services.PostServiceProvider
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service services.PostServiceProvider) *PostHandler {
	return &PostHandler{service: service}
}

// GetAll lists every post.
func (h *PostHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Envelope{"status": response.StatusSuccess, "posts": posts})
}

// Get returns a single post with its tags.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail := postDetail{Post: post, Tags: post.Tags}
	if detail.Tags == nil {
		detail.Tags = []models.Tag{}
	}
	response.JSON(w, http.StatusOK, response.Envelope{"status": response.StatusSuccess, "post": detail})
}

// Create adds a post owned by the authenticated user.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var payload services.PostInput
	if err := decode(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	post, err := h.service.CreatePost(r.Context(), userID, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.Envelope{
		"status":  response.StatusSuccess,
		"message": "Your post has been added successfully",
		"post":    post,
	})
}

// Update edits a post owned by the authenticated user.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload services.PostInput
	if err := decode(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	post, err := h.service.UpdatePost(r.Context(), userID, id, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Envelope{
		"status":  response.StatusSuccess,
		"message": "Your post has been updated successfully",
		"post":    post,
	})
}

// Delete removes a post owned by the authenticated user.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePost(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Envelope{
		"status":  response.StatusSuccess,
		"message": "Your post has been deleted successfully",
	})
}
