package handlers

import (
	"net/http"

	"github.com/isdelr/blog-api/internal/api/response"
	"github.com/isdelr/blog-api/internal/services"
)

// CommentHandler handles HTTP requests for post comments.
type CommentHandler struct {
	service services.CommentServiceProvider
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(service services.CommentServiceProvider) *CommentHandler {
	return &CommentHandler{service: service}
}

// GetAll lists the comments on a post.
func (h *CommentHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r)
	if !ok {
		return
	}
	comments, err := h.service.ListComments(r.Context(), postID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Envelope{"status": response.StatusSuccess, "comments": comments})
}

// Create adds a comment by the authenticated user.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload services.CommentInput
	if err := decode(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	comment, err := h.service.CreateComment(r.Context(), userID, postID, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.Envelope{
		"status":  response.StatusSuccess,
		"message": "Comment added successfully",
		"comment": comment,
	})
}
