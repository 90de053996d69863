package handlers

import (
	"fmt"
	"net/http"

	"github.com/isdelr/blog-api/internal/api/response"
	"github.com/isdelr/blog-api/internal/services"
)

// TagHandler handles HTTP requests for tagging posts.
type TagHandler struct {
	service services.TagServiceProvider
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(service services.TagServiceProvider) *TagHandler {
	return &TagHandler{service: service}
}

// TagPost attaches a tag to one of the authenticated user's posts. Repeating
// the request answers with an info envelope instead of an error.
func (h *TagHandler) TagPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var payload services.TagPostInput
	if err := decode(r, &payload); err != nil {
		if fields := typeErrors(err); fields != nil {
			response.Fail(w, http.StatusBadRequest, services.MsgTagInvalid, fields)
			return
		}
		response.Error(w, http.StatusBadRequest, services.MsgTagInvalid)
		return
	}

	result, err := h.service.TagPost(r.Context(), userID, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !result.Created {
		response.JSON(w, http.StatusOK, response.Envelope{
			"status":  response.StatusInfo,
			"message": fmt.Sprintf("Post %d already has tag \"%s\"", result.Post.ID, result.Tag.Name),
		})
		return
	}
	response.JSON(w, http.StatusOK, response.Envelope{
		"status":     response.StatusSuccess,
		"message":    fmt.Sprintf("Post %d tagged with \"%s\" successfully", result.Post.ID, result.Tag.Name),
		"post_id":    result.Post.ID,
		"post_title": result.Post.Title,
		"tag":        result.Tag,
	})
}
