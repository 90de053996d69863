package handlers

import (
	"context"
	"net/http"

	"github.com/isdelr/blog-api/internal/api/response"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Check pings the store.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		response.JSON(w, http.StatusServiceUnavailable, response.Envelope{"status": "unavailable"})
		return
	}
	response.JSON(w, http.StatusOK, response.Envelope{"status": "ok"})
}
