package services

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/storage"
	"github.com/rs/zerolog/log"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, userID *int64)
	GetRecentEvents(ctx context.Context, userID int64, limit int) ([]models.Event, error)
	PruneEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// EventService records the activity log.
type EventService struct {
	store storage.Store
}

// NewEventService creates a new EventService.
func NewEventService(store storage.Store) *EventService {
	return &EventService{store: store}
}

// CreateEvent logs a new event to the database. Failures are logged, not
// returned: the activity log never fails the action it describes.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, userID *int64) {
	event := models.Event{
		Type:      eventType,
		Level:     level,
		Message:   message,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateEvent(ctx, &event); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}

// GetRecentEvents retrieves a user's most recent events, newest first.
func (s *EventService) GetRecentEvents(ctx context.Context, userID int64, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.store.ListEventsByUser(ctx, userID, limit)
}

// PruneEvents deletes events older than olderThan.
func (s *EventService) PruneEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	n, err := s.store.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	return n, nil
}
