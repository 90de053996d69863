// Package monitoring runs background maintenance on a cron schedule.
package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/blog-api/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler prunes the activity log whenever its cron schedule comes due.
type Scheduler struct {
	events    services.EventServiceProvider
	schedule  cron.Schedule
	retention time.Duration
	now       func() time.Time
	nextRun   time.Time
	ticker    *time.Ticker
	done      chan struct{}
}

// NewScheduler creates a scheduler that removes events older than retention
// on the standard cron expression expr (descriptors such as "@daily" work).
func NewScheduler(events services.EventServiceProvider, expr string, retention time.Duration) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", expr, err)
	}
	s := &Scheduler{
		events:    events,
		schedule:  schedule,
		retention: retention,
		now:       time.Now,
		done:      make(chan struct{}),
	}
	s.nextRun = schedule.Next(s.now())
	return s, nil
}

// NextRun reports when the next prune is due.
func (s *Scheduler) NextRun() time.Time { return s.nextRun }

// Run starts the scheduler's ticking loop. It returns after Stop.
func (s *Scheduler) Run() {
	log.Info().Time("next_run", s.nextRun).Dur("retention", s.retention).Msg("Starting background scheduler")
	s.ticker = time.NewTicker(1 * time.Minute)
	defer s.ticker.Stop()

	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping background scheduler")
			return
		case <-s.ticker.C:
			s.checkAndRun(context.Background())
		}
	}
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	close(s.done)
}

// checkAndRun prunes once the due time has passed and schedules the next run.
func (s *Scheduler) checkAndRun(ctx context.Context) {
	now := s.now()
	if now.Before(s.nextRun) {
		return
	}
	s.nextRun = s.schedule.Next(now)

	n, err := s.events.PruneEvents(ctx, s.retention)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: failed to prune activity log")
		return
	}
	log.Info().Int64("deleted", n).Time("next_run", s.nextRun).Msg("Scheduler: pruned activity log")
}
