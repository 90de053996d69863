package monitoring

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/isdelr/blog-api/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

type fakeEvents struct {
	prunes   []time.Duration
	pruneErr error
}

func (f *fakeEvents) CreateEvent(context.Context, string, string, string, *int64) {}

func (f *fakeEvents) GetRecentEvents(context.Context, int64, int) ([]models.Event, error) {
	return nil, nil
}

func (f *fakeEvents) PruneEvents(_ context.Context, olderThan time.Duration) (int64, error) {
	f.prunes = append(f.prunes, olderThan)
	return 3, f.pruneErr
}

func TestSchedulerRunsWhenDue(t *testing.T) {
	events := &fakeEvents{}
	s, err := NewScheduler(events, "@hourly", 24*time.Hour)
	require.NoError(t, err)

	now := s.NextRun().Add(-time.Minute)
	s.now = func() time.Time { return now }

	s.checkAndRun(context.Background())
	assert.Empty(t, events.prunes, "not due yet")

	now = now.Add(2 * time.Minute)
	due := s.NextRun()
	s.checkAndRun(context.Background())
	require.Len(t, events.prunes, 1)
	assert.Equal(t, 24*time.Hour, events.prunes[0])
	assert.Equal(t, due.Add(time.Hour), s.NextRun())

	// Same tick again does nothing.
	s.checkAndRun(context.Background())
	assert.Len(t, events.prunes, 1)
}

func TestSchedulerSurvivesPruneErrors(t *testing.T) {
	events := &fakeEvents{pruneErr: errors.New("db down")}
	s, err := NewScheduler(events, "*/5 * * * *", time.Hour)
	require.NoError(t, err)

	now := s.NextRun()
	s.now = func() time.Time { return now }
	s.checkAndRun(context.Background())

	assert.Len(t, events.prunes, 1)
	assert.True(t, s.NextRun().After(now))
}

func TestSchedulerRejectsBadExpression(t *testing.T) {
	_, err := NewScheduler(&fakeEvents{}, "not a cron", time.Hour)
	assert.Error(t, err)
}

func TestSchedulerStop(t *testing.T) {
	s, err := NewScheduler(&fakeEvents{}, "@daily", time.Hour)
	require.NoError(t, err)

	stopped := make(chan struct{})
	go func() {
		s.Run()
		close(stopped)
	}()
	s.Stop()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
