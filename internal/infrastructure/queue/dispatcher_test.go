package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/inventory-system/backoffice-api/internal/core/domain"
)

type recordingRepo struct {
	mu     sync.Mutex
	events []domain.AuthEvent
	err    error
}

func (r *recordingRepo) InsertEvent(_ context.Context, event *domain.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return r.err
}

func (r *recordingRepo) snapshot() []domain.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuthEvent(nil), r.events...)
}

func TestDispatcher_FlushesOnStopAndKeepsPerSubjectOrder(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(4, repo, zerolog.Nop())
	d.Start(context.Background())

	const perUser = 50
	for i := 0; i < perUser; i++ {
		for _, user := range []string{"user-a", "user-b", "user-c"} {
			d.Record(domain.AuthEvent{Type: domain.EventLoginSucceeded, UserID: user, Email: fmt.Sprint(i)})
		}
	}
	d.Stop()

	events := repo.snapshot()
	require.Len(t, events, 3*perUser)

	next := map[string]int{}
	for _, e := range events {
		require.Equal(t, fmt.Sprint(next[e.UserID]), e.Email, "events for %s out of order", e.UserID)
		next[e.UserID]++
	}
}

func TestDispatcher_DropsWhenSaturated(t *testing.T) {
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "dropped_total"})
	depth := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "depth"}, []string{"worker_id"})

	// Not started: nothing drains the single slot.
	d := NewDispatcher(1, &recordingRepo{}, zerolog.Nop(),
		WithBuffer(1), WithDropCounter(dropped), WithQueueDepth(depth))

	d.Record(domain.AuthEvent{Type: domain.EventLoginFailed, Email: "a@example.com"})
	d.Record(domain.AuthEvent{Type: domain.EventLoginFailed, Email: "a@example.com"})
	d.Record(domain.AuthEvent{Type: domain.EventLoginFailed, Email: "a@example.com"})

	require.Equal(t, 2.0, testutil.ToFloat64(dropped))
	require.Equal(t, 1.0, testutil.ToFloat64(depth.WithLabelValues("0")))
}

func TestDispatcher_RecordAfterStopIsDropped(t *testing.T) {
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "dropped_total"})
	repo := &recordingRepo{}
	d := NewDispatcher(2, repo, zerolog.Nop(), WithDropCounter(dropped))
	d.Start(context.Background())
	d.Stop()
	d.Stop()

	d.Record(domain.AuthEvent{Type: domain.EventLogout, UserID: "user-1"})

	require.Equal(t, 1.0, testutil.ToFloat64(dropped))
	require.Empty(t, repo.snapshot())
}

func TestDispatcher_WriteFailureDoesNotStopWorker(t *testing.T) {
	repo := &recordingRepo{err: errors.New("insert failed")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start(context.Background())

	d.Record(domain.AuthEvent{Type: domain.EventRegistered, UserID: "user-1"})
	d.Record(domain.AuthEvent{Type: domain.EventLogout, UserID: "user-1"})
	d.Stop()

	require.Len(t, repo.snapshot(), 2)
}

func TestShardIndex_IsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingRepo{}, zerolog.Nop())
	first := d.shardIndex("user-42")
	for i := 0; i < 10; i++ {
		require.Equal(t, first, d.shardIndex("user-42"))
	}
	require.GreaterOrEqual(t, first, 0)
	require.Less(t, first, 8)
}
