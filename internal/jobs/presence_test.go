package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubPresenceStore struct {
	heartbeatIDs []int64
	heartbeatAt  time.Time
	cutoff       time.Time
	heartbeatErr error
	stale        int64
	staleCalled  bool
}

func (s *stubPresenceStore) Heartbeat(_ context.Context, userIDs []int64, now time.Time) error {
	s.heartbeatIDs = userIDs
	s.heartbeatAt = now
	return s.heartbeatErr
}

func (s *stubPresenceStore) MarkStaleOffline(_ context.Context, cutoff time.Time) (int64, error) {
	s.staleCalled = true
	s.cutoff = cutoff
	return s.stale, nil
}

type staticSource []int64

func (s staticSource) OnlineUsers() []int64 { return s }

func TestPresenceReconcilerHeartbeatsAndExpires(t *testing.T) {
	store := &stubPresenceStore{stale: 2}
	reconciler := NewPresenceReconciler(store, staticSource{4, 9}, 2*time.Minute, zap.NewNop())
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	reconciler.now = func() time.Time { return fixed }

	if err := reconciler.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if len(store.heartbeatIDs) != 2 || store.heartbeatIDs[0] != 4 || store.heartbeatIDs[1] != 9 {
		t.Fatalf("unexpected heartbeat users %v", store.heartbeatIDs)
	}
	if !store.heartbeatAt.Equal(fixed) {
		t.Fatalf("heartbeat at %v, want %v", store.heartbeatAt, fixed)
	}
	if want := fixed.Add(-2 * time.Minute); !store.cutoff.Equal(want) {
		t.Fatalf("cutoff %v, want %v", store.cutoff, want)
	}
}

func TestPresenceReconcilerStopsOnHeartbeatFailure(t *testing.T) {
	store := &stubPresenceStore{heartbeatErr: errors.New("connection refused")}
	reconciler := NewPresenceReconciler(store, staticSource{1}, time.Minute, zap.NewNop())

	if err := reconciler.Reconcile(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if store.staleCalled {
		t.Fatal("stale sweep must not run after a failed heartbeat")
	}
}

func TestSchedulerRejectsBadJobs(t *testing.T) {
	s, err := NewScheduler(zap.NewNop())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	defer func() { _ = s.Shutdown() }()

	noop := func(context.Context) error { return nil }
	if err := s.Every(context.Background(), "", time.Second, noop); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := s.Every(context.Background(), "tick", 0, noop); err == nil {
		t.Fatal("expected error for zero interval")
	}
	if err := s.Every(context.Background(), "tick", time.Second, noop); err != nil {
		t.Fatalf("Every: %v", err)
	}
}

func TestSchedulerRunsJob(t *testing.T) {
	s, err := NewScheduler(zap.NewNop())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	defer func() { _ = s.Shutdown() }()

	ran := make(chan struct{}, 1)
	err = s.Every(context.Background(), "tick", 20*time.Millisecond, func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Every: %v", err)
	}
	s.Start()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}
