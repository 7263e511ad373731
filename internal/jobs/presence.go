package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const PresenceJobName = "presence-reconcile"

type PresenceStore interface {
	Heartbeat(ctx context.Context, userIDs []int64, now time.Time) error
	MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error)
}

// OnlineSource reports the users connected to this instance.
type OnlineSource interface {
	OnlineUsers() []int64
}

// PresenceReconciler repairs stored presence after failed writes or a
// crashed instance: locally connected users are re-asserted online and
// anyone not heard from within staleAfter is flipped offline.
type PresenceReconciler struct {
	store      PresenceStore
	source     OnlineSource
	staleAfter time.Duration
	log        *zap.Logger
	now        func() time.Time
}

func NewPresenceReconciler(store PresenceStore, source OnlineSource, staleAfter time.Duration, log *zap.Logger) *PresenceReconciler {
	return &PresenceReconciler{
		store:      store,
		source:     source,
		staleAfter: staleAfter,
		log:        log.Named("jobs.presence"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *PresenceReconciler) Reconcile(ctx context.Context) error {
	now := r.now()

	online := r.source.OnlineUsers()
	if err := r.store.Heartbeat(ctx, online, now); err != nil {
		return fmt.Errorf("heartbeat %d users: %w", len(online), err)
	}

	stale, err := r.store.MarkStaleOffline(ctx, now.Add(-r.staleAfter))
	if err != nil {
		return fmt.Errorf("mark stale offline: %w", err)
	}
	if stale > 0 {
		r.log.Info("marked stale users offline", zap.Int64("count", stale))
	}
	return nil
}

// Register schedules the reconciler on s.
func (r *PresenceReconciler) Register(ctx context.Context, s *Scheduler, interval time.Duration) error {
	return s.Every(ctx, PresenceJobName, interval, r.Reconcile)
}
