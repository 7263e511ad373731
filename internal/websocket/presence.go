package chatws

import (
	"context"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

const (
	presenceWriteAttempts = 3
	presenceWriteDelay    = 100 * time.Millisecond
)

type PresenceStore interface {
	SetStatus(ctx context.Context, userID int64, online bool, lastSeen time.Time) error
}

// PresenceTracker owns the in-memory online/offline state of each user and
// writes every transition through to storage. A write that still fails
// after retrying is logged and the in-memory transition stands; the
// presence reconciler job converges storage later.
//
// Transitions for one user run one at a time, each writing and announcing
// before the next may start.
type PresenceTracker struct {
	store    PresenceStore
	log      *zap.Logger
	attempts uint
	delay    time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	online   map[int64]bool
	lastSeen map[int64]time.Time

	locksMu sync.Mutex
	locks   map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewPresenceTracker(store PresenceStore, log *zap.Logger) *PresenceTracker {
	return &PresenceTracker{
		store:    store,
		log:      log.Named("presence"),
		attempts: presenceWriteAttempts,
		delay:    presenceWriteDelay,
		now:      func() time.Time { return time.Now().UTC() },
		online:   make(map[int64]bool),
		lastSeen: make(map[int64]time.Time),
		locks:    make(map[int64]*userLock),
	}
}

func (p *PresenceTracker) IsOnline(userID int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.online[userID]
}

func (p *PresenceTracker) LastSeen(userID int64) (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	at, ok := p.lastSeen[userID]
	return at, ok
}

// Settle brings the user's presence in line with connected, which is read
// only once any earlier transition for the user has finished. A change is
// written through and passed to announce while the user is still locked,
// so a slow write can never land after a newer state. It reports whether
// the state changed.
func (p *PresenceTracker) Settle(
	ctx context.Context,
	userID int64,
	connected func() bool,
	announce func(online bool, at time.Time),
) bool {
	unlock := p.lockUser(userID)
	defer unlock()

	online := connected()
	p.mu.Lock()
	if p.online[userID] == online {
		p.mu.Unlock()
		return false
	}
	at := p.now()
	if online {
		p.online[userID] = true
	} else {
		delete(p.online, userID)
	}
	p.lastSeen[userID] = at
	p.mu.Unlock()

	p.write(ctx, userID, online, at)
	if announce != nil {
		announce(online, at)
	}
	return true
}

func (p *PresenceTracker) lockUser(userID int64) func() {
	p.locksMu.Lock()
	lock, ok := p.locks[userID]
	if !ok {
		lock = &userLock{}
		p.locks[userID] = lock
	}
	lock.refs++
	p.locksMu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		p.locksMu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(p.locks, userID)
		}
		p.locksMu.Unlock()
	}
}

func (p *PresenceTracker) write(ctx context.Context, userID int64, online bool, at time.Time) {
	err := retry.Do(
		func() error {
			return p.store.SetStatus(ctx, userID, online, at)
		},
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.log.Debug("retrying presence write",
				zap.Int64("user_id", userID),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		p.log.Warn("presence write failed, storage will be reconciled",
			zap.Int64("user_id", userID),
			zap.Bool("online", online),
			zap.Error(err),
		)
	}
}
