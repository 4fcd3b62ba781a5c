package chat

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/log"
	"github.com/tazhibayda/townboat/internal/metrics"
)

// Stopper is the part of *time.Timer the scheduler keeps.
type Stopper interface{ Stop() bool }

// TimerScheduler deletes in-process. Pending deletions are dropped by Close,
// leaving them to the TTL index.
type TimerScheduler struct {
	store Store
	now   func() time.Time
	after func(time.Duration, func()) Stopper

	mu      sync.Mutex
	closed  bool
	pending map[string]Stopper
}

func NewTimerScheduler(store Store) *TimerScheduler {
	return &TimerScheduler{
		store:   store,
		now:     time.Now,
		after:   func(d time.Duration, f func()) Stopper { return time.AfterFunc(d, f) },
		pending: map[string]Stopper{},
	}
}

func (t *TimerScheduler) Schedule(_ context.Context, id string, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	if _, ok := t.pending[id]; ok {
		return nil
	}
	t.pending[id] = t.after(at.Sub(t.now()), func() { t.fire(id) })
	return nil
}

func (t *TimerScheduler) fire(id string) {
	t.mu.Lock()
	_, ok := t.pending[id]
	delete(t.pending, id)
	t.mu.Unlock()
	if !ok {
		return
	}
	if err := t.store.DeleteMessage(context.Background(), id); err != nil {
		log.L().Warn("expired message not deleted", zap.String("message", id), zap.Error(err))
		return
	}
	metrics.MessagesExpired.Inc()
}

// Pending is the number of deletions still waiting.
func (t *TimerScheduler) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *TimerScheduler) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for id, s := range t.pending {
		s.Stop()
		delete(t.pending, id)
	}
	return nil
}
