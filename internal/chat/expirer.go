// Package chat implements read-triggered message expiry and the chat
// service used by the HTTP and realtime layers.
package chat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/log"
)

// DefaultDelay is how long a message survives after it was first read.
const DefaultDelay = 5 * time.Minute

// Store is the persistence the expirer needs.
type Store interface {
	MarkMessageRead(ctx context.Context, id, viewer string, readAt, expiresAt time.Time) (bool, error)
	DeleteMessage(ctx context.Context, id string) error
}

// Scheduler runs a deletion after a delay.
type Scheduler interface {
	Schedule(ctx context.Context, id string, at time.Time) error
	Close() error
}

// Expirer moves messages through unread -> read -> deleted.
type Expirer struct {
	store Store
	sched Scheduler
	delay time.Duration
	now   func() time.Time
}

func NewExpirer(store Store, sched Scheduler, delay time.Duration) *Expirer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Expirer{store: store, sched: sched, delay: delay, now: time.Now}
}

// Display records that viewer has been shown m. The first display by someone
// other than the sender marks it read and schedules its deletion; it reports
// whether that happened.
func (e *Expirer) Display(ctx context.Context, m *domain.ChatMessage, viewer string) (bool, error) {
	if !m.NeedsRead(viewer) {
		return false, nil
	}
	readAt := e.now()
	expiresAt := readAt.Add(e.delay)
	id := m.ID.Hex()

	marked, err := e.store.MarkMessageRead(ctx, id, viewer, readAt, expiresAt)
	if err != nil || !marked {
		return false, err
	}
	m.ReadBy = append(m.ReadBy, viewer)
	m.ReadAt, m.ExpiresAt = &readAt, &expiresAt

	if err := e.sched.Schedule(ctx, id, expiresAt); err != nil {
		// the TTL index on expiresAt still removes it
		log.Ctx(ctx).Warn("expiry not scheduled", zap.String("message", id), zap.Error(err))
	}
	return true, nil
}
