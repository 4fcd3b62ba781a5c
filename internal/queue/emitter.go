package queue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/actorset"
	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/log"
)

type ctxKey struct{}

// WithRequestID carries the request id into published events.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Emitter turns domain happenings into events on one exchange. Publishing
// is fire-and-forget: failures are logged, never returned to the caller.
type Emitter struct {
	Pub      Publisher
	Exchange string
}

func (e *Emitter) emit(ctx context.Context, key string, ev any) {
	if e == nil || e.Pub == nil {
		return
	}
	if err := e.Pub.Publish(ctx, e.Exchange, key, ev, requestID(ctx)); err != nil {
		log.Ctx(ctx).Warn("publish failed", zap.String("key", key), zap.Error(err))
	}
}

// Toggled is an actorset.WithOnSuccess hook.
func (e *Emitter) Toggled(ctx context.Context, ev actorset.Event) {
	e.emit(ctx, KeyRecordToggled, RecordToggled{
		Collection: ev.Collection,
		RecordID:   ev.RecordID,
		OwnerID:    ev.OwnerID,
		Actor:      ev.Actor,
		Action:     ev.Action,
		Added:      ev.Change == actorset.Added,
		At:         time.Now().UTC(),
	})
}

func (e *Emitter) Registered(ctx context.Context, u *domain.User) {
	e.emit(ctx, KeyUserRegistered, UserRegistered{
		UserID: u.ID.Hex(), Email: u.Email, Name: u.DisplayName, ReferredBy: u.ReferredBy,
	})
}

func (e *Emitter) ConnectionRequested(ctx context.Context, c *domain.Connection) {
	e.emit(ctx, KeyConnectionRequested, ConnectionRequested{
		ConnectionID: c.ID.Hex(), From: c.From, FromName: c.FromName, To: c.To,
	})
}

func (e *Emitter) ConnectionAnswered(ctx context.Context, c *domain.Connection) {
	e.emit(ctx, KeyConnectionAnswered, ConnectionAnswered{
		ConnectionID: c.ID.Hex(), From: c.From, To: c.To, ToName: c.ToName, Status: c.Status,
	})
}

// MessageSent is a chat.NewService hook.
func (e *Emitter) MessageSent(ctx context.Context, m *domain.ChatMessage) {
	e.emit(ctx, KeyMessageSent, MessageSent{
		MessageID: m.ID.Hex(), ChatID: m.ChatID, ClubID: m.ClubID, From: m.From, To: m.To,
	})
}
