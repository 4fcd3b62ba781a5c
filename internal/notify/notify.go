// Package notify turns published events into per-user notification
// documents. It runs inside cmd/notifier.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/log"
	"github.com/tazhibayda/townboat/internal/queue"
)

type Store interface {
	AddNotification(ctx context.Context, n *domain.Notification) error
}

type Notifier struct{ store Store }

func New(store Store) *Notifier { return &Notifier{store: store} }

// Handle is a queue.Handler.
func (n *Notifier) Handle(ctx context.Context, d queue.Delivery) error {
	ctx = queue.WithRequestID(ctx, d.RequestID)
	notes, err := build(d)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", queue.ErrDrop, d.Key, err)
	}
	for _, note := range notes {
		if err := n.store.AddNotification(ctx, note); err != nil {
			return err
		}
	}
	if len(notes) > 0 {
		log.Ctx(ctx).Debug("notifications written", zap.String("key", d.Key), zap.Int("count", len(notes)))
	}
	return nil
}

func build(d queue.Delivery) ([]*domain.Notification, error) {
	switch d.Key {
	case queue.KeyRecordToggled:
		var ev queue.RecordToggled
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			return nil, err
		}
		// owners hear about new upvotes and likes on their own records only
		if !ev.Added || ev.OwnerID == "" || ev.OwnerID == ev.Actor || ev.Action == "join" {
			return nil, nil
		}
		return one(ev.OwnerID, ev.Action, fmt.Sprintf("Someone gave your %s a%s", singular(ev.Collection), article(ev.Action)), ev.RecordID), nil

	case queue.KeyConnectionRequested:
		var ev queue.ConnectionRequested
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			return nil, err
		}
		return one(ev.To, "connection", ev.FromName+" wants to connect", ev.ConnectionID), nil

	case queue.KeyConnectionAnswered:
		var ev queue.ConnectionAnswered
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			return nil, err
		}
		if ev.Status != domain.ConnAccepted {
			return nil, nil
		}
		return one(ev.From, "connection", ev.ToName+" accepted your request", ev.ConnectionID), nil

	case queue.KeyMessageSent:
		var ev queue.MessageSent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			return nil, err
		}
		if ev.To == "" {
			return nil, nil
		}
		return one(ev.To, "message", "You have a new message", ev.ChatID), nil

	case queue.KeyUserRegistered:
		var ev queue.UserRegistered
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			return nil, err
		}
		if ev.ReferredBy == "" {
			return nil, nil
		}
		return one(ev.ReferredBy, "referral", ev.Name+" joined with your invite", ev.UserID), nil
	}
	return nil, nil
}

func one(user, kind, msg, recordID string) []*domain.Notification {
	return []*domain.Notification{{UserID: user, Kind: kind, Message: msg, RecordID: recordID}}
}

func singular(collection string) string {
	switch collection {
	case domain.ColBusinesses:
		return "business"
	case domain.ColDeals:
		return "deal"
	case domain.ColPosts:
		return "post"
	case domain.ColComments:
		return "comment"
	}
	return "post"
}

func article(action string) string {
	if action == "upvote" {
		return "n upvote"
	}
	return " " + action
}
