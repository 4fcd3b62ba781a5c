package queue

import (
	"context"
	"time"
)

type Publisher interface {
	Publish(ctx context.Context, exchange, key string, event any, reqID string) error
	Close() error
}

type NoopPub struct{}

func NewNoop() Publisher { return NoopPub{} }

func (NoopPub) Publish(ctx context.Context, exchange, key string, event any, reqID string) error {
	return nil
}
func (NoopPub) Close() error { return nil }

// Routing keys on the townboat topic exchange.
const (
	KeyUserRegistered      = "user.registered"
	KeyRecordToggled       = "record.toggled"
	KeyConnectionRequested = "connection.requested"
	KeyConnectionAnswered  = "connection.answered"
	KeyMessageSent         = "chat.message"
)

type UserRegistered struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	ReferredBy string `json:"referred_by,omitempty"`
}

// RecordToggled is a settled actor-set change; Added is false for a removal.
type RecordToggled struct {
	Collection string    `json:"collection"`
	RecordID   string    `json:"record_id"`
	OwnerID    string    `json:"owner_id,omitempty"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	Added      bool      `json:"added"`
	At         time.Time `json:"at"`
}

type ConnectionRequested struct {
	ConnectionID string `json:"connection_id"`
	From         string `json:"from"`
	FromName     string `json:"from_name"`
	To           string `json:"to"`
}

type ConnectionAnswered struct {
	ConnectionID string `json:"connection_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	ToName       string `json:"to_name"`
	Status       string `json:"status"`
}

type MessageSent struct {
	MessageID string `json:"message_id"`
	ChatID    string `json:"chat_id"`
	ClubID    string `json:"club_id,omitempty"`
	From      string `json:"from"`
	To        string `json:"to,omitempty"`
}
