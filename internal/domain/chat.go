package domain

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatMessage lives in a direct thread (ChatID = ChatID(a, b)) or a club chat (ClubID set).
type ChatMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID    string             `bson:"chatId"        json:"chatId"`
	ClubID    string             `bson:"clubId,omitempty" json:"clubId,omitempty"`
	From      string             `bson:"from"          json:"from"`
	To        string             `bson:"to,omitempty"  json:"to,omitempty"`
	Text      string             `bson:"text"          json:"text" validate:"required,max=2000"`
	ReadBy    []string           `bson:"readBy"        json:"readBy"`
	ReadAt    *time.Time         `bson:"readAt,omitempty"    json:"readAt,omitempty"`
	ExpiresAt *time.Time         `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"     json:"createdAt"`
}

// NeedsRead reports whether displaying the message to viewer starts its
// expiry. Only direct messages expire on read; club chat messages stay until
// their author leaves the chat.
func (m *ChatMessage) NeedsRead(viewer string) bool {
	return viewer != "" && m.ClubID == "" && m.From != viewer && !slices.Contains(m.ReadBy, viewer)
}
