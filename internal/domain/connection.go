package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ConnPending  = "pending"
	ConnAccepted = "accepted"
	ConnDeclined = "declined"
)

type Connection struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	From      string             `bson:"from"          json:"from"`
	FromName  string             `bson:"fromName"      json:"fromName"`
	To        string             `bson:"to"            json:"to" validate:"required"`
	ToName    string             `bson:"toName"        json:"toName"`
	Status    string             `bson:"status"        json:"status"`
	CreatedAt time.Time          `bson:"createdAt"     json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"     json:"updatedAt"`
}

// Respond returns the status after actor accepts or declines the request.
// Only the recipient of a pending request may respond.
func (c *Connection) Respond(actor, action string) (string, error) {
	if actor == "" {
		return "", ErrUnauthenticated
	}
	if actor != c.To {
		return "", ErrForbidden
	}
	if c.Status != ConnPending {
		return "", ErrInvalidTransition
	}
	switch action {
	case "accept":
		return ConnAccepted, nil
	case "decline":
		return ConnDeclined, nil
	default:
		return "", ErrUnknownAction
	}
}
