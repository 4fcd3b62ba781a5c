package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId"        json:"userId"`
	Kind      string             `bson:"kind"          json:"kind"`
	Message   string             `bson:"message"       json:"message"`
	RecordID  string             `bson:"recordId,omitempty" json:"recordId,omitempty"`
	Read      bool               `bson:"read"          json:"read"`
	CreatedAt time.Time          `bson:"createdAt"     json:"createdAt"`
}
