package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Club struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     string             `bson:"ownerId"       json:"ownerId"`
	Name        string             `bson:"name"          json:"name"        validate:"required,max=80"`
	Description string             `bson:"description"   json:"description" validate:"max=2000"`
	Town        string             `bson:"town"          json:"town"        validate:"required"`
	Members     []string           `bson:"members"       json:"members"`
	MemberCount int                `bson:"memberCount"   json:"memberCount"`
	CreatedAt   time.Time          `bson:"createdAt"     json:"createdAt"`
}
