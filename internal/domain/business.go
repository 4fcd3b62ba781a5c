package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Business struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     string             `bson:"ownerId"       json:"ownerId"`
	Name        string             `bson:"name"          json:"name"        validate:"required,max=120"`
	Description string             `bson:"description"   json:"description" validate:"max=2000"`
	Category    string             `bson:"category"      json:"category"    validate:"required,max=60"`
	Town        string             `bson:"town"          json:"town"        validate:"required,max=80"`
	Phone       string             `bson:"phone,omitempty"   json:"phone,omitempty"   validate:"omitempty,max=40"`
	Website     string             `bson:"website,omitempty" json:"website,omitempty" validate:"omitempty,url"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Status      string             `bson:"status"        json:"status"`
	UpvotedBy   []string           `bson:"upvotedBy"     json:"upvotedBy"`
	UpvoteCount int                `bson:"upvoteCount"   json:"upvoteCount"`
	CreatedAt   time.Time          `bson:"createdAt"     json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"     json:"updatedAt"`
}

type Deal struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID      string             `bson:"ownerId"       json:"ownerId"`
	BusinessID   string             `bson:"businessId"    json:"businessId"   validate:"required"`
	BusinessName string             `bson:"businessName"  json:"businessName"`
	Title        string             `bson:"title"         json:"title"        validate:"required,max=120"`
	Description  string             `bson:"description"   json:"description"  validate:"max=2000"`
	Town         string             `bson:"town"          json:"town"         validate:"required"`
	Category     string             `bson:"category"      json:"category"`
	ExpiresAt    *time.Time         `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	UpvotedBy    []string           `bson:"upvotedBy"     json:"upvotedBy"`
	UpvoteCount  int                `bson:"upvoteCount"   json:"upvoteCount"`
	CreatedAt    time.Time          `bson:"createdAt"     json:"createdAt"`
}
