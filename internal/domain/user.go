package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"  json:"id"`
	Email        string             `bson:"email"          json:"email"`
	PasswordHash string             `bson:"passwordHash"   json:"-"`
	DisplayName  string             `bson:"displayName"    json:"displayName"`
	Hometown     string             `bson:"hometown"       json:"hometown"`
	Role         string             `bson:"role"           json:"role"`
	Provider     string             `bson:"provider"       json:"provider"`   // "local" | "google"
	ExternalID   string             `bson:"externalId"     json:"externalId"` // Google sub
	Connections  []string           `bson:"connections"    json:"connections"`
	ReferredBy   string             `bson:"referredBy,omitempty" json:"referredBy,omitempty"`
	Referrals    int                `bson:"referrals"      json:"referrals"`
	CreatedAt    time.Time          `bson:"createdAt"      json:"createdAt"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
