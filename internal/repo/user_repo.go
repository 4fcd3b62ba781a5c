package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tazhibayda/townboat/internal/domain"
)

func (s *Store) CreateUser(ctx context.Context, u *domain.User) (err error) {
	ctx, finish := span(ctx, domain.ColUsers, "insert")
	defer func() { finish(err) }()

	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = time.Now().UTC()
	if u.Role == "" {
		u.Role = domain.RoleMember
	}
	if u.Connections == nil {
		u.Connections = []string{}
	}
	res, err := s.col(domain.ColUsers).InsertOne(ctx, u)
	if IsDup(err) {
		return domain.ErrDuplicateAccount
	}
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	if u.ReferredBy != "" {
		// affiliate counter; a missing referrer is not an error for sign-up
		_, _ = s.col(domain.ColUsers).UpdateOne(ctx, bson.M{"_id": objectID(u.ReferredBy)}, bson.M{"$inc": bson.M{"referrals": 1}})
	}
	s.changed(ctx, domain.ColUsers)
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := s.col(domain.ColUsers).FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := s.GetInto(ctx, domain.ColUsers, id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertGoogleUser finds the account for a Google subject, linking by email
// when a local account already exists.
func (s *Store) UpsertGoogleUser(ctx context.Context, sub, email, name string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u domain.User
	err := s.col(domain.ColUsers).FindOneAndUpdate(ctx,
		bson.M{"$or": bson.A{bson.M{"externalId": sub, "provider": "google"}, bson.M{"email": email}}},
		bson.M{
			"$set": bson.M{"externalId": sub},
			"$setOnInsert": bson.M{
				"email": email, "displayName": name, "provider": "google",
				"role": domain.RoleMember, "connections": bson.A{}, "createdAt": time.Now().UTC(),
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, fmt.Errorf("upsert google user: %w", err)
	}
	s.changed(ctx, domain.ColUsers)
	return &u, nil
}

// Leaderboard returns users ordered by affiliate referrals.
func (s *Store) Leaderboard(ctx context.Context, limit int64) ([]domain.Record, error) {
	return s.Find(ctx, Query{
		Collection: domain.ColUsers,
		Ranges:     []Range{{Field: "referrals", Op: "gt", Value: 0}},
		OrderBy:    "referrals",
		Desc:       true,
		Limit:      limit,
	})
}
