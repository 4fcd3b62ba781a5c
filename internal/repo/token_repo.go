package repo

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RefreshToken struct {
	ID        interface{}        `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	TokenHash string             `bson:"token_hash"` // sha256(base64url(refresh))
	ExpiresAt time.Time          `bson:"expires_at"`
	Revoked   bool               `bson:"revoked"`
	// Family groups tokens minted from one sign-in; reuse of a rotated token revokes it.
	Family    string             `bson:"family"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (s *Store) EnsureRefreshIndexes(ctx context.Context) error {
	coll := s.DB.Collection("refresh_tokens")

	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}); err != nil {
		return err
	}

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token_hash", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func (s *Store) SaveRefresh(ctx context.Context, userID primitive.ObjectID, family, plain string, ttl time.Duration) error {
	rt := RefreshToken{
		UserID:    userID,
		Family:    family,
		TokenHash: hashToken(plain),
		ExpiresAt: time.Now().Add(ttl).UTC(),
		Revoked:   false,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.DB.Collection("refresh_tokens").InsertOne(ctx, rt)
	return err
}

// RotateRefresh revokes plain and reports its record. A token that was
// already revoked signals reuse: the whole family is revoked and nil returned.
func (s *Store) RotateRefresh(ctx context.Context, plain string) (*RefreshToken, error) {
	var rt RefreshToken
	err := s.DB.Collection("refresh_tokens").FindOneAndUpdate(ctx,
		bson.M{"token_hash": hashToken(plain), "expires_at": bson.M{"$gt": time.Now().UTC()}},
		bson.M{"$set": bson.M{"revoked": true}},
	).Decode(&rt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if rt.Revoked {
		_, err := s.DB.Collection("refresh_tokens").
			UpdateMany(ctx, bson.M{"family": rt.Family}, bson.M{"$set": bson.M{"revoked": true}})
		return nil, err
	}
	return &rt, nil
}

func (s *Store) FindValidRefresh(ctx context.Context, plain string) (*RefreshToken, error) {
	var rt RefreshToken
	err := s.DB.Collection("refresh_tokens").
		FindOne(ctx, bson.M{
			"token_hash": hashToken(plain),
			"revoked":    false,
			"expires_at": bson.M{"$gt": time.Now().UTC()},
		}).Decode(&rt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// RevokeAllForUser signs the user out everywhere.
func (s *Store) RevokeAllForUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.DB.Collection("refresh_tokens").
		UpdateMany(ctx, bson.M{"user_id": userID, "revoked": false}, bson.M{"$set": bson.M{"revoked": true}})
	return err
}

func (s *Store) RevokeRefresh(ctx context.Context, plain string) error {
	_, err := s.DB.Collection("refresh_tokens").
		UpdateOne(ctx, bson.M{"token_hash": hashToken(plain)}, bson.M{"$set": bson.M{"revoked": true}})
	return err
}
