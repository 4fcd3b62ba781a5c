package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tazhibayda/townboat/internal/domain"
)

func (s *Store) AddMessage(ctx context.Context, m *domain.ChatMessage) (err error) {
	ctx, finish := span(ctx, domain.ColChatMessages, "insert")
	defer func() { finish(err) }()

	m.CreatedAt = time.Now().UTC()
	if m.ReadBy == nil {
		m.ReadBy = []string{}
	}
	res, err := s.col(domain.ColChatMessages).InsertOne(ctx, m)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = oid
	}
	s.changed(ctx, domain.ColChatMessages)
	return nil
}

func (s *Store) GetMessage(ctx context.Context, id string) (*domain.ChatMessage, error) {
	var m domain.ChatMessage
	if err := s.GetInto(ctx, domain.ColChatMessages, id, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListMessages(ctx context.Context, chatID string, limit int64) ([]domain.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	cur, err := s.col(domain.ColChatMessages).Find(ctx,
		bson.M{"chatId": chatID},
		options.Find().SetLimit(limit).SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []domain.ChatMessage{}
	for cur.Next(ctx) {
		var m domain.ChatMessage
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, cur.Err()
}

// MarkMessageRead adds viewer to readBy and stamps the expiry. It reports
// false when the message was already read by viewer, so expiry starts once.
func (s *Store) MarkMessageRead(ctx context.Context, id, viewer string, readAt, expiresAt time.Time) (_ bool, err error) {
	ctx, finish := span(ctx, domain.ColChatMessages, "mark_read")
	defer func() { finish(err) }()

	res, err := s.col(domain.ColChatMessages).UpdateOne(ctx,
		bson.M{"_id": objectID(id), "readBy": bson.M{"$ne": viewer}},
		bson.M{
			"$addToSet": bson.M{"readBy": viewer},
			"$set":      bson.M{"readAt": readAt.UTC(), "expiresAt": expiresAt.UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	if res.ModifiedCount > 0 {
		s.changed(ctx, domain.ColChatMessages)
	}
	return res.ModifiedCount > 0, nil
}

func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	err := s.DeleteRecord(ctx, domain.ColChatMessages, id)
	if errors.Is(err, domain.ErrNotFound) {
		// the TTL monitor may have removed it first
		return nil
	}
	return err
}

// PurgeClubMessages removes what author wrote in a club chat.
func (s *Store) PurgeClubMessages(ctx context.Context, clubID, author string) (_ int64, err error) {
	ctx, finish := span(ctx, domain.ColChatMessages, "purge")
	defer func() { finish(err) }()

	res, err := s.col(domain.ColChatMessages).DeleteMany(ctx, bson.M{"clubId": clubID, "from": author})
	if err != nil {
		return 0, fmt.Errorf("purge club %s: %w", clubID, err)
	}
	if res.DeletedCount > 0 {
		s.changed(ctx, domain.ColChatMessages)
	}
	return res.DeletedCount, nil
}
