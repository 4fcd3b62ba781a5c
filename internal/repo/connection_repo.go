package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tazhibayda/townboat/internal/domain"
)

func (s *Store) CreateConnection(ctx context.Context, c *domain.Connection) error {
	now := time.Now().UTC()
	c.Status = domain.ConnPending
	c.CreatedAt, c.UpdatedAt = now, now
	id, err := s.Insert(ctx, domain.ColConnections, c)
	if err != nil {
		return err
	}
	c.ID, _ = primitive.ObjectIDFromHex(id)
	return nil
}

func (s *Store) GetConnection(ctx context.Context, id string) (*domain.Connection, error) {
	var c domain.Connection
	if err := s.GetInto(ctx, domain.ColConnections, id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SetConnectionStatus moves a pending request to status. On accept both
// users get each other in their connections set.
func (s *Store) SetConnectionStatus(ctx context.Context, c *domain.Connection, status string) (err error) {
	if err := s.SetFields(ctx, domain.ColConnections, c.ID.Hex(),
		map[string]any{"status": status},
		map[string]any{"status": domain.ConnPending},
	); err != nil {
		return err
	}
	if status != domain.ConnAccepted {
		return nil
	}

	ctx, finish := span(ctx, domain.ColUsers, "connect")
	defer func() { finish(err) }()
	for _, pair := range [][2]string{{c.From, c.To}, {c.To, c.From}} {
		if _, err := s.col(domain.ColUsers).UpdateOne(ctx,
			bson.M{"_id": objectID(pair[0])},
			bson.M{"$addToSet": bson.M{"connections": pair[1]}},
		); err != nil {
			return fmt.Errorf("connect %s: %w", pair[0], err)
		}
	}
	s.changed(ctx, domain.ColUsers)
	return nil
}
