package repo

import (
	"context"
	"time"

	"github.com/tazhibayda/townboat/internal/domain"
)

func (s *Store) AddNotification(ctx context.Context, n *domain.Notification) error {
	n.CreatedAt = time.Now().UTC()
	_, err := s.Insert(ctx, domain.ColNotifications, n)
	return err
}

func (s *Store) ListNotifications(ctx context.Context, userID string, limit int64) ([]domain.Record, error) {
	return s.Find(ctx, Query{
		Collection: domain.ColNotifications,
		Eq:         map[string]any{"userId": userID},
		OrderBy:    "createdAt",
		Desc:       true,
		Limit:      limit,
	})
}
