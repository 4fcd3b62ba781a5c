package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tazhibayda/townboat/internal/domain"
)

type threadStore struct {
	msgs  []domain.ChatMessage
	clubs map[string][]any
}

func (s *threadStore) AddMessage(_ context.Context, m *domain.ChatMessage) error {
	m.ID = primitive.NewObjectID()
	s.msgs = append(s.msgs, *m)
	return nil
}

func (s *threadStore) ListMessages(_ context.Context, chatID string, _ int64) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	for _, m := range s.msgs {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *threadStore) GetRecord(_ context.Context, collection, id string) (*domain.Record, error) {
	members, ok := s.clubs[id]
	if collection != domain.ColClubs || !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Record{ID: id, Collection: collection, Fields: map[string]any{"members": members}}, nil
}

func TestService_DirectThread(t *testing.T) {
	store := &threadStore{}
	var sent []string
	svc := NewService(store, nil, func(_ context.Context, m *domain.ChatMessage) { sent = append(sent, m.Text) })
	ctx := context.Background()

	m, err := svc.SendDirect(ctx, "bob", "alice", "  hi  ")
	require.NoError(t, err)
	assert.Equal(t, "alice_bob", m.ChatID)
	assert.Equal(t, "hi", m.Text)
	assert.Equal(t, []string{"hi"}, sent)

	_, err = svc.SendDirect(ctx, "", "alice", "hi")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = svc.SendDirect(ctx, "bob", "alice", "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	msgs, err := svc.Thread(ctx, "alice", "alice_bob", 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	_, err = svc.Thread(ctx, "carol", "alice_bob", 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestService_ClubChatNeedsMembership(t *testing.T) {
	store := &threadStore{clubs: map[string][]any{"c1": {"alice"}}}
	sched, timers := newFakeTimers(newMemStore(), time.Now())
	exp := NewExpirer(newMemStore(), sched, 0)
	svc := NewService(store, exp, nil)
	ctx := context.Background()

	_, err := svc.SendClub(ctx, "bob", "c1", "hello")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	m, err := svc.SendClub(ctx, "alice", "c1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "club_c1", m.ChatID)
	assert.Equal(t, "c1", m.ClubID)

	store.clubs["c1"] = []any{"alice", "bob"}
	msgs, err := svc.Thread(ctx, "bob", ClubChatID("c1"), 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	// club messages are shared by every member and never expire on read
	assert.Empty(t, msgs[0].ReadBy)
	assert.Nil(t, msgs[0].ExpiresAt)
	assert.Empty(t, *timers)
}
