package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/queue"
)

type memStore struct{ notes []*domain.Notification }

func (m *memStore) AddNotification(_ context.Context, n *domain.Notification) error {
	m.notes = append(m.notes, n)
	return nil
}

func delivery(t *testing.T, key string, ev any) queue.Delivery {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return queue.Delivery{Key: key, Body: b}
}

func TestHandle_UpvoteNotifiesOwner(t *testing.T) {
	st := &memStore{}
	n := New(st)
	require.NoError(t, n.Handle(context.Background(), delivery(t, queue.KeyRecordToggled, queue.RecordToggled{
		Collection: domain.ColBusinesses, RecordID: "b1", OwnerID: "owner", Actor: "u1", Action: "upvote", Added: true,
	})))
	require.Len(t, st.notes, 1)
	assert.Equal(t, "owner", st.notes[0].UserID)
	assert.Equal(t, "Someone gave your business an upvote", st.notes[0].Message)
}

func TestHandle_SkipsSelfRemovalsAndJoins(t *testing.T) {
	st := &memStore{}
	n := New(st)
	for _, ev := range []queue.RecordToggled{
		{Collection: domain.ColPosts, OwnerID: "u1", Actor: "u1", Action: "like", Added: true},
		{Collection: domain.ColPosts, OwnerID: "o", Actor: "u1", Action: "like", Added: false},
		{Collection: domain.ColClubs, OwnerID: "o", Actor: "u1", Action: "join", Added: true},
	} {
		require.NoError(t, n.Handle(context.Background(), delivery(t, queue.KeyRecordToggled, ev)))
	}
	assert.Empty(t, st.notes)
}

func TestHandle_Connections(t *testing.T) {
	st := &memStore{}
	n := New(st)
	require.NoError(t, n.Handle(context.Background(), delivery(t, queue.KeyConnectionRequested,
		queue.ConnectionRequested{ConnectionID: "c1", From: "a", FromName: "Ann", To: "b"})))
	require.NoError(t, n.Handle(context.Background(), delivery(t, queue.KeyConnectionAnswered,
		queue.ConnectionAnswered{ConnectionID: "c1", From: "a", To: "b", ToName: "Ben", Status: domain.ConnAccepted})))
	require.NoError(t, n.Handle(context.Background(), delivery(t, queue.KeyConnectionAnswered,
		queue.ConnectionAnswered{ConnectionID: "c2", From: "a", To: "c", Status: domain.ConnDeclined})))

	require.Len(t, st.notes, 2)
	assert.Equal(t, "b", st.notes[0].UserID)
	assert.Equal(t, "Ann wants to connect", st.notes[0].Message)
	assert.Equal(t, "a", st.notes[1].UserID)
}

func TestHandle_MalformedBodyIsDropped(t *testing.T) {
	n := New(&memStore{})
	err := n.Handle(context.Background(), queue.Delivery{Key: queue.KeyMessageSent, Body: []byte("{")})
	assert.True(t, errors.Is(err, queue.ErrDrop))
}
