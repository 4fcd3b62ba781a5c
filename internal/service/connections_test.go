package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhibayda/townboat/internal/domain"
)

type events struct{ got []string }

func (e *events) ConnectionRequested(_ context.Context, c *domain.Connection) {
	e.got = append(e.got, "requested:"+c.To)
}

func (e *events) ConnectionAnswered(_ context.Context, c *domain.Connection) {
	e.got = append(e.got, "answered:"+c.Status)
}

func TestConnections_RequestAndAccept(t *testing.T) {
	st := newMem()
	st.users["ben"] = &domain.User{DisplayName: "Ben"}
	ev := &events{}
	s := NewConnections(st, ev)
	ctx := context.Background()

	c, err := s.Request(ctx, ann, "ben")
	require.NoError(t, err)
	assert.Equal(t, "Ben", c.ToName)
	assert.Equal(t, domain.ConnPending, c.Status)

	// only the recipient may answer
	assert.ErrorIs(t, s.Respond(ctx, c.ID.Hex(), "ann", "accept"), domain.ErrForbidden)
	require.NoError(t, s.Respond(ctx, c.ID.Hex(), "ben", "accept"))
	assert.Equal(t, domain.ConnAccepted, st.conns[c.ID.Hex()].Status)

	// accepted is final
	assert.ErrorIs(t, s.Respond(ctx, c.ID.Hex(), "ben", "decline"), domain.ErrInvalidTransition)
	assert.Equal(t, []string{"requested:ben", "answered:accepted"}, ev.got)
}

func TestConnections_RequestValidation(t *testing.T) {
	st := newMem()
	s := NewConnections(st, nil)
	ctx := context.Background()

	_, err := s.Request(ctx, ann, "ann")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = s.Request(ctx, ann, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	st.users["ben"] = &domain.User{}
	_, err = s.Request(ctx, ann, "ben")
	require.NoError(t, err)
	_, err = s.Request(ctx, ann, "ben")
	assert.ErrorIs(t, err, domain.ErrConflict)
}
