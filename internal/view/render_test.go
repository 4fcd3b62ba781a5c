package view

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tazhibayda/townboat/internal/domain"
)

func TestRender_ActionsFollowMembership(t *testing.T) {
	b := biz("1", "Joe's Cafe", "food", "Ayr", 1)
	b.Fields["upvotedBy"] = []any{"me"}
	club := domain.Record{ID: "c", Collection: domain.ColClubs, Fields: map[string]any{"members": []any{"x"}, "name": "Chess"}}

	v := Render(Input{Target: "list", Collection: domain.ColBusinesses, State: StateReady,
		Records: []domain.Record{b, club}, Viewer: Viewer{ID: "me"}})
	assert.Equal(t, 2, v.Total)
	assert.True(t, v.Items[0].Active)
	assert.Equal(t, []string{ActionUpvote}, v.Items[0].Actions)
	assert.Equal(t, []string{ActionJoin}, v.Items[1].Actions)
}

func TestRender_PollAndConnectionActions(t *testing.T) {
	poll := domain.Record{ID: "p", Collection: domain.ColPolls, Fields: map[string]any{
		"question": "Market day?",
		"options":  []any{map[string]any{"text": "Sat", "votedBy": []any{"me"}}, map[string]any{"text": "Sun", "votedBy": []any{}}},
	}}
	conn := domain.Record{ID: "k", Collection: domain.ColConnections, Fields: map[string]any{"to": "me", "status": "pending"}}

	v := Render(Input{State: StateReady, Records: []domain.Record{poll, conn}, Viewer: Viewer{ID: "me"}, GroupField: "status"})
	assert.Empty(t, v.Items[0].Actions)
	assert.True(t, v.Items[0].Active)
	assert.Equal(t, []string{ActionAccept, ActionDecline}, v.Items[1].Actions)
	assert.Equal(t, []string{"k"}, v.Groups["pending"])
}

func TestRender_FailedStateHasNoItems(t *testing.T) {
	v := Render(Input{State: StateFailed, Error: "failed to load", Records: []domain.Record{biz("1", "a", "", "", 0)}})
	assert.Empty(t, v.Items)
	assert.Equal(t, "failed to load", v.Error)
}

func TestDispatcher_RoutesByType(t *testing.T) {
	d := NewDispatcher(func(a Action, err error) error { return err })
	var got Action
	d.On(ActionUpvote, func(_ context.Context, a Action) error { got = a; return nil })

	assert.NoError(t, d.Dispatch(context.Background(), Action{Type: ActionUpvote, ID: "b1"}))
	assert.Equal(t, "b1", got.ID)
	assert.True(t, errors.Is(d.Dispatch(context.Background(), Action{Type: "wave", ID: "b1"}), domain.ErrUnknownAction))
	assert.True(t, errors.Is(d.Dispatch(context.Background(), Action{Type: ActionUpvote}), domain.ErrValidation))
}
