package actorset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhibayda/townboat/internal/domain"
)

type memStore struct {
	mu       sync.Mutex
	records  map[string]map[string]any
	polls    map[string]*domain.Poll
	failNext error
	writes   int
}

func newMemStore() *memStore {
	return &memStore{records: map[string]map[string]any{}, polls: map[string]*domain.Poll{}}
}

func (s *memStore) GetRecord(_ context.Context, collection, id string) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.records[collection+"/"+id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	r := domain.Record{ID: id, Collection: collection, Fields: f}
	c := r.Clone()
	return &c, nil
}

func (s *memStore) SetFields(_ context.Context, collection, id string, fields, guard map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		return err
	}
	f := s.records[collection+"/"+id]
	for k, v := range guard {
		if !assert.ObjectsAreEqual(domain.AsStrings(v), domain.AsStrings(f[k])) {
			return domain.ErrConflict
		}
	}
	for k, v := range fields {
		f[k] = v
	}
	s.writes++
	return nil
}

func (s *memStore) GetPoll(_ context.Context, id string) (*domain.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polls[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	cp.Options = clonePollOptions(p.Options)
	return &cp, nil
}

func (s *memStore) SetPollOptions(_ context.Context, id string, options, _ []domain.PollOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		return err
	}
	s.polls[id].Options = clonePollOptions(options)
	s.writes++
	return nil
}

type recordingLocal struct{ patches []map[string]any }

func (l *recordingLocal) Patch(_, _ string, fields map[string]any) {
	l.patches = append(l.patches, fields)
}

func TestMutator_ToggleSuccessEmitsEvent(t *testing.T) {
	st := newMemStore()
	st.records["businesses/b1"] = map[string]any{"name": "Joe's Cafe", "ownerId": "owner", "upvotedBy": []any{"u1", "u2", "u3"}, "upvoteCount": 3}
	var got []Event
	m := New(st, WithOnSuccess(func(_ context.Context, ev Event) { got = append(got, ev) }))
	local := &recordingLocal{}

	res := m.Toggle(context.Background(), local, domain.ColBusinesses, "b1", "u4")
	require.True(t, res.OK(), "reason: %v", res.Reason)
	assert.Equal(t, Added, res.Change)
	assert.Equal(t, 4, st.records["businesses/b1"]["upvoteCount"])
	require.Len(t, local.patches, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "owner", got[0].OwnerID)
	assert.Equal(t, "upvote", got[0].Action)

	res = m.Toggle(context.Background(), local, domain.ColBusinesses, "b1", "u4")
	require.True(t, res.OK())
	assert.Equal(t, Removed, res.Change)
	assert.Equal(t, 3, st.records["businesses/b1"]["upvoteCount"])
}

func TestMutator_UnauthenticatedIsRejected(t *testing.T) {
	st := newMemStore()
	st.records["posts/p1"] = map[string]any{}
	res := New(st).Toggle(context.Background(), nil, domain.ColPosts, "p1", "")
	assert.Equal(t, Reverted, res.Outcome)
	assert.True(t, res.NeedsSignIn())
	assert.Zero(t, st.writes)
}

func TestMutator_WriteFailureRevertsLocal(t *testing.T) {
	st := newMemStore()
	st.records["clubs/c1"] = map[string]any{"members": []any{"a"}, "memberCount": 1}
	st.failNext = errors.New("permission denied")
	local := &recordingLocal{}

	res := New(st).Toggle(context.Background(), local, domain.ColClubs, "c1", "b")
	assert.Equal(t, Reverted, res.Outcome)
	assert.EqualError(t, res.Reason, "permission denied")
	require.Len(t, local.patches, 2)
	assert.Equal(t, 2, local.patches[0]["memberCount"])
	assert.Equal(t, 1, local.patches[1]["memberCount"])
	assert.Equal(t, []string{"a"}, local.patches[1]["members"])
}

func TestMutator_FullClubRejectsWithoutWrite(t *testing.T) {
	st := newMemStore()
	members := make([]any, 499)
	for i := range members {
		members[i] = fmt.Sprintf("m%d", i)
	}
	st.records["clubs/c1"] = map[string]any{"members": members, "memberCount": 499}
	m := New(st)

	require.True(t, m.Ensure(context.Background(), nil, domain.ColClubs, "c1", "first", true).OK())
	assert.Equal(t, 500, st.records["clubs/c1"]["memberCount"])

	res := m.Ensure(context.Background(), nil, domain.ColClubs, "c1", "second", true)
	assert.ErrorIs(t, res.Reason, domain.ErrClubFull)
	assert.Equal(t, 500, st.records["clubs/c1"]["memberCount"])
	assert.Equal(t, 1, st.writes)
}

func TestMutator_EnsureIsNoopInRequestedState(t *testing.T) {
	st := newMemStore()
	st.records["clubs/c1"] = map[string]any{"members": []any{"a"}, "memberCount": 1}
	res := New(st).Ensure(context.Background(), nil, domain.ColClubs, "c1", "a", true)
	assert.True(t, res.OK())
	assert.Zero(t, res.Change)
	assert.Zero(t, st.writes)
}

func TestMutator_CompareAndSetDetectsConcurrentChange(t *testing.T) {
	st := newMemStore()
	st.records["deals/d1"] = map[string]any{"upvotedBy": []any{}, "upvoteCount": 0}
	m := New(st, WithCompareAndSet(true))

	// another actor lands between our read and write
	racing := &racingStore{memStore: st, before: func() {
		st.records["deals/d1"]["upvotedBy"] = []string{"other"}
		st.records["deals/d1"]["upvoteCount"] = 1
	}}
	m.store = racing
	res := m.Toggle(context.Background(), nil, domain.ColDeals, "d1", "me")
	assert.ErrorIs(t, res.Reason, domain.ErrConflict)
	assert.Equal(t, []string{"other"}, st.records["deals/d1"]["upvotedBy"])
}

type racingStore struct {
	*memStore
	before func()
}

func (r *racingStore) SetFields(ctx context.Context, collection, id string, fields, guard map[string]any) error {
	r.before()
	return r.memStore.SetFields(ctx, collection, id, fields, guard)
}

func TestMutator_PollVoteIsTerminal(t *testing.T) {
	st := newMemStore()
	st.polls["p1"] = &domain.Poll{AuthorID: "author", Options: []domain.PollOption{
		{Text: "yes", VotedBy: []string{}}, {Text: "no", VotedBy: []string{}},
	}}
	m := New(st)

	require.True(t, m.Vote(context.Background(), nil, "p1", 0, "u1").OK())
	res := m.Vote(context.Background(), nil, "p1", 1, "u1")
	assert.ErrorIs(t, res.Reason, domain.ErrAlreadyVoted)
	assert.Equal(t, 1, st.polls["p1"].Options[0].Votes)
	assert.Equal(t, 0, st.polls["p1"].Options[1].Votes)
	assert.Equal(t, 1, st.writes)
}

func TestMutator_UnknownCollection(t *testing.T) {
	res := New(newMemStore()).Toggle(context.Background(), nil, "widgets", "w1", "u1")
	assert.ErrorIs(t, res.Reason, domain.ErrUnknownAction)
}

func TestMutator_SignedOutAsksForSignInBeforeAnythingElse(t *testing.T) {
	res := New(newMemStore()).Toggle(context.Background(), nil, "", "w1", "")
	assert.ErrorIs(t, res.Reason, domain.ErrUnauthenticated)
	assert.True(t, res.NeedsSignIn())
}
