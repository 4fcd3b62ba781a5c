package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/view"
)

var (
	ann   = view.Viewer{ID: "ann", Name: "Ann"}
	ben   = view.Viewer{ID: "ben", Name: "Ben"}
	admin = view.Viewer{ID: "root", Name: "Root", Admin: true}
)

func TestRecords_CreateBusinessStartsPending(t *testing.T) {
	st := newMem()
	s := NewRecords(st, st)
	b := &domain.Business{Name: "Joe's Cafe", Category: "food", Town: "Springfield", Status: domain.StatusApproved, UpvoteCount: 9}
	require.NoError(t, s.CreateBusiness(context.Background(), ann, b))

	assert.False(t, b.ID.IsZero())
	assert.Equal(t, domain.StatusPending, b.Status)
	assert.Equal(t, "ann", b.OwnerID)
	assert.Zero(t, b.UpvoteCount)
	assert.Empty(t, b.UpvotedBy)

	err := s.CreateBusiness(context.Background(), view.Viewer{}, &domain.Business{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	err = s.CreateBusiness(context.Background(), ann, &domain.Business{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRecords_DealRequiresBusinessOwner(t *testing.T) {
	st := newMem()
	st.put(domain.ColBusinesses, "b1", map[string]any{"ownerId": "ann", "name": "Joe's Cafe", "town": "Springfield", "category": "food"})
	s := NewRecords(st, st)

	err := s.CreateDeal(context.Background(), ben, &domain.Deal{BusinessID: "b1", Title: "2 for 1"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	d := &domain.Deal{BusinessID: "b1", Title: "2 for 1"}
	require.NoError(t, s.CreateDeal(context.Background(), ann, d))
	assert.Equal(t, "Joe's Cafe", d.BusinessName)
	assert.Equal(t, "Springfield", d.Town)
	assert.Equal(t, "food", d.Category)
}

func TestRecords_ReplyMustStayOnPost(t *testing.T) {
	st := newMem()
	st.put(domain.ColPosts, "p1", map[string]any{"authorId": "ann"})
	st.put(domain.ColPosts, "p2", map[string]any{"authorId": "ann"})
	st.put(domain.ColComments, "c1", map[string]any{"postId": "p2"})
	s := NewRecords(st, st)

	err := s.CreateComment(context.Background(), ben, &domain.Comment{PostID: "p1", ParentID: "c1", Content: "hi"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	require.NoError(t, s.CreateComment(context.Background(), ben, &domain.Comment{PostID: "p2", ParentID: "c1", Content: "hi"}))
	err = s.CreateComment(context.Background(), ben, &domain.Comment{PostID: "nope", Content: "hi"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecords_ClubAndPollDefaults(t *testing.T) {
	st := newMem()
	s := NewRecords(st, st)
	c := &domain.Club{Name: "Runners", Town: "Springfield"}
	require.NoError(t, s.CreateClub(context.Background(), ann, c))
	assert.Equal(t, []string{"ann"}, c.Members)
	assert.Equal(t, 1, c.MemberCount)

	p := &domain.Poll{Town: "Springfield", Question: "Best park?", Options: []domain.PollOption{
		{Text: "North", Votes: 3, VotedBy: []string{"x"}}, {Text: "South"},
	}}
	require.NoError(t, s.CreatePoll(context.Background(), ann, p))
	assert.Zero(t, p.TotalVotes())
	assert.Empty(t, p.Options[0].VotedBy)

	err := s.CreatePoll(context.Background(), ann, &domain.Poll{Town: "x", Question: "?", Options: []domain.PollOption{{Text: "only"}}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRecords_DeleteOwnerOrAdmin(t *testing.T) {
	st := newMem()
	st.put(domain.ColPosts, "p1", map[string]any{"authorId": "ann", "imageUrl": "/files/posts/p1.png"})
	st.put(domain.ColPosts, "p2", map[string]any{"authorId": "ann"})
	s := NewRecords(st, st)

	assert.ErrorIs(t, s.Delete(context.Background(), domain.ColPosts, "p1", ben), domain.ErrForbidden)
	assert.ErrorIs(t, s.Delete(context.Background(), domain.ColPosts, "p1", view.Viewer{}), domain.ErrUnauthenticated)
	require.NoError(t, s.Delete(context.Background(), domain.ColPosts, "p1", ann))
	require.NoError(t, s.Delete(context.Background(), domain.ColPosts, "p2", admin))

	assert.Equal(t, []string{"posts/p1", "posts/p2"}, st.deleted)
	assert.Equal(t, []string{"posts/p1.png"}, st.files)
}

func TestRecords_ModerateIsAdminOnly(t *testing.T) {
	st := newMem()
	st.put(domain.ColBusinesses, "b1", map[string]any{"status": domain.StatusPending})
	s := NewRecords(st, st)

	assert.ErrorIs(t, s.Moderate(context.Background(), ann, "b1", domain.StatusApproved), domain.ErrForbidden)
	assert.ErrorIs(t, s.Moderate(context.Background(), admin, "b1", "banana"), domain.ErrValidation)
	require.NoError(t, s.Moderate(context.Background(), admin, "b1", domain.StatusApproved))
	assert.Equal(t, domain.StatusApproved, st.recs[domain.ColBusinesses]["b1"].Fields["status"])
}
