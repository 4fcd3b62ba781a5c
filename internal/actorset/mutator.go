package actorset

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/log"
	"github.com/tazhibayda/townboat/internal/metrics"
)

type Store interface {
	GetRecord(ctx context.Context, collection, id string) (*domain.Record, error)
	SetFields(ctx context.Context, collection, id string, fields, guard map[string]any) error
	GetPoll(ctx context.Context, id string) (*domain.Poll, error)
	SetPollOptions(ctx context.Context, id string, options, guard []domain.PollOption) error
}

// Local is the caller's in-memory snapshot; it receives the optimistic patch
// and, on failure, the patch that restores the previous values.
type Local interface {
	Patch(collection, id string, fields map[string]any)
}

// Event describes a settled successful mutation.
type Event struct {
	Collection string
	RecordID   string
	OwnerID    string
	Actor      string
	Action     string
	Change     Change
}

type Mutator struct {
	store Store
	// compareAndSet guards each write with the set that was read; a
	// concurrent change then reverts instead of being overwritten.
	compareAndSet bool
	onSuccess     func(context.Context, Event)
}

type Option func(*Mutator)

func WithCompareAndSet(on bool) Option { return func(m *Mutator) { m.compareAndSet = on } }

func WithOnSuccess(fn func(context.Context, Event)) Option {
	return func(m *Mutator) { m.onSuccess = fn }
}

func New(store Store, opts ...Option) *Mutator {
	m := &Mutator{store: store}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Toggle flips actor's membership in the collection's actor set.
func (m *Mutator) Toggle(ctx context.Context, local Local, collection, id, actor string) Result {
	return m.mutate(ctx, local, collection, id, actor, nil)
}

// Ensure moves actor into (member=true) or out of the set. Being already in
// the requested state is a successful no-op.
func (m *Mutator) Ensure(ctx context.Context, local Local, collection, id, actor string, member bool) Result {
	return m.mutate(ctx, local, collection, id, actor, &member)
}

func (m *Mutator) mutate(ctx context.Context, local Local, collection, id, actor string, want *bool) Result {
	if actor == "" {
		return m.settle(ctx, collection, reverted(domain.ErrUnauthenticated))
	}
	spec, found := domain.ActorSetFor(collection)
	if !found {
		return m.settle(ctx, collection, reverted(fmt.Errorf("%w: no actor set on %s", domain.ErrUnknownAction, collection)))
	}

	// always re-read; the caller's copy may be stale
	rec, err := m.store.GetRecord(ctx, collection, id)
	if err != nil {
		return m.settle(ctx, collection, reverted(err))
	}
	if want != nil && domain.ActorSet(rec.Strings(spec.SetField)).Contains(actor) == *want {
		return m.settle(ctx, collection, ok(0, nil))
	}

	next, ch, err := Apply(rec.Fields, spec, actor)
	if err != nil {
		return m.settle(ctx, collection, reverted(err))
	}
	prev := snapshotOf(rec.Fields, spec)
	patch(local, collection, id, next)

	var guard map[string]any
	if m.compareAndSet {
		guard = map[string]any{spec.SetField: prev[spec.SetField]}
	}
	if err := m.store.SetFields(ctx, collection, id, next, guard); err != nil {
		patch(local, collection, id, prev)
		return m.settle(ctx, collection, reverted(err))
	}

	m.emit(ctx, Event{
		Collection: collection, RecordID: id, OwnerID: ownerOf(rec),
		Actor: actor, Action: spec.Action, Change: ch,
	})
	return m.settle(ctx, collection, ok(ch, next))
}

// Vote records actor's vote on option of a poll. Votes are terminal.
func (m *Mutator) Vote(ctx context.Context, local Local, pollID string, option int, actor string) Result {
	if actor == "" {
		return m.settle(ctx, domain.ColPolls, reverted(domain.ErrUnauthenticated))
	}
	poll, err := m.store.GetPoll(ctx, pollID)
	if err != nil {
		return m.settle(ctx, domain.ColPolls, reverted(err))
	}
	before := clonePollOptions(poll.Options)
	if err := poll.Vote(option, actor); err != nil {
		return m.settle(ctx, domain.ColPolls, reverted(err))
	}

	next := map[string]any{"options": PollOptionFields(poll.Options)}
	patch(local, domain.ColPolls, pollID, next)

	var guard []domain.PollOption
	if m.compareAndSet {
		guard = before
	}
	if err := m.store.SetPollOptions(ctx, pollID, poll.Options, guard); err != nil {
		patch(local, domain.ColPolls, pollID, map[string]any{"options": PollOptionFields(before)})
		return m.settle(ctx, domain.ColPolls, reverted(err))
	}

	m.emit(ctx, Event{
		Collection: domain.ColPolls, RecordID: pollID, OwnerID: poll.AuthorID,
		Actor: actor, Action: "vote", Change: Added,
	})
	return m.settle(ctx, domain.ColPolls, ok(Added, next))
}

func (m *Mutator) emit(ctx context.Context, ev Event) {
	if m.onSuccess != nil {
		m.onSuccess(ctx, ev)
	}
}

func (m *Mutator) settle(ctx context.Context, collection string, r Result) Result {
	metrics.Toggles.WithLabelValues(collection, r.Outcome.String()).Inc()
	if !r.OK() {
		log.Ctx(ctx).Debug("mutation reverted",
			zap.String("collection", collection), zap.Error(r.Reason))
	}
	return r
}

func ownerOf(rec *domain.Record) string {
	if id := rec.String("ownerId"); id != "" {
		return id
	}
	return rec.String("authorId")
}

func patch(local Local, collection, id string, fields map[string]any) {
	if local != nil {
		local.Patch(collection, id, fields)
	}
}

func clonePollOptions(in []domain.PollOption) []domain.PollOption {
	out := make([]domain.PollOption, len(in))
	for i, o := range in {
		o.VotedBy = slices.Clone(o.VotedBy)
		if o.VotedBy == nil {
			o.VotedBy = []string{}
		}
		out[i] = o
	}
	return out
}

// PollOptionFields renders options in the normalized record shape.
func PollOptionFields(opts []domain.PollOption) []any {
	out := make([]any, len(opts))
	for i, o := range opts {
		voted := make([]any, len(o.VotedBy))
		for j, v := range o.VotedBy {
			voted[j] = v
		}
		out[i] = map[string]any{"text": o.Text, "votes": o.Votes, "votedBy": voted}
	}
	return out
}
