// Package actorset implements optimistic, at-most-once mutations of the
// actor-set fields (upvotes, likes, club membership, poll votes) stored on records.
package actorset

import (
	"github.com/tazhibayda/townboat/internal/domain"
)

// Change tells which way a toggle went.
type Change int

const (
	Added Change = iota + 1
	Removed
)

func (c Change) String() string {
	switch c {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "none"
	}
}

// Apply computes the fields to write after actor toggles spec on a record
// with the given fields. The counter is recomputed from the set, so a drifted
// stored counter is repaired and can never go negative.
func Apply(fields map[string]any, spec domain.ActorSetSpec, actor string) (map[string]any, Change, error) {
	if actor == "" {
		return nil, 0, domain.ErrUnauthenticated
	}
	set := domain.ActorSet(domain.AsStrings(fields[spec.SetField])).Dedup()

	var ch Change
	switch {
	case set.Contains(actor) && spec.Reversible:
		set = set.Remove(actor)
		ch = Removed
	case set.Contains(actor):
		return nil, 0, domain.ErrAlreadyVoted
	case spec.Limit > 0 && len(set) >= spec.Limit:
		return nil, 0, domain.ErrClubFull
	default:
		set = set.Add(actor)
		ch = Added
	}

	next := map[string]any{spec.SetField: []string(set)}
	if spec.CountField != "" {
		next[spec.CountField] = len(set)
	}
	return next, ch, nil
}

// snapshotOf copies the fields Apply writes so a patch can be undone.
func snapshotOf(fields map[string]any, spec domain.ActorSetSpec) map[string]any {
	prev := map[string]any{spec.SetField: domain.AsStrings(fields[spec.SetField])}
	if spec.CountField != "" {
		prev[spec.CountField] = domain.AsInt(fields[spec.CountField])
	}
	return prev
}
