package repo

import (
	"context"

	"github.com/tazhibayda/townboat/internal/domain"
)

func (s *Store) GetPoll(ctx context.Context, id string) (*domain.Poll, error) {
	var p domain.Poll
	if err := s.GetInto(ctx, domain.ColPolls, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetPollOptions replaces the options array. guard, when non-nil, is the
// options array read before the vote was applied.
func (s *Store) SetPollOptions(ctx context.Context, id string, options, guard []domain.PollOption) error {
	var g map[string]any
	if guard != nil {
		g = map[string]any{"options": guard}
	}
	return s.SetFields(ctx, domain.ColPolls, id, map[string]any{"options": options}, g)
}
