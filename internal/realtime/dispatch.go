package realtime

import (
	"context"
	"errors"

	"github.com/tazhibayda/townboat/internal/actorset"
	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/view"
)

func (s *Session) dispatcher() *view.Dispatcher[Outbound] {
	toggle := func(ctx context.Context, a view.Action) Outbound {
		return s.settled(a, s.svc.Mutator.Toggle(ctx, s.mgr, a.Collection, a.ID, s.Viewer().ID))
	}
	ensure := func(member bool) view.Handler[Outbound] {
		return func(ctx context.Context, a view.Action) Outbound {
			return s.settled(a, s.svc.Mutator.Ensure(ctx, s.mgr, domain.ColClubs, a.ID, s.Viewer().ID, member))
		}
	}
	respond := func(ctx context.Context, a view.Action) Outbound {
		who := s.Viewer()
		if who.ID == "" {
			return s.outcome(a, domain.ErrUnauthenticated)
		}
		return s.outcome(a, s.svc.Connections.Respond(ctx, a.ID, who.ID, a.Type))
	}
	bookmark := func(add bool) view.Handler[Outbound] {
		return func(_ context.Context, a view.Action) Outbound {
			who := s.Viewer()
			if who.ID == "" {
				return s.outcome(a, domain.ErrUnauthenticated)
			}
			if add {
				s.svc.Bookmarks.Add(who.ID, a.ID)
			} else {
				s.svc.Bookmarks.Remove(who.ID, a.ID)
			}
			return s.outcome(a, nil)
		}
	}

	return view.NewDispatcher(func(a view.Action, err error) Outbound { return s.outcome(a, err) }).
		On(view.ActionUpvote, toggle).
		On(view.ActionLike, toggle).
		On(view.ActionJoin, ensure(true)).
		On(view.ActionLeave, ensure(false)).
		On(view.ActionVote, func(ctx context.Context, a view.Action) Outbound {
			return s.settled(a, s.svc.Mutator.Vote(ctx, s.mgr, a.ID, a.Option, s.Viewer().ID))
		}).
		On(view.ActionAccept, respond).
		On(view.ActionDecline, respond).
		On(view.ActionBookmark, bookmark(true)).
		On(view.ActionUnbookmark, bookmark(false)).
		On(view.ActionDelete, func(ctx context.Context, a view.Action) Outbound {
			return s.outcome(a, s.svc.Records.Delete(ctx, a.Collection, a.ID, s.Viewer()))
		})
}

func (s *Session) settled(a view.Action, r actorset.Result) Outbound {
	return s.outcome(a, r.Reason)
}

func (s *Session) outcome(a view.Action, err error) Outbound {
	o := Outbound{Type: "result", Action: &a, Outcome: actorset.Success.String()}
	if err != nil {
		o.Outcome = actorset.Reverted.String()
		o.Error = err.Error()
		o.NeedsSignIn = errors.Is(err, domain.ErrUnauthenticated)
	}
	return o
}
