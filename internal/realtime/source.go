// Package realtime keeps in-memory lists consistent with the document store
// through live subscriptions, and hosts the page-scoped session that renders
// them.
package realtime

import (
	"context"

	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/repo"
)

// Source binds a query to a callback that receives the full result set on
// every change, or an error after which the binding ends.
type Source interface {
	Watch(ctx context.Context, q repo.Query, fn func([]domain.Record, error)) (cancel func())
}

type Finder interface {
	Find(ctx context.Context, q repo.Query) ([]domain.Record, error)
}

// StoreSource re-runs the query whenever the collection's change signal fires.
type StoreSource struct {
	Finder Finder
	Signal repo.Signal
}

func (s *StoreSource) Watch(ctx context.Context, q repo.Query, fn func([]domain.Record, error)) func() {
	ctx, cancel := context.WithCancel(ctx)
	// subscribe before the first read so no change falls in between
	changes, unsubscribe := s.Signal.Subscribe(ctx, q.Collection)

	go func() {
		defer unsubscribe()
		for {
			records, err := s.Finder.Find(ctx, q)
			if ctx.Err() != nil {
				return
			}
			fn(records, err)
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-changes:
			}
		}
	}()
	return cancel
}
