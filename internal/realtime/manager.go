package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/log"
	"github.com/tazhibayda/townboat/internal/metrics"
	"github.com/tazhibayda/townboat/internal/repo"
	"github.com/tazhibayda/townboat/internal/view"
)

// Snapshot is the current content of one list target.
type Snapshot struct {
	Target  string
	Query   repo.Query
	Records []domain.Record
	State   string
	Err     error
}

// RenderFunc receives every snapshot that becomes current.
type RenderFunc func(Snapshot)

type subscription struct {
	gen    uint64
	cancel func()
	snap   Snapshot
}

// Manager holds at most one live subscription per target.
type Manager struct {
	src    Source
	render RenderFunc

	// renderMu orders renders so a callback that lost the race to a newer
	// subscription cannot render after it.
	renderMu sync.Mutex
	mu       sync.Mutex
	gen      uint64
	subs     map[string]*subscription
}

func NewManager(src Source, render RenderFunc) *Manager {
	if render == nil {
		render = func(Snapshot) {}
	}
	return &Manager{src: src, render: render, subs: map[string]*subscription{}}
}

// Subscription is the handle of one live binding.
type Subscription struct {
	m      *Manager
	target string
	gen    uint64
}

// Cancel detaches the subscription if it is still the live one for its target.
func (s *Subscription) Cancel() {
	s.m.mu.Lock()
	sub, ok := s.m.subs[s.target]
	if !ok || sub.gen != s.gen {
		s.m.mu.Unlock()
		return
	}
	delete(s.m.subs, s.target)
	cancel := sub.cancel
	s.m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	metrics.Subscriptions.Dec()
}

// Unsubscribe cancels whatever subscription is live for target.
func (m *Manager) Unsubscribe(target string) {
	m.mu.Lock()
	sub, ok := m.subs[target]
	m.mu.Unlock()
	if ok {
		(&Subscription{m: m, target: target, gen: sub.gen}).Cancel()
	}
}

// Subscribe cancels the live subscription of target, if any, and attaches q.
func (m *Manager) Subscribe(ctx context.Context, target string, q repo.Query) *Subscription {
	m.mu.Lock()
	if old, ok := m.subs[target]; ok {
		delete(m.subs, target)
		if old.cancel != nil {
			old.cancel()
		}
		metrics.Subscriptions.Dec()
	}
	m.gen++
	gen := m.gen
	sub := &subscription{gen: gen, snap: Snapshot{Target: target, Query: q, State: view.StateLoading}}
	m.subs[target] = sub
	m.mu.Unlock()
	metrics.Subscriptions.Inc()

	cancel := m.src.Watch(ctx, q, func(records []domain.Record, err error) {
		m.deliver(target, gen, records, err)
	})

	m.mu.Lock()
	if cur, ok := m.subs[target]; ok && cur.gen == gen {
		cur.cancel = cancel
		m.mu.Unlock()
	} else {
		m.mu.Unlock()
		cancel()
	}
	return &Subscription{m: m, target: target, gen: gen}
}

func (m *Manager) deliver(target string, gen uint64, records []domain.Record, err error) {
	m.renderMu.Lock()
	defer m.renderMu.Unlock()

	m.mu.Lock()
	sub, ok := m.subs[target]
	if !ok || sub.gen != gen {
		m.mu.Unlock()
		return
	}
	if err != nil {
		sub.snap.State = view.StateFailed
		sub.snap.Err = err
		sub.snap.Records = nil
	} else {
		sub.snap.State = view.StateReady
		sub.snap.Err = nil
		sub.snap.Records = records
	}
	snap := sub.snap
	m.mu.Unlock()

	if err != nil {
		metrics.SubscriptionErrors.WithLabelValues(snap.Query.Collection).Inc()
		log.L().Warn("subscription failed",
			zap.String("target", target), zap.String("collection", snap.Query.Collection), zap.Error(err))
	}
	m.render(snap)
}

// Snapshot returns the current snapshot of target.
func (m *Manager) Snapshot(target string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[target]
	if !ok {
		return Snapshot{}, false
	}
	return sub.snap, true
}

// Targets lists the live targets.
func (m *Manager) Targets() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.subs))
	for t := range m.subs {
		out = append(out, t)
	}
	return out
}

// Rerender renders target's current snapshot again, e.g. after the search text changed.
func (m *Manager) Rerender(target string) bool {
	m.renderMu.Lock()
	defer m.renderMu.Unlock()
	snap, ok := m.Snapshot(target)
	if ok {
		m.render(snap)
	}
	return ok
}

// Patch applies an optimistic field change to every snapshot holding the
// record and re-renders those targets.
func (m *Manager) Patch(collection, id string, fields map[string]any) {
	m.renderMu.Lock()
	defer m.renderMu.Unlock()

	var touched []Snapshot
	m.mu.Lock()
	for _, sub := range m.subs {
		if sub.snap.Query.Collection != collection {
			continue
		}
		for i, r := range sub.snap.Records {
			if r.ID != id {
				continue
			}
			next := make([]domain.Record, len(sub.snap.Records))
			copy(next, sub.snap.Records)
			c := r.Clone()
			for k, v := range fields {
				c.Fields[k] = v
			}
			next[i] = c
			sub.snap.Records = next
			touched = append(touched, sub.snap)
			break
		}
	}
	m.mu.Unlock()

	for _, s := range touched {
		m.render(s)
	}
}

// Close cancels every subscription.
func (m *Manager) Close() {
	m.mu.Lock()
	subs := m.subs
	m.subs = map[string]*subscription{}
	m.mu.Unlock()
	for _, s := range subs {
		if s.cancel != nil {
			s.cancel()
		}
		metrics.Subscriptions.Dec()
	}
}
