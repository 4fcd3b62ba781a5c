package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/repo"
	"github.com/tazhibayda/townboat/internal/view"
)

// manualSource hands callbacks to the test instead of calling them.
type manualSource struct {
	mu        sync.Mutex
	watches   []*watch
	cancelled int
}

type watch struct {
	q  repo.Query
	fn func([]domain.Record, error)
}

func (s *manualSource) Watch(_ context.Context, q repo.Query, fn func([]domain.Record, error)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watches = append(s.watches, &watch{q: q, fn: fn})
	return func() {
		s.mu.Lock()
		s.cancelled++
		s.mu.Unlock()
	}
}

func (s *manualSource) get(i int) *watch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watches[i]
}

func rec(id, town string) domain.Record {
	return domain.Record{ID: id, Collection: domain.ColBusinesses, Fields: map[string]any{"town": town, "name": id}}
}

type renders struct {
	mu   sync.Mutex
	list []Snapshot
}

func (r *renders) add(s Snapshot) {
	r.mu.Lock()
	r.list = append(r.list, s)
	r.mu.Unlock()
}

func (r *renders) last() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list[len(r.list)-1]
}

func TestManager_ResubscribeKeepsOneLiveSubscription(t *testing.T) {
	src := &manualSource{}
	var got renders
	m := NewManager(src, got.add)

	m.Subscribe(context.Background(), "list", repo.Query{Collection: domain.ColBusinesses, Eq: map[string]any{"town": "A"}})
	m.Subscribe(context.Background(), "list", repo.Query{Collection: domain.ColBusinesses, Eq: map[string]any{"town": "B"}})

	assert.Equal(t, 1, src.cancelled)
	assert.Equal(t, []string{"list"}, m.Targets())

	// B answers first, then A's late callback arrives
	src.get(1).fn([]domain.Record{rec("b1", "B")}, nil)
	src.get(0).fn([]domain.Record{rec("a1", "A"), rec("a2", "A")}, nil)

	require.Len(t, got.list, 1)
	snap, ok := m.Snapshot("list")
	require.True(t, ok)
	assert.Equal(t, "B", snap.Query.Eq["town"])
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "b1", snap.Records[0].ID)
}

func TestManager_CallbackReplacesWholeSnapshot(t *testing.T) {
	src := &manualSource{}
	var got renders
	m := NewManager(src, got.add)
	m.Subscribe(context.Background(), "list", repo.Query{Collection: domain.ColBusinesses})

	src.get(0).fn([]domain.Record{rec("1", "A"), rec("2", "A")}, nil)
	src.get(0).fn([]domain.Record{rec("3", "A")}, nil)

	snap := got.last()
	assert.Equal(t, view.StateReady, snap.State)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "3", snap.Records[0].ID)
}

func TestManager_ErrorEntersFailedState(t *testing.T) {
	src := &manualSource{}
	var got renders
	m := NewManager(src, got.add)
	m.Subscribe(context.Background(), "list", repo.Query{Collection: domain.ColDeals})

	src.get(0).fn(nil, errors.New("permission denied"))
	snap := got.last()
	assert.Equal(t, view.StateFailed, snap.State)
	assert.EqualError(t, snap.Err, "permission denied")
	// no retry: no new watch was opened
	assert.Len(t, src.watches, 1)
}

func TestManager_CancelDropsLaterCallbacks(t *testing.T) {
	src := &manualSource{}
	var got renders
	m := NewManager(src, got.add)
	sub := m.Subscribe(context.Background(), "list", repo.Query{Collection: domain.ColDeals})
	sub.Cancel()
	sub.Cancel()

	src.get(0).fn([]domain.Record{rec("1", "A")}, nil)
	assert.Empty(t, got.list)
	assert.Equal(t, 1, src.cancelled)
	_, ok := m.Snapshot("list")
	assert.False(t, ok)
}

func TestManager_PatchUpdatesMatchingSnapshots(t *testing.T) {
	src := &manualSource{}
	var got renders
	m := NewManager(src, got.add)
	m.Subscribe(context.Background(), "list", repo.Query{Collection: domain.ColBusinesses})
	m.Subscribe(context.Background(), "top", repo.Query{Collection: domain.ColBusinesses, OrderBy: "upvoteCount"})
	m.Subscribe(context.Background(), "deals", repo.Query{Collection: domain.ColDeals})
	first := []domain.Record{rec("1", "A")}
	src.get(0).fn(first, nil)
	src.get(1).fn([]domain.Record{rec("1", "A")}, nil)

	m.Patch(domain.ColBusinesses, "1", map[string]any{"upvoteCount": 7})
	for _, target := range []string{"list", "top"} {
		snap, _ := m.Snapshot(target)
		assert.Equal(t, 7, snap.Records[0].Int("upvoteCount"), target)
	}
	// the delivered slice itself is never mutated
	_, touched := first[0].Fields["upvoteCount"]
	assert.False(t, touched)
}

func TestStoreSource_RequeriesOnSignal(t *testing.T) {
	sig := repo.NewLocalSignal()
	finder := &countingFinder{}
	src := &StoreSource{Finder: finder, Signal: sig}

	results := make(chan int, 8)
	cancel := src.Watch(context.Background(), repo.Query{Collection: domain.ColPosts}, func(rs []domain.Record, err error) {
		results <- len(rs)
	})
	defer cancel()

	assert.Equal(t, 1, waitFor(t, results))
	require.NoError(t, sig.Publish(context.Background(), domain.ColPosts))
	assert.Equal(t, 2, waitFor(t, results))
	// other collections do not wake the watch
	require.NoError(t, sig.Publish(context.Background(), domain.ColDeals))
	select {
	case n := <-results:
		t.Fatalf("unexpected delivery %d", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStoreSource_StopsAfterError(t *testing.T) {
	sig := repo.NewLocalSignal()
	finder := &countingFinder{err: errors.New("boom")}
	src := &StoreSource{Finder: finder, Signal: sig}

	errs := make(chan error, 4)
	cancel := src.Watch(context.Background(), repo.Query{Collection: domain.ColPosts}, func(_ []domain.Record, err error) {
		errs <- err
	})
	defer cancel()

	select {
	case err := <-errs:
		assert.EqualError(t, err, "boom")
	case <-time.After(time.Second):
		t.Fatal("no error delivered")
	}
	_ = sig.Publish(context.Background(), domain.ColPosts)
	select {
	case <-errs:
		t.Fatal("watch retried after error")
	case <-time.After(50 * time.Millisecond):
	}
}

type countingFinder struct {
	mu  sync.Mutex
	n   int
	err error
}

func (f *countingFinder) Find(_ context.Context, q repo.Query) ([]domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.n++
	out := make([]domain.Record, f.n)
	for i := range out {
		out[i] = domain.Record{ID: string(rune('a' + i)), Collection: q.Collection, Fields: map[string]any{}}
	}
	return out, nil
}

func waitFor(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
		return 0
	}
}
