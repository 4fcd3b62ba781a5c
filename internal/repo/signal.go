package repo

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/log"
)

// Signal announces that a collection changed. Subscribers coalesce bursts:
// a pending notification absorbs further ones until it is received.
type Signal interface {
	Publish(ctx context.Context, collection string) error
	Subscribe(ctx context.Context, collection string) (<-chan struct{}, func())
}

func logSignalErr(ctx context.Context, collection string, err error) {
	log.Ctx(ctx).Warn("change signal failed", zap.String("collection", collection), zap.Error(err))
}

const signalPrefix = "townboat:changes:"

// RedisSignal fans changes out across processes over Redis pub/sub.
type RedisSignal struct{ rdb *redis.Client }

func NewRedisSignal(r *Redis) *RedisSignal { return &RedisSignal{rdb: r.C} }

func (s *RedisSignal) Publish(ctx context.Context, collection string) error {
	return s.rdb.Publish(ctx, signalPrefix+collection, "1").Err()
}

func (s *RedisSignal) Subscribe(ctx context.Context, collection string) (<-chan struct{}, func()) {
	ps := s.rdb.Subscribe(ctx, signalPrefix+collection)
	out := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		msgs := ps.Channel()
		for {
			select {
			case <-done:
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	var once sync.Once
	return out, func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}
}

// LocalSignal fans changes out inside one process.
type LocalSignal struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan struct{}
}

func NewLocalSignal() *LocalSignal {
	return &LocalSignal{subs: map[string]map[int]chan struct{}{}}
}

func (s *LocalSignal) Publish(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs[collection] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (s *LocalSignal) Subscribe(_ context.Context, collection string) (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	ch := make(chan struct{}, 1)
	if s.subs[collection] == nil {
		s.subs[collection] = map[int]chan struct{}{}
	}
	s.subs[collection][id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[collection], id)
			s.mu.Unlock()
		})
	}
}
