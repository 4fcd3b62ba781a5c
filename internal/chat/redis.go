package chat

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/log"
	"github.com/tazhibayda/townboat/internal/metrics"
)

const expiryKey = "townboat:chat:expiry"

// RedisScheduler keeps due deletions in a sorted set scored by unix millis,
// so they survive restarts and are shared by every server instance.
type RedisScheduler struct {
	rdb   *redis.Client
	store Store
	now   func() time.Time
	batch int64
}

func NewRedisScheduler(rdb *redis.Client, store Store) *RedisScheduler {
	return &RedisScheduler{rdb: rdb, store: store, now: time.Now, batch: 100}
}

func (r *RedisScheduler) Schedule(ctx context.Context, id string, at time.Time) error {
	return r.rdb.ZAddNX(ctx, expiryKey, &redis.Z{Score: float64(at.UnixMilli()), Member: id}).Err()
}

// Sweep deletes every message that is due and returns how many it removed.
func (r *RedisScheduler) Sweep(ctx context.Context) (int, error) {
	due, err := r.rdb.ZRangeByScore(ctx, expiryKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(r.now().UnixMilli(), 10),
		Count: r.batch,
	}).Result()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range due {
		// ZREM decides which instance owns the deletion
		removed, err := r.rdb.ZRem(ctx, expiryKey, id).Result()
		if err != nil {
			return n, err
		}
		if removed == 0 {
			continue
		}
		if err := r.store.DeleteMessage(ctx, id); err != nil {
			log.Ctx(ctx).Warn("expired message not deleted", zap.String("message", id), zap.Error(err))
			continue
		}
		metrics.MessagesExpired.Inc()
		n++
	}
	return n, nil
}

// Run sweeps every interval until ctx is done.
func (r *RedisScheduler) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
				log.Ctx(ctx).Warn("chat expiry sweep failed", zap.Error(err))
			}
		}
	}
}

func (r *RedisScheduler) Close() error { return nil }
