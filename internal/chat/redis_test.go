package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379")
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisScheduler_SweepDeletesOnlyDue(t *testing.T) {
	rdb := startRedis(t)
	store := newMemStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := NewRedisScheduler(rdb, store)
	a.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, a.Schedule(ctx, "due", now.Add(-time.Second)))
	require.NoError(t, a.Schedule(ctx, "later", now.Add(5*time.Minute)))

	n, err := a.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"due"}, store.deleted)

	// a second instance sees nothing left to do
	b := NewRedisScheduler(rdb, store)
	b.now = a.now
	n, err = b.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	a.now = func() time.Time { return now.Add(300000 * time.Millisecond) }
	n, err = a.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"due", "later"}, store.deleted)
}
