// internal/lock/redis_test.go
package lock

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not available: %v", err)
	}

	resource, err := pool.Run("redis", "7-alpine", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("localhost:%s", resource.GetPort("6379/tcp")),
	})
	require.NoError(t, pool.Retry(func() error {
		return client.Ping(context.Background()).Err()
	}))
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLocker(t *testing.T) {
	client := startRedis(t)
	l := NewRedisLocker(client, "test:lock:", 5*time.Second, 100*time.Millisecond)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "raffle:1")
	require.NoError(t, err)

	_, err = l.Lock(ctx, "raffle:1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	other, err := l.Lock(ctx, "raffle:2")
	require.NoError(t, err)
	other()

	unlock()
	exists, err := client.Exists(ctx, "test:lock:raffle:1").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	again, err := l.Lock(ctx, "raffle:1")
	require.NoError(t, err)
	again()
}

func TestRedisLockerReleaseKeepsForeignToken(t *testing.T) {
	client := startRedis(t)
	l := NewRedisLocker(client, "test:lock:", 5*time.Second, 50*time.Millisecond)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "k")
	require.NoError(t, err)

	// Simulate expiry and takeover by another holder
	require.NoError(t, client.Set(ctx, "test:lock:k", "someone-else", time.Minute).Err())
	unlock()

	val, err := client.Get(ctx, "test:lock:k").Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
}
