package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDeliveryGuard(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryDeliveryGuard(time.Minute).(*memoryDeliveryGuard)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	first, err := g.Claim(ctx, "d-1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := g.Claim(ctx, "d-1")
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, g.Release(ctx, "d-1"))
	afterRelease, _ := g.Claim(ctx, "d-1")
	assert.True(t, afterRelease)

	now = now.Add(2 * time.Minute)
	expired, _ := g.Claim(ctx, "d-1")
	assert.True(t, expired)
}

func TestRedisDeliveryGuardReportsConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	g := NewRedisDeliveryGuard(client, time.Minute)
	_, err := g.Claim(context.Background(), "d-1")
	assert.Error(t, err)
	assert.Equal(t, "portal:webhook:delivery:d-1", DeliveryKey("d-1"))
}
