package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule-go/internal/config"
)

func TestRedisTokenBlacklist(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewClient(ctx, config.RedisConfig{Addr: addr})
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer client.Close()

	bl := NewRedisTokenBlacklist(client)
	jti := uuid.NewString()

	ok, err := bl.IsBlacklisted(ctx, jti)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, bl.Add(ctx, jti, time.Now().Add(time.Minute)))
	ok, err = bl.IsBlacklisted(ctx, jti)
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := client.TTL(ctx, blacklistKeyPrefix+jti).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)

	expired := uuid.NewString()
	require.NoError(t, bl.Add(ctx, expired, time.Now().Add(-time.Minute)))
	ok, err = bl.IsBlacklisted(ctx, expired)
	require.NoError(t, err)
	assert.False(t, ok)
}
