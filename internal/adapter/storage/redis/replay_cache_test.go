package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayCache_SetAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewReplayCache(client)
	ctx := context.Background()

	key := "idem-create-001"
	value := []byte(`{"id":"cs_abc","status":"not_ready_for_payment"}`)

	// Get before set => nil, nil
	result, err := cache.Get(ctx, key)
	assert.NoError(t, err)
	assert.Nil(t, result)

	err = cache.Set(ctx, key, value, 24*time.Hour)
	require.NoError(t, err)

	result, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, value, result)
}

func TestReplayCache_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewReplayCache(client)
	ctx := context.Background()

	key := "idem-create-002"
	require.NoError(t, cache.Set(ctx, key, []byte(`{"id":"cs_x"}`), time.Second))

	// Fast-forward past the TTL in miniredis.
	s.FastForward(2 * time.Second)

	result, err := cache.Get(ctx, key)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestReplayCache_KeysArePrefixed(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewReplayCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "idem-1", []byte("x"), time.Minute))
	assert.True(t, s.Exists("replay:idem-1"))
}
