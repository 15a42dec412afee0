package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/marking-service/internal/utils"
)

type payload struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func newTestCache(t *testing.T) (CacheService, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewRedisCache(client, logger), server
}

func TestRedisCache_SetGet(t *testing.T) {
	c, server := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", payload{Name: "a", Score: 80}, time.Minute))

	var got payload
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, payload{Name: "a", Score: 80}, got)

	server.FastForward(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := newTestCache(t)
	var got payload
	assert.ErrorIs(t, c.Get(context.Background(), "absent", &got), ErrCacheMiss)
}

func TestRedisCache_UndecodableIsMiss(t *testing.T) {
	c, server := newTestCache(t)
	require.NoError(t, server.Set("k", "not-json"))

	var got payload
	assert.ErrorIs(t, c.Get(context.Background(), "k", &got), ErrCacheMiss)
	assert.False(t, server.Exists("k"))
}

func TestRedisCache_DeletePattern(t *testing.T) {
	c, server := newTestCache(t)
	ctx := context.Background()

	for i := uint(1); i <= 3; i++ {
		require.NoError(t, c.Set(ctx, ReportKey(i), payload{Score: int(i)}, time.Minute))
	}
	require.NoError(t, c.Set(ctx, "other", payload{}, time.Minute))

	require.NoError(t, c.DeletePattern(ctx, "marking:report:*"))

	assert.False(t, server.Exists(ReportKey(1)))
	assert.False(t, server.Exists(ReportKey(3)))
	assert.True(t, server.Exists("other"))

	require.NoError(t, c.Delete(ctx, "other"))
	assert.False(t, server.Exists("other"))
}
