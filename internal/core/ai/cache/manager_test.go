package cache

import (
	"context"
	"testing"
	"time"

	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCacheConfig() *config.Config {
	return &config.Config{
		Cache: config.CacheConfig{
			Enabled:         true,
			MaxSize:         100,
			TTL:             time.Minute,
			CleanupInterval: time.Minute,
		},
	}
}

func TestManagerSetAndGet(t *testing.T) {
	m := NewManager(testCacheConfig())
	require.NotNil(t, m)
	defer m.Close()

	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "schluessel", "wert"))

	value, err := m.Get(ctx, "schluessel")
	require.NoError(t, err)
	assert.Equal(t, "wert", value)
}

func TestManagerMiss(t *testing.T) {
	m := NewManager(testCacheConfig())
	require.NotNil(t, m)
	defer m.Close()

	_, err := m.Get(context.Background(), "gibt-es-nicht")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestManagerExpiry(t *testing.T) {
	cfg := testCacheConfig()
	cfg.Cache.TTL = 10 * time.Millisecond
	m := NewManager(cfg)
	require.NotNil(t, m)
	defer m.Close()

	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "fluechtig", "wert"))
	time.Sleep(20 * time.Millisecond)

	_, err := m.Get(ctx, "fluechtig")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestManagerEvictsLeastUsed(t *testing.T) {
	cfg := testCacheConfig()
	cfg.Cache.MaxSize = 2
	m := NewManager(cfg)
	require.NotNil(t, m)
	defer m.Close()

	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "a", "1"))
	require.NoError(t, m.Set(ctx, "b", "2"))

	// a 被讀取過，b 是最少使用的條目
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "c", "3"))

	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	value, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", value)
}

func TestManagerDisabled(t *testing.T) {
	cfg := testCacheConfig()
	cfg.Cache.Enabled = false
	assert.Nil(t, NewManager(cfg))
}

func TestManagerStats(t *testing.T) {
	m := NewManager(testCacheConfig())
	require.NotNil(t, m)
	defer m.Close()

	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "a", "1"))
	_, _ = m.Get(ctx, "a")
	_, _ = m.Get(ctx, "fehlt")

	stats := m.GetStats()
	assert.Equal(t, 1, stats["size"])
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
	assert.Equal(t, 0.5, stats["hit_ratio"])
}

func TestManagerCloseIsIdempotent(t *testing.T) {
	m := NewManager(testCacheConfig())
	require.NotNil(t, m)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}
