package utils

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBlacklistInMemory(t *testing.T) {
	bl := NewTokenBlacklist(nil)
	start := time.Now()
	bl.now = func() time.Time { return start }

	bl.Revoke("tok", start.Add(time.Hour))
	assert.True(t, bl.IsRevoked("tok"))
	assert.False(t, bl.IsRevoked("other"))

	bl.now = func() time.Time { return start.Add(2 * time.Hour) }
	assert.False(t, bl.IsRevoked("tok"))
	assert.Empty(t, bl.mem)
}

func TestTokenBlacklistIgnoresExpired(t *testing.T) {
	bl := NewTokenBlacklist(nil)
	bl.Revoke("old", time.Now().Add(-time.Minute))
	assert.False(t, bl.IsRevoked("old"))
}

func TestCacheDisabledIsNoop(t *testing.T) {
	var nilCache *Cache
	_, ok := nilCache.GetBytes("k")
	assert.False(t, ok)

	c := NewCache(nil)
	c.SetJSON("k", map[string]string{"a": "b"}, 0)
	c.InvalidateByPrefix("k")
	c.Delete("k")
	var out map[string]string
	assert.False(t, c.GetJSON("k", &out))
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return mr, rc
}

func TestTokenBlacklistRedis(t *testing.T) {
	mr, rc := newMiniRedis(t)
	bl := NewTokenBlacklist(rc)

	bl.Revoke("tok", time.Now().Add(time.Hour))
	assert.True(t, bl.IsRevoked("tok"))
	assert.False(t, bl.IsRevoked("other"))
	assert.Empty(t, bl.mem)

	ttl := mr.TTL(blacklistPrefix + "tok")
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	mr.FastForward(time.Hour + time.Second)
	assert.False(t, bl.IsRevoked("tok"))
}

func TestCacheRedis(t *testing.T) {
	mr, rc := newMiniRedis(t)
	c := NewCache(rc)

	c.SetJSON("k", map[string]string{"a": "b"}, 0)
	var out map[string]string
	require.True(t, c.GetJSON("k", &out))
	assert.Equal(t, map[string]string{"a": "b"}, out)
	assert.Equal(t, defaultCacheTTL, mr.TTL("k"))

	c.Delete("k")
	assert.False(t, c.GetJSON("k", &out))

	for _, k := range []string{"p:1", "p:2", "q:1"} {
		c.SetJSON(k, 1, time.Minute)
	}
	c.InvalidateByPrefix("p:")
	assert.False(t, mr.Exists("p:1"))
	assert.False(t, mr.Exists("p:2"))
	assert.True(t, mr.Exists("q:1"))
}
