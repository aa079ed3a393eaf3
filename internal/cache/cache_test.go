package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/costlab/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// setupRedis spins up a Redis container and returns a connected RedisCache.
func setupRedis(t *testing.T) *cache.RedisCache {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	redisURL, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	rc, err := cache.NewRedisCache(redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	return rc
}

// --- Redis ---

func TestRedis_Ping(t *testing.T) {
	rc := setupRedis(t)
	assert.NoError(t, rc.Ping(context.Background()))
}

func TestRedis_SetGet_Roundtrip(t *testing.T) {
	rc := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "test:key", []byte("hello"), 10*time.Second))

	val, found, err := rc.Get(ctx, "test:key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("hello"), val)
}

func TestRedis_Get_NotFound(t *testing.T) {
	rc := setupRedis(t)

	val, found, err := rc.Get(context.Background(), "nonexistent:key")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestRedis_Set_TTLExpiry(t *testing.T) {
	rc := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "expiry:key", []byte("temp"), 1*time.Second))

	_, found, err := rc.Get(ctx, "expiry:key")
	require.NoError(t, err)
	assert.True(t, found)

	time.Sleep(1500 * time.Millisecond)

	_, found, err = rc.Get(ctx, "expiry:key")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedis_Delete(t *testing.T) {
	rc := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "del:key", []byte("bye"), 10*time.Second))
	require.NoError(t, rc.Delete(ctx, "del:key"))

	_, found, err := rc.Get(ctx, "del:key")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedis_IncrWithExpiry(t *testing.T) {
	rc := setupRedis(t)
	ctx := context.Background()
	key := "ratelimit:test:" + uuid.NewString()[:8]

	for want := int64(1); want <= 3; want++ {
		val, err := rc.IncrWithExpiry(ctx, key, 10*time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, val)
	}
}

// --- Memory ---

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemory_SetGet_Roundtrip(t *testing.T) {
	mc := cache.NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), time.Minute))

	val, found, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)
}

func TestMemory_ValueIsCopied(t *testing.T) {
	mc := cache.NewMemoryCache()
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, mc.Set(ctx, "k", buf, 0))
	buf[0] = 'z'

	val, _, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), val)
}

func TestMemory_TTLExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	mc := cache.NewMemoryCache().WithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), time.Hour))

	clock.Advance(59 * time.Minute)
	_, found, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	clock.Advance(time.Minute)
	_, found, err = mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	mc := cache.NewMemoryCache().WithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), 0))
	clock.Advance(365 * 24 * time.Hour)

	_, found, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMemory_Delete(t *testing.T) {
	mc := cache.NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, mc.Delete(ctx, "k"))
	require.NoError(t, mc.Delete(ctx, "never-set"))

	_, found, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemory_IncrWithExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	mc := cache.NewMemoryCache().WithClock(clock.Now)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		val, err := mc.IncrWithExpiry(ctx, "rl", time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, val)
	}

	clock.Advance(2 * time.Second)
	val, err := mc.IncrWithExpiry(ctx, "rl", time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), val, "counter restarts after expiry")
}

func TestNew_SelectsBackend(t *testing.T) {
	c, err := cache.New("")
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryCache{}, c)

	c, err = cache.New("redis://localhost:6379/0")
	require.NoError(t, err)
	assert.IsType(t, &cache.RedisCache{}, c)
	_ = c.Close()

	_, err = cache.New("not a url")
	assert.Error(t, err)
}

// --- Cache Key Builders ---

func TestHash_StableAndDistinct(t *testing.T) {
	assert.Equal(t, cache.Hash("a", "b"), cache.Hash("a", "b"))
	assert.NotEqual(t, cache.Hash("ab", "c"), cache.Hash("a", "bc"))
	assert.Len(t, cache.Hash("x"), 64)
}

func TestLLMResponseKey(t *testing.T) {
	assert.Equal(t, "llm:response:gemini:gemini-2.5-flash:abc", cache.LLMResponseKey("gemini", "gemini-2.5-flash", "abc"))
}

func TestDryRunKey(t *testing.T) {
	assert.Equal(t, "bq:dryrun:abc123", cache.DryRunKey("abc123"))
}

func TestSessionKey(t *testing.T) {
	id := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	assert.Equal(t, "session:22222222-2222-2222-2222-222222222222", cache.SessionKey(id.String()))
}

func TestRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:10.0.0.1", cache.RateLimitKey("10.0.0.1"))
	assert.Equal(t, "ratelimit:__1", cache.RateLimitKey("::1"))
}

func TestKeyBuilders_NonColliding(t *testing.T) {
	keys := map[string]bool{
		cache.LLMResponseKey("gemini", "m", "h1"): true,
		cache.DryRunKey("h1"):                     true,
		cache.SessionKey("h1"):                    true,
		cache.RateLimitKey("h1"):                  true,
	}
	assert.Len(t, keys, 4, "all keys should be unique")
}
