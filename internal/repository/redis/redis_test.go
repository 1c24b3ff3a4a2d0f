package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/Rrens/fai-advisor/internal/security"
	"github.com/Rrens/fai-advisor/internal/websession"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient connects to REDIS_ADDR and skips when it is not set
func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set - run as integration test")
	}

	client := NewFromClient(goredis.NewClient(&goredis.Options{Addr: addr}))
	if err := client.Ping(context.Background()); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRateLimiter_Allow(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	limiter := NewRateLimiter(client, 2, 1)
	key := "test:" + uuid.NewString()
	defer limiter.Reset(ctx, key)

	for i := 0; i < 3; i++ {
		allowed, _, _, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}

	allowed, remaining, reset, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
	assert.True(t, reset.After(time.Now()))
}

func TestSessionStore_SealedRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	sealer, err := security.NewSealer("session-secret")
	require.NoError(t, err)
	store := NewSessionStore(client, time.Minute, sealer)

	sess := &websession.Session{
		ID:          uuid.NewString(),
		User:        &domain.Identity{ID: "u1", Email: "student@example.com"},
		AccessToken: "secret-token",
	}
	require.NoError(t, store.Save(ctx, sess))
	defer store.Delete(ctx, sess.ID)

	raw, err := client.rdb.Get(ctx, sessionPrefix+sess.ID).Result()
	require.NoError(t, err)
	assert.NotContains(t, raw, "secret-token")

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "secret-token", got.AccessToken)
	assert.Equal(t, "u1", got.User.ID)

	require.NoError(t, store.Delete(ctx, sess.ID))
	got, err = store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
