package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"forumclient/internal/core/domain"
	"forumclient/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Runs only when FORUM_TEST_REDIS points at a disposable redis.
func testClient(t *testing.T) *ProfileCache {
	t.Helper()
	addr := os.Getenv("FORUM_TEST_REDIS")
	if addr == "" {
		t.Skip("FORUM_TEST_REDIS not set")
	}
	client, err := Connect(context.Background(), Options{Address: addr, DB: 15, PoolSize: 4}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewProfileCache(client, utils.GenerateID("test"), time.Minute).(*ProfileCache)
}

func TestProfileCache_RoundTrip(t *testing.T) {
	cache := testClient(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.False(t, ok)

	rec := &domain.UserRecord{ID: "u1", IdentityID: "uid-1", Role: domain.RoleAdmin}
	require.NoError(t, cache.Set(ctx, rec))

	got, ok, err := cache.Get(ctx, "uid-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	require.NoError(t, cache.Delete(ctx, "uid-1"))
	_, ok, _ = cache.Get(ctx, "uid-1")
	assert.False(t, ok)
}

func TestProfileCache_Clear(t *testing.T) {
	cache := testClient(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &domain.UserRecord{IdentityID: "uid-1"}))
	require.NoError(t, cache.Set(ctx, &domain.UserRecord{IdentityID: "uid-2"}))
	require.NoError(t, cache.Clear(ctx))

	for _, id := range []string{"uid-1", "uid-2"} {
		_, ok, err := cache.Get(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestProfileCache_RejectsAnonymousRecord(t *testing.T) {
	cache := &ProfileCache{}
	assert.Error(t, cache.Set(context.Background(), &domain.UserRecord{}))
}
