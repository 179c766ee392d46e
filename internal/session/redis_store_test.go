package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobappid/verify-portal/internal/domain"
	"github.com/jobappid/verify-portal/internal/persistence"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(&persistence.Redis{Client: client}, ttl, nil)
	require.NoError(t, err)
	return store, mr
}

func TestNewRedisStore_RequiresClient(t *testing.T) {
	_, err := NewRedisStore(nil, time.Hour, nil)
	assert.Error(t, err)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	sessions := []domain.Session{
		domain.AgentSession{OfficeName: "North Office", AccessKey: "verifier_abc"},
		domain.AgencySession{AgencyID: "ag_1", AgencyName: "Acme", AgencyToken: "tok"},
		domain.AgencySession{AgencyName: "Acme", AgencyToken: "tok"},
	}
	for _, want := range sessions {
		require.NoError(t, store.Save(ctx, "sid-1", want))
		assert.Equal(t, want, store.Load(ctx, "sid-1"))
		assert.Greater(t, mr.TTL(Key("sid-1")), time.Duration(0))
	}

	require.NoError(t, store.Clear(ctx, "sid-1"))
	assert.Nil(t, store.Load(ctx, "sid-1"))
	assert.False(t, mr.Exists(Key("sid-1")))
}

func TestRedisStore_LoadRenewsTTL(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid-1", domain.AgentSession{OfficeName: "A", AccessKey: "k"}))
	mr.FastForward(40 * time.Minute)
	assert.Equal(t, 20*time.Minute, mr.TTL(Key("sid-1")))

	require.NotNil(t, store.Load(ctx, "sid-1"))
	assert.Equal(t, time.Hour, mr.TTL(Key("sid-1")))

	mr.FastForward(2 * time.Hour)
	assert.Nil(t, store.Load(ctx, "sid-1"))
}

func TestRedisStore_MalformedBlobIsDiscarded(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	for name, blob := range malformedBlobs {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, mr.Set(Key("sid-1"), blob))

			assert.NotPanics(t, func() {
				assert.Nil(t, store.Load(ctx, "sid-1"))
			})
			assert.False(t, mr.Exists(Key("sid-1")))
		})
	}
}

func TestRedisStore_IgnoresOlderKeyVersion(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)

	require.NoError(t, mr.Set("jobappid_verify_session_v1:sid-1", `{"kind":"agent","officeName":"A","accessKey":"k"}`))
	assert.Nil(t, store.Load(context.Background(), "sid-1"))
}

func TestRedisStore_EmptySessionID(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "", domain.AgentSession{OfficeName: "A", AccessKey: "k"}))
	assert.Nil(t, store.Load(ctx, ""))
	assert.NoError(t, store.Clear(ctx, ""))
	assert.Empty(t, mr.Keys())
}

func TestRedisStore_UnreachableServerLoadsNothing(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	store, err := NewRedisStore(&persistence.Redis{Client: client}, time.Hour, nil)
	require.NoError(t, err)

	assert.Nil(t, store.Load(context.Background(), "sid-1"))
}
