package auth

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRevocationStore(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})

	store := NewRevocationStore(client)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "tok-1", 5*time.Second))
	revoked, err = store.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	require.True(t, revoked)

	// expiry releases the entry
	m.FastForward(6 * time.Second)
	revoked, err = store.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevocationStoreNilClient(t *testing.T) {
	store := NewRevocationStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Revoke(ctx, "tok", time.Second))
	revoked, err := store.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	require.False(t, revoked)
}
