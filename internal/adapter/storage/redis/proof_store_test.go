package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *goredis.Client {
	mr := miniredis.RunT(t)
	return goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
}

func TestProofStore_Bind(t *testing.T) {
	store := NewProofStore(newTestClient(t))
	ctx := context.Background()

	checkoutA := uuid.New()
	checkoutB := uuid.New()

	ok, err := store.Bind(ctx, "hash-1", checkoutA)
	require.NoError(t, err)
	assert.True(t, ok)

	// Same proof, same checkout: idempotent.
	ok, err = store.Bind(ctx, "hash-1", checkoutA)
	require.NoError(t, err)
	assert.True(t, ok)

	// Same proof, different checkout: replay.
	ok, err = store.Bind(ctx, "hash-1", checkoutB)
	require.NoError(t, err)
	assert.False(t, ok)

	// Different proof binds freely.
	ok, err = store.Bind(ctx, "hash-2", checkoutB)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimitStore_Allow(t *testing.T) {
	store := NewRateLimitStore(newTestClient(t))
	ctx := context.Background()

	var lastAllowed bool
	for i := 0; i < 4; i++ {
		res, err := store.Allow(ctx, "client-1", 3, time.Minute)
		require.NoError(t, err)
		lastAllowed = res.Allowed
	}
	assert.False(t, lastAllowed, "fourth request in a 3-per-window limit must be rejected")

	res, err := store.Allow(ctx, "client-2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "separate keys count separately")
}
