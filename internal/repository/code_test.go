package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/arcade-relay/testing/suite"
)

func TestMemoryCodeRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("Reserved code cannot be reserved twice", func(t *testing.T) {
		codes := NewMemoryCodeRegistry(time.Minute)

		ok, err := codes.Reserve(ctx, "12345")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = codes.Reserve(ctx, "12345")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Expired reservation is free again", func(t *testing.T) {
		// Given: a registry whose clock we control
		codes := NewMemoryCodeRegistry(time.Minute).(*memoryCodes)
		now := time.Now()
		codes.now = func() time.Time { return now }

		ok, _ := codes.Reserve(ctx, "12345")
		require.True(t, ok)

		// When: the reservation lapses
		now = now.Add(2 * time.Minute)

		// Then: the code can be reserved again
		ok, _ = codes.Reserve(ctx, "12345")
		assert.True(t, ok)
	})

	t.Run("Claimed code never lapses until released", func(t *testing.T) {
		codes := NewMemoryCodeRegistry(time.Minute).(*memoryCodes)
		now := time.Now()
		codes.now = func() time.Time { return now }

		require.NoError(t, codes.Claim(ctx, "12345"))
		now = now.Add(time.Hour)

		ok, _ := codes.Reserve(ctx, "12345")
		assert.False(t, ok)

		require.NoError(t, codes.Release(ctx, "12345"))
		ok, _ = codes.Reserve(ctx, "12345")
		assert.True(t, ok)
	})
}

func TestRedisCodeRegistry(t *testing.T) {
	if testing.Short() {
		t.Skip("redis integration test")
	}

	ctx, st := suite.New(t)
	codes := NewRedisCodeRegistry(st.Storage, time.Minute)

	t.Run("Reserve is exclusive", func(t *testing.T) {
		// Given: a code reserved once
		ok, err := codes.Reserve(ctx, "12345")
		require.NoError(t, err)
		require.True(t, ok)

		// When: another instance tries the same code
		ok, err = codes.Reserve(ctx, "12345")

		// Then: it is refused
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Claim removes the expiry", func(t *testing.T) {
		_, err := codes.Reserve(ctx, "22222")
		require.NoError(t, err)

		require.NoError(t, codes.Claim(ctx, "22222"))

		ttl, err := st.Storage.TTL(ctx, codeKeyPrefix+"22222").Result()
		require.NoError(t, err)
		assert.Equal(t, time.Duration(-1), ttl)
	})

	t.Run("Release frees the code", func(t *testing.T) {
		require.NoError(t, codes.Release(ctx, "12345"))

		ok, err := codes.Reserve(ctx, "12345")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Releasing an unknown code is fine", func(t *testing.T) {
		require.NoError(t, codes.Release(ctx, "99999"))
	})
}
