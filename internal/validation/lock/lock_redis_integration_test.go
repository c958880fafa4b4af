//go:build integration

package lock

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirvagold/DapoMaster/pkg/platform/sentinel"
	"github.com/nirvagold/DapoMaster/pkg/testutil/containers"
)

func TestRedisLockExclusion(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	guard := NewRedisLock(rc.Client, time.Minute, logger)

	release, err := guard.TryAcquire(ctx)
	require.NoError(t, err)

	// A second holder, even through a fresh lock value, is rejected.
	other := NewRedisLock(rc.Client, time.Minute, logger)
	_, err = other.TryAcquire(ctx)
	assert.ErrorIs(t, err, sentinel.ErrBusy)

	release()

	release2, err := other.TryAcquire(ctx)
	require.NoError(t, err)
	release2()
}

func TestRedisLockReleaseIsOwnerScoped(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	guard := NewRedisLock(rc.Client, time.Minute, logger)
	release, err := guard.TryAcquire(ctx)
	require.NoError(t, err)

	// Overwrite the lock as if another instance took over after TTL expiry.
	require.NoError(t, rc.Client.Set(ctx, "dapomaster:validation:engine_lock", "someone-else", time.Minute).Err())

	// The stale holder's release must not free the new owner's lock.
	release()

	val, err := rc.Client.Get(ctx, "dapomaster:validation:engine_lock").Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
}

func TestRedisLockTTLExpiry(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	guard := NewRedisLock(rc.Client, 100*time.Millisecond, logger)
	_, err := guard.TryAcquire(ctx)
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)

	// A crashed holder cannot block peers past the TTL.
	release, err := guard.TryAcquire(ctx)
	require.NoError(t, err)
	release()
}
