package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	ok, err := l.AcquireLock(ctx, "lock:opname:1", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = l.AcquireLock(ctx, "lock:opname:1", "b", time.Minute)
	assert.False(t, ok)

	// wrong owner cannot release
	require.NoError(t, l.ReleaseLock(ctx, "lock:opname:1", "b"))
	ok, _ = l.AcquireLock(ctx, "lock:opname:1", "b", time.Minute)
	assert.False(t, ok)

	require.NoError(t, l.ReleaseLock(ctx, "lock:opname:1", "a"))
	ok, _ = l.AcquireLock(ctx, "lock:opname:1", "b", time.Minute)
	assert.True(t, ok)
}

func TestLocalLocker_Expires(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	ok, _ := l.AcquireLock(ctx, "k", "a", time.Millisecond)
	require.True(t, ok)
	time.Sleep(5 * time.Millisecond)

	ok, _ = l.AcquireLock(ctx, "k", "b", time.Minute)
	assert.True(t, ok)
}
