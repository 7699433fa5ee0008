package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T, opts ...Option) Cache {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	c, err := NewSQLite(ctx, ":memory:", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSQLiteSetGetCache(t *testing.T) {
	ctx := context.Background()
	c := newTestSQLite(t)

	found, val, err := c.Get(ctx, "test")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)

	assert.NoError(t, c.Set(ctx, "test", "value", time.Minute))
	found, val, err = c.Get(ctx, "test")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.NotNil(t, val)

	ok, str, err := Get[string](ctx, c, "test")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", str)
}

func TestSQLiteCacheExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := newTestSQLite(t, WithClock(clock))

	assert.NoError(t, c.Set(ctx, "test", "value", 5*time.Second))
	found, _, err := c.Get(ctx, "test")
	assert.NoError(t, err)
	assert.True(t, found)

	clock.Advance(5 * time.Second)
	found, val, err := c.Get(ctx, "test")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestSQLiteZeroTTLNotRetained(t *testing.T) {
	ctx := context.Background()
	c := newTestSQLite(t)

	assert.NoError(t, c.Set(ctx, "test", "value", time.Minute))
	assert.NoError(t, c.Set(ctx, "test", "value", 0))
	found, _, err := c.Get(ctx, "test")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteCacheExpireMethod(t *testing.T) {
	ctx := context.Background()
	c := newTestSQLite(t)

	assert.NoError(t, c.Set(ctx, "test", "value", time.Minute))
	found, err := c.Expire(ctx, "test")
	assert.NoError(t, err)
	assert.True(t, found)

	found, _, err = c.Get(ctx, "test")
	assert.NoError(t, err)
	assert.False(t, found)

	found, err = c.Expire(ctx, "nonexistent")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteFileBased(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	c, err := NewSQLite(ctx, dbPath)
	require.NoError(t, err)

	assert.NoError(t, c.Set(ctx, "key", "file-based", time.Minute))
	assert.NoError(t, c.Close())

	// Survives a reopen.
	c, err = NewSQLite(ctx, dbPath)
	require.NoError(t, err)
	defer c.Close()
	ok, val, err := Get[string](ctx, c, "key")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "file-based", val)
}

func TestSQLiteOverwrite(t *testing.T) {
	ctx := context.Background()
	c := newTestSQLite(t)

	assert.NoError(t, c.Set(ctx, "key", "first", time.Minute))
	assert.NoError(t, c.Set(ctx, "key", "second", time.Minute))
	ok, v, err := Get[string](ctx, c, "key")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestSQLiteContextCancellation(t *testing.T) {
	c := newTestSQLite(t)

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := c.Get(cancelledCtx, "key")
	assert.Error(t, err)

	err = c.Set(cancelledCtx, "key", "value", time.Minute)
	assert.Error(t, err)
}
