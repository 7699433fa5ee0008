package cache

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	mem := NewInMemory(ctx)
	dummy := NewDummy()

	reg, err := NewRegistry("", map[string]Cache{
		DefaultName: mem,
		"dummy":     dummy,
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultName, reg.Default())
	assert.Equal(t, []string{"default", "dummy"}, reg.Names())

	c, err := reg.Get("")
	require.NoError(t, err)
	assert.Equal(t, mem, c)

	c, err = reg.Get("dummy")
	require.NoError(t, err)
	assert.Equal(t, dummy, c)

	_, err = reg.Get("redis")
	assert.True(t, errors.Is(err, ErrUnknownBackend))

	assert.NoError(t, reg.Close())
}

func TestRegistryMissingDefault(t *testing.T) {
	_, err := NewRegistry("primary", map[string]Cache{"secondary": NewDummy()})
	assert.True(t, errors.Is(err, ErrUnknownBackend))

	_, err = NewRegistry("primary", map[string]Cache{"primary": nil})
	assert.Error(t, err)
}

func TestSingle(t *testing.T) {
	dummy := NewDummy()
	reg := Single(dummy)
	c, err := reg.Get("")
	require.NoError(t, err)
	assert.Equal(t, dummy, c)
	assert.Equal(t, []string{DefaultName}, reg.Names())
}
