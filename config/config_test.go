package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentuity/go-resultcache/cache"
	"github.com/agentuity/go-resultcache/duration"
	"github.com/agentuity/go-resultcache/logger"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvMaxTimeout, EnvDefaultBackend, EnvLogLevel} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 3650*24*time.Hour, cfg.MaxTimeout)
	assert.Equal(t, "default", cfg.DefaultBackend)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, logger.LevelInfo, cfg.Level())
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "resultcache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_timeout: 30 days
default_backend: redis
log_level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, cfg.MaxTimeout)
	assert.Equal(t, "redis", cfg.DefaultBackend)
	assert.Equal(t, logger.LevelDebug, cfg.Level())
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "resultcache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_timeout: 1h\n"), 0o600))
	t.Setenv(EnvMaxTimeout, "120")
	t.Setenv(EnvDefaultBackend, "sqlite")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.MaxTimeout)
	assert.Equal(t, "sqlite", cfg.DefaultBackend)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMaxTimeout, "eventually")
	_, err := FromEnv()
	assert.True(t, errors.Is(err, duration.ErrParse))

	clearEnv(t)
	t.Setenv(EnvLogLevel, "loud")
	_, err = FromEnv()
	assert.Error(t, err)

	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_timeout: [1, 2"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv(EnvMaxTimeout, "0.5")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestParseTimeout(t *testing.T) {
	d, err := ParseTimeout("10y")
	require.NoError(t, err)
	assert.True(t, d >= 3652*24*time.Hour && d <= 3653*24*time.Hour, d)
}

func TestRegistry(t *testing.T) {
	cfg := Default()
	cfg.DefaultBackend = "shared"
	reg, err := cfg.Registry(map[string]cache.Cache{
		"local":  cache.NewDummy(),
		"shared": cache.NewDummy(),
	})
	require.NoError(t, err)
	assert.Equal(t, "shared", reg.Default())

	cfg.DefaultBackend = "missing"
	_, err = cfg.Registry(map[string]cache.Cache{"local": cache.NewDummy()})
	assert.Error(t, err)
}
