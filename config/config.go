// Package config holds the process-wide settings of the result cache.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/agentuity/go-resultcache/cache"
	"github.com/agentuity/go-resultcache/duration"
	"github.com/agentuity/go-resultcache/logger"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const (
	EnvMaxTimeout     = "RESULTCACHE_MAX_TIMEOUT"
	EnvDefaultBackend = "RESULTCACHE_DEFAULT_BACKEND"
	EnvLogLevel       = logger.EnvLevel
)

// DefaultMaxTimeout is ten years.
const DefaultMaxTimeout = 10 * 365 * 24 * time.Hour

// Config is built once at startup and handed down to the engine.
type Config struct {
	// MaxTimeout is the ceiling used for "forever" policies and as the
	// physical TTL of entries kept past their logical expiration.
	MaxTimeout time.Duration `yaml:"max_timeout"`
	// DefaultBackend names the backend used by policies that select none.
	DefaultBackend string `yaml:"default_backend"`
	// LogLevel is a level name understood by logger.ParseLevel.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxTimeout:     DefaultMaxTimeout,
		DefaultBackend: cache.DefaultName,
		LogLevel:       "info",
	}
}

// file mirrors Config with the timeout as a duration expression.
type file struct {
	MaxTimeout     string `yaml:"max_timeout"`
	DefaultBackend string `yaml:"default_backend"`
	LogLevel       string `yaml:"log_level"`
}

// Load reads a YAML file on top of Default and then applies environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		buf, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, errors.Wrapf(err, "config: read %s", path)
		default:
			if err := cfg.decode(buf); err != nil {
				return Config{}, errors.Wrapf(err, "config: parse %s", path)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// FromEnv returns Default with environment overrides applied.
func FromEnv() (Config, error) {
	return Load("")
}

func (c *Config) decode(buf []byte) error {
	var f file
	if err := yaml.Unmarshal(buf, &f); err != nil {
		return err
	}
	if f.MaxTimeout != "" {
		d, err := ParseTimeout(f.MaxTimeout)
		if err != nil {
			return err
		}
		c.MaxTimeout = d
	}
	if f.DefaultBackend != "" {
		c.DefaultBackend = f.DefaultBackend
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvMaxTimeout); ok && strings.TrimSpace(v) != "" {
		d, err := ParseTimeout(v)
		if err != nil {
			return errors.Wrapf(err, "config: %s", EnvMaxTimeout)
		}
		c.MaxTimeout = d
	}
	if v, ok := lookup(EnvDefaultBackend); ok && v != "" {
		c.DefaultBackend = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	return nil
}

// ParseTimeout converts a duration expression ("10y", "315360000",
// "30 days") into a fixed length, resolving calendar units from now.
func ParseTimeout(expr string) (time.Duration, error) {
	d, err := duration.Parse(expr)
	if err != nil {
		return 0, err
	}
	return d.Approx(time.Now()), nil
}

// Validate reports configuration that cannot be used.
func (c Config) Validate() error {
	if c.MaxTimeout < time.Second {
		return errors.Newf("config: max timeout must be at least one second, got %s", c.MaxTimeout)
	}
	if c.DefaultBackend == "" {
		return errors.New("config: default backend must not be empty")
	}
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		return errors.Newf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() logger.LogLevel {
	level, _ := logger.ParseLevel(c.LogLevel)
	return level
}

// Logger returns a JSON logger at the configured level.
func (c Config) Logger() logger.Logger {
	return logger.NewJSONLogger(c.Level())
}

// Registry builds a backend registry whose default is DefaultBackend.
func (c Config) Registry(backends map[string]cache.Cache) (*cache.Registry, error) {
	return cache.NewRegistry(c.DefaultBackend, backends)
}
