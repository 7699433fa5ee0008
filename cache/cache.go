package cache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache is the storage backend contract. Keys are plain strings and every
// value is stored with a physical TTL after which the backend may evict it.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was present,
	// which is distinct from a present key holding a nil value.
	Get(ctx context.Context, key string) (bool, any, error)
	// Set stores a value with a TTL. A TTL <= 0 means the value must not be
	// retained: any existing value is removed and the next Get misses.
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	// Expire removes a key, reporting whether it was present.
	Expire(ctx context.Context, key string) (bool, error)
	// Close shuts down the cache.
	Close() error
}

// Clock provides the current time. It exists so tests can move time forward
// without sleeping.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Get retrieves a typed value from the cache.
// For in-memory caches, it performs a direct type assertion.
// For serialized caches (Redis, SQLite), it deserializes from []byte using msgpack.
func Get[T any](ctx context.Context, c Cache, key string) (bool, T, error) {
	var zero T
	found, val, err := c.Get(ctx, key)
	if !found || err != nil {
		return false, zero, err
	}
	// Direct type assertion (works for in-memory cache)
	if typed, ok := val.(T); ok {
		return true, typed, nil
	}
	// Deserialize from []byte (works for serialized caches)
	if data, ok := val.([]byte); ok {
		var result T
		if err := msgpack.Unmarshal(data, &result); err != nil {
			return false, zero, errors.Wrap(err, "cache: failed to unmarshal value")
		}
		return true, result, nil
	}
	return false, zero, errors.Newf("cache: cannot convert value of type %T to %T", val, zero)
}

// DefaultQueryTimeout is the per-operation timeout for cache backends that
// perform I/O (SQLite, Redis). Prevents indefinite hangs on slow or
// unresponsive storage.
const DefaultQueryTimeout = 5 * time.Second

// config holds the resolved configuration for a cache implementation.
type config struct {
	queryTimeout time.Duration
	expiryCheck  time.Duration
	prefix       string
	clock        Clock
}

// Option configures a Cache implementation.
type Option func(*config)

func defaultConfig() config {
	return config{
		queryTimeout: DefaultQueryTimeout,
		expiryCheck:  time.Minute,
		clock:        wallClock{},
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithQueryTimeout sets the per-operation timeout for I/O-backed caches
// (SQLite, Redis). Defaults to DefaultQueryTimeout (5 seconds).
func WithQueryTimeout(d time.Duration) Option {
	return func(c *config) { c.queryTimeout = d }
}

// WithExpiryCheck sets the interval for background expired entry cleanup.
// Applies to InMemory and SQLite backends. Defaults to 1 minute.
func WithExpiryCheck(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.expiryCheck = d
		}
	}
}

// WithPrefix sets the key prefix for namespacing cache keys.
// Applies to the Redis backend. Defaults to empty (no prefix).
func WithPrefix(p string) Option {
	return func(c *config) { c.prefix = p }
}

// WithClock overrides the time source used for TTL bookkeeping by the
// InMemory and SQLite backends.
func WithClock(clock Clock) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}
