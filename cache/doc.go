// Package cache provides the storage backends used by the result cache, a
// registry to select them by name, and a type-safe generic read helper.
//
// # Cache Interface
//
// The [Cache] interface defines four operations: [Cache.Get], [Cache.Set],
// [Cache.Expire] and [Cache.Close]. Every TTL passed to [Cache.Set] is a
// physical retention deadline. A TTL <= 0 means "do not retain": the backend
// drops any existing value and the next [Cache.Get] misses.
//
// [Cache.Get] reports presence separately from the value, so a stored nil is
// a hit, not a miss.
//
// # Implementations
//
//   - [NewInMemory]: In-process map guarded by a mutex. Values are stored
//     as-is (no copying). Expired entries are removed lazily on read and by a
//     background goroutine at a configurable interval ([WithExpiryCheck]).
//
//   - [NewSQLite]: Backed by a SQLite database using [modernc.org/sqlite]
//     (pure Go, no CGO). Values are serialized to msgpack and stored as BLOBs.
//     Supports both file-backed and ":memory:" modes.
//
//   - [NewRedis]: Backed by Redis using [github.com/redis/go-redis/v9].
//     Values are serialized to msgpack and stored with native Redis TTL. An
//     optional key prefix ([WithPrefix]) supports namespacing multiple caches
//     on the same Redis instance. The caller owns the [redis.Client]
//     lifecycle; [Cache.Close] is a no-op.
//
//   - [NewComposite]: Chains multiple [Cache] implementations in order.
//     [Cache.Get] returns the first hit, [Cache.Set] and [Cache.Expire] apply
//     to all of them.
//
//   - [NewDummy]: Retains nothing. Useful as a default when caching is
//     switched off.
//
//   - [NewBreaker]: Wraps a remote backend and fails fast with
//     [ErrBackendUnavailable] after consecutive errors, probing it again
//     once a cooldown has passed.
//
// The SQLite and Redis backends apply a per-operation timeout
// ([DefaultQueryTimeout]) derived from the caller's context.
//
// # Registry
//
// A [Registry] is built once at startup and passed to the components that
// need a backend:
//
//	reg, err := cache.NewRegistry("default", map[string]cache.Cache{
//	    "default": cache.NewInMemory(ctx),
//	    "shared":  cache.NewRedis(client, cache.WithPrefix("myapp")),
//	})
//
// # Generic Helper
//
// [Get] wraps [Cache.Get] with type safety. For in-memory caches it performs
// a direct type assertion; for serialized backends it decodes the stored
// []byte via msgpack, so it works regardless of which backend produced the
// value:
//
//	found, user, err := cache.Get[User](ctx, c, "user:123")
//
// For struct fields to survive serialization they must be exported. Functions,
// channels and complex numbers cannot be stored in the serialized backends.
package cache
