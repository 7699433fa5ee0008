package memo

import (
	"context"
	"time"

	"github.com/agentuity/go-resultcache/cache"
	"github.com/cockroachdb/errors"
)

// Computation is a function whose results can be cached. It receives the
// arguments given to Call unchanged, named arguments included; use
// SplitArgs to separate them.
type Computation[T any] func(ctx context.Context, args ...any) (T, error)

// Func is a Computation wrapped with a caching Policy.
type Func[T any] struct {
	engine  *Engine
	fn      Computation[T]
	policy  Policy
	backend cache.Cache
}

// Wrap returns fn cached according to opts. Without options results are
// cached forever in the registry's default backend.
func Wrap[T any](e *Engine, fn Computation[T], opts ...Option) (*Func[T], error) {
	if e == nil {
		return nil, errors.New("resultcache: engine is nil")
	}
	if fn == nil {
		return nil, errors.New("resultcache: computation is nil")
	}
	p := Policy{Forever: true, KeyFunc: DefaultKey}
	for _, opt := range opts {
		if err := opt(&p); err != nil {
			return nil, err
		}
	}
	if p.Name == "" {
		p.Name = funcName(fn)
	}
	if p.Background && e.dispatcher == nil {
		return nil, ErrNoDispatcher
	}
	backend, err := e.backends.Get(p.Backend)
	if err != nil {
		return nil, err
	}
	return &Func[T]{engine: e, fn: fn, policy: p, backend: backend}, nil
}

// MustWrap is like Wrap but panics on error.
func MustWrap[T any](e *Engine, fn Computation[T], opts ...Option) *Func[T] {
	f, err := Wrap(e, fn, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// CacheResult wraps fn with a timeout expression, a backend name and a key
// prefix. An empty timeout caches forever.
func CacheResult[T any](e *Engine, fn Computation[T], timeout, backend, prefix string) (*Func[T], error) {
	opts := []Option{WithBackend(backend), WithKeyPrefix(prefix)}
	if timeout != "" {
		opts = append(opts, WithTimeout(timeout))
	}
	return Wrap(e, fn, opts...)
}

// Policy returns the caching policy.
func (f *Func[T]) Policy() Policy {
	return f.policy
}

// Key returns the cache key for args, or false when calls with args bypass
// the cache.
func (f *Func[T]) Key(args ...any) (string, bool) {
	return deriveKey(f.policy.KeyFunc, f.policy.KeyPrefix, f.policy.Name, args)
}

// Call returns the cached result of fn(args...), computing it when there is
// no fresh value. Errors from fn are returned as is.
func (f *Func[T]) Call(ctx context.Context, args ...any) (T, error) {
	key, ok := f.Key(args...)
	return getResult(ctx, f.engine, request[T]{
		key:      key,
		keyed:    ok,
		function: f.policy.Name,
		compute: func(ctx context.Context) (T, error) {
			return f.fn(ctx, args...)
		},
		expiresIn:   f.engine.effective(f.policy),
		backend:     f.backend,
		graceful:    f.policy.Graceful,
		background:  f.policy.Background,
		keepExpired: f.policy.KeepExpired(),
	})
}

// Invalidate expires the cached result of fn(args...). Graceful and
// background policies keep the value as a fallback and only mark it stale;
// otherwise the entry is removed.
func (f *Func[T]) Invalidate(ctx context.Context, args ...any) error {
	key, ok := f.Key(args...)
	if !ok {
		return nil
	}
	if !f.policy.KeepExpired() {
		if _, err := f.backend.Expire(ctx, key); err != nil {
			return errors.Wrapf(err, "resultcache: expire %q", key)
		}
		return nil
	}
	found, cached, err := cache.Get[Entry[T]](ctx, f.backend, key)
	if err != nil {
		return errors.Wrapf(err, "resultcache: read %q", key)
	}
	if !found {
		return nil
	}
	cached.ExpirationTime = time.Time{}
	return f.engine.write(ctx, f.backend, key, cached, f.engine.maxTimeout)
}
