package memo

import (
	"time"

	"github.com/agentuity/go-resultcache/duration"
	"github.com/cockroachdb/errors"
)

// Policy is the caching configuration of one wrapped computation. It is
// fixed by Wrap and never changes afterwards.
type Policy struct {
	// Name is the function identity used in keys, logs and metrics.
	// Defaults to the runtime symbol name of the wrapped function.
	Name string
	// Duration is the freshness window. Ignored when Forever is set.
	Duration duration.Duration
	// Forever uses the engine's max timeout as the freshness window.
	Forever bool
	// Backend names the registry entry to store results in. Empty selects
	// the registry default.
	Backend string
	// KeyPrefix is prepended to every derived key.
	KeyPrefix string
	// KeyFunc derives keys. Defaults to DefaultKey.
	KeyFunc KeyFunc
	// Graceful serves the stale value when recomputation fails.
	Graceful bool
	// Background serves stale values immediately and refreshes them through
	// the engine's dispatcher.
	Background bool
}

// KeepExpired reports whether entries must outlive their freshness window.
func (p Policy) KeepExpired() bool {
	return p.Graceful || p.Background
}

// Option configures a Policy.
type Option func(*Policy) error

// WithDuration sets the freshness window.
func WithDuration(d duration.Duration) Option {
	return func(p *Policy) error {
		p.Duration = d
		p.Forever = false
		return nil
	}
}

// WithTimeout parses expr (for example "1h30m", "2w", "1mon" or "90") as the
// freshness window. An invalid expression makes Wrap fail with a
// *duration.ParseError.
func WithTimeout(expr string) Option {
	return func(p *Policy) error {
		d, err := duration.Parse(expr)
		if err != nil {
			return err
		}
		p.Duration = d
		p.Forever = false
		return nil
	}
}

// WithSeconds sets the freshness window to n seconds.
func WithSeconds(n float64) Option {
	return WithDuration(duration.Seconds(n))
}

// WithStd sets the freshness window from a standard duration.
func WithStd(d time.Duration) Option {
	return WithDuration(duration.FromStd(d))
}

// Forever keeps results fresh for the engine's max timeout. This is the
// default.
func Forever() Option {
	return func(p *Policy) error {
		p.Duration = duration.Duration{}
		p.Forever = true
		return nil
	}
}

// WithBackend selects a named backend from the engine's registry.
func WithBackend(name string) Option {
	return func(p *Policy) error {
		p.Backend = name
		return nil
	}
}

// WithKeyPrefix prepends prefix to every key.
func WithKeyPrefix(prefix string) Option {
	return func(p *Policy) error {
		p.KeyPrefix = prefix
		return nil
	}
}

// WithKeyFunc replaces DefaultKey.
func WithKeyFunc(fn KeyFunc) Option {
	return func(p *Policy) error {
		if fn == nil {
			return errors.New("resultcache: key func is nil")
		}
		p.KeyFunc = fn
		return nil
	}
}

// WithGraceful serves the last value when the computation fails.
func WithGraceful() Option {
	return func(p *Policy) error {
		p.Graceful = true
		return nil
	}
}

// WithBackground refreshes stale values asynchronously. The engine must have
// a dispatcher.
func WithBackground() Option {
	return func(p *Policy) error {
		p.Background = true
		return nil
	}
}

// WithName overrides the function identity.
func WithName(name string) Option {
	return func(p *Policy) error {
		p.Name = name
		return nil
	}
}
