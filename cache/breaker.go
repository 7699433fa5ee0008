package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrBackendUnavailable is returned without touching the wrapped cache while
// the breaker is open.
var ErrBackendUnavailable = errors.New("cache: backend unavailable")

// BreakerState is the state of a breaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerHalfOpen
	BreakerOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "CLOSED"
	case BreakerHalfOpen:
		return "HALF_OPEN"
	case BreakerOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// BreakerConfig configures NewBreaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures int
	// Cooldown is how long the breaker stays open before letting a probe
	// through.
	Cooldown time.Duration
	// SuccessThreshold is the number of successful probes that closes the
	// breaker again.
	SuccessThreshold int
	// Clock defaults to the wall clock.
	Clock Clock
}

// DefaultBreakerConfig returns the configuration used for zero fields.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:      5,
		Cooldown:         30 * time.Second,
		SuccessThreshold: 1,
		Clock:            wallClock{},
	}
}

// Breaker is a Cache that stops calling a failing backend for a while.
// Misses are not failures. Errors are returned as is; nothing is retried.
type Breaker struct {
	cache  Cache
	config BreakerConfig

	mu        sync.Mutex
	state     BreakerState
	failures  int
	successes int
	probing   bool
	openedAt  time.Time
}

var _ Cache = (*Breaker)(nil)

// NewBreaker wraps c with a circuit breaker.
func NewBreaker(c Cache, config BreakerConfig) *Breaker {
	def := DefaultBreakerConfig()
	if config.MaxFailures <= 0 {
		config.MaxFailures = def.MaxFailures
	}
	if config.Cooldown <= 0 {
		config.Cooldown = def.Cooldown
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = def.SuccessThreshold
	}
	if config.Clock == nil {
		config.Clock = def.Clock
	}
	return &Breaker{cache: c, config: config}
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && b.cooledDown() {
		return BreakerHalfOpen
	}
	return b.state
}

// Reset closes the breaker.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.close()
}

func (b *Breaker) cooledDown() bool {
	return !b.config.Clock.Now().Before(b.openedAt.Add(b.config.Cooldown))
}

func (b *Breaker) close() {
	b.state = BreakerClosed
	b.failures = 0
	b.successes = 0
	b.probing = false
}

func (b *Breaker) open() {
	b.state = BreakerOpen
	b.openedAt = b.config.Clock.Now()
	b.successes = 0
	b.probing = false
}

// allow reports whether a call may go through. Half-open admits one probe
// at a time.
func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if !b.cooledDown() {
			return false
		}
		b.state = BreakerHalfOpen
		b.successes = 0
		fallthrough
	case BreakerHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
	return false
}

func (b *Breaker) done(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	if err != nil {
		b.failures++
		if b.state == BreakerHalfOpen || b.failures >= b.config.MaxFailures {
			b.open()
		}
		return
	}
	switch b.state {
	case BreakerClosed:
		b.failures = 0
	case BreakerHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.close()
		}
	}
}

func (b *Breaker) Get(ctx context.Context, key string) (bool, any, error) {
	if !b.allow() {
		return false, nil, ErrBackendUnavailable
	}
	found, val, err := b.cache.Get(ctx, key)
	b.done(err)
	return found, val, err
}

func (b *Breaker) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	if !b.allow() {
		return ErrBackendUnavailable
	}
	err := b.cache.Set(ctx, key, val, ttl)
	b.done(err)
	return err
}

func (b *Breaker) Expire(ctx context.Context, key string) (bool, error) {
	if !b.allow() {
		return false, ErrBackendUnavailable
	}
	ok, err := b.cache.Expire(ctx, key)
	b.done(err)
	return ok, err
}

func (b *Breaker) Close() error {
	return b.cache.Close()
}
