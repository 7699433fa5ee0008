package memo

import (
	"context"
	"time"

	"github.com/agentuity/go-resultcache/cache"
	"github.com/agentuity/go-resultcache/config"
	"github.com/agentuity/go-resultcache/dispatch"
	"github.com/agentuity/go-resultcache/duration"
	"github.com/agentuity/go-resultcache/logger"
	"github.com/agentuity/go-resultcache/metrics"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/agentuity/go-resultcache/memo"

// ErrNoDispatcher is returned by Wrap when background refresh is requested
// from an engine built without a dispatcher.
var ErrNoDispatcher = errors.New("resultcache: background refresh requires a dispatcher")

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Engine owns everything wrapped functions share: the backends, the
// dispatcher for background refreshes and the max timeout. It is immutable
// once built and safe for concurrent use.
type Engine struct {
	backends   *cache.Registry
	dispatcher dispatch.Dispatcher
	logger     logger.Logger
	clock      Clock
	metrics    metrics.Recorder
	tracer     trace.Tracer
	maxTimeout time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithDispatcher enables background refresh.
func WithDispatcher(d dispatch.Dispatcher) EngineOption {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log logger.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.logger = log
		}
	}
}

// WithClock sets the time source.
func WithClock(c Clock) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithMetrics sets the recorder for hit, miss and fallback counts.
func WithMetrics(r metrics.Recorder) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.metrics = r
		}
	}
}

// WithTracerProvider sets the provider spans are started from. Defaults to
// the global provider.
func WithTracerProvider(tp trace.TracerProvider) EngineOption {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithMaxTimeout sets the retention ceiling used for forever policies and
// for entries kept past expiry. Values below one second are ignored.
func WithMaxTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d >= time.Second {
			e.maxTimeout = d.Truncate(time.Second)
		}
	}
}

// WithConfig applies the max timeout and logger from cfg.
func WithConfig(cfg config.Config) EngineOption {
	return func(e *Engine) {
		WithMaxTimeout(cfg.MaxTimeout)(e)
		WithLogger(cfg.Logger())(e)
	}
}

// New returns an Engine storing results in backends. A nil registry stores
// nothing: every call computes.
func New(backends *cache.Registry, opts ...EngineOption) *Engine {
	if backends == nil {
		backends = cache.Single(cache.NewDummy())
	}
	e := &Engine{
		backends:   backends,
		logger:     logger.NewNoop(),
		clock:      wallClock{},
		metrics:    metrics.Noop{},
		tracer:     otel.Tracer(tracerName),
		maxTimeout: config.DefaultMaxTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithPrefix("[resultcache]")
	return e
}

// MaxTimeout returns the retention ceiling.
func (e *Engine) MaxTimeout() time.Duration {
	return e.maxTimeout
}

// Backends returns the engine's registry.
func (e *Engine) Backends() *cache.Registry {
	return e.backends
}

// effective resolves the freshness window of p.
func (e *Engine) effective(p Policy) duration.Duration {
	if p.Forever {
		return duration.FromStd(e.maxTimeout)
	}
	return p.Duration
}

// ttl is the physical lifetime of an entry expiring at expiration. Entries
// kept past expiry live for the max timeout; the rest live in whole seconds
// until expiration, never less than zero.
func (e *Engine) ttl(expiration, now time.Time, keepExpired bool) time.Duration {
	if keepExpired {
		return e.maxTimeout
	}
	secs := expiration.Unix() - now.Unix()
	if secs < 0 {
		secs = 0
	}
	return time.Duration(secs) * time.Second
}

// request is one resolved call against the engine.
type request[T any] struct {
	key         string
	keyed       bool
	function    string
	compute     func(ctx context.Context) (T, error)
	expiresIn   duration.Duration
	backend     cache.Cache
	graceful    bool
	background  bool
	keepExpired bool
}

func (e *Engine) write(ctx context.Context, backend cache.Cache, key string, entry any, ttl time.Duration) error {
	if err := backend.Set(ctx, key, entry, ttl); err != nil {
		return errors.Wrapf(err, "resultcache: write %q", key)
	}
	return nil
}

// Outcomes reported on spans.
const (
	outcomeBypass   = "bypass"
	outcomeHit      = "hit"
	outcomeStale    = "stale"
	outcomeMiss     = "miss"
	outcomeFallback = "fallback"
)

// getResult serves req from the cache, recomputing when the entry is
// missing or stale. Every call runs inside a span.
func getResult[T any](ctx context.Context, e *Engine, req request[T]) (T, error) {
	ctx, span := e.tracer.Start(ctx, "Call", trace.WithAttributes(
		attribute.String("resultcache.function", req.function),
		attribute.Bool("resultcache.keyed", req.keyed),
	))
	defer span.End()
	if req.keyed {
		span.SetAttributes(attribute.String("resultcache.key", req.key))
	}

	result, outcome, err := resolve(ctx, e, req)
	if outcome != "" {
		span.SetAttributes(attribute.String("resultcache.outcome", outcome))
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return result, err
	}
	span.SetStatus(codes.Ok, outcome)
	return result, nil
}

func resolve[T any](ctx context.Context, e *Engine, req request[T]) (T, string, error) {
	var zero T
	if !req.keyed {
		e.metrics.Bypass(req.function)
		result, err := req.compute(ctx)
		return result, outcomeBypass, err
	}

	found, cached, err := cache.Get[Entry[T]](ctx, req.backend, req.key)
	if err != nil {
		return zero, "", errors.Wrapf(err, "resultcache: read %q", req.key)
	}
	now := e.clock.Now()

	if found && !cached.Invalidated() {
		expiration := req.expiresIn.AddTo(cached.SetTime)
		if expiration.After(now) {
			if !expiration.Equal(cached.ExpirationTime) {
				cached.ExpirationTime = expiration
				if err := e.write(ctx, req.backend, req.key, cached, e.ttl(expiration, now, req.keepExpired)); err != nil {
					return zero, outcomeHit, err
				}
			}
			e.metrics.Hit(req.function)
			return cached.Value, outcomeHit, nil
		}
	}

	if found && req.background {
		if err := enqueueRefresh(ctx, e, req); err != nil {
			return zero, outcomeStale, err
		}
		e.metrics.Stale(req.function)
		return cached.Value, outcomeStale, nil
	}

	e.metrics.Miss(req.function)
	result, err := req.compute(ctx)
	if err != nil {
		if req.graceful && found {
			trace.SpanFromContext(ctx).RecordError(err)
			e.logger.With(map[string]interface{}{
				"key":      req.key,
				"function": req.function,
			}).Error("%s failed, serving stale value: %s", req.function, err)
			e.metrics.Fallback(req.function)
			return cached.Value, outcomeFallback, nil
		}
		return zero, outcomeMiss, err
	}

	expiration := req.expiresIn.AddTo(now)
	entry := Entry[T]{Value: result, SetTime: now, ExpirationTime: expiration}
	if err := e.write(ctx, req.backend, req.key, entry, e.ttl(expiration, now, req.keepExpired)); err != nil {
		return zero, outcomeMiss, err
	}
	return result, outcomeMiss, nil
}

// enqueueRefresh hands a recomputation of req to the dispatcher. The job
// never falls back and never enqueues further jobs, and its entry is kept
// past expiry.
func enqueueRefresh[T any](ctx context.Context, e *Engine, req request[T]) error {
	refresh := req
	refresh.graceful = false
	refresh.background = false
	refresh.keepExpired = true
	job := dispatch.NewJob(req.key, req.function, req.expiresIn, true, func(ctx context.Context) error {
		_, err := getResult(ctx, e, refresh)
		return err
	})
	if err := e.dispatcher.Enqueue(ctx, job); err != nil {
		return errors.Wrapf(err, "resultcache: enqueue refresh of %q", req.key)
	}
	e.logger.With(map[string]interface{}{
		"job":      job.ID,
		"key":      req.key,
		"function": req.function,
	}).Debug("stale value served, refresh enqueued")
	return nil
}
