// Package dispatch runs background refresh jobs off the caller's goroutine.
//
// Enqueue is fire-and-forget: a dispatcher never reports the outcome of a job
// to the code that enqueued it. Failed jobs are logged and dropped, never
// retried or re-enqueued, and an enqueued job cannot be cancelled.
package dispatch

import (
	"context"
	"fmt"

	"github.com/agentuity/go-resultcache/duration"
	"github.com/agentuity/go-resultcache/logger"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrQueueFull = errors.New("dispatch: queue is full")
	ErrClosed    = errors.New("dispatch: dispatcher is closed")
)

// Job describes one recomputation of a cached call.
type Job struct {
	// ID identifies the job in logs.
	ID string
	// Key is the cache key the job rewrites.
	Key string
	// Function is the identity of the cached function.
	Function string
	// Duration is the freshness window the new entry is written with.
	Duration duration.Duration
	// KeepExpired makes the new entry outlive its logical expiration.
	KeepExpired bool
	// Run performs the recomputation and writes the result.
	Run func(ctx context.Context) error
	// Trace carries the W3C trace context of the caller that enqueued the
	// job. Filled in by Enqueue when nil.
	Trace propagation.MapCarrier
}

// NewJob returns a Job with a fresh ID.
func NewJob(key, function string, d duration.Duration, keepExpired bool, run func(ctx context.Context) error) Job {
	return Job{
		ID:          uuid.NewString(),
		Key:         key,
		Function:    function,
		Duration:    d,
		KeepExpired: keepExpired,
		Run:         run,
	}
}

// Dispatcher accepts jobs for asynchronous execution.
type Dispatcher interface {
	// Enqueue hands job off for execution. The returned error only reports
	// whether the job was accepted.
	Enqueue(ctx context.Context, job Job) error
}

// Func adapts a function to the Dispatcher interface.
type Func func(ctx context.Context, job Job) error

func (f Func) Enqueue(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// Inline runs each job synchronously inside Enqueue with a context detached
// from the caller's cancellation. Failures are logged, not returned.
type Inline struct {
	Logger logger.Logger
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

var _ Dispatcher = Inline{}

func (d Inline) Enqueue(ctx context.Context, job Job) error {
	log := d.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	execute(context.WithoutCancel(ctx), log, tracerFrom(d.TracerProvider), withTrace(ctx, job))
	return nil
}

func execute(ctx context.Context, log logger.Logger, tracer trace.Tracer, job Job) {
	log = log.With(map[string]interface{}{"job": job.ID, "key": job.Key, "function": job.Function})
	ctx, span := startJobSpan(ctx, tracer, job)
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			log.Error("background refresh panicked: %v", r)
			span.SetStatus(codes.Error, fmt.Sprint(r))
		}
	}()
	if job.Run == nil {
		log.Error("background refresh has nothing to run")
		span.SetStatus(codes.Error, "nothing to run")
		return
	}
	if err := job.Run(ctx); err != nil {
		log.Error("background refresh failed: %s", err)
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return
	}
	log.Debug("background refresh completed")
	span.SetStatus(codes.Ok, "refreshed")
}
