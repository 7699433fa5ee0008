package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/agentuity/go-resultcache/logger"
	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 64
)

type poolConfig struct {
	workers    int
	queueSize  int
	jobTimeout time.Duration
	logger     logger.Logger
	tracer     trace.Tracer
}

// PoolOption configures a Pool.
type PoolOption func(*poolConfig)

// WithWorkers sets the number of worker goroutines. Defaults to DefaultWorkers.
func WithWorkers(n int) PoolOption {
	return func(c *poolConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithQueueSize sets the per-worker queue capacity. Defaults to DefaultQueueSize.
func WithQueueSize(n int) PoolOption {
	return func(c *poolConfig) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithJobTimeout bounds the context each job runs with. Zero means no bound.
func WithJobTimeout(d time.Duration) PoolOption {
	return func(c *poolConfig) { c.jobTimeout = d }
}

// WithLogger sets the logger job failures are reported to.
func WithLogger(l logger.Logger) PoolOption {
	return func(c *poolConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracerProvider sets the provider job spans are started from. Defaults
// to the global provider.
func WithTracerProvider(tp trace.TracerProvider) PoolOption {
	return func(c *poolConfig) { c.tracer = tracerFrom(tp) }
}

// Pool is an in-process Dispatcher backed by a fixed set of workers. Jobs for
// the same key always land on the same worker, so refreshes of one key run
// one after another while different keys proceed in parallel. Jobs are never
// de-duplicated.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	queues []chan Job
	group  errgroup.Group
	cfg    poolConfig

	mu     sync.RWMutex
	closed bool
}

var _ Dispatcher = (*Pool)(nil)

// NewPool starts a Pool. Jobs run with a context derived from parent.
func NewPool(parent context.Context, opts ...PoolOption) *Pool {
	cfg := poolConfig{
		workers:   DefaultWorkers,
		queueSize: DefaultQueueSize,
		logger:    logger.NewNoop(),
		tracer:    tracerFrom(nil),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx, cancel := context.WithCancel(parent)
	p := &Pool{
		ctx:    ctx,
		cancel: cancel,
		queues: make([]chan Job, cfg.workers),
		cfg:    cfg,
	}
	p.cfg.logger = cfg.logger.WithPrefix("[dispatch]")
	for i := range p.queues {
		q := make(chan Job, cfg.queueSize)
		p.queues[i] = q
		p.group.Go(func() error {
			p.work(q)
			return nil
		})
	}
	return p
}

// Enqueue places job on its worker's queue without blocking. It fails with
// ErrQueueFull when that queue is at capacity and ErrClosed after Close.
func (p *Pool) Enqueue(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	q := p.queues[xxhash.Sum64String(job.Key)%uint64(len(p.queues))]
	select {
	case q <- withTrace(ctx, job):
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs, waits for queued jobs to finish and releases
// the workers.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()
	err := p.group.Wait()
	p.cancel()
	return err
}

func (p *Pool) work(q <-chan Job) {
	for job := range q {
		p.run(job)
	}
}

func (p *Pool) run(job Job) {
	ctx := p.ctx
	if p.cfg.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.jobTimeout)
		defer cancel()
	}
	execute(ctx, p.cfg.logger, p.cfg.tracer, job)
}
