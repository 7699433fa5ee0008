package memo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/agentuity/go-resultcache/cache"
	"github.com/agentuity/go-resultcache/dispatch"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: epoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type setCall struct {
	key string
	val any
	ttl time.Duration
}

// recordingCache keeps values until they are overwritten or expired and
// records every operation.
type recordingCache struct {
	mu      sync.Mutex
	values  map[string]any
	gets    int
	sets    []setCall
	expires []string
	getErr  error
	setErr  error
}

func newRecordingCache() *recordingCache {
	return &recordingCache{values: make(map[string]any)}
}

func (c *recordingCache) Get(_ context.Context, key string) (bool, any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return false, nil, c.getErr
	}
	v, ok := c.values[key]
	return ok, v, nil
}

func (c *recordingCache) Set(_ context.Context, key string, val any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.sets = append(c.sets, setCall{key: key, val: val, ttl: ttl})
	if ttl <= 0 {
		delete(c.values, key)
		return nil
	}
	c.values[key] = val
	return nil
}

func (c *recordingCache) Expire(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires = append(c.expires, key)
	_, ok := c.values[key]
	delete(c.values, key)
	return ok, nil
}

func (c *recordingCache) Close() error { return nil }

func (c *recordingCache) lastSet() setCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sets) == 0 {
		return setCall{}
	}
	return c.sets[len(c.sets)-1]
}

func (c *recordingCache) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sets)
}

func (c *recordingCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}

var _ cache.Cache = (*recordingCache)(nil)

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []dispatch.Job
	err  error
}

func (d *recordingDispatcher) Enqueue(_ context.Context, job dispatch.Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

func (d *recordingDispatcher) Jobs() []dispatch.Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dispatch.Job(nil), d.jobs...)
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{counts: make(map[string]int)}
}

func (r *countingRecorder) inc(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[outcome]++
}

func (r *countingRecorder) get(outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[outcome]
}

func (r *countingRecorder) Hit(string)      { r.inc("hit") }
func (r *countingRecorder) Miss(string)     { r.inc("miss") }
func (r *countingRecorder) Stale(string)    { r.inc("stale") }
func (r *countingRecorder) Fallback(string) { r.inc("fallback") }
func (r *countingRecorder) Bypass(string)   { r.inc("bypass") }

// counter is a computation returning the number of times it ran, or err
// when set.
type counter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *counter) compute(context.Context, ...any) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return 0, c.err
	}
	return c.calls, nil
}

func (c *counter) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *counter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestEngine(t *testing.T, backend cache.Cache, opts ...EngineOption) *Engine {
	t.Helper()
	reg, err := cache.NewRegistry("", map[string]cache.Cache{cache.DefaultName: backend})
	require.NoError(t, err)
	return New(reg, opts...)
}
