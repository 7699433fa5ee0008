// Package metrics defines the observability hooks invoked by the result
// cache engine. Every hook is labelled with the cached function's identity.
package metrics

// Recorder receives one call per engine decision.
type Recorder interface {
	// Hit records a fresh cached value being served.
	Hit(fn string)
	// Miss records the computation being run because no usable value existed.
	Miss(fn string)
	// Stale records a stale value served while a refresh was enqueued.
	Stale(fn string)
	// Fallback records a stale value served because the computation failed.
	Fallback(fn string)
	// Bypass records a call that skipped the cache because it had no key.
	Bypass(fn string)
}

// Noop is a Recorder that does nothing. It is the default.
type Noop struct{}

func (Noop) Hit(string)      {}
func (Noop) Miss(string)     {}
func (Noop) Stale(string)    {}
func (Noop) Fallback(string) {}
func (Noop) Bypass(string)   {}

var _ Recorder = Noop{}
