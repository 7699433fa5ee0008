package prom

import (
	"github.com/agentuity/go-resultcache/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements metrics.Recorder with a Prometheus counter vector
// labelled by function and outcome. Safe for concurrent use.
type Adapter struct {
	calls *prometheus.CounterVec
}

const (
	outcomeHit      = "hit"
	outcomeMiss     = "miss"
	outcomeStale    = "stale"
	outcomeFallback = "fallback"
	outcomeBypass   = "bypass"
)

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "calls_total",
				Help:        "Cached function calls by outcome",
				ConstLabels: constLabels,
			},
			[]string{"function", "outcome"},
		),
	}
	reg.MustRegister(a.calls)
	return a
}

// Calls returns the underlying counter vector.
func (a *Adapter) Calls() *prometheus.CounterVec { return a.calls }

func (a *Adapter) Hit(fn string)      { a.calls.WithLabelValues(fn, outcomeHit).Inc() }
func (a *Adapter) Miss(fn string)     { a.calls.WithLabelValues(fn, outcomeMiss).Inc() }
func (a *Adapter) Stale(fn string)    { a.calls.WithLabelValues(fn, outcomeStale).Inc() }
func (a *Adapter) Fallback(fn string) { a.calls.WithLabelValues(fn, outcomeFallback).Inc() }
func (a *Adapter) Bypass(fn string)   { a.calls.WithLabelValues(fn, outcomeBypass).Inc() }

// Compile-time check: ensure Adapter implements metrics.Recorder.
var _ metrics.Recorder = (*Adapter)(nil)
