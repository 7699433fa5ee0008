package cache

import (
	"context"
	"time"
)

type dummyCache struct{}

var _ Cache = dummyCache{}

// NewDummy returns a Cache that never retains anything. Every Get misses, so
// computations cached through it run on every call. It is the fallback when
// no real backend is configured.
func NewDummy() Cache {
	return dummyCache{}
}

func (dummyCache) Get(context.Context, string) (bool, any, error) { return false, nil, nil }

func (dummyCache) Set(context.Context, string, any, time.Duration) error { return nil }

func (dummyCache) Expire(context.Context, string) (bool, error) { return false, nil }

func (dummyCache) Close() error { return nil }
