package memo

import (
	"context"
	"testing"
	"time"

	"github.com/agentuity/go-resultcache/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer() (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)), sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func hasException(span sdktrace.ReadOnlySpan) bool {
	for _, ev := range span.Events() {
		if ev.Name == "exception" {
			return true
		}
	}
	return false
}

func TestCallSpans(t *testing.T) {
	ctx := context.Background()
	tp, sr := newTestTracer()
	e := newTestEngine(t, newRecordingCache(), WithClock(newFakeClock()), WithTracerProvider(tp))
	c := &counter{}
	f := MustWrap[int](e, c.compute, WithName("totals"))

	_, err := f.Call(ctx, 1)
	require.NoError(t, err)
	_, err = f.Call(ctx, 1)
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	key, _ := f.Key(1)
	for _, span := range spans {
		assert.Equal(t, "Call", span.Name())
		assert.Equal(t, "totals", spanAttr(span, "resultcache.function").AsString())
		assert.Equal(t, key, spanAttr(span, "resultcache.key").AsString())
		assert.Equal(t, codes.Ok, span.Status().Code)
	}
	assert.Equal(t, "miss", spanAttr(spans[0], "resultcache.outcome").AsString())
	assert.Equal(t, "hit", spanAttr(spans[1], "resultcache.outcome").AsString())
}

func TestCallSpanRecordsErrors(t *testing.T) {
	ctx := context.Background()
	tp, sr := newTestTracer()
	e := newTestEngine(t, newRecordingCache(), WithClock(newFakeClock()), WithTracerProvider(tp))
	c := &counter{}
	f := MustWrap[int](e, c.compute, WithSeconds(0), WithGraceful())

	_, err := f.Call(ctx)
	require.NoError(t, err)
	c.fail(errBoom)
	_, err = f.Call(ctx)
	require.NoError(t, err)

	bypass := MustWrap[int](e, c.compute, WithKeyFunc(func(string, Args) (string, bool) { return "", false }))
	_, err = bypass.Call(ctx)
	assert.Equal(t, errBoom, err)

	spans := sr.Ended()
	require.Len(t, spans, 3)

	fallback := spans[1]
	assert.Equal(t, "fallback", spanAttr(fallback, "resultcache.outcome").AsString())
	assert.Equal(t, codes.Ok, fallback.Status().Code)
	assert.True(t, hasException(fallback))

	failed := spans[2]
	assert.Equal(t, "bypass", spanAttr(failed, "resultcache.outcome").AsString())
	assert.False(t, spanAttr(failed, "resultcache.keyed").AsBool())
	assert.Equal(t, codes.Error, failed.Status().Code)
	assert.True(t, hasException(failed))
}

func TestRefreshJoinsCallerTrace(t *testing.T) {
	tp, sr := newTestTracer()
	clock := newFakeClock()
	e := newTestEngine(t, newRecordingCache(), WithClock(clock), WithTracerProvider(tp),
		WithDispatcher(dispatch.Inline{TracerProvider: tp}))
	c := &counter{}
	f := MustWrap[int](e, c.compute, WithTimeout("1m"), WithBackground())

	_, err := f.Call(context.Background())
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	ctx, request := tp.Tracer("test").Start(context.Background(), "request")
	v, err := f.Call(ctx)
	request.End()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	var stale, refresh, recompute sdktrace.ReadOnlySpan
	for _, span := range sr.Ended() {
		switch {
		case span.Name() == "Refresh":
			refresh = span
		case span.Name() == "Call" && spanAttr(span, "resultcache.outcome").AsString() == "stale":
			stale = span
		case span.Name() == "Call" && span.Parent().IsValid() && span.SpanContext().TraceID() == request.SpanContext().TraceID() &&
			spanAttr(span, "resultcache.outcome").AsString() == "miss":
			recompute = span
		}
	}
	require.NotNil(t, stale)
	require.NotNil(t, refresh)
	require.NotNil(t, recompute)

	traceID := request.SpanContext().TraceID()
	assert.Equal(t, traceID, stale.SpanContext().TraceID())
	assert.Equal(t, traceID, refresh.SpanContext().TraceID())
	assert.Equal(t, stale.SpanContext().SpanID(), refresh.Parent().SpanID())
	assert.Equal(t, refresh.SpanContext().SpanID(), recompute.Parent().SpanID())
	assert.Equal(t, codes.Ok, refresh.Status().Code)
}
