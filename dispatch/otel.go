package dispatch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/agentuity/go-resultcache/dispatch"

var propagator = propagation.TraceContext{}

func tracerFrom(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(tracerName)
}

// withTrace injects the trace context of ctx into job unless the job already
// carries one.
func withTrace(ctx context.Context, job Job) Job {
	if job.Trace == nil {
		job.Trace = propagation.MapCarrier{}
		propagator.Inject(ctx, job.Trace)
	}
	return job
}

func startJobSpan(ctx context.Context, tracer trace.Tracer, job Job) (context.Context, trace.Span) {
	if job.Trace != nil {
		ctx = propagator.Extract(ctx, job.Trace)
	}
	return tracer.Start(ctx, "Refresh",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("resultcache.job", job.ID),
			attribute.String("resultcache.key", job.Key),
			attribute.String("resultcache.function", job.Function),
		),
	)
}
