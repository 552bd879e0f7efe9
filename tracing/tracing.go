// Package tracing handles opentracing support for the front controller.
package tracing

import (
	"context"
	"fmt"

	basic "github.com/opentracing/basictracer-go"
	ot "github.com/opentracing/opentracing-go"
)

// InitTracer returns the tracer implementation selected by name. The
// supported implementations are "noop" and "basic", the in-process
// reference tracer. Tracing backends with external collectors are
// expected to be set up by the embedding application and passed in
// directly.
func InitTracer(name string) (ot.Tracer, error) {
	switch name {
	case "", "noop":
		return &ot.NoopTracer{}, nil
	case "basic":
		return basic.NewWithOptions(basic.Options{
			Recorder:       basic.NewInMemoryRecorder(),
			ShouldSample:   func(traceID uint64) bool { return true },
			MaxLogsPerSpan: 25,
		}), nil
	default:
		return nil, fmt.Errorf("tracer %q not supported", name)
	}
}

// CreateSpan creates a span with the given operation name as a child of
// the span found in ctx, or as a root span when there is none.
func CreateSpan(name string, ctx context.Context, tracer ot.Tracer) ot.Span {
	parentSpan := ot.SpanFromContext(ctx)
	if parentSpan == nil {
		return tracer.StartSpan(name)
	}

	return tracer.StartSpan(name, ot.ChildOf(parentSpan.Context()))
}

// LogKV attaches a key value log entry to the span in ctx, if any.
func LogKV(k, v string, ctx context.Context) {
	if span := ot.SpanFromContext(ctx); span != nil {
		span.LogKV(k, v)
	}
}
