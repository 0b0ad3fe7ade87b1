package inspect

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pyro-reactive/pyro/pkg/pyro"
)

// defaultTracerName is the tracer resolved from the global provider
// when none is supplied.
const defaultTracerName = "pyro"

// Trace subscribes to the model and records one span per emitted
// change set, attributed with the set's size and key names. Pass a nil
// tracer to use the global OpenTelemetry provider. The returned
// function stops tracing.
func Trace(m *pyro.Model, tracer trace.Tracer) func() {
	if tracer == nil {
		tracer = otel.Tracer(defaultTracerName)
	}
	return m.Subscribe(func(changes pyro.Changes) {
		keys := changes.Names()
		sort.Strings(keys)
		_, span := tracer.Start(context.Background(), "pyro.change_set",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("pyro.model", m.Schema().Name()),
				attribute.Int("pyro.changes", len(changes)),
				attribute.StringSlice("pyro.keys", keys),
			),
		)
		span.End()
	})
}
