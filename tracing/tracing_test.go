package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// the provider is installed once per process, tests share its exporter
var memoryExporter = tracetest.NewInMemoryExporter()

func newExporter(t *testing.T) *tracetest.InMemoryExporter {
	require.NoError(t, InitWithExporter("diskor", "0.0.1", memoryExporter))
	memoryExporter.Reset()
	return memoryExporter
}

func TestStartSpan(t *testing.T) {
	exporter := newExporter(t)

	ctx, parent := StartSpan(context.Background(), "task.run", KindInternal)
	parent.WithAttributes(map[string]string{"task.name": "Reset storage"})
	_, ok := SpanFromContext(ctx)
	assert.True(t, ok)

	_, child := StartSpan(ctx, "backend.probe", KindClient)
	EndSpan(child, errors.New("probe failed"))
	EndSpan(parent, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "backend.probe", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, codes.Ok, spans[1].Status.Code)

	_, ok = SpanFromContext(context.Background())
	assert.False(t, ok)
}

func TestStartTaskSpan(t *testing.T) {
	exporter := newExporter(t)

	ctx, span := StartTaskSpan(context.Background(), "/org/viant/Diskor/Task/abc/1", "Reset storage")
	span.AddProgress(1, "Probing storage.")
	_, backend := StartBackendSpan(ctx, "probe")
	EndSpan(backend, nil)
	EndSpan(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "backend.probe", spans[0].Name)
	assert.Equal(t, "task.run Reset storage", spans[1].Name)
	require.Len(t, spans[1].Events, 1)
	assert.Equal(t, "progress", spans[1].Events[0].Name)
	attrs := map[string]string{}
	for _, kv := range spans[1].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "Reset storage", attrs[AttrTaskName])
	assert.Equal(t, "/org/viant/Diskor/Task/abc/1", attrs[AttrTaskID])
}
