package emit

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestOTelEmitter() (*OTelEmitter, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	return NewOTelEmitter(tp.Tracer("completion-test")), exporter
}

func TestOTelEmitter_SpanPerEvent(t *testing.T) {
	emitter, exporter := newTestOTelEmitter()

	emitter.Emit(Event{
		Scope:    "course-v1:Demo+101",
		User:     "alice",
		BlockKey: "exam-1",
		Msg:      "exam_override",
		Meta:     map[string]interface{}{"subtree_nodes": 3},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "exam_override" {
		t.Errorf("span name = %q, want exam_override", span.Name)
	}

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes {
		attrs[kv.Key] = kv.Value
	}
	if got := attrs["completion.scope"].AsString(); got != "course-v1:Demo+101" {
		t.Errorf("scope attribute = %q", got)
	}
	if got := attrs["completion.user"].AsString(); got != "alice" {
		t.Errorf("user attribute = %q", got)
	}
	if got := attrs["completion.block_key"].AsString(); got != "exam-1" {
		t.Errorf("block_key attribute = %q", got)
	}
	if got := attrs["completion.meta.subtree_nodes"].AsInt64(); got != 3 {
		t.Errorf("meta attribute = %d", got)
	}
}

func TestOTelEmitter_ErrorStatus(t *testing.T) {
	emitter, exporter := newTestOTelEmitter()

	emitter.Emit(Event{
		Scope: "scope",
		User:  "alice",
		Msg:   "transform_error",
		Meta:  map[string]interface{}{"error": "backend down"},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status.Code)
	}
	if spans[0].Status.Description != "backend down" {
		t.Errorf("status description = %q", spans[0].Status.Description)
	}
}

func TestOTelEmitter_NoBlockKeyAttributeWhenEmpty(t *testing.T) {
	emitter, exporter := newTestOTelEmitter()

	emitter.Emit(Event{Scope: "scope", User: "alice", Msg: "transform_start"})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	for _, kv := range spans[0].Attributes {
		if kv.Key == "completion.block_key" {
			t.Error("block_key attribute should be omitted for transform-level events")
		}
	}
}
