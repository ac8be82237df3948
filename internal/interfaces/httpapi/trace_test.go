package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestStartHandlerSpan_WithoutParentIsNoop(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	ctx, span := startHandlerSpan(req, "Healthz")
	defer span.End()

	if span.SpanContext().IsValid() {
		t.Fatalf("expected no span for an untraced request")
	}
	if ctx != req.Context() {
		t.Fatalf("expected request context to be returned unchanged")
	}
}

func TestStartHandlerSpan_JoinsRequestTrace(t *testing.T) {
	provider := sdktrace.NewTracerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()

	parentCtx, parent := provider.Tracer("test").Start(context.Background(), "GET /v1/sync-runs")
	defer parent.End()
	req := httptest.NewRequest(http.MethodGet, "/v1/sync-runs", nil).WithContext(parentCtx)

	ctx, span := startHandlerSpan(req, "ListSyncRuns")
	defer span.End()

	got := trace.SpanFromContext(ctx).SpanContext()
	if got.TraceID() != parent.SpanContext().TraceID() {
		t.Fatalf("expected handler span to share the request trace id")
	}
}
