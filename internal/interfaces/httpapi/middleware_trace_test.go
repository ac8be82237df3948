package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestShouldTraceRequest_HealthPaths(t *testing.T) {
	paths := []string{"/healthz", "/health", "/livez", "/readyz", "/metrics", " /healthz "}
	for _, path := range paths {
		if shouldTraceRequest(path) {
			t.Fatalf("expected no tracing for path %q", path)
		}
	}
}

func TestShouldTraceRequest_NonHealthPaths(t *testing.T) {
	paths := []string{"/v1/sports/football/fixtures", "/v1/internal/sync/live", "/"}
	for _, path := range paths {
		if !shouldTraceRequest(path) {
			t.Fatalf("expected tracing for path %q", path)
		}
	}
}

func TestCaptureRequestBody_RecordsAttributeAndRestoresBody(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	var seen string
	handler := CaptureRequestBody(8, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		seen = string(raw)
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx, span := tracer.Start(context.Background(), "invocation")
	req := httptest.NewRequest(http.MethodPost, "/v1/internal/sync/fixtures", strings.NewReader(`{"mode":"backfill"}`)).WithContext(ctx)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	span.End()

	if seen != `{"mode":"backfill"}` {
		t.Fatalf("handler saw %q", seen)
	}
	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected one span, got %d", len(ended))
	}
	var captured string
	for _, attr := range ended[0].Attributes() {
		if attr.Key == "http.request.body" {
			captured = attr.Value.AsString()
		}
	}
	if captured != `{"mode":` {
		t.Fatalf("unexpected captured body %q", captured)
	}
}

func TestCaptureRequestBody_DisabledPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	if got := CaptureRequestBody(0, next); got == nil {
		t.Fatalf("expected handler")
	}
}
