package httpapi

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const handlerSpanPrefix = "httpapi.Handler."

var apiTracer = otel.Tracer("github.com/riskibarqy/matchday-sync/internal/interfaces/httpapi")

// startHandlerSpan opens a child of the request span. Filtered routes such as
// /healthz and /metrics carry no parent and get the no-op span instead of a new root.
func startHandlerSpan(r *http.Request, operation string) (context.Context, trace.Span) {
	ctx := r.Context()
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, parent
	}

	return apiTracer.Start(ctx, handlerSpanPrefix+operation,
		trace.WithAttributes(attribute.String("http.route", r.Pattern)),
	)
}
