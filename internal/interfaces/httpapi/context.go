package httpapi

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const invocationContextKey contextKey = "job_invocation"

// invocation describes who triggered an internal sync call.
type invocation struct {
	// AuthScheme is "header" for X-Internal-Job-Token and "bearer" for Authorization.
	AuthScheme string
	// MessageID is the queue message id when the call came through QStash.
	MessageID string
	Retried   string
}

func withInvocation(ctx context.Context, inv invocation) context.Context {
	return context.WithValue(ctx, invocationContextKey, inv)
}

func invocationFromContext(ctx context.Context) (invocation, bool) {
	inv, ok := ctx.Value(invocationContextKey).(invocation)
	return inv, ok
}

func invocationFromRequest(r *http.Request, scheme string) invocation {
	return invocation{
		AuthScheme: scheme,
		MessageID:  strings.TrimSpace(r.Header.Get("Upstash-Message-Id")),
		Retried:    strings.TrimSpace(r.Header.Get("Upstash-Retried")),
	}
}
