package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	apiVersion  = "2.0"
	errorDomain = "matchday-sync"

	internalErrorMessage = "internal server error"
)

var errPanicked = errors.New("handler panicked")

// envelope is the Google JSON style body shared by every endpoint.
type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  string      `json:"status"`
	Errors  []errorItem `json:"errors,omitempty"`
}

type errorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

// errorRules is checked in order; the first sentinel found in the chain wins.
var errorRules = []struct {
	target error
	mapped mappedError
}{
	{usecase.ErrInvalidInput, mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
	{usecase.ErrNotFound, mappedError{http.StatusNotFound, "notFound", "NOT_FOUND"}},
	{usecase.ErrUnauthorized, mappedError{http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"}},
	{usecase.ErrRateLimited, mappedError{http.StatusTooManyRequests, "rateLimited", "RESOURCE_EXHAUSTED"}},
	{usecase.ErrUpstreamUnavailable, mappedError{http.StatusServiceUnavailable, "upstreamUnavailable", "UNAVAILABLE"}},
	{usecase.ErrDependencyUnavailable, mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"}},
	{context.DeadlineExceeded, mappedError{http.StatusGatewayTimeout, "deadlineExceeded", "DEADLINE_EXCEEDED"}},
}

var internalError = mappedError{http.StatusInternalServerError, "internalError", "INTERNAL"}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{APIVersion: apiVersion, Data: data})
}

// writeError maps err onto the envelope. Unmapped errors are reported as a bare
// internal error so driver and provider details stay in the logs and the trace.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	mapped := mapError(err)

	message := err.Error()
	if mapped == internalError {
		message = internalErrorMessage
	}
	if mapped.HTTPStatus >= http.StatusInternalServerError {
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, mapped.Reason)
	}

	writeJSON(w, mapped.HTTPStatus, envelope{
		APIVersion: apiVersion,
		Error: &errorBody{
			Code:    mapped.HTTPStatus,
			Message: message,
			Status:  mapped.Status,
			Errors:  []errorItem{{Domain: errorDomain, Reason: mapped.Reason, Message: message}},
		},
	})
}

func mapError(err error) mappedError {
	for _, rule := range errorRules {
		if errors.Is(err, rule.target) {
			return rule.mapped
		}
	}
	return internalError
}
