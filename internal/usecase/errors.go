package usecase

import (
	"errors"

	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrRateLimited         = resilience.ErrRateLimited
	ErrMalformedRecord     = errors.New("malformed record")
	ErrCacheWriteFailed    = errors.New("cache write failed")
	// ErrUnmatched marks a live record without exactly one cached counterpart. It is never counted as a failure.
	ErrUnmatched = errors.New("no unique cached match")
)
