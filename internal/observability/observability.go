// Package observability starts tracing and profiling for the API process.
package observability

import (
	"context"
	"errors"

	"github.com/riskibarqy/matchday-sync/internal/config"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

// Stack holds whatever Start enabled. Its zero value shuts down cleanly.
type Stack struct {
	shutdowns []func(context.Context) error
}

// Start enables Uptrace tracing, Pyroscope profiling and the pprof listener as
// configured. On error everything already started is shut down again.
func Start(cfg config.Config, logger *logging.Logger) (*Stack, error) {
	if logger == nil {
		logger = logging.Default()
	}

	stack := &Stack{}
	starters := []func(config.Config, *logging.Logger) (func(context.Context) error, error){
		startTracing,
		startProfiler,
		startPprof,
	}
	for _, start := range starters {
		shutdown, err := start(cfg, logger)
		if err != nil {
			return nil, errors.Join(err, stack.Shutdown(context.Background()))
		}
		if shutdown != nil {
			stack.shutdowns = append(stack.shutdowns, shutdown)
		}
	}
	return stack, nil
}

// Shutdown stops components in reverse start order so traces flush last.
func (s *Stack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var errs []error
	for i := len(s.shutdowns) - 1; i >= 0; i-- {
		errs = append(errs, s.shutdowns[i](ctx))
	}
	s.shutdowns = nil
	return errors.Join(errs...)
}
