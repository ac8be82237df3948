package observability

import (
	"context"

	"github.com/riskibarqy/matchday-sync/internal/config"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
)

// startTracing installs the global OpenTelemetry providers exporting to Uptrace.
// Log export stays off; zap already writes the trace ids.
func startTracing(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	switch {
	case !cfg.UptraceEnabled:
		logger.Info("uptrace disabled", "reason", "UPTRACE_ENABLED=false")
		return nil, nil
	case cfg.UptraceDSN == "":
		logger.Info("uptrace disabled", "reason", "UPTRACE_DSN empty")
		return nil, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithLoggingEnabled(false),
	)
	logger.Info("uptrace enabled", "capture_request_body", cfg.UptraceCaptureRequestBody)

	return uptrace.Shutdown, nil
}
