package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

type RouterConfig struct {
	CORSAllowedOrigins []string
	InternalJobToken   string
	// MetricsEnabled mounts the Prometheus scrape endpoint on /metrics.
	MetricsEnabled bool
	// RequestBodyCaptureBytes bounds the invocation body copied onto spans; 0 disables capture.
	RequestBodyCaptureBytes int
}

func NewRouter(handler *Handler, logger *logging.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.MetricsEnabled)
	registerPublicReadRoutes(mux, handler)
	registerInternalSyncRoutes(mux, handler, cfg.InternalJobToken)

	return RequestTracing(
		CaptureRequestBody(cfg.RequestBodyCaptureBytes,
			RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, mux))),
		),
	)
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeError(ctx, w, errPanicked)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
