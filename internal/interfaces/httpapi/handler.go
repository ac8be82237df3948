package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
)

// Services groups the use cases the HTTP surface exposes. Nil services answer 503.
type Services struct {
	Query       *usecase.QueryService
	FixtureSync *usecase.FixtureSyncService
	LiveSync    *usecase.LiveSyncService
	GolfSync    *usecase.GolfSyncService
	Enrichment  *usecase.EnrichmentService
	Runs        *usecase.RunLogger
}

type Handler struct {
	query       *usecase.QueryService
	fixtureSync *usecase.FixtureSyncService
	liveSync    *usecase.LiveSyncService
	golfSync    *usecase.GolfSyncService
	enrichment  *usecase.EnrichmentService
	runs        *usecase.RunLogger
	logger      *logging.Logger
	validator   *validator.Validate
}

func NewHandler(services Services, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		query:       services.Query,
		fixtureSync: services.FixtureSync,
		liveSync:    services.LiveSync,
		golfSync:    services.GolfSync,
		enrichment:  services.Enrichment,
		runs:        services.Runs,
		logger:      logger.Named("httpapi"),
		validator:   validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func notConfigured(name string) error {
	return fmt.Errorf("%w: %s is not configured", usecase.ErrDependencyUnavailable, name)
}
