package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/matchday-sync/internal/config"
	"github.com/riskibarqy/matchday-sync/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/matchday-sync/internal/platform/id"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
)

// NewHTTPServer wires storage, upstream clients and the sync services behind the router.
// The returned cleanup releases the database and Redis connections.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	repos, closeStorage, err := openRepositories(cfg, logger.Named("storage"))
	if err != nil {
		return nil, nil, err
	}
	store, closeRedis, err := openSlotStore(cfg, logger.Named("ratelimit"))
	if err != nil {
		_ = closeStorage()
		return nil, nil, err
	}
	cleanup := func() error {
		return errors.Join(closeRedis(), closeStorage())
	}

	upstreams := newProviders(cfg, store, logger)
	services := newServices(cfg, repos, upstreams, newJobQueue(cfg, logger), logger)

	handler := httpapi.NewHandler(services, logger)
	routerCfg := httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
		MetricsEnabled:     cfg.MetricsEnabled,
	}
	if cfg.UptraceEnabled && cfg.UptraceCaptureRequestBody {
		routerCfg.RequestBodyCaptureBytes = cfg.UptraceRequestBodyMaxBytes
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handler, logger, routerCfg),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, cleanup, nil
}

func newServices(cfg config.Config, repos repositories, upstreams providers, queue usecase.JobQueue, logger *logging.Logger) httpapi.Services {
	syncCfg := syncConfigFrom(cfg.Sync)
	runs := usecase.NewRunLogger(repos.runs, idgen.NewUUIDGenerator(), logger)

	services := httpapi.Services{
		Query: usecase.NewQueryService(repos.fixtures, repos.events, cfg.Sync.FreshnessWindow, cfg.Sync.Timezone),
		Runs:  runs,
	}

	if upstreams.schedule != nil {
		fixtureCache := usecase.NewFixtureCache(repos.fixtures, repos.teams, cfg.Sync.UpsertBatchSize, logger)
		services.FixtureSync = usecase.NewFixtureSyncService(upstreams.schedule, fixtureCache, runs, syncCfg, logger)
		services.Enrichment = usecase.NewEnrichmentService(upstreams.schedule, repos.fixtures, runs, syncCfg, logger)
	}

	if upstreams.live != nil {
		reconciler := usecase.NewOrphanReconciler(repos.fixtures, usecase.ReconcilerConfig{
			CupCutoff:       cfg.Sync.CupCutoff,
			LeagueCutoff:    cfg.Sync.LeagueCutoff,
			CupCompetitions: cfg.Sync.CupCompetitions,
		}, logger)
		rearm := usecase.NewJobOrchestratorService(repos.fixtures, queue, usecase.JobOrchestratorConfig{
			LiveInterval:   cfg.JobLiveInterval,
			PreKickoffLead: cfg.JobPreKickoffLead,
			Horizon:        cfg.JobHorizon,
		}, logger)
		services.LiveSync = usecase.NewLiveSyncService(
			upstreams.live,
			repos.fixtures,
			usecase.NewMatcher(logger),
			reconciler,
			rearm,
			runs,
			syncCfg,
			logger,
		)
	}

	if upstreams.golf != nil {
		services.GolfSync = usecase.NewGolfSyncService(upstreams.golf, repos.events, runs, syncCfg, logger)
	}

	return services
}

func syncConfigFrom(settings config.SyncSettings) usecase.SyncConfig {
	return usecase.SyncConfig{
		Location:          settings.Timezone,
		LookaheadDays:     settings.LookaheadDays,
		LookbackDays:      settings.LookbackDays,
		MaxRangeDays:      settings.MaxRangeDays,
		BackfillBatchDays: settings.BackfillBatchDays,
		BatchDelay:        settings.BatchDelay,
		Competitions:      settings.Competitions,
		GolfTours:         settings.GolfTours,
		InvocationTimeout: settings.InvocationTimeout,
		EnrichLimit:       settings.EnrichLimit,
	}
}
