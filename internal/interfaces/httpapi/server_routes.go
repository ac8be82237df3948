package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metricsEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !metricsEnabled {
		return
	}

	mux.Handle("GET /metrics", metricsHandler())
}

func registerPublicReadRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/sports/{sport}/fixtures", handler.ListFixturesByDate)
	mux.HandleFunc("GET /v1/sports/{sport}/teams/{teamID}/fixtures", handler.ListFixturesByTeam)
	mux.HandleFunc("GET /v1/golf/events", handler.ListGolfEvents)
}

func registerInternalSyncRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("GET /v1/internal/sync/runs", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ListSyncRuns)))
	mux.Handle("POST /v1/internal/sync/fixtures", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunFixtureSync)))
	mux.Handle("POST /v1/internal/sync/live", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunLiveSync)))
	mux.Handle("POST /v1/internal/sync/golf", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunGolfSync)))
	mux.Handle("POST /v1/internal/sync/enrich", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunEnrichment)))
}
