package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/event"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
)

type listFixturesByDateRequest struct {
	Sport string `validate:"required,alpha,max=32"`
	Date  string `validate:"omitempty,datetime=2006-01-02"`
}

type listFixturesByTeamRequest struct {
	Sport  string `validate:"required,alpha,max=32"`
	TeamID int64  `validate:"gt=0"`
	Limit  int    `validate:"gte=0,lte=100"`
}

type listGolfEventsRequest struct {
	Tour string `validate:"required,max=32"`
	From string `validate:"omitempty,datetime=2006-01-02"`
	To   string `validate:"omitempty,datetime=2006-01-02"`
}

type listSyncRunsRequest struct {
	Limit int `validate:"gte=0,lte=50"`
}

func (h *Handler) ListFixturesByDate(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListFixturesByDate")
	defer span.End()

	if h.query == nil {
		writeError(ctx, w, notConfigured("query service"))
		return
	}

	req := listFixturesByDateRequest{
		Sport: fixture.NormalizeSport(r.PathValue("sport")),
		Date:  strings.TrimSpace(r.URL.Query().Get("date")),
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	list, err := h.query.ListFixturesByDate(ctx, req.Sport, req.Date)
	if err != nil {
		h.logger.WarnContext(ctx, "list fixtures by date failed", "sport_type", req.Sport, "date", req.Date, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureListToDTO(ctx, list))
}

func (h *Handler) ListFixturesByTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListFixturesByTeam")
	defer span.End()

	if h.query == nil {
		writeError(ctx, w, notConfigured("query service"))
		return
	}

	teamID, err := parseInt64Param(r.PathValue("teamID"), "teamID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	limit, err := parseIntParam(r.URL.Query().Get("limit"), "limit")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	req := listFixturesByTeamRequest{
		Sport:  fixture.NormalizeSport(r.PathValue("sport")),
		TeamID: teamID,
		Limit:  limit,
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	list, err := h.query.ListFixturesByTeam(ctx, req.Sport, req.TeamID, req.Limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list fixtures by team failed", "sport_type", req.Sport, "team_id", req.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureListToDTO(ctx, list))
}

func (h *Handler) ListGolfEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListGolfEvents")
	defer span.End()

	if h.query == nil {
		writeError(ctx, w, notConfigured("query service"))
		return
	}

	query := r.URL.Query()
	req := listGolfEventsRequest{
		Tour: strings.ToLower(strings.TrimSpace(query.Get("tour"))),
		From: strings.TrimSpace(query.Get("from")),
		To:   strings.TrimSpace(query.Get("to")),
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	list, err := h.query.ListGolfEvents(ctx, req.Tour, req.From, req.To)
	if err != nil {
		h.logger.WarnContext(ctx, "list golf events failed", "tour", req.Tour, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]eventDTO, 0, len(list.Items))
	for _, item := range list.Items {
		items = append(items, eventToDTO(ctx, item))
	}
	writeSuccess(ctx, w, http.StatusOK, eventListDTO{Items: items, Freshness: list.Freshness})
}

func (h *Handler) ListSyncRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListSyncRuns")
	defer span.End()

	if h.runs == nil {
		writeError(ctx, w, notConfigured("run logger"))
		return
	}

	limit, err := parseIntParam(r.URL.Query().Get("limit"), "limit")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, listSyncRunsRequest{Limit: limit}); err != nil {
		writeError(ctx, w, err)
		return
	}

	runs, err := h.runs.ListRecent(ctx, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list sync runs failed", "limit", limit, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]syncRunDTO, 0, len(runs))
	for _, run := range runs {
		items = append(items, syncRunToDTO(run))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func parseInt64Param(raw, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, invalidParam(field, "must be an integer")
	}
	return value, nil
}

func parseIntParam(raw, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParam(field, "must be an integer")
	}
	return value, nil
}

func invalidParam(field, reason string) error {
	return fmt.Errorf("%w: %s %s", usecase.ErrInvalidInput, field, reason)
}

type sideDTO struct {
	TeamID    int64  `json:"team_id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Logo      string `json:"logo,omitempty"`
	Score     *int   `json:"score"`
}

type fixtureDTO struct {
	ProviderID   int64           `json:"provider_id"`
	SportType    string          `json:"sport_type"`
	MatchDate    string          `json:"match_date"`
	Kickoff      string          `json:"kickoff_at"`
	Minute       *int            `json:"minute,omitempty"`
	Status       string          `json:"status"`
	Stage        string          `json:"stage,omitempty"`
	Matchday     *int            `json:"matchday,omitempty"`
	LeagueCode   string          `json:"league_code"`
	LeagueName   string          `json:"league_name"`
	LeagueLogo   string          `json:"league_logo,omitempty"`
	Home         sideDTO         `json:"home"`
	Away         sideDTO         `json:"away"`
	Venue        string          `json:"venue,omitempty"`
	MatchDetails json.RawMessage `json:"match_details,omitempty"`
	UpdatedAt    string          `json:"updated_at"`
	Fresh        bool            `json:"fresh"`
}

type fixtureListDTO struct {
	Items     []fixtureDTO      `json:"items"`
	Freshness usecase.Freshness `json:"freshness"`
}

type eventDTO struct {
	ID              string         `json:"id"`
	Tour            string         `json:"tour"`
	ProviderEventID string         `json:"provider_event_id"`
	Name            string         `json:"name"`
	Status          string         `json:"status"`
	EventDate       string         `json:"event_date"`
	EndDate         string         `json:"end_date,omitempty"`
	Envelope        event.Envelope `json:"envelope"`
	UpdatedAt       string         `json:"updated_at"`
	Fresh           bool           `json:"fresh"`
}

type eventListDTO struct {
	Items     []eventDTO        `json:"items"`
	Freshness usecase.Freshness `json:"freshness"`
}

type syncRunDTO struct {
	ID            string `json:"id"`
	SyncType      string `json:"sync_type"`
	SportType     string `json:"sport_type"`
	Status        string `json:"status"`
	RecordsSynced int    `json:"records_synced"`
	ErrorMessage  string `json:"error_message,omitempty"`
	StartedAt     string `json:"started_at"`
	CompletedAt   string `json:"completed_at"`
	DurationMs    int64  `json:"duration_ms"`
	TraceID       string `json:"trace_id,omitempty"`
}

func fixtureListToDTO(ctx context.Context, list usecase.FixtureList) fixtureListDTO {
	items := make([]fixtureDTO, 0, len(list.Items))
	for _, item := range list.Items {
		items = append(items, fixtureToDTO(ctx, item))
	}
	return fixtureListDTO{Items: items, Freshness: list.Freshness}
}

func fixtureToDTO(_ context.Context, row usecase.FixtureRow) fixtureDTO {
	return fixtureDTO{
		ProviderID:   row.ProviderID,
		SportType:    row.SportType,
		MatchDate:    row.MatchDate,
		Kickoff:      formatTime(row.Kickoff),
		Minute:       row.Minute,
		Status:       string(row.Status),
		Stage:        row.Stage,
		Matchday:     row.Matchday,
		LeagueCode:   row.LeagueCode,
		LeagueName:   row.LeagueName,
		LeagueLogo:   row.LeagueLogo,
		Home:         sideToDTO(row.Home),
		Away:         sideToDTO(row.Away),
		Venue:        row.Venue,
		MatchDetails: row.MatchDetails,
		UpdatedAt:    formatTime(row.UpdatedAt),
		Fresh:        row.Fresh,
	}
}

func sideToDTO(side fixture.Side) sideDTO {
	return sideDTO{
		TeamID:    side.TeamID,
		Name:      side.Name,
		ShortName: side.ShortName,
		Logo:      side.Logo,
		Score:     side.Score,
	}
}

func eventToDTO(_ context.Context, row usecase.EventRow) eventDTO {
	return eventDTO{
		ID:              row.ID,
		Tour:            row.Tour,
		ProviderEventID: row.ProviderEventID,
		Name:            row.Name,
		Status:          string(row.Status),
		EventDate:       row.EventDate,
		EndDate:         row.EndDate,
		Envelope:        row.Envelope,
		UpdatedAt:       formatTime(row.UpdatedAt),
		Fresh:           row.Fresh,
	}
}

func syncRunToDTO(run syncrun.Run) syncRunDTO {
	return syncRunDTO{
		ID:            run.ID.String(),
		SyncType:      run.SyncType,
		SportType:     run.SportType,
		Status:        string(run.Status),
		RecordsSynced: run.RecordsSynced,
		ErrorMessage:  run.ErrorMessage,
		StartedAt:     formatTime(run.StartedAt),
		CompletedAt:   formatTime(run.CompletedAt),
		DurationMs:    run.DurationMs,
		TraceID:       run.TraceID,
	}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
