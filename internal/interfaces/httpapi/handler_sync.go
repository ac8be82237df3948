package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
)

const maxInvocationBodyBytes = 64 << 10

var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

// syncRequest is the optional JSON body of an invocation. Query parameters fill
// whatever the body leaves empty. Mode and date semantics are checked by the
// services so rejected input still leaves a run row.
type syncRequest struct {
	Mode       string   `json:"mode" validate:"max=16"`
	Start      string   `json:"start" validate:"max=10"`
	End        string   `json:"end" validate:"max=10"`
	Leagues    []string `json:"leagues" validate:"max=50,dive,required,max=16"`
	Tours      []string `json:"tours" validate:"max=20,dive,required,max=32"`
	Date       string   `json:"date" validate:"max=10"`
	Limit      int      `json:"limit" validate:"gte=0,lte=500"`
	SportType  string   `json:"sport_type" validate:"omitempty,max=32"`
	DispatchID string   `json:"dispatch_id" validate:"omitempty,max=200"`
}

func (h *Handler) RunFixtureSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "RunFixtureSync")
	defer span.End()

	if h.fixtureSync == nil {
		h.rejectSync(ctx, w, syncrun.TypeFixtures, fixture.SportFootball, notConfigured("fixture sync"))
		return
	}

	req, err := h.decodeSyncRequest(ctx, r)
	if err != nil {
		h.rejectSync(ctx, w, syncrun.TypeFixtures, fixture.SportFootball, err)
		return
	}

	summary, err := h.fixtureSync.Sync(ctx, usecase.FixtureSyncInput{
		Mode:    req.Mode,
		Start:   req.Start,
		End:     req.End,
		Leagues: req.Leagues,
	})
	h.respondSync(ctx, w, req, summary, err)
}

func (h *Handler) RunLiveSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "RunLiveSync")
	defer span.End()

	if h.liveSync == nil {
		h.rejectSync(ctx, w, syncrun.TypeLive, fixture.SportFootball, notConfigured("live sync"))
		return
	}

	req, err := h.decodeSyncRequest(ctx, r)
	if err != nil {
		h.rejectSync(ctx, w, syncrun.TypeLive, fixture.SportFootball, err)
		return
	}

	summary, err := h.liveSync.Sync(ctx)
	h.respondSync(ctx, w, req, summary, err)
}

func (h *Handler) RunGolfSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "RunGolfSync")
	defer span.End()

	if h.golfSync == nil {
		h.rejectSync(ctx, w, syncrun.TypeGolf, fixture.SportGolf, notConfigured("golf sync"))
		return
	}

	req, err := h.decodeSyncRequest(ctx, r)
	if err != nil {
		h.rejectSync(ctx, w, syncrun.TypeGolf, fixture.SportGolf, err)
		return
	}

	summary, err := h.golfSync.Sync(ctx, usecase.GolfSyncInput{
		Mode:  req.Mode,
		Tours: req.Tours,
	})
	h.respondSync(ctx, w, req, summary, err)
}

func (h *Handler) RunEnrichment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "RunEnrichment")
	defer span.End()

	if h.enrichment == nil {
		h.rejectSync(ctx, w, syncrun.TypeEnrich, fixture.SportFootball, notConfigured("enrichment"))
		return
	}

	req, err := h.decodeSyncRequest(ctx, r)
	if err != nil {
		h.rejectSync(ctx, w, syncrun.TypeEnrich, fixture.SportFootball, err)
		return
	}

	summary, err := h.enrichment.EnrichFinished(ctx, usecase.EnrichInput{
		Date:  req.Date,
		Limit: req.Limit,
	})
	h.respondSync(ctx, w, req, summary, err)
}

func (h *Handler) decodeSyncRequest(ctx context.Context, r *http.Request) (syncRequest, error) {
	var req syncRequest
	if r.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxInvocationBodyBytes+1))
		if err != nil {
			return syncRequest{}, fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
		}
		if len(raw) > maxInvocationBodyBytes {
			return syncRequest{}, fmt.Errorf("%w: request body too large", usecase.ErrInvalidInput)
		}
		if len(bytes.TrimSpace(raw)) > 0 {
			if err := strictJSON.Unmarshal(raw, &req); err != nil {
				return syncRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
			}
		}
	}

	query := r.URL.Query()
	fillString(&req.Mode, query.Get("mode"))
	fillString(&req.Start, query.Get("start"))
	fillString(&req.End, query.Get("end"))
	fillString(&req.Date, query.Get("date"))
	if len(req.Leagues) == 0 {
		req.Leagues = splitList(query.Get("leagues"))
	}
	if len(req.Tours) == 0 {
		req.Tours = splitList(query.Get("tours"))
	}
	if req.Limit == 0 {
		limit, err := parseIntParam(query.Get("limit"), "limit")
		if err != nil {
			return syncRequest{}, err
		}
		req.Limit = limit
	}
	req.Mode = strings.ToLower(req.Mode)

	if err := h.validateRequest(ctx, req); err != nil {
		return syncRequest{}, err
	}
	return req, nil
}

// rejectSync answers an invocation that never reached its service and still leaves
// its error row in the run log.
func (h *Handler) rejectSync(ctx context.Context, w http.ResponseWriter, syncType, sportType string, err error) {
	if h.runs != nil {
		summary := h.runs.Reject(ctx, syncType, sportType, err)
		h.logger.WarnContext(ctx, "sync invocation rejected",
			"run_id", summary.RunID,
			"sync_type", syncType,
			"error", err,
		)
	}
	writeError(ctx, w, err)
}

// respondSync answers 200 for success and partial runs. An error run answers 502 with
// the summary so the queue retries it.
func (h *Handler) respondSync(ctx context.Context, w http.ResponseWriter, req syncRequest, summary usecase.SyncSummary, err error) {
	inv, _ := invocationFromContext(ctx)
	logArgs := []any{
		"run_id", summary.RunID,
		"sync_type", summary.SyncType,
		"status", summary.Status,
		"records_synced", summary.RecordsSynced,
		"dispatch_id", req.DispatchID,
		"auth_scheme", inv.AuthScheme,
		"message_id", inv.MessageID,
	}

	if err != nil {
		h.logger.WarnContext(ctx, "sync invocation rejected", append(logArgs, "error", err)...)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if summary.Status == string(syncrun.StatusError) {
		status = http.StatusBadGateway
		h.logger.WarnContext(ctx, "sync invocation failed", append(logArgs, "error_count", summary.ErrorCount)...)
	} else {
		h.logger.InfoContext(ctx, "sync invocation completed", logArgs...)
	}
	writeSuccess(ctx, w, status, summary)
}

func fillString(dst *string, fallback string) {
	if strings.TrimSpace(*dst) != "" {
		*dst = strings.TrimSpace(*dst)
		return
	}
	*dst = strings.TrimSpace(fallback)
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
