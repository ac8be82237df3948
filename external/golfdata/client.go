package golfdata

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/metrics"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	providerName   = "golfdata"
	defaultBaseURL = "https://live-golf-data.p.rapidapi.com"
	defaultHost    = "live-golf-data.p.rapidapi.com"
)

var errGolfDataTransient = crerr.New("golfdata transient failure")

var statusTable = fixture.StatusTable{
	"UPCOMING":    fixture.StatusNotStarted,
	"SCHEDULED":   fixture.StatusNotStarted,
	"NOT_STARTED": fixture.StatusNotStarted,
	"IN_PROGRESS": fixture.StatusLive,
	"LIVE":        fixture.StatusLive,
	"SUSPENDED":   fixture.StatusSuspended,
	"COMPLETED":   fixture.StatusFinished,
	"FINISHED":    fixture.StatusFinished,
	"OFFICIAL":    fixture.StatusFinished,
	"POSTPONED":   fixture.StatusPostponed,
	"CANCELLED":   fixture.StatusCancelled,
	"CANCELED":    fixture.StatusCancelled,
}

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Host       string
	APIKey     string
	Timeout    time.Duration
	// TourIDs maps tour slugs ("pga", "euro") to the provider's numeric tour ids.
	TourIDs        map[string]string
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	Gate           *resilience.Gate
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	host       string
	apiKey     string
	tourIDs    map[string]string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	gate       *resilience.Gate
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = defaultHost
	}

	gate := cfg.Gate
	if gate == nil {
		gate = resilience.NewGate(resilience.GateConfig{
			Name:        providerName,
			MinInterval: 3 * time.Second,
			MaxRetries:  1,
		}, resilience.WithGateLogger(logger), resilience.WithWaitObserver(metrics.RateLimitObserver(providerName)))
	}

	tourIDs := make(map[string]string, len(cfg.TourIDs))
	for slug, id := range cfg.TourIDs {
		tourIDs[strings.ToLower(strings.TrimSpace(slug))] = strings.TrimSpace(id)
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		host:       host,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		tourIDs:    tourIDs,
		logger:     logger.Named(providerName),
		breaker:    resilience.NewCircuitBreaker(providerName, cfg.CircuitBreaker),
		gate:       gate,
	}
}

func (c *Client) Name() string {
	return providerName
}

func (c *Client) StatusTable() fixture.StatusTable {
	return statusTable
}

// FetchSchedule lists a tour's tournaments for one season; each record keeps its raw JSON.
func (c *Client) FetchSchedule(ctx context.Context, tour string, season int) ([]usecase.ExternalGolfEvent, error) {
	tourID := c.tourID(tour)
	if tourID == "" {
		return nil, fmt.Errorf("%w: tour is required", usecase.ErrInvalidInput)
	}

	path := "/fixtures/" + url.PathEscape(tourID) + "/" + strconv.Itoa(season)
	raw, err := c.get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch golf schedule tour=%s season=%d: %w", tour, season, err)
	}

	var envelope struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode golf schedule tour=%s: %w", usecase.ErrMalformedRecord, tour, err)
	}

	out := make([]usecase.ExternalGolfEvent, 0, len(envelope.Results))
	for _, item := range envelope.Results {
		var tournament tournamentItem
		if err := sonic.Unmarshal(item, &tournament); err != nil {
			c.logger.WarnContext(ctx, "skip undecodable golf tournament", "tour", tour, "error", err)
			continue
		}
		out = append(out, usecase.ExternalGolfEvent{
			ProviderEventID: tournament.ID.String(),
			Name:            strings.TrimSpace(tournament.Name),
			StatusCode:      strings.TrimSpace(tournament.Status),
			StartDate:       normalizeDate(tournament.StartDate),
			EndDate:         normalizeDate(tournament.EndDate),
			Raw:             append([]byte(nil), item...),
		})
	}
	return out, nil
}

// FetchLeaderboard returns the provider leaderboard payload untouched.
func (c *Client) FetchLeaderboard(ctx context.Context, tour, eventID string) ([]byte, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", usecase.ErrInvalidInput)
	}

	raw, err := c.get(ctx, "/leaderboard/"+url.PathEscape(eventID))
	if err != nil {
		return nil, fmt.Errorf("fetch golf leaderboard tour=%s event=%s: %w", tour, eventID, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: golf leaderboard event=%s is not valid json", usecase.ErrMalformedRecord, eventID)
	}
	return raw, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "golfdata circuit breaker rejected request", "state", c.breaker.State())
		return nil, fmt.Errorf("%w: golf provider is temporarily unavailable: %w", usecase.ErrUpstreamUnavailable, err)
	}

	var raw []byte
	err := c.gate.Do(ctx, func(ctx context.Context) error {
		var reqErr error
		raw, reqErr = c.executeRequest(ctx, c.baseURL+path)
		return reqErr
	})
	c.breaker.Record(err != nil && stderrors.Is(err, errGolfDataTransient))
	if err != nil {
		if stderrors.Is(err, errGolfDataTransient) {
			return nil, fmt.Errorf("%w: %w", usecase.ErrUpstreamUnavailable, err)
		}
		return nil, err
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-RapidAPI-Host", c.host)
	if c.apiKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
	}

	startedAt := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(providerName, 0, time.Since(startedAt).Seconds())
		return nil, fmt.Errorf("%w: send request: %v", errGolfDataTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	metrics.RecordUpstreamRequest(providerName, resp.StatusCode, time.Since(startedAt).Seconds())

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errGolfDataTransient, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &resilience.ThrottledError{RetryAfter: resp.Header.Get("Retry-After"), Message: abbreviateBody(raw)}
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: provider status=%d body=%s", errGolfDataTransient, resp.StatusCode, abbreviateBody(raw))
	default:
		return nil, fmt.Errorf("%w: provider status=%d body=%s", usecase.ErrUpstreamUnavailable, resp.StatusCode, abbreviateBody(raw))
	}
}

func (c *Client) tourID(tour string) string {
	slug := strings.ToLower(strings.TrimSpace(tour))
	if id, ok := c.tourIDs[slug]; ok {
		return id
	}
	return slug
}

// normalizeDate keeps the calendar day of "2025-04-10", "2025-04-10 00:00:00" or an RFC3339 timestamp.
func normalizeDate(raw string) string {
	value := strings.TrimSpace(raw)
	if len(value) >= 10 {
		if _, err := time.Parse("2006-01-02", value[:10]); err == nil {
			return value[:10]
		}
	}
	return ""
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

type tournamentItem struct {
	ID        flexibleID `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
}

type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	*f = flexibleID(strings.Trim(strings.TrimSpace(string(data)), `"`))
	return nil
}

func (f flexibleID) String() string {
	return string(f)
}
