package footballdata

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/metrics"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	providerName   = "football-data"
	defaultBaseURL = "https://api.football-data.org/v4"
	dateLayout     = "2006-01-02"
	// The /matches endpoint rejects ranges wider than ten days.
	maxDateWindowDays = 10
)

var errFootballDataTransient = crerr.New("football-data transient failure")

var statusTable = fixture.StatusTable{
	"SCHEDULED":        fixture.StatusNotStarted,
	"TIMED":            fixture.StatusNotStarted,
	"IN_PLAY":          fixture.StatusLive,
	"LIVE":             fixture.StatusLive,
	"PAUSED":           fixture.StatusBreak,
	"EXTRA_TIME":       fixture.StatusExtraTime,
	"PENALTY_SHOOTOUT": fixture.StatusPenalties,
	"FINISHED":         fixture.StatusFinished,
	"AWARDED":          fixture.StatusFinished,
	"POSTPONED":        fixture.StatusPostponed,
	"CANCELLED":        fixture.StatusCancelled,
	"SUSPENDED":        fixture.StatusSuspended,
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	// Gate paces every request; nil builds a private gate with the default interval.
	Gate *resilience.Gate
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	maxRetries int
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     singleflight.Group
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
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	gate := cfg.Gate
	if gate == nil {
		gateCfg := resilience.DefaultGateConfig()
		gateCfg.Name = providerName
		gate = resilience.NewGate(gateCfg,
			resilience.WithGateLogger(logger),
			resilience.WithWaitObserver(metrics.RateLimitObserver(providerName)),
		)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		maxRetries: max(cfg.MaxRetries, 0),
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

// FetchLeagueFixtures lists one competition's matches between from and to inclusive.
func (c *Client) FetchLeagueFixtures(ctx context.Context, leagueCode string, from, to time.Time) ([]usecase.ExternalFixture, error) {
	leagueCode = strings.ToUpper(strings.TrimSpace(leagueCode))
	if leagueCode == "" {
		return nil, fmt.Errorf("%w: league code is required", usecase.ErrInvalidInput)
	}

	path := "/competitions/" + url.PathEscape(leagueCode) + "/matches"
	query := map[string]string{
		"dateFrom": from.Format(dateLayout),
		"dateTo":   to.Format(dateLayout),
	}

	var payload matchesEnvelope
	if _, err := c.doJSON(ctx, path, query, &payload); err != nil {
		return nil, fmt.Errorf("fetch matches league=%s from=%s to=%s: %w", leagueCode, query["dateFrom"], query["dateTo"], err)
	}
	return mapMatches(payload.Matches, payload.Competition), nil
}

// FetchFixturesByDate lists matches across every competition in the plan, windowed to the provider's range limit.
func (c *Client) FetchFixturesByDate(ctx context.Context, from, to time.Time) ([]usecase.ExternalFixture, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: date range end before start", usecase.ErrInvalidInput)
	}

	out := make([]usecase.ExternalFixture, 0, 64)
	for start := from; !start.After(to); start = start.AddDate(0, 0, maxDateWindowDays) {
		end := start.AddDate(0, 0, maxDateWindowDays-1)
		if end.After(to) {
			end = to
		}
		query := map[string]string{
			"dateFrom": start.Format(dateLayout),
			"dateTo":   end.Format(dateLayout),
		}

		var payload matchesEnvelope
		if _, err := c.doJSON(ctx, "/matches", query, &payload); err != nil {
			return nil, fmt.Errorf("fetch matches from=%s to=%s: %w", query["dateFrom"], query["dateTo"], err)
		}
		out = append(out, mapMatches(payload.Matches, competitionRef{})...)
	}
	return out, nil
}

// FetchMatchDetails returns the raw single-match payload.
func (c *Client) FetchMatchDetails(ctx context.Context, providerID int64) ([]byte, error) {
	var probe struct {
		ID int64 `json:"id"`
	}
	raw, err := c.doJSON(ctx, "/matches/"+strconv.FormatInt(providerID, 10), nil, &probe)
	if err != nil {
		return nil, fmt.Errorf("fetch match details id=%d: %w", providerID, err)
	}
	return raw, nil
}

func (c *Client) FetchHeadToHead(ctx context.Context, providerID int64, limit int) ([]byte, error) {
	query := map[string]string{}
	if limit > 0 {
		query["limit"] = strconv.Itoa(limit)
	}

	var probe struct {
		Matches []matchItem `json:"matches"`
	}
	raw, err := c.doJSON(ctx, "/matches/"+strconv.FormatInt(providerID, 10)+"/head2head", query, &probe)
	if err != nil {
		return nil, fmt.Errorf("fetch head to head id=%d: %w", providerID, err)
	}
	return raw, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) ([]byte, error) {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "football-data circuit breaker rejected request", "state", c.breaker.State())
		return nil, fmt.Errorf("%w: football-data is temporarily unavailable: %w", usecase.ErrUpstreamUnavailable, err)
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		var raw []byte
		reqErr := c.gate.Do(ctx, func(ctx context.Context) error {
			var err error
			raw, err = c.executeRequest(ctx, fullURL)
			return err
		})
		c.breaker.Record(reqErr != nil && stderrors.Is(reqErr, errFootballDataTransient))
		return raw, reqErr
	})
	if err != nil {
		if stderrors.Is(err, errFootballDataTransient) {
			return nil, fmt.Errorf("%w: %w", usecase.ErrUpstreamUnavailable, err)
		}
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("%w: decode football-data payload: %w", usecase.ErrMalformedRecord, err)
	}
	return raw, nil
}

// executeRequest retries transport and 5xx failures; a 429 is handed back to the gate.
func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("X-Auth-Token", c.token)
		}

		startedAt := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordUpstreamRequest(providerName, 0, time.Since(startedAt).Seconds())
			lastErr = fmt.Errorf("%w: send request: %v", errFootballDataTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			metrics.RecordUpstreamRequest(providerName, resp.StatusCode, time.Since(startedAt).Seconds())

			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errFootballDataTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, &resilience.ThrottledError{
					RetryAfter: resp.Header.Get("Retry-After"),
					Message:    throttleMessage(raw),
				}
			case resp.StatusCode >= http.StatusInternalServerError:
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errFootballDataTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("%w: provider status=%d body=%s", usecase.ErrUpstreamUnavailable, resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: provider request failed", errFootballDataTransient)
	}
	c.logger.WarnContext(ctx, "football-data request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func mapMatches(items []matchItem, fallback competitionRef) []usecase.ExternalFixture {
	out := make([]usecase.ExternalFixture, 0, len(items))
	for _, item := range items {
		competition := item.Competition
		if competition.Code == "" {
			competition = fallback
		}

		kickoff := parseProviderDateTime(item.UTCDate)
		rec := usecase.ExternalFixture{
			ProviderID: item.ID,
			SportType:  fixture.SportFootball,
			StatusCode: item.Status,
			Minute:     item.Minute.value(),
			Stage:      item.Stage,
			Matchday:   item.Matchday,
			LeagueCode: competition.Code,
			LeagueName: competition.Name,
			LeagueLogo: competition.Emblem,
			Home:       mapSide(item.HomeTeam, item.Score.FullTime.Home),
			Away:       mapSide(item.AwayTeam, item.Score.FullTime.Away),
			Venue:      item.Venue,
		}
		if kickoff != nil {
			rec.Kickoff = *kickoff
		}
		out = append(out, rec)
	}
	return out
}

func mapSide(team teamRef, score *int) usecase.ExternalSide {
	return usecase.ExternalSide{
		ProviderID: team.ID,
		Name:       strings.TrimSpace(team.Name),
		ShortName:  strings.TrimSpace(team.ShortName),
		TLA:        strings.TrimSpace(team.TLA),
		Logo:       strings.TrimSpace(team.Crest),
		Score:      score,
	}
}

func parseProviderDateTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}

func throttleMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := sonic.Unmarshal(raw, &body); err == nil && strings.TrimSpace(body.Message) != "" {
		return body.Message
	}
	return abbreviateBody(raw)
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	cut := 240
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
