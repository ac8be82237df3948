package livescore

import (
	"context"
	"fmt"
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
	"github.com/valyala/fasthttp"
)

const (
	providerName   = "livescore"
	defaultBaseURL = "https://livescore-api.example.com/v1"
	livePath       = "/matches/live"
)

var errLivescoreTransient = crerr.New("livescore transient failure")

var statusTable = fixture.StatusTable{
	"NS":   fixture.StatusNotStarted,
	"TBD":  fixture.StatusNotStarted,
	"1H":   fixture.StatusFirstPeriod,
	"HT":   fixture.StatusBreak,
	"2H":   fixture.StatusSecondPeriod,
	"ET":   fixture.StatusExtraTime,
	"BT":   fixture.StatusBreak,
	"P":    fixture.StatusPenalties,
	"FT":   fixture.StatusFinished,
	"AET":  fixture.StatusFinished,
	"PEN":  fixture.StatusFinished,
	"SUSP": fixture.StatusSuspended,
	"INT":  fixture.StatusInterrupted,
	"ABD":  fixture.StatusAbandoned,
	"PST":  fixture.StatusPostponed,
	"CANC": fixture.StatusCancelled,
	"LIVE": fixture.StatusLive,
}

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// LeagueMap translates provider competition ids into the primary provider's league codes.
	LeagueMap map[string]string
	Logger    *logging.Logger
	Gate      *resilience.Gate
}

// Client reads the cross-competition live snapshot over fasthttp.
type Client struct {
	http      *fasthttp.Client
	baseURL   string
	apiKey    string
	timeout   time.Duration
	leagueMap map[string]string
	logger    *logging.Logger
	gate      *resilience.Gate
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	gate := cfg.Gate
	if gate == nil {
		gate = resilience.NewGate(resilience.GateConfig{
			Name:        providerName,
			MinInterval: time.Second,
			MaxRetries:  1,
		}, resilience.WithGateLogger(logger), resilience.WithWaitObserver(metrics.RateLimitObserver(providerName)))
	}

	leagueMap := make(map[string]string, len(cfg.LeagueMap))
	for id, code := range cfg.LeagueMap {
		leagueMap[strings.TrimSpace(id)] = strings.ToUpper(strings.TrimSpace(code))
	}

	return &Client{
		http: &fasthttp.Client{
			Name:                "matchday-sync",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		baseURL:   baseURL,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		timeout:   timeout,
		leagueMap: leagueMap,
		logger:    logger.Named(providerName),
		gate:      gate,
	}
}

func (c *Client) Name() string {
	return providerName
}

func (c *Client) StatusTable() fixture.StatusTable {
	return statusTable
}

// FetchLiveSnapshot returns every live event whose competition is mapped to a league code.
func (c *Client) FetchLiveSnapshot(ctx context.Context) ([]usecase.ExternalLiveEvent, error) {
	var raw []byte
	err := c.gate.Do(ctx, func(ctx context.Context) error {
		var err error
		raw, err = c.get(ctx, c.baseURL+livePath)
		return err
	})
	if err != nil {
		if crerr.Is(err, errLivescoreTransient) {
			return nil, fmt.Errorf("%w: fetch live snapshot: %w", usecase.ErrUpstreamUnavailable, err)
		}
		return nil, fmt.Errorf("fetch live snapshot: %w", err)
	}

	var payload liveEnvelope
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode live snapshot: %w", usecase.ErrMalformedRecord, err)
	}

	out := make([]usecase.ExternalLiveEvent, 0, len(payload.Events))
	unmapped := 0
	for _, item := range payload.Events {
		code, ok := c.leagueMap[item.League.ID.String()]
		if !ok {
			unmapped++
			continue
		}
		out = append(out, mapEvent(item, code))
	}
	if unmapped > 0 {
		c.logger.DebugContext(ctx, "skip live events outside mapped competitions", "skipped", unmapped, "kept", len(out))
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	startedAt := time.Now()
	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		metrics.RecordUpstreamRequest(providerName, 0, time.Since(startedAt).Seconds())
		return nil, fmt.Errorf("%w: send request: %v", errLivescoreTransient, err)
	}
	status := resp.StatusCode()
	metrics.RecordUpstreamRequest(providerName, status, time.Since(startedAt).Seconds())

	body := append([]byte(nil), resp.Body()...)
	switch {
	case status >= 200 && status < 300:
		return body, nil
	case status == fasthttp.StatusTooManyRequests:
		return nil, &resilience.ThrottledError{
			RetryAfter: string(resp.Header.Peek("Retry-After")),
			Message:    abbreviateBody(body),
		}
	case status >= fasthttp.StatusInternalServerError:
		return nil, fmt.Errorf("%w: provider status=%d body=%s", errLivescoreTransient, status, abbreviateBody(body))
	default:
		return nil, fmt.Errorf("%w: provider status=%d body=%s", usecase.ErrUpstreamUnavailable, status, abbreviateBody(body))
	}
}

func mapEvent(item liveEvent, leagueCode string) usecase.ExternalLiveEvent {
	out := usecase.ExternalLiveEvent{
		ProviderEventID: item.ID.String(),
		LeagueCode:      leagueCode,
		HomeName:        strings.TrimSpace(item.Home.Name),
		AwayName:        strings.TrimSpace(item.Away.Name),
		StatusCode:      strings.TrimSpace(item.Status),
		Minute:          parseMinute(item.Minute.String()),
		HomeScore:       item.Score.Home,
		AwayScore:       item.Score.Away,
	}
	if item.Kickoff > 0 {
		out.Kickoff = time.Unix(item.Kickoff, 0).UTC()
	}
	return out
}

// parseMinute reads "67", "45+2" or "90'" and keeps the regular-time part.
func parseMinute(raw string) *int {
	value := strings.TrimSpace(raw)
	end := 0
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	minute, err := strconv.Atoi(value[:end])
	if err != nil {
		return nil
	}
	return &minute
}

// ParseLeagueMap reads "39:PL,140:PD" into provider id -> league code.
func ParseLeagueMap(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, code, ok := strings.Cut(part, ":")
		id, code = strings.TrimSpace(id), strings.ToUpper(strings.TrimSpace(code))
		if !ok || id == "" || code == "" {
			return nil, fmt.Errorf("invalid league map entry %q, expected <provider_id>:<league_code>", part)
		}
		out[id] = code
	}
	return out, nil
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
