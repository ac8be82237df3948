package jobqueue

import (
	"bytes"
	"context"
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
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/metrics"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	upstreamName      = "qstash"
	maxErrorBodyBytes = 2048
)

var errQStashTransient = crerr.New("qstash transient failure")

type QStashPublisherConfig struct {
	BaseURL          string
	Token            string
	TargetBaseURL    string
	Retries          int
	InternalJobToken string
	Timeout          time.Duration
	CircuitBreaker   resilience.CircuitBreakerConfig
}

// QStashPublisher schedules delayed invocations of this service's internal sync endpoints.
type QStashPublisher struct {
	client           *http.Client
	baseURL          string
	targetBaseURL    string
	configErr        error
	token            string
	retries          int
	internalJobToken string
	logger           *logging.Logger
	breaker          *resilience.CircuitBreaker
}

type publishResponse struct {
	MessageID    string `json:"messageId"`
	Deduplicated bool   `json:"deduplicated"`
}

// NewQStashPublisher builds the queue that re-arms internal sync invocations.
// Invalid base URLs surface on the first Enqueue.
func NewQStashPublisher(cfg QStashPublisherConfig, logger *logging.Logger) *QStashPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	baseURL, baseErr := validateHTTPBaseURL(cfg.BaseURL)
	targetBaseURL, targetErr := validateHTTPBaseURL(cfg.TargetBaseURL)
	var configErr error
	switch {
	case baseErr != nil:
		configErr = crerr.Wrap(baseErr, "invalid QSTASH_BASE_URL")
	case targetErr != nil:
		configErr = crerr.Wrap(targetErr, "invalid QSTASH_TARGET_BASE_URL")
	}

	return &QStashPublisher{
		client:           &http.Client{Timeout: timeout},
		baseURL:          baseURL,
		targetBaseURL:    targetBaseURL,
		configErr:        configErr,
		token:            strings.TrimSpace(cfg.Token),
		retries:          cfg.Retries,
		internalJobToken: strings.TrimSpace(cfg.InternalJobToken),
		logger:           logger.Named("qstash"),
		breaker:          resilience.NewCircuitBreaker(upstreamName, cfg.CircuitBreaker),
	}
}

// Enqueue schedules a POST to path on the target service after delay.
// Identical deduplicationID values inside the QStash window collapse to one delivery.
func (p *QStashPublisher) Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error {
	if p.configErr != nil {
		return p.configErr
	}
	path = "/" + strings.Trim(strings.TrimSpace(path), "/")
	if path == "/" {
		return crerr.New("job path is required")
	}
	if err := p.breaker.Allow(); err != nil {
		p.logger.WarnContext(ctx, "qstash circuit breaker rejected publish", "path", path, "state", p.breaker.State())
		return fmt.Errorf("qstash is temporarily unavailable: %w", err)
	}

	body := bytebufferpool.Get()
	defer bytebufferpool.Put(body)
	if payload == nil {
		payload = map[string]any{}
	}
	if err := sonic.ConfigDefault.NewEncoder(body).Encode(payload); err != nil {
		return crerr.Wrap(err, "encode job payload")
	}

	targetURL := p.targetBaseURL + path
	req, err := p.newPublishRequest(ctx, targetURL, body.B, delay, deduplicationID)
	if err != nil {
		return err
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.target_url", targetURL),
			attribute.String("qstash.delay", formatDelay(delay)),
			attribute.String("qstash.deduplication_id", deduplicationID),
		)
	}

	startedAt := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(upstreamName, 0, time.Since(startedAt).Seconds())
		return p.fail(fmt.Errorf("%w: publish target=%s: %v", errQStashTransient, targetURL, err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	metrics.RecordUpstreamRequest(upstreamName, resp.StatusCode, time.Since(startedAt).Seconds())

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if resp.StatusCode/100 != 2 {
		callErr := fmt.Errorf("publish target=%s status=%d body=%s", targetURL, resp.StatusCode, strings.TrimSpace(string(raw)))
		if isRetryableStatus(resp.StatusCode) {
			callErr = fmt.Errorf("%w: %v", errQStashTransient, callErr)
		}
		return p.fail(callErr)
	}
	p.breaker.Record(false)

	var published publishResponse
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := sonic.Unmarshal(raw, &published); err != nil {
			p.logger.DebugContext(ctx, "qstash publish response not decoded", "error", err)
		}
	}
	p.logger.InfoContext(ctx, "sync invocation queued",
		"path", path,
		"delay", formatDelay(delay),
		"deduplication_id", deduplicationID,
		"message_id", published.MessageID,
		"deduplicated", published.Deduplicated,
	)
	return nil
}

func (p *QStashPublisher) newPublishRequest(ctx context.Context, targetURL string, body []byte, delay time.Duration, deduplicationID string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v2/publish/"+targetURL, bytes.NewReader(body))
	if err != nil {
		return nil, crerr.Wrap(err, "create qstash request")
	}

	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Method", http.MethodPost)
	if p.retries > 0 {
		req.Header.Set("Upstash-Retries", strconv.Itoa(p.retries))
	}
	if delay > 0 {
		req.Header.Set("Upstash-Delay", formatDelay(delay))
	}
	if id := strings.TrimSpace(deduplicationID); id != "" {
		req.Header.Set("Upstash-Deduplication-Id", id)
	}
	// Forwarded headers reach the target endpoint with the prefix stripped.
	if p.internalJobToken != "" {
		req.Header.Set("Upstash-Forward-X-Internal-Job-Token", p.internalJobToken)
	}
	return req, nil
}

func (p *QStashPublisher) fail(err error) error {
	p.breaker.Record(stderrors.Is(err, errQStashTransient))
	return err
}

// formatDelay renders whole seconds, the unit Upstash-Delay accepts.
func formatDelay(delay time.Duration) string {
	if delay <= 0 {
		return "0s"
	}
	return strconv.Itoa(int(delay.Round(time.Second).Seconds())) + "s"
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimRight(strings.TrimSpace(raw), "/")
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}
	return candidate, nil
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
