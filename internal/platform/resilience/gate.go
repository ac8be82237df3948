package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

var ErrRateLimited = errors.New("upstream rate limit exceeded")

var waitHintPattern = regexp.MustCompile(`(?i)wait\s+(\d+)\s*s`)

// ThrottledError is returned by a gated call when the upstream answered with a throttle.
type ThrottledError struct {
	// RetryAfter is the raw Retry-After header value, if any.
	RetryAfter string
	// Message is the (possibly truncated) response body.
	Message string
}

func (e *ThrottledError) Error() string {
	if e == nil {
		return "throttled"
	}
	if strings.TrimSpace(e.Message) == "" {
		return "throttled by upstream"
	}
	return "throttled by upstream: " + e.Message
}

// SlotStore shares the request interval of one upstream across processes.
type SlotStore interface {
	// Reserve claims the next slot for key and returns how long to wait before using it.
	Reserve(ctx context.Context, key string, interval time.Duration) (time.Duration, error)
	// BlockFor keeps every process away from key for d.
	BlockFor(ctx context.Context, key string, d time.Duration) error
}

type GateConfig struct {
	Name        string
	MinInterval time.Duration
	DefaultWait time.Duration
	MaxWait     time.Duration
	MaxRetries  int
}

func DefaultGateConfig() GateConfig {
	return GateConfig{
		MinInterval: 6500 * time.Millisecond,
		DefaultWait: 60 * time.Second,
		MaxWait:     2 * time.Minute,
		MaxRetries:  2,
	}
}

func NormalizeGateConfig(cfg GateConfig) GateConfig {
	defaults := DefaultGateConfig()
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	if cfg.DefaultWait <= 0 {
		cfg.DefaultWait = defaults.DefaultWait
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = defaults.MaxWait
	}
	if cfg.DefaultWait > cfg.MaxWait {
		cfg.DefaultWait = cfg.MaxWait
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = "upstream"
	}
	return cfg
}

type GateOption func(*Gate)

func WithSlotStore(store SlotStore) GateOption {
	return func(g *Gate) {
		g.store = store
	}
}

func WithGateLogger(logger *logging.Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithWaitObserver is called for every non-zero wait with the reason "interval" or "throttle".
func WithWaitObserver(fn func(reason string, d time.Duration)) GateOption {
	return func(g *Gate) {
		g.observe = fn
	}
}

// Gate spaces calls to one upstream at least MinInterval apart and retries throttled calls.
type Gate struct {
	cfg     GateConfig
	store   SlotStore
	logger  *logging.Logger
	observe func(reason string, d time.Duration)

	mu   sync.Mutex
	last time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewGate(cfg GateConfig, opts ...GateOption) *Gate {
	g := &Gate{
		cfg:    NormalizeGateConfig(cfg),
		logger: logging.Default(),
		now:    time.Now,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) Name() string {
	return g.cfg.Name
}

// Do runs fn once its slot arrives. A *ThrottledError from fn is retried after the
// provider's wait hint up to MaxRetries times, then surfaces as ErrRateLimited.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		if err := g.acquire(ctx); err != nil {
			return err
		}

		err := fn(ctx)
		var throttled *ThrottledError
		if !errors.As(err, &throttled) {
			return err
		}

		if attempt >= g.cfg.MaxRetries {
			return fmt.Errorf("%w: %s after %d attempts: %w", ErrRateLimited, g.cfg.Name, attempt+1, err)
		}

		wait := g.HintWait(throttled)
		g.logger.WarnContext(ctx, "upstream throttled, backing off",
			"upstream", g.cfg.Name,
			"attempt", attempt+1,
			"wait", wait.String(),
		)
		g.block(ctx, wait)
	}
}

// HintWait resolves the wait for a throttle: Retry-After header, then a
// "wait N seconds" body hint, then DefaultWait, capped at MaxWait.
func (g *Gate) HintWait(throttled *ThrottledError) time.Duration {
	wait := g.cfg.DefaultWait
	if throttled != nil {
		if d, ok := ParseRetryAfter(throttled.RetryAfter, g.now()); ok {
			wait = d
		} else if d, ok := ParseWaitHint(throttled.Message); ok {
			wait = d
		}
	}
	if wait > g.cfg.MaxWait {
		wait = g.cfg.MaxWait
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

func (g *Gate) acquire(ctx context.Context) error {
	wait := g.reserve()
	if err := g.pause(ctx, "interval", wait); err != nil {
		return err
	}

	if g.store == nil {
		return nil
	}
	shared, err := g.store.Reserve(ctx, g.cfg.Name, g.cfg.MinInterval)
	if err != nil {
		g.logger.WarnContext(ctx, "shared rate limit slot unavailable, using local interval only",
			"upstream", g.cfg.Name,
			"error", err,
		)
		return nil
	}
	return g.pause(ctx, "interval", shared)
}

func (g *Gate) reserve() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	next := g.last.Add(g.cfg.MinInterval)
	if next.Before(now) {
		next = now
	}
	g.last = next
	return next.Sub(now)
}

func (g *Gate) block(ctx context.Context, d time.Duration) {
	g.mu.Lock()
	until := g.now().Add(d).Add(-g.cfg.MinInterval)
	if until.After(g.last) {
		g.last = until
	}
	g.mu.Unlock()

	if g.observe != nil && d > 0 {
		g.observe("throttle", d)
	}
	if g.store == nil {
		return
	}
	if err := g.store.BlockFor(ctx, g.cfg.Name, d); err != nil {
		g.logger.WarnContext(ctx, "propagate throttle to shared slot store failed",
			"upstream", g.cfg.Name,
			"error", err,
		)
	}
}

func (g *Gate) pause(ctx context.Context, reason string, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if g.observe != nil {
		g.observe(reason, d)
	}
	return g.sleep(ctx, d)
}

// ParseRetryAfter accepts delta seconds or an HTTP date.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds * float64(time.Second)), true
	}
	if at, err := http.ParseTime(value); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// ParseWaitHint extracts N from body text such as "Wait 42 seconds".
func ParseWaitHint(body string) (time.Duration, bool) {
	match := waitHintPattern.FindStringSubmatch(body)
	if len(match) < 2 {
		return 0, false
	}
	seconds, err := strconv.Atoi(match[1])
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
