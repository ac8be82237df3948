package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const referenceDateLayout = "2006-01-02"

// SyncConfig holds the knobs shared by the sync services.
type SyncConfig struct {
	Location          *time.Location
	LookaheadDays     int
	LookbackDays      int
	MaxRangeDays      int
	BackfillBatchDays int
	BatchDelay        time.Duration
	Competitions      []string
	GolfTours         []string
	InvocationTimeout time.Duration
	EnrichLimit       int
}

func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Location:          time.UTC,
		LookaheadDays:     7,
		LookbackDays:      1,
		MaxRangeDays:      31,
		BackfillBatchDays: 3,
		BatchDelay:        time.Second,
		Competitions:      []string{"PL"},
		GolfTours:         []string{"pga"},
		InvocationTimeout: 5 * time.Minute,
		EnrichLimit:       20,
	}
}

func NormalizeSyncConfig(cfg SyncConfig) SyncConfig {
	defaults := DefaultSyncConfig()
	if cfg.Location == nil {
		cfg.Location = defaults.Location
	}
	if cfg.LookaheadDays < 0 {
		cfg.LookaheadDays = defaults.LookaheadDays
	}
	if cfg.LookbackDays < 0 {
		cfg.LookbackDays = defaults.LookbackDays
	}
	if cfg.MaxRangeDays < 1 {
		cfg.MaxRangeDays = defaults.MaxRangeDays
	}
	if cfg.BackfillBatchDays < 1 {
		cfg.BackfillBatchDays = defaults.BackfillBatchDays
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = 0
	}
	if cfg.InvocationTimeout <= 0 {
		cfg.InvocationTimeout = defaults.InvocationTimeout
	}
	if cfg.EnrichLimit < 1 {
		cfg.EnrichLimit = defaults.EnrichLimit
	}
	cfg.Competitions = normalizeCodes(cfg.Competitions, strings.ToUpper)
	cfg.GolfTours = normalizeCodes(cfg.GolfTours, strings.ToLower)
	return cfg
}

// invocationContext detaches a sync from the caller's cancellation and bounds it by the invocation ceiling.
func (c SyncConfig) invocationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.InvocationTimeout)
}

func (c SyncConfig) today(now time.Time) time.Time {
	local := now.In(c.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.Location)
}

func (c SyncConfig) parseDate(field, value string) (time.Time, error) {
	out, err := time.ParseInLocation(referenceDateLayout, strings.TrimSpace(value), c.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidInput, field)
	}
	return out, nil
}

// dateRange resolves optional start/end into an inclusive day range.
func (c SyncConfig) dateRange(now time.Time, start, end string) (time.Time, time.Time, error) {
	from := c.today(now)
	to := from.AddDate(0, 0, c.LookaheadDays)

	var err error
	if strings.TrimSpace(start) != "" {
		if from, err = c.parseDate("start", start); err != nil {
			return time.Time{}, time.Time{}, err
		}
		if strings.TrimSpace(end) == "" {
			to = from.AddDate(0, 0, c.LookaheadDays)
		}
	}
	if strings.TrimSpace(end) != "" {
		if to, err = c.parseDate("end", end); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end must not be before start", ErrInvalidInput)
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > c.MaxRangeDays {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range of %d days exceeds %d", ErrInvalidInput, days, c.MaxRangeDays)
	}
	return from, to, nil
}

func daysBetween(from, to time.Time) []time.Time {
	out := make([]time.Time, 0, int(to.Sub(from).Hours()/24)+1)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		out = append(out, day)
	}
	return out
}

func toUpper(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func normalizeCodes(values []string, transform func(string) string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = transform(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
