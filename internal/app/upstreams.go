package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/riskibarqy/matchday-sync/external/footballdata"
	"github.com/riskibarqy/matchday-sync/external/golfdata"
	"github.com/riskibarqy/matchday-sync/external/jobqueue"
	"github.com/riskibarqy/matchday-sync/external/livescore"
	"github.com/riskibarqy/matchday-sync/internal/config"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/ratelimit"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/metrics"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
)

const redisPingTimeout = 3 * time.Second

type providers struct {
	schedule usecase.ScheduleProvider
	live     usecase.LiveProvider
	golf     usecase.GolfProvider
}

// openSlotStore connects the shared gate store. Without REDIS_URL every gate paces in-process only.
func openSlotStore(cfg config.Config, logger *logging.Logger) (resilience.SlotStore, func() error, error) {
	if cfg.RedisURL == "" {
		logger.Info("redis disabled, fetch gates pace in-process", "reason", "REDIS_URL empty")
		return nil, func() error { return nil }, nil
	}

	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("redis slot store enabled", "addr", opts.Addr)
	return ratelimit.NewRedisSlotStore(client, ""), client.Close, nil
}

func newGate(name string, upstream config.Upstream, store resilience.SlotStore, logger *logging.Logger) *resilience.Gate {
	opts := []resilience.GateOption{
		resilience.WithGateLogger(logger),
		resilience.WithWaitObserver(metrics.RateLimitObserver(name)),
	}
	if store != nil {
		opts = append(opts, resilience.WithSlotStore(store))
	}

	return resilience.NewGate(resilience.GateConfig{
		Name:        name,
		MinInterval: upstream.MinInterval,
		MaxWait:     upstream.ThrottleMaxWait,
		MaxRetries:  upstream.MaxRetries,
	}, opts...)
}

func circuitConfig(name string, upstream config.Upstream, logger *logging.Logger) resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Enabled:          upstream.CircuitEnabled,
		FailureThreshold: upstream.CircuitFailureCount,
		OpenTimeout:      upstream.CircuitOpenTimeout,
		HalfOpenMaxReq:   upstream.CircuitHalfOpenMaxReq,
		OnTransition:     circuitObserver(name, logger),
	}
}

func circuitObserver(name string, logger *logging.Logger) func(from, to resilience.CircuitState) {
	return func(from, to resilience.CircuitState) {
		metrics.RecordCircuitTransition(name, string(to))
		logger.Warn("circuit breaker state changed", "upstream", name, "from", from, "to", to)
	}
}

// newProviders builds a client for every enabled upstream. Disabled upstreams stay nil.
func newProviders(cfg config.Config, store resilience.SlotStore, logger *logging.Logger) providers {
	var out providers

	if cfg.FootballData.Enabled {
		out.schedule = footballdata.NewClient(footballdata.ClientConfig{
			BaseURL:        cfg.FootballData.BaseURL,
			Token:          cfg.FootballData.Token,
			Timeout:        cfg.FootballData.Timeout,
			MaxRetries:     cfg.FootballData.MaxRetries,
			Logger:         logger,
			CircuitBreaker: circuitConfig("football-data", cfg.FootballData, logger),
			Gate:           newGate("football-data", cfg.FootballData, store, logger),
		})
	} else {
		logger.Info("schedule provider disabled", "reason", "FOOTBALL_DATA_ENABLED=false")
	}

	if cfg.LiveScore.Enabled {
		out.live = livescore.NewClient(livescore.ClientConfig{
			BaseURL:   cfg.LiveScore.BaseURL,
			APIKey:    cfg.LiveScore.Token,
			Timeout:   cfg.LiveScore.Timeout,
			LeagueMap: cfg.LiveScoreLeagueMap,
			Logger:    logger,
			Gate:      newGate("livescore", cfg.LiveScore, store, logger),
		})
	} else {
		logger.Info("live provider disabled", "reason", "LIVESCORE_ENABLED=false")
	}

	if cfg.Golf.Enabled {
		out.golf = golfdata.NewClient(golfdata.ClientConfig{
			BaseURL:        cfg.Golf.BaseURL,
			Host:           cfg.GolfHost,
			APIKey:         cfg.Golf.Token,
			Timeout:        cfg.Golf.Timeout,
			TourIDs:        cfg.GolfTourIDs,
			Logger:         logger,
			CircuitBreaker: circuitConfig("golfdata", cfg.Golf, logger),
			Gate:           newGate("golfdata", cfg.Golf, store, logger),
		})
	} else {
		logger.Info("golf provider disabled", "reason", "GOLF_ENABLED=false")
	}

	return out
}

func newJobQueue(cfg config.Config, logger *logging.Logger) usecase.JobQueue {
	if !cfg.QStashEnabled {
		logger.Info("job queue disabled, live sync is not re-armed", "reason", "QSTASH_ENABLED=false")
		return usecase.NewNoopJobQueue()
	}

	return jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.QStashCircuitEnabled,
			FailureThreshold: cfg.QStashCircuitFailureCount,
			OpenTimeout:      cfg.QStashCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
			OnTransition:     circuitObserver("qstash", logger),
		},
	}, logger)
}
