// Package metrics holds the Prometheus collectors of the sync engine.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "matchday"

var (
	// SyncRunsTotal counts finished invocations by type and final status.
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Total number of sync invocations by type and status",
		},
		[]string{"sync_type", "sport_type", "status"},
	)

	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "run_duration_seconds",
			Help:      "Duration of sync invocations in seconds",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"sync_type"},
	)

	RecordsSyncedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "records_total",
			Help:      "Total number of records written to the cache",
		},
		[]string{"sync_type", "sport_type"},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of outbound provider requests",
		},
		[]string{"upstream", "status_code"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound provider requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"upstream"},
	)

	RateLimitWaitSeconds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "rate_limit_wait_seconds_total",
			Help:      "Seconds spent waiting on provider rate limits",
		},
		[]string{"upstream", "reason"},
	)

	// MatcherOutcomesTotal counts live overlay lookups; ambiguous results need alias review.
	MatcherOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matcher",
			Name:      "outcomes_total",
			Help:      "Cross-provider match outcomes by league",
		},
		[]string{"league_code", "outcome"},
	)

	ReconcilerFinalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "finalized_total",
			Help:      "Live rows forced to finished by the orphan reconciler",
		},
		[]string{"sport_type", "cutoff"},
	)

	CircuitTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "circuit_transitions_total",
			Help:      "Circuit breaker state changes by upstream and target state",
		},
		[]string{"upstream", "state"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Read cache lookups by result (hit, miss, shared)",
		},
		[]string{"cache", "result"},
	)

	CacheWriteFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "write_failures_total",
			Help:      "Upsert chunks rejected by the store",
		},
		[]string{"entity"},
	)
)

func RecordSyncRun(syncType, sportType, status string, records int, durationSeconds float64) {
	SyncRunsTotal.WithLabelValues(syncType, sportType, status).Inc()
	SyncRunDuration.WithLabelValues(syncType).Observe(durationSeconds)
	if records > 0 {
		RecordsSyncedTotal.WithLabelValues(syncType, sportType).Add(float64(records))
	}
}

func RecordUpstreamRequest(upstream string, statusCode int, durationSeconds float64) {
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	UpstreamRequestsTotal.WithLabelValues(upstream, code).Inc()
	UpstreamRequestDuration.WithLabelValues(upstream).Observe(durationSeconds)
}

// RateLimitObserver adapts RateLimitWaitSeconds to a gate wait observer.
func RateLimitObserver(upstream string) func(reason string, d time.Duration) {
	return func(reason string, d time.Duration) {
		RateLimitWaitSeconds.WithLabelValues(upstream, reason).Add(d.Seconds())
	}
}

func RecordMatch(leagueCode, outcome string) {
	MatcherOutcomesTotal.WithLabelValues(leagueCode, outcome).Inc()
}

func RecordFinalized(sportType, cutoff string, count int) {
	if count <= 0 {
		return
	}
	ReconcilerFinalizedTotal.WithLabelValues(sportType, cutoff).Add(float64(count))
}

func RecordCircuitTransition(upstream, state string) {
	CircuitTransitionsTotal.WithLabelValues(upstream, state).Inc()
}

func RecordCacheLookup(cache, result string) {
	CacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

func RecordCacheWriteFailure(entity string) {
	CacheWriteFailuresTotal.WithLabelValues(entity).Inc()
}
