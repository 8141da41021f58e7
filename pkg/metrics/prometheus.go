// Package metrics provides Prometheus metrics for the article pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns all Prometheus instruments for the pipeline.
type Manager struct {
	namespace string
	enabled   bool
	registry  *prometheus.Registry

	// Oracle metrics
	oracleCalls   *prometheus.CounterVec
	oracleRetries prometheus.Counter
	oracleErrors  *prometheus.CounterVec
	oracleLatency prometheus.Histogram

	// Pipeline stage metrics
	stagesCompleted *prometheus.CounterVec
	stageLatency    *prometheus.HistogramVec
	runsPublished   prometheus.Counter
	runsQuarantined *prometheus.CounterVec

	// Gate metrics
	gateChecksFailed *prometheus.CounterVec
	gateEvaluations  *prometheus.CounterVec

	// Layout metrics
	labelNudges    prometheus.Counter
	labelFallbacks prometheus.Counter
	layoutErrors   *prometheus.CounterVec

	// Consensus metrics
	votesCollected prometheus.Counter
	votesInvalid   prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collector noise.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager()
}

// NewManager creates a metrics manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "linotype",
		enabled:   true,
		registry:  customRegistry,
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.oracleCalls = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "oracle_calls_total",
		Help:      "Generation oracle calls by stage.",
	}, []string{"stage"})
	m.oracleRetries = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "oracle_retries_total",
		Help:      "Oracle calls retried after a transient error.",
	})
	m.oracleErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "oracle_errors_total",
		Help:      "Oracle errors by kind (transient, fatal, malformed).",
	}, []string{"kind"})
	m.oracleLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "oracle_latency_ms",
		Help:      "Oracle call latency in milliseconds.",
		Buckets:   prometheus.ExponentialBuckets(50, 2, 12),
	})

	m.stagesCompleted = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "stages_completed_total",
		Help:      "Pipeline stages completed by name.",
	}, []string{"stage"})
	m.stageLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "stage_latency_ms",
		Help:      "Per-stage latency in milliseconds.",
		Buckets:   prometheus.ExponentialBuckets(10, 2, 14),
	}, []string{"stage"})
	m.runsPublished = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "runs_published_total",
		Help:      "Pipeline runs that reached Publish.",
	})
	m.runsQuarantined = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "runs_quarantined_total",
		Help:      "Pipeline runs routed to quarantine, by reason.",
	}, []string{"reason"})

	m.gateChecksFailed = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "gate_checks_failed_total",
		Help:      "Failed gate checks by gate and check name.",
	}, []string{"gate", "check"})
	m.gateEvaluations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "gate_evaluations_total",
		Help:      "Gate evaluations by gate and outcome.",
	}, []string{"gate", "outcome"})

	m.labelNudges = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "label_nudges_total",
		Help:      "Label placements that required a collision nudge.",
	})
	m.labelFallbacks = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "label_fallbacks_total",
		Help:      "Label placements that fell back to a secondary anchor.",
	})
	m.layoutErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "layout_errors_total",
		Help:      "Chart layout errors by kind.",
	}, []string{"kind"})

	m.votesCollected = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "votes_collected_total",
		Help:      "Valid consensus votes collected.",
	})
	m.votesInvalid = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "votes_invalid_total",
		Help:      "Consensus votes discarded after retries.",
	})

	return m
}

// Handler exposes the custom registry over HTTP for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// Package-level record helpers against the global manager.

func RecordOracleCall(stage string) {
	if globalManager.enabled {
		globalManager.oracleCalls.WithLabelValues(stage).Inc()
	}
}

func RecordOracleRetry() {
	if globalManager.enabled {
		globalManager.oracleRetries.Inc()
	}
}

func RecordOracleError(kind string) {
	if globalManager.enabled {
		globalManager.oracleErrors.WithLabelValues(kind).Inc()
	}
}

func RecordOracleLatency(ms float64) {
	if globalManager.enabled {
		globalManager.oracleLatency.Observe(ms)
	}
}

func RecordStageCompleted(stage string) {
	if globalManager.enabled {
		globalManager.stagesCompleted.WithLabelValues(stage).Inc()
	}
}

func RecordStageLatency(stage string, ms float64) {
	if globalManager.enabled {
		globalManager.stageLatency.WithLabelValues(stage).Observe(ms)
	}
}

func RecordRunPublished() {
	if globalManager.enabled {
		globalManager.runsPublished.Inc()
	}
}

func RecordRunQuarantined(reason string) {
	if globalManager.enabled {
		globalManager.runsQuarantined.WithLabelValues(reason).Inc()
	}
}

func RecordGateCheckFailed(gate, check string) {
	if globalManager.enabled {
		globalManager.gateChecksFailed.WithLabelValues(gate, check).Inc()
	}
}

func RecordGateEvaluation(gate string, passed bool) {
	if globalManager.enabled {
		outcome := "failed"
		if passed {
			outcome = "passed"
		}
		globalManager.gateEvaluations.WithLabelValues(gate, outcome).Inc()
	}
}

func RecordLabelNudge() {
	if globalManager.enabled {
		globalManager.labelNudges.Inc()
	}
}

func RecordLabelFallback() {
	if globalManager.enabled {
		globalManager.labelFallbacks.Inc()
	}
}

func RecordLayoutError(kind string) {
	if globalManager.enabled {
		globalManager.layoutErrors.WithLabelValues(kind).Inc()
	}
}

func RecordVoteCollected() {
	if globalManager.enabled {
		globalManager.votesCollected.Inc()
	}
}

func RecordVoteInvalid() {
	if globalManager.enabled {
		globalManager.votesInvalid.Inc()
	}
}
