package entitlement

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrymomot/tillkit/pkg/plan"
)

const (
	metricsNamespace = "tillkit"
	metricsSubsystem = "entitlement"
)

// Snapshot update sources.
const (
	sourceInitial   = "initial"
	sourceDefault   = "default"
	sourceEvent     = "event"
	sourceTombstone = "tombstone"
	sourceStale     = "stale"
)

// Sync error stages.
const (
	stageWatch = "watch"
	stageGet   = "get"
	stageFeed  = "feed"
)

type syncMetrics struct {
	snapshotUpdates *prometheus.CounterVec
	syncErrors      *prometheus.CounterVec
	activeWatches   prometheus.Gauge
}

// newSyncMetrics builds the collectors. A nil registerer leaves them
// unregistered so every Synchronizer can count without a global registry.
func newSyncMetrics(reg prometheus.Registerer) *syncMetrics {
	f := promauto.With(reg)
	return &syncMetrics{
		snapshotUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "snapshot_updates_total",
			Help:      "Snapshot replacements by source (initial, default, event, tombstone, stale).",
		}, []string{"source"}),
		syncErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "sync_errors_total",
			Help:      "Live sync failures by stage.",
		}, []string{"stage"}),
		activeWatches: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "active_watches",
			Help:      "Number of open live subscriptions.",
		}),
	}
}

type engineMetrics struct {
	limitChecks *prometheus.CounterVec
}

func newEngineMetrics(reg prometheus.Registerer) *engineMetrics {
	return &engineMetrics{
		limitChecks: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "limit_checks_total",
			Help:      "Quota checks by limit kind and outcome.",
		}, []string{"kind", "allowed"}),
	}
}

func (m *engineMetrics) observe(kind plan.LimitKind, res plan.LimitResult) {
	m.limitChecks.WithLabelValues(string(kind), strconv.FormatBool(res.Allowed)).Inc()
}
