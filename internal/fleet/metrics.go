package fleet

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the run metrics of one Generator. They live on a private
// registry so that several generators can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	artifactsEmitted *prometheus.CounterVec
	warnings         *prometheus.CounterVec
	renderDuration   *prometheus.HistogramVec
	stateInfo        *prometheus.GaugeVec
	descriptors      prometheus.Gauge
	lastRunSuccess   prometheus.Gauge
	lastRunDuration  prometheus.Gauge
	runsTotal        prometheus.Counter
}

func newMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		artifactsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleetgen",
			Subsystem: "generator",
			Name:      "artifacts_emitted_total",
			Help:      "Artifacts written to the output target by kind",
		}, []string{"kind"}),

		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleetgen",
			Subsystem: "generator",
			Name:      "warnings_total",
			Help:      "Non-fatal generation warnings by type",
		}, []string{"type"}),

		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fleetgen",
			Subsystem: "generator",
			Name:      "render_duration_seconds",
			Help:      "Time taken to render a single artifact",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"kind"}),

		stateInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "fleetgen",
			Subsystem: "generator",
			Name:      "state_info",
			Help:      "Current run state (1=active for the labeled state)",
		}, []string{"state"}),

		descriptors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fleetgen",
			Subsystem: "generator",
			Name:      "descriptors",
			Help:      "Descriptors in the registry of the last run",
		}),

		lastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fleetgen",
			Subsystem: "generator",
			Name:      "last_run_success",
			Help:      "Whether the last run emitted every artifact (1=done, 0=failed)",
		}),

		lastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fleetgen",
			Subsystem: "generator",
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run",
		}),

		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fleetgen",
			Subsystem: "generator",
			Name:      "runs_total",
			Help:      "Total number of runs started",
		}),
	}
	m.registry.MustRegister(
		m.artifactsEmitted,
		m.warnings,
		m.renderDuration,
		m.stateInfo,
		m.descriptors,
		m.lastRunSuccess,
		m.lastRunDuration,
		m.runsTotal,
	)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// allStates is used for resetting the state gauge (only one state is 1 at a time).
var allStates = []State{StateIdle, StateValidating, StateGenerating, StateAggregateGenerating, StateDone, StateFailed}

func (m *Metrics) setState(s State) {
	for _, st := range allStates {
		val := float64(0)
		if st == s {
			val = 1
		}
		m.stateInfo.WithLabelValues(string(st)).Set(val)
	}
}

func (m *Metrics) finish(s *Summary) {
	ok := float64(0)
	if s.State == StateDone {
		ok = 1
	}
	m.lastRunSuccess.Set(ok)
	m.lastRunDuration.Set(s.elapsed.Seconds())
}

// WriteTextfile writes the metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
