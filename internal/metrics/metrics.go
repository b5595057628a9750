// Package metrics holds the Prometheus collectors shared by the dispatch,
// offline and discovery layers. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Layer labels.
const (
	LayerLive    = "live"
	LayerOffline = "offline"
)

// Trigger outcomes.
const (
	OutcomeDispatched  = "dispatched"
	OutcomeCancelled   = "cancelled"
	OutcomeNoListeners = "no_listeners"
	OutcomeIgnored     = "ignored"
	OutcomeDisabled    = "disabled"
	OutcomeFailed      = "failed"
)

// Rebuild results.
const (
	RebuildWritten   = "written"
	RebuildUnchanged = "unchanged"
	RebuildFailed    = "failed"
)

type Metrics struct {
	triggers   *prometheus.CounterVec
	invoked    *prometheus.CounterVec
	woken      prometheus.Counter
	loads      *prometheus.CounterVec
	rebuilds   *prometheus.CounterVec
	entries    prometheus.Gauge
	discovered *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg. A nil reg leaves them
// unregistered, which tests use to read counters without a global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		triggers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "eventcore",
				Subsystem: "dispatch",
				Name:      "triggers_total",
				Help:      "Trigger calls by dispatch layer and outcome",
			},
			[]string{"layer", "outcome"},
		),
		invoked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "eventcore",
				Subsystem: "dispatch",
				Name:      "listeners_invoked_total",
				Help:      "Listener callbacks invoked",
			},
			[]string{"layer"},
		),
		woken: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "eventcore",
				Subsystem: "offline",
				Name:      "listeners_woken_total",
				Help:      "Offline listener classes instantiated on demand",
			},
		),
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "eventcore",
				Subsystem: "index",
				Name:      "loads_total",
				Help:      "Listener index loads by result",
			},
			[]string{"result"},
		),
		rebuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "eventcore",
				Subsystem: "index",
				Name:      "rebuilds_total",
				Help:      "Index rebuilds by result",
			},
			[]string{"result"},
		),
		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "eventcore",
				Subsystem: "index",
				Name:      "entries",
				Help:      "Event names in the most recently loaded or built index",
			},
		),
		discovered: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "eventcore",
				Subsystem: "discovery",
				Name:      "classes",
				Help:      "Classes found by the last discovery scan, by kind",
			},
			[]string{"kind"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.triggers, m.invoked, m.woken, m.loads, m.rebuilds, m.entries, m.discovered)
	}
	return m
}

func (m *Metrics) Trigger(layer, outcome string) {
	if m == nil {
		return
	}
	m.triggers.WithLabelValues(layer, outcome).Inc()
}

func (m *Metrics) Invoked(layer string) {
	if m == nil {
		return
	}
	m.invoked.WithLabelValues(layer).Inc()
}

func (m *Metrics) Woken() {
	if m == nil {
		return
	}
	m.woken.Inc()
}

func (m *Metrics) IndexLoaded(entries int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.loads.WithLabelValues("error").Inc()
		return
	}
	m.loads.WithLabelValues("ok").Inc()
	m.entries.Set(float64(entries))
}

func (m *Metrics) Rebuilt(result string, entries int) {
	if m == nil {
		return
	}
	m.rebuilds.WithLabelValues(result).Inc()
	if result != RebuildFailed {
		m.entries.Set(float64(entries))
	}
}

func (m *Metrics) Discovered(events, listeners int) {
	if m == nil {
		return
	}
	m.discovered.WithLabelValues("event").Set(float64(events))
	m.discovered.WithLabelValues("listener").Set(float64(listeners))
}

// Collectors for tests and custom exporters.

func (m *Metrics) Triggers() *prometheus.CounterVec { return m.triggers }
func (m *Metrics) Invocations() *prometheus.CounterVec { return m.invoked }
func (m *Metrics) Wakes() prometheus.Counter { return m.woken }
func (m *Metrics) Loads() *prometheus.CounterVec { return m.loads }
func (m *Metrics) Rebuilds() *prometheus.CounterVec { return m.rebuilds }
func (m *Metrics) Entries() prometheus.Gauge { return m.entries }
func (m *Metrics) DiscoveredClasses() *prometheus.GaugeVec { return m.discovered }
