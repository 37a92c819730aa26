// Package promexport adapts the in-process match telemetry counters to
// Prometheus collectors so an operator can scrape /metrics for fleet-wide
// dashboards, independent of the per-match logging router.
package promexport

import (
	"github.com/prometheus/client_golang/prometheus"

	"arenacore/server/logging"
)

// Exporter bridges a logging.Metrics snapshot to Prometheus gauges.
type Exporter struct {
	source *logging.Metrics

	ticksTotal      prometheus.Counter
	eventsTotal     prometheus.Gauge
	eventsDropped   prometheus.Gauge
	commandsDropped prometheus.Gauge
	telemetryGauges *prometheus.GaugeVec
}

// New constructs an Exporter and registers its collectors with reg.
func New(reg prometheus.Registerer, source *logging.Metrics) *Exporter {
	e := &Exporter{
		source: source,
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arena",
			Subsystem: "match",
			Name:      "ticks_total",
			Help:      "Total simulation ticks executed across all matches on this process.",
		}),
		eventsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arena",
			Subsystem: "telemetry",
			Name:      "events_total",
			Help:      "Telemetry events published to the logging router.",
		}),
		eventsDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arena",
			Subsystem: "telemetry",
			Name:      "events_dropped_total",
			Help:      "Telemetry events dropped due to a full router buffer.",
		}),
		commandsDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arena",
			Subsystem: "match",
			Name:      "commands_dropped_total",
			Help:      "Player input commands dropped by per-actor or global throttling.",
		}),
		telemetryGauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "arena",
			Subsystem: "match",
			Name:      "telemetry_counter",
			Help:      "Named ad-hoc telemetry counters (damage dealt, respawns, hazard impacts, ...).",
		}, []string{"counter"}),
	}
	if reg != nil {
		reg.MustRegister(e.ticksTotal, e.eventsTotal, e.eventsDropped, e.commandsDropped, e.telemetryGauges)
	}
	return e
}

// IncTick records that a simulation tick completed.
func (e *Exporter) IncTick() {
	if e == nil {
		return
	}
	e.ticksTotal.Inc()
}

// Sync pulls the latest counters out of the logging router snapshot.
func (e *Exporter) Sync() {
	if e == nil || e.source == nil {
		return
	}
	snapshot := e.source.Snapshot()
	if v, ok := snapshot["events_total"]; ok {
		e.eventsTotal.Set(float64(v))
	}
	if v, ok := snapshot["events_dropped_total"]; ok {
		e.eventsDropped.Set(float64(v))
	}
	for key, value := range snapshot {
		switch key {
		case "events_total", "events_dropped_total", "sink_errors_total", "sink_disabled_total":
			continue
		}
		e.telemetryGauges.WithLabelValues(key).Set(float64(value))
	}
}

// CommandsDropped records a drop-count observation.
func (e *Exporter) CommandsDropped(count uint64) {
	if e == nil {
		return
	}
	e.commandsDropped.Set(float64(count))
}
