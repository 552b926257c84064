// Package metrics exposes control-loop state as Prometheus metrics.
package metrics

import (
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/fridge-controller/internal/logic"
)

const namespace = "fridge"

// Recorder owns a private registry so tests and multiple instances do not
// collide on the global one.
type Recorder struct {
	registry *prometheus.Registry

	temperature *prometheus.GaugeVec
	humidity    prometheus.Gauge
	target      prometheus.Gauge
	threshold   prometheus.Gauge
	relay       *prometheus.GaugeVec
	fault       prometheus.Gauge
	autoMode    prometheus.Gauge
	reachable   prometheus.Gauge
	events      *prometheus.CounterVec
	errors      *prometheus.CounterVec
	syncTiming  *prometheus.SummaryVec
}

// New creates a Recorder with every collector registered.
func New() *Recorder {
	m := &Recorder{
		registry: prometheus.NewRegistry(),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Last temperature read per probe; NaN while the probe is absent.",
		}, []string{"probe"}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "humidity_percent",
			Help:      "Reported relative humidity.",
		}),
		target: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_temperature_celsius",
			Help:      "Compressor stop threshold.",
		}),
		threshold: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "defrost_threshold_celsius",
			Help:      "Evaporator temperature that starts a defrost.",
		}),
		relay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_on",
			Help:      "Committed actuator state (1 = on).",
		}, []string{"actuator"}),
		fault: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fault",
			Help:      "1 while in sensor fail-safe.",
		}),
		autoMode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "auto_mode",
			Help:      "1 in AUTO mode, 0 in MANUAL.",
		}),
		reachable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uplink_reachable",
			Help:      "1 if the last sync succeeded.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Control events by type.",
		}, []string{"event"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Non-fatal errors by kind.",
		}, []string{"kind"}),
		syncTiming: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace:  namespace,
			Name:       "sync_duration_seconds",
			Help:       "Uplink exchange duration by outcome.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.temperature, m.humidity, m.target, m.threshold, m.relay,
		m.fault, m.autoMode, m.reachable, m.events, m.errors, m.syncTiming,
	)
	return m
}

// Observe updates the state gauges from one loop iteration.
func (m *Recorder) Observe(st logic.OperatingState, rd logic.Reading) {
	m.temperature.WithLabelValues("cabinet").Set(valueOrNaN(rd.Temperature))
	m.temperature.WithLabelValues("evaporator").Set(valueOrNaN(rd.Evaporator))
	m.humidity.Set(rd.Humidity)
	m.target.Set(st.TargetTemperature)
	m.threshold.Set(st.DefrostThreshold)
	for _, a := range logic.Actuators {
		m.relay.WithLabelValues(string(a)).Set(boolValue(st.Relays[a]))
	}
	m.fault.Set(boolValue(st.Fault))
	m.autoMode.Set(boolValue(st.Mode == logic.ModeAuto))
}

// Event counts one control event.
func (m *Recorder) Event(t logic.EventType) {
	m.events.WithLabelValues(string(t)).Inc()
}

// Error counts one non-fatal error of the given kind.
func (m *Recorder) Error(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}

// Sync records an uplink exchange that started at start.
func (m *Recorder) Sync(start time.Time, ok bool) {
	outcome := "unreachable"
	if ok {
		outcome = "ok"
	}
	m.syncTiming.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	m.reachable.Set(boolValue(ok))
}

// Registry returns the underlying registry.
func (m *Recorder) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
