package bootstrap

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records launch outcomes.
// - nixkryption_subsystem_launches_total: launches by subsystem and result
// - nixkryption_subsystem_launch_duration_seconds: time until ready or failure
// - nixkryption_subsystem_up: 1 while a subsystem is running
// - nixkryption_bootstrap_state: current State as a number
type Metrics struct {
	launches *prometheus.CounterVec
	duration *prometheus.HistogramVec
	up       *prometheus.GaugeVec
	state    prometheus.Gauge
}

// NewMetrics registers the bootstrap collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		launches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nixkryption_subsystem_launches_total",
				Help: "Subsystem launch attempts by result",
			},
			[]string{"subsystem", "result"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nixkryption_subsystem_launch_duration_seconds",
				Help:    "Time from launch until the subsystem was ready or failed",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"subsystem"},
		),
		up: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nixkryption_subsystem_up",
				Help: "Whether the subsystem is running",
			},
			[]string{"subsystem"},
		),
		state: f.NewGauge(prometheus.GaugeOpts{
			Name: "nixkryption_bootstrap_state",
			Help: "Current supervisor state (0=Init ... 7=Stopped)",
		}),
	}
}

func (m *Metrics) observeLaunch(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.launches.WithLabelValues(name, result).Inc()
	m.duration.WithLabelValues(name).Observe(d.Seconds())
	if err == nil {
		m.up.WithLabelValues(name).Set(1)
	}
}

func (m *Metrics) setDown(name string) {
	if m == nil {
		return
	}
	m.up.WithLabelValues(name).Set(0)
}

func (m *Metrics) setState(s State) {
	if m == nil {
		return
	}
	m.state.Set(float64(s))
}
