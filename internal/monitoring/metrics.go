package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records measurement throughput on a private registry so that batch
// runs can export a node-exporter textfile without a scrape endpoint.
type Metrics struct {
	Registry *prometheus.Registry

	measurements *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	particles    *prometheus.CounterVec
}

// NewMetrics creates and registers the twopoint collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		measurements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twopoint_measurements_total",
			Help: "Completed measurements by statistic, catalogue type and outcome",
		}, []string{"statistic", "catalogue_type", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "twopoint_measurement_duration_seconds",
			Help:    "Wall time spent inside the clustering algorithm",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 16), // 10ms to ~5.5min
		}, []string{"statistic"}),
		particles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twopoint_particles_processed_total",
			Help: "Particles passed to the clustering algorithm by catalogue role",
		}, []string{"role"}),
	}
	reg.MustRegister(m.measurements, m.duration, m.particles)
	return m
}

// ObserveMeasurement counts one measurement and, on success, its duration.
// A nil receiver is a no-op so callers need not guard optional metrics.
func (m *Metrics) ObserveMeasurement(statistic, catalogueType string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.measurements.WithLabelValues(statistic, catalogueType, status).Inc()
	if err == nil {
		m.duration.WithLabelValues(statistic).Observe(d.Seconds())
	}
}

// AddParticles counts particles handed to the algorithm for a catalogue role
// ("data" or "random").
func (m *Metrics) AddParticles(role string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.particles.WithLabelValues(role).Add(float64(n))
}

// WriteTextfile dumps the registry in the Prometheus text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
