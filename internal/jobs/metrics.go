package jobs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contadores Prometheus de los jobs.
type Metrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registra las métricas de jobs en registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fin_job_runs_total",
			Help: "Ejecuciones de jobs por resultado.",
		}, []string{"job", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fin_job_duration_seconds",
			Help:    "Duración de cada ejecución de job.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}
	registerer.MustRegister(m.runs, m.duration)
	return m
}

// Tracker mide una ejecución.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track inicia la medición de job. Con m nil no registra nada.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End registra resultado y duración y devuelve err sin cambios.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}
