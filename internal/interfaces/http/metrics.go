package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Financiamiento-api/internal/domain/collections"
)

// Metrics métricas Prometheus de la API y de la cartera en cobranza.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	overdueAmount   prometheus.Gauge
	overdueCount    prometheus.Gauge
	affected        prometheus.Gauge
	warnings        prometheus.Gauge
}

// NewMetrics registra las métricas en un registry propio.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fin_http_requests_total",
			Help: "Peticiones HTTP por ruta, método y status.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fin_http_request_duration_seconds",
			Help:    "Duración de las peticiones HTTP por ruta.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		overdueAmount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fin_collections_overdue_amount",
			Help: "Monto vencido total de la cartera.",
		}),
		overdueCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fin_collections_overdue_installments",
			Help: "Cuotas vencidas en la cartera.",
		}),
		affected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fin_collections_affected_customers",
			Help: "Clientes con al menos una cuota vencida.",
		}),
		warnings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fin_collections_integrity_warnings",
			Help: "Inconsistencias de datos detectadas en el último cálculo.",
		}),
	}
	m.registry.MustRegister(m.requestsTotal, m.requestDuration, m.overdueAmount, m.overdueCount, m.affected, m.warnings)
	return m
}

// Registerer expone el registry para métricas de otros componentes (jobs).
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registry
}

// Middleware cuenta peticiones y mide su duración por patrón de ruta.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := "unknown"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		m.requestsTotal.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler endpoint /metrics.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// ObserveCollections implementa analytics.StatsObserver.
func (m *Metrics) ObserveCollections(stats collections.Statistics, warnings int) {
	m.overdueAmount.Set(stats.TotalOverdueAmount.InexactFloat64())
	m.overdueCount.Set(float64(stats.TotalOverdueInstallments))
	m.affected.Set(float64(stats.AffectedCustomers))
	m.warnings.Set(float64(warnings))
}
