// Package metrics exposes Prometheus collectors for HTTP traffic and for the
// order/stock workflow.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vestibox"

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration records request duration in seconds
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// PedidosRegistrados counts order submissions by kind (alquiler|venta)
	// and outcome (creado|fusionado).
	PedidosRegistrados = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pedidos_registrados_total",
			Help:      "Order submissions by kind and merge outcome",
		},
		[]string{"tipo", "resultado"},
	)

	// PedidosEliminados counts deleted orders by kind.
	PedidosEliminados = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pedidos_eliminados_total",
			Help:      "Deleted orders by kind",
		},
		[]string{"tipo"},
	)

	// AjustesStock counts stock ledger adjustments by movement type.
	AjustesStock = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ajustes_stock_total",
			Help:      "Stock ledger adjustments by movement type",
		},
		[]string{"tipo"},
	)

	// StockNegativo counts adjustments that left a product below zero.
	StockNegativo = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_negativo_total",
			Help:      "Adjustments that left a product with negative stock",
		},
	)

	// JobsProcesados counts background jobs by type and outcome
	// (ok|reintento|dlq).
	JobsProcesados = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_procesados_total",
			Help:      "Background jobs by type and outcome",
		},
		[]string{"tipo", "resultado"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default Prometheus registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			PedidosRegistrados,
			PedidosEliminados,
			AjustesStock,
			StockNegativo,
			JobsProcesados,
		)
	})
}

// Middleware records request count and latency. The route template
// (c.FullPath) is used as label to keep cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		RequestCounter.WithLabelValues(c.Request.Method, path, status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
