// Package metrics holds the Prometheus collectors of the service.
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

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labtrack_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labtrack_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// AuditRecords counts committed audit rows.
	AuditRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labtrack_audit_records_total",
			Help: "Audit records committed, by entity type and action.",
		},
		[]string{"entity_type", "action"},
	)

	// AuditTruncations counts field values shortened before being audited.
	AuditTruncations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labtrack_audit_truncated_fields_total",
			Help: "Audit field values truncated, by entity type.",
		},
		[]string{"entity_type"},
	)

	// AuthzDenials counts rejected operations.
	AuthzDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labtrack_authz_denials_total",
			Help: "Operations rejected by the authorization gate.",
		},
		[]string{"operation", "reason"},
	)

	// SessionBinds counts session configuration calls on acquired connections.
	SessionBinds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labtrack_db_session_binds_total",
			Help: "Security context bindings on acquired database connections.",
		},
		[]string{"mode", "result"},
	)
)

var once sync.Once

// Init registers every collector in the default registry. Safe to call more
// than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			AuditRecords,
			AuditTruncations,
			AuthzDenials,
			SessionBinds,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request counts and latencies per route template.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}
