// Package metrics exposes Prometheus collectors for HTTP traffic and the
// lead lifecycle.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	stageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_lead_stage_transitions_total",
			Help: "Lead stage transitions by destination stage",
		},
		[]string{"to"},
	)

	assignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_lead_assignments_total",
			Help: "Distribution decisions by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	conflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_lead_conflicts_total",
			Help: "Duplicate detection results by outcome",
		},
		[]string{"outcome"},
	)

	bulkReassignFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_bulk_reassign_failures_total",
			Help: "Leads that failed to update during bulk reassignment",
		},
	)

	claims = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_lead_claims_total",
			Help: "Manual claim attempts by result",
		},
		[]string{"result"},
	)
)

// Middleware records request counts and latency per matched gin route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordStageTransition(to string) {
	stageTransitions.WithLabelValues(to).Inc()
}

func RecordAssignment(method, outcome string) {
	assignments.WithLabelValues(method, outcome).Inc()
}

func RecordConflict(outcome string) {
	conflicts.WithLabelValues(outcome).Inc()
}

func RecordBulkReassignFailure() {
	bulkReassignFailures.Inc()
}

func RecordClaim(result string) {
	claims.WithLabelValues(result).Inc()
}
