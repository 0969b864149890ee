package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Remote model calls, labelled by adapter operation.
	modelCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomdesign_model_calls_total",
			Help: "Total number of remote generation calls",
		},
		[]string{"operation", "outcome"},
	)

	modelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomdesign_model_call_duration_seconds",
			Help:    "Remote generation call duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
		[]string{"operation"},
	)

	visualizationsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomdesign_visualizations_dropped_total",
			Help: "Visualization variations dropped because the call failed or returned no image",
		},
	)

	adviceParseFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomdesign_advice_parse_failures_total",
			Help: "Analysis responses that could not be parsed and degraded to no advice",
		},
	)

	// Workflow phase transitions.
	workflowTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomdesign_workflow_transitions_total",
			Help: "Workflow phase transitions by target state",
		},
		[]string{"state"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roomdesign_active_sessions",
			Help: "Number of live workflow sessions",
		},
	)

	// HTTP RED metrics.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"method", "path"},
	)
)

// Outcome labels for model calls.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeEmpty   = "empty"
)

// ObserveModelCall records one remote call.
func ObserveModelCall(operation, outcome string, elapsed time.Duration) {
	modelCallsTotal.WithLabelValues(operation, outcome).Inc()
	modelCallDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// VisualizationDropped counts one dropped variation.
func VisualizationDropped() {
	visualizationsDroppedTotal.Inc()
}

// AdviceParseFailed counts one unparseable analysis response.
func AdviceParseFailed() {
	adviceParseFailuresTotal.Inc()
}

// WorkflowTransition counts one phase change.
func WorkflowTransition(state string) {
	workflowTransitionsTotal.WithLabelValues(state).Inc()
}

// SetActiveSessions updates the live session gauge.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, path, status string, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
