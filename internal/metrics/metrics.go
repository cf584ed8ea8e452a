package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventnest",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status class.",
		},
		[]string{"endpoint", "status"},
	)

	workflowOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventnest",
			Name:      "workflow_operations_total",
			Help:      "Workflow operations by name and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventnest",
			Name:      "outbox_deliveries_total",
			Help:      "Outbox deliveries by task type and result.",
		},
		[]string{"task_type", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, workflowOps, deliveries)
	})
}

// IncHTTP increments the request counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// IncWorkflow counts a workflow operation outcome ("ok" or "error").
func IncWorkflow(operation, outcome string) {
	workflowOps.WithLabelValues(operation, outcome).Inc()
}

// IncDelivery counts an outbox delivery attempt result.
func IncDelivery(taskType, result string) {
	deliveries.WithLabelValues(taskType, result).Inc()
}
