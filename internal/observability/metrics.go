// Package observability exposes Prometheus metrics for the backend.
package observability

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkflowMutations counts workflow mutations by operation and outcome
// (accepted, rejected, or error).
var WorkflowMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "blockmart_workflow_mutations_total",
	Help: "Workflow mutations processed, by operation and outcome.",
}, []string{"operation", "outcome"})

// BlockRuns counts marketplace block executions by block and outcome.
var BlockRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "blockmart_block_runs_total",
	Help: "Marketplace block executions, by block and outcome.",
}, []string{"block", "outcome"})

// RegisterMetricsEndpoint exposes Prometheus metrics on /metrics.
func RegisterMetricsEndpoint(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
