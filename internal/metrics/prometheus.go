package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Run metrics
	AnalysisRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athena_analysis_runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"symbol", "status"}, // status: success|error
	)

	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "athena_analysis_duration_seconds",
			Help:    "Full pipeline run duration in seconds",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"symbol"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "athena_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	// Decision metrics
	Decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athena_decisions_total",
			Help: "Final decisions by normalized action",
		},
		[]string{"symbol", "mode", "action"},
	)

	// LLM metrics
	ModelCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athena_model_calls_total",
			Help: "Total number of chat completions",
		},
		[]string{"model", "status"},
	)

	ModelTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athena_model_tokens_total",
			Help: "Total tokens used by chat completions",
		},
		[]string{"model", "type"}, // type: input|output
	)

	// Tool metrics
	ToolExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athena_tool_executions_total",
			Help: "Total number of data tool executions",
		},
		[]string{"tool", "status"},
	)

	// Broker metrics
	BrokerOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athena_broker_orders_total",
			Help: "Broker operations by action and outcome",
		},
		[]string{"action", "status"},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athena_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "athena_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)
)

// Init registers all metrics with Prometheus.
func Init() {
	prometheus.MustRegister(AnalysisRuns)
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(Decisions)
	prometheus.MustRegister(ModelCalls)
	prometheus.MustRegister(ModelTokens)
	prometheus.MustRegister(ToolExecutions)
	prometheus.MustRegister(BrokerOrders)
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerLastRun)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRun records one completed pipeline run.
func RecordRun(symbol string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AnalysisRuns.WithLabelValues(symbol, status).Inc()
	AnalysisDuration.WithLabelValues(symbol).Observe(duration.Seconds())
}

// RecordStageDuration records one pipeline stage's elapsed time.
func RecordStageDuration(stage string, duration time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordModelCall records one chat completion attempt.
func RecordModelCall(model string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ModelCalls.WithLabelValues(model, status).Inc()
}

// RecordModelTokens records token usage for a completed call.
func RecordModelTokens(model string, prompt, completion int) {
	ModelTokens.WithLabelValues(model, "input").Add(float64(prompt))
	ModelTokens.WithLabelValues(model, "output").Add(float64(completion))
}

// RecordToolExecution records one tool dispatch outcome.
func RecordToolExecution(tool string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ToolExecutions.WithLabelValues(tool, status).Inc()
}

// RecordDecision records a normalized final action.
func RecordDecision(symbol, mode, action string) {
	Decisions.WithLabelValues(symbol, mode, action).Inc()
}

// RecordWorkerExecution records one worker iteration.
func RecordWorkerExecution(worker string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordBrokerOrder records one broker operation outcome.
func RecordBrokerOrder(action string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	BrokerOrders.WithLabelValues(action, status).Inc()
}
