package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline metrics
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_queries_total",
			Help: "Total number of pipeline queries",
		},
		[]string{"mode", "intent", "status"}, // status: success|partial|failed
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meridian_query_duration_seconds",
			Help:    "End-to-end pipeline query duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"mode"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meridian_stage_duration_seconds",
			Help:    "Per-stage pipeline duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"stage"}, // stage: load|assess|execute|synthesize
	)

	// Agent metrics
	AgentRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_agent_runs_total",
			Help: "Total number of agent task executions",
		},
		[]string{"agent", "state"}, // state: succeeded|failed|timed_out
	)

	AgentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meridian_agent_duration_seconds",
			Help:    "Agent task duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"agent"},
	)

	FinalConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meridian_final_confidence",
			Help:    "Distribution of composed final confidence values",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"agent"},
	)

	// Quality metrics
	QualityScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meridian_quality_score",
			Help:    "Distribution of overall quality scores per assessment",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"record_type"}, // record_type: product|review
	)

	AnomaliesDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_anomalies_detected_total",
			Help: "Total number of quality anomalies detected",
		},
		[]string{"type", "severity"},
	)

	// Cache metrics
	CacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_report_cache_ops_total",
			Help: "Report cache operations",
		},
		[]string{"op"}, // op: hit|miss|store|error
	)

	// Classifier metrics
	ClassifierCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_classifier_calls_total",
			Help: "Total number of sentiment classifier calls",
		},
		[]string{"backend", "status"}, // status: success|error|rate_limited
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meridian_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meridian_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_kafka_messages_total",
			Help: "Total number of Kafka messages produced",
		},
		[]string{"topic", "status"}, // status: success|error
	)

	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation", "status"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	// Pipeline metrics
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(StageDuration)

	// Agent metrics
	prometheus.MustRegister(AgentRuns)
	prometheus.MustRegister(AgentDuration)
	prometheus.MustRegister(FinalConfidence)

	// Quality metrics
	prometheus.MustRegister(QualityScore)
	prometheus.MustRegister(AnomaliesDetected)

	// Cache metrics
	prometheus.MustRegister(CacheOps)

	// Classifier metrics
	prometheus.MustRegister(ClassifierCalls)

	// Worker metrics
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	// System metrics
	prometheus.MustRegister(KafkaMessages)
	prometheus.MustRegister(DBQueries)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordAgentRun records the outcome of one agent task
func RecordAgentRun(agent, state string, duration time.Duration) {
	AgentRuns.WithLabelValues(agent, state).Inc()
	AgentDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordStage records one pipeline stage duration
func RecordStage(stage string, duration time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordAssessment records a completed quality assessment
func RecordAssessment(recordType string, overallScore float64) {
	QualityScore.WithLabelValues(recordType).Observe(overallScore)
}

// RecordDBQuery records a database query
func RecordDBQuery(database, operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DBQueries.WithLabelValues(database, operation, status).Inc()
}
