package kafka

// Topic definitions for Kafka event streaming
const (
	// Pipeline events
	TopicReportCompleted = "reports.completed"
	TopicJobStatus       = "jobs.status"

	// Quality events
	TopicQualityAnomaly = "quality.anomalies"
)
