package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"meridian/internal/adapters/kafka"
	"meridian/internal/domain/insight"
	"meridian/internal/domain/job"
	"meridian/internal/domain/quality"
	"meridian/internal/metrics"
	"meridian/internal/pipeline"
	"meridian/pkg/errors"
	"meridian/pkg/logger"
)

// Compile-time check
var _ pipeline.EventPublisher = (*Publisher)(nil)

// Publisher publishes pipeline lifecycle events to Kafka as JSON.
// Messages are keyed by tenant id so per-tenant ordering is preserved.
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		log:      logger.Get().With("component", "event_publisher"),
	}
}

// ReportCompletedEvent is emitted when a query finishes synthesis.
// The full report is not embedded; consumers fetch it from the cache or
// re-run the query.
type ReportCompletedEvent struct {
	QueryID           uuid.UUID `json:"query_id"`
	TenantID          uuid.UUID `json:"tenant_id"`
	Intent            string    `json:"intent"`
	OverallConfidence float64   `json:"overall_confidence"`
	ActionItems       int       `json:"action_items"`
	Warnings          int       `json:"warnings"`
	CreatedAt         time.Time `json:"created_at"`
}

// QualityAnomalyEvent is emitted by the quality scan worker per anomaly.
type QualityAnomalyEvent struct {
	TenantID         uuid.UUID        `json:"tenant_id"`
	Dataset          string           `json:"dataset"` // "products" or "reviews"
	Type             string           `json:"type"`
	Severity         quality.Severity `json:"severity"`
	Description      string           `json:"description"`
	AffectedEntities []uuid.UUID      `json:"affected_entities"`
	DetectedAt       time.Time        `json:"detected_at"`
}

// JobStatusEvent mirrors job transitions for downstream consumers.
type JobStatusEvent struct {
	JobID     uuid.UUID  `json:"job_id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	Status    job.Status `json:"status"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ReportCompleted implements pipeline.EventPublisher
func (p *Publisher) ReportCompleted(ctx context.Context, report *insight.StructuredReport) error {
	event := ReportCompletedEvent{
		QueryID:           report.QueryID,
		TenantID:          report.TenantID,
		Intent:            report.Intent,
		OverallConfidence: report.OverallConfidence,
		ActionItems:       len(report.ActionItems),
		Warnings:          len(report.DataQualityWarnings),
		CreatedAt:         report.CreatedAt,
	}

	return p.publish(ctx, kafka.TopicReportCompleted, report.TenantID.String(), event)
}

// QualityAnomalyDetected publishes one anomaly from a background scan
func (p *Publisher) QualityAnomalyDetected(ctx context.Context, tenantID uuid.UUID, dataset string, a quality.Anomaly) error {
	event := QualityAnomalyEvent{
		TenantID:         tenantID,
		Dataset:          dataset,
		Type:             a.Type,
		Severity:         a.Severity,
		Description:      a.Description,
		AffectedEntities: a.AffectedEntities,
		DetectedAt:       time.Now().UTC(),
	}

	return p.publish(ctx, kafka.TopicQualityAnomaly, tenantID.String(), event)
}

// JobStatusChanged publishes a job transition
func (p *Publisher) JobStatusChanged(ctx context.Context, j *job.AnalysisJob) error {
	event := JobStatusEvent{
		JobID:     j.ID,
		TenantID:  j.TenantID,
		Status:    j.Status,
		Error:     j.Error,
		UpdatedAt: j.UpdatedAt,
	}

	return p.publish(ctx, kafka.TopicJobStatus, j.TenantID.String(), event)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, event interface{}) error {
	if err := p.producer.Publish(ctx, topic, key, event); err != nil {
		metrics.KafkaMessages.WithLabelValues(topic, "error").Inc()
		return errors.Wrapf(err, "failed to publish event: topic=%s", topic)
	}

	metrics.KafkaMessages.WithLabelValues(topic, "success").Inc()
	p.log.Debugw("event published", "topic", topic, "key", key)
	return nil
}
