package workers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"meridian/internal/domain/catalog"
	"meridian/internal/domain/quality"
	"meridian/internal/domain/review"
	"meridian/internal/metrics"
	"meridian/internal/services/assessment"
	"meridian/pkg/errors"
)

// TenantSource lists tenants with catalog data.
type TenantSource interface {
	ListTenants(ctx context.Context) ([]uuid.UUID, error)
}

// AnomalyPublisher receives anomalies found during background scans.
type AnomalyPublisher interface {
	QualityAnomalyDetected(ctx context.Context, tenantID uuid.UUID, dataset string, a quality.Anomaly) error
}

// QualityScanWorker periodically assesses every tenant's catalog and
// review data and publishes the anomalies it finds. Query-time assessment
// stays authoritative; this worker exists so severe data problems surface
// before anyone asks a question.
type QualityScanWorker struct {
	*BaseWorker
	tenants         TenantSource
	catalogRepo     catalog.Repository
	reviewRepo      review.Repository
	productAssessor *assessment.ProductAssessor
	reviewAssessor  *assessment.ReviewAssessor
	events          AnomalyPublisher
}

// NewQualityScanWorker creates a new quality scan worker
func NewQualityScanWorker(
	tenants TenantSource,
	catalogRepo catalog.Repository,
	reviewRepo review.Repository,
	productAssessor *assessment.ProductAssessor,
	reviewAssessor *assessment.ReviewAssessor,
	events AnomalyPublisher,
	interval time.Duration,
	enabled bool,
) *QualityScanWorker {
	return &QualityScanWorker{
		BaseWorker:      NewBaseWorker("quality_scan", interval, enabled),
		tenants:         tenants,
		catalogRepo:     catalogRepo,
		reviewRepo:      reviewRepo,
		productAssessor: productAssessor,
		reviewAssessor:  reviewAssessor,
		events:          events,
	}
}

// Run executes one scan over all tenants
func (w *QualityScanWorker) Run(ctx context.Context) error {
	start := time.Now()

	tenantIDs, err := w.tenants.ListTenants(ctx)
	if err != nil {
		err = errors.Wrap(err, "list tenants")
		w.RecordError(err, time.Since(start))
		return err
	}

	scanned, failed := 0, 0
	for _, tenantID := range tenantIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := w.scanTenant(ctx, tenantID); err != nil {
			w.Log().Errorw("tenant scan failed", "tenant_id", tenantID, "error", err)
			failed++
			continue
		}
		scanned++
	}

	w.Log().Infow("quality scan finished",
		"tenants", len(tenantIDs),
		"scanned", scanned,
		"failed", failed,
		"duration", time.Since(start),
	)

	if failed > 0 && scanned == 0 {
		err := errors.Wrapf(errors.ErrInternal, "all %d tenant scans failed", failed)
		w.RecordError(err, time.Since(start))
		return err
	}

	w.RecordRun(time.Since(start))
	return nil
}

func (w *QualityScanWorker) scanTenant(ctx context.Context, tenantID uuid.UUID) error {
	products, err := w.catalogRepo.GetProducts(ctx, tenantID)
	if err != nil {
		return errors.Wrap(err, "get products")
	}

	reviews, err := w.reviewRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		return errors.Wrap(err, "get reviews")
	}

	productReport := w.productAssessor.Assess(products)
	metrics.RecordAssessment("products", productReport.OverallScore)
	w.publishAnomalies(ctx, tenantID, "products", productReport.Anomalies)

	reviewReport := w.reviewAssessor.Assess(reviews)
	metrics.RecordAssessment("reviews", reviewReport.OverallScore)
	w.publishAnomalies(ctx, tenantID, "reviews", reviewReport.Anomalies)

	return nil
}

func (w *QualityScanWorker) publishAnomalies(ctx context.Context, tenantID uuid.UUID, dataset string, anomalies []quality.Anomaly) {
	if w.events == nil {
		return
	}

	for _, a := range anomalies {
		metrics.AnomaliesDetected.WithLabelValues(a.Type, string(a.Severity)).Inc()

		if err := w.events.QualityAnomalyDetected(ctx, tenantID, dataset, a); err != nil {
			w.Log().Warnw("anomaly publish failed", "tenant_id", tenantID, "type", a.Type, "error", err)
		}
	}
}
