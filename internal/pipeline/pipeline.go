package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"meridian/internal/agents"
	"meridian/internal/domain/catalog"
	"meridian/internal/domain/insight"
	"meridian/internal/domain/job"
	"meridian/internal/domain/quality"
	"meridian/internal/domain/review"
	"meridian/internal/domain/sales"
	"meridian/internal/metrics"
	"meridian/internal/services/assessment"
	"meridian/pkg/errors"
	"meridian/pkg/logger"
)

// priceHistoryLimit bounds how many history points feed the pricing agent.
const priceHistoryLimit = 90

// ReportCache is the external key-value collaborator for synthesized
// reports. Both methods are best-effort; implementations swallow backend
// failures.
type ReportCache interface {
	Get(ctx context.Context, key string) (*insight.StructuredReport, error)
	Set(ctx context.Context, key string, report *insight.StructuredReport, deep bool) error
}

// EventPublisher emits pipeline lifecycle events.
type EventPublisher interface {
	ReportCompleted(ctx context.Context, report *insight.StructuredReport) error
}

// Service drives one query through the full pipeline: route, reason, load,
// assess, execute, synthesize. Every invocation is self-contained; nothing
// is shared between queries except the read-only collaborators.
type Service struct {
	router      *Router
	engine      *Engine
	executor    *Executor
	synthesizer *Synthesizer

	products catalog.Repository
	reviews  review.Repository
	sales    sales.Repository

	productAssessor *assessment.ProductAssessor
	reviewAssessor  *assessment.ReviewAssessor

	cache  ReportCache
	jobs   job.Store
	events EventPublisher

	salesWindow time.Duration

	log *logger.Logger
}

// Options carries the optional collaborators.
type Options struct {
	Cache  ReportCache
	Jobs   job.Store
	Events EventPublisher

	// SalesWindow bounds how far back sales history is loaded. Defaults to
	// 90 days.
	SalesWindow time.Duration
}

// NewService wires a pipeline service.
func NewService(
	router *Router,
	engine *Engine,
	executor *Executor,
	synthesizer *Synthesizer,
	products catalog.Repository,
	reviews review.Repository,
	salesRepo sales.Repository,
	productAssessor *assessment.ProductAssessor,
	reviewAssessor *assessment.ReviewAssessor,
	opts Options,
) *Service {
	if opts.SalesWindow <= 0 {
		opts.SalesWindow = 90 * 24 * time.Hour
	}
	return &Service{
		router:          router,
		engine:          engine,
		executor:        executor,
		synthesizer:     synthesizer,
		products:        products,
		reviews:         reviews,
		sales:           salesRepo,
		productAssessor: productAssessor,
		reviewAssessor:  reviewAssessor,
		cache:           opts.Cache,
		jobs:            opts.Jobs,
		events:          opts.Events,
		salesWindow:     opts.SalesWindow,
		log:             logger.Get().With("component", "pipeline"),
	}
}

// Query is one analysis request
type Query struct {
	TenantID uuid.UUID

	// ProductID narrows the analysis to a single product when set.
	ProductID *uuid.UUID

	Text string
}

// Analyze runs the pipeline for one query and returns the synthesized
// report. The returned error is non-nil only for malformed input, a data
// loading failure, or total plan failure; partial agent failure yields a
// report with warnings.
func (s *Service) Analyze(ctx context.Context, q Query) (*insight.StructuredReport, error) {
	if q.TenantID == uuid.Nil || q.Text == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "tenant id and query text are required")
	}

	queryID := uuid.New()
	start := time.Now()
	log := s.log.With("query_id", queryID, "tenant_id", q.TenantID)

	route := s.router.Route(q.TenantID, q.Text)

	// Cache lookup: one attempt, a miss or failure degrades to execution.
	if route.UseCache && s.cache != nil {
		if cached, _ := s.cache.Get(ctx, route.CacheKey); cached != nil {
			log.Infof("Serving cached report %s (mode=%s)", cached.QueryID, route.Mode)
			return cached, nil
		}
	}

	intent, params := s.engine.Understand(q.Text)
	plan, err := s.engine.Plan(queryID, q.Text, intent, params, route.Mode, route.RequiredAgents)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues(string(route.Mode), string(intent), "failed").Inc()
		return nil, err
	}

	input, qc, err := s.loadAndAssess(ctx, q, plan, params)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues(string(route.Mode), string(intent), "failed").Inc()
		return nil, err
	}

	execStart := time.Now()
	results, execErr := s.executor.Execute(ctx, plan, input, qc)
	metrics.RecordStage("execute", time.Since(execStart))
	for _, r := range results {
		metrics.RecordAgentRun(string(r.Agent), string(r.State), r.Duration)
		if conf, ok := r.Payload.FinalConfidence(); ok && r.Success {
			metrics.FinalConfidence.WithLabelValues(string(r.Agent)).Observe(conf)
		}
	}
	if execErr != nil {
		// Every task failed: no fabricated report.
		metrics.QueriesTotal.WithLabelValues(string(route.Mode), string(intent), "failed").Inc()
		return nil, execErr
	}

	synthStart := time.Now()
	report := s.synthesizer.Synthesize(queryID, q.TenantID, q.Text, intent, results, qc)
	metrics.RecordStage("synthesize", time.Since(synthStart))

	if route.UseCache && s.cache != nil {
		_ = s.cache.Set(ctx, route.CacheKey, report, route.Mode == ModeDeep)
	}

	if s.events != nil {
		if err := s.events.ReportCompleted(ctx, report); err != nil {
			log.Warnf("Failed to publish report event: %v", err)
		}
	}

	status := "success"
	for _, r := range results {
		if !r.Success {
			status = "partial"
			break
		}
	}
	metrics.QueriesTotal.WithLabelValues(string(route.Mode), string(intent), status).Inc()
	metrics.QueryDuration.WithLabelValues(string(route.Mode)).Observe(time.Since(start).Seconds())

	log.Infof("Query complete: intent=%s mode=%s confidence=%.3f duration=%v",
		intent, route.Mode, report.OverallConfidence, time.Since(start))

	return report, nil
}

// AnalyzeJob runs Analyze while tracking status in the job store. The job id
// doubles as the caller's handle for polling.
func (s *Service) AnalyzeJob(ctx context.Context, jobID uuid.UUID, q Query) (*insight.StructuredReport, error) {
	if s.jobs != nil {
		j := &job.AnalysisJob{
			ID:        jobID,
			TenantID:  q.TenantID,
			QueryText: q.Text,
			Status:    job.StatusRunning,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := s.jobs.Save(ctx, j); err != nil {
			s.log.Warnf("Failed to save job %s: %v", jobID, err)
		}
	}

	report, err := s.Analyze(ctx, q)

	if s.jobs != nil {
		if err != nil {
			if serr := s.jobs.SetStatus(ctx, jobID, job.StatusFailed, err.Error()); serr != nil {
				s.log.Warnf("Failed to update job %s: %v", jobID, serr)
			}
		} else if serr := s.jobs.SetStatus(ctx, jobID, job.StatusCompleted, ""); serr != nil {
			s.log.Warnf("Failed to update job %s: %v", jobID, serr)
		}
	}

	return report, err
}

// loadAndAssess pulls tenant-scoped records for the plan's agents and runs
// the quality assessments the agents will judge their confidence against.
func (s *Service) loadAndAssess(ctx context.Context, q Query, plan *ExecutionPlan, params Parameters) (*agents.Input, *QualityContext, error) {
	needs := make(map[insight.AgentType]bool, len(plan.Tasks))
	for _, t := range plan.Tasks {
		needs[t.Agent] = true
	}

	loadStart := time.Now()
	input := &agents.Input{
		TenantID:    q.TenantID,
		ProductID:   q.ProductID,
		HorizonDays: params.HorizonDays,
	}

	if needs[insight.AgentPricing] || needs[insight.AgentForecast] {
		products, err := s.products.GetProducts(ctx, q.TenantID)
		if err != nil {
			return nil, nil, errors.Wrap(err, "load products")
		}
		input.Products = products
	}

	if needs[insight.AgentPricing] {
		competitors, err := s.products.GetCompetitorProducts(ctx, q.TenantID, "")
		if err != nil {
			return nil, nil, errors.Wrap(err, "load competitor products")
		}
		input.Competitors = competitors

		input.PriceHistory = make(map[uuid.UUID][]*catalog.PricePoint, len(input.Products))
		for _, p := range input.Products {
			history, err := s.products.GetPriceHistory(ctx, q.TenantID, p.ID, priceHistoryLimit)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "load price history for %s", p.ID)
			}
			input.PriceHistory[p.ID] = history
		}
	}

	if needs[insight.AgentSentiment] {
		var (
			reviews []*review.Review
			err     error
		)
		if q.ProductID != nil {
			reviews, err = s.reviews.GetByProduct(ctx, q.TenantID, *q.ProductID)
		} else {
			reviews, err = s.reviews.GetByTenant(ctx, q.TenantID)
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "load reviews")
		}
		input.Reviews = reviews
	}

	if needs[insight.AgentForecast] {
		since := time.Now().Add(-s.salesWindow)
		var (
			history []*sales.DailySales
			err     error
		)
		if q.ProductID != nil {
			history, err = s.sales.GetHistory(ctx, q.TenantID, *q.ProductID, since)
		} else {
			history, err = s.sales.GetTenantHistory(ctx, q.TenantID, since)
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "load sales history")
		}
		input.SalesHistory = history

		if q.ProductID != nil {
			if p, err := s.products.GetProduct(ctx, q.TenantID, *q.ProductID); err == nil && p != nil {
				input.CurrentInventory = p.Inventory
			}
		}
	}
	metrics.RecordStage("load", time.Since(loadStart))

	assessStart := time.Now()
	qc := &QualityContext{}
	if input.Products != nil {
		qc.Products = s.productAssessor.Assess(input.Products)
		metrics.RecordAssessment("product", qc.Products.OverallScore)
		recordAnomalies(qc.Products)
	}
	if input.Reviews != nil {
		qc.Reviews = s.reviewAssessor.Assess(input.Reviews)
		metrics.RecordAssessment("review", qc.Reviews.OverallScore)
		recordAnomalies(qc.Reviews)
	}
	metrics.RecordStage("assess", time.Since(assessStart))

	return input, qc, nil
}

func recordAnomalies(r *quality.Report) {
	for i := range r.Anomalies {
		metrics.AnomaliesDetected.WithLabelValues(r.Anomalies[i].Type, string(r.Anomalies[i].Severity)).Inc()
	}
}
