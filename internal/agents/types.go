package agents

import (
	"context"

	"github.com/google/uuid"

	"meridian/internal/domain/catalog"
	"meridian/internal/domain/insight"
	"meridian/internal/domain/quality"
	"meridian/internal/domain/review"
	"meridian/internal/domain/sales"
)

// Agent is the common contract for domain analysis agents.
// Agents are stateless across invocations: every call receives its own
// input batch and quality report, and nothing is retained between queries
// or tenants.
type Agent interface {
	Type() insight.AgentType

	// Analyze produces the agent's domain result. Missing input yields a
	// zero-confidence result, not an error; errors are reserved for
	// genuine failures (a collaborator going down mid-call).
	Analyze(ctx context.Context, input *Input, report *quality.Report) (*insight.DomainResult, error)
}

// Input is the per-query data bundle handed to agents. The record source
// has already scoped everything to one tenant.
type Input struct {
	TenantID uuid.UUID

	// ProductID restricts the analysis to one product when set; anomaly
	// penalties are then matched against this entity.
	ProductID *uuid.UUID

	Products []*catalog.Product

	// PriceHistory holds recent observations per product in no guaranteed
	// order; consumers sort by RecordedAt as needed.
	PriceHistory map[uuid.UUID][]*catalog.PricePoint

	Competitors  []*catalog.CompetitorProduct
	Reviews      []*review.Review
	SalesHistory []*sales.DailySales

	HorizonDays      int
	CurrentInventory int
}

// composeFor applies the multiplicative confidence law for this input's
// entity scope. A nil report contributes zero quality score so confidence
// can only be claimed against an actual assessment.
func composeFor(base float64, report *quality.Report, input *Input) insight.ConfidenceComposition {
	if report == nil {
		return insight.ComposeConfidence(base, 0, 1)
	}
	return insight.ComposeConfidence(base, report.OverallScore, report.AnomalyPenalty(input.ProductID))
}
