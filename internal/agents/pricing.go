package agents

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"meridian/internal/domain/catalog"
	"meridian/internal/domain/insight"
	"meridian/internal/domain/quality"
	"meridian/pkg/logger"
)

// PricingConfig tunes the pricing agent's thresholds
type PricingConfig struct {
	// PriceChangeAlertPct is the minimum percent move between consecutive
	// history points that raises an alert.
	PriceChangeAlertPct float64

	// MaxDiscountPct caps how far below the current price a dynamic-pricing
	// suggestion may go (the margin constraint).
	MaxDiscountPct float64

	// MinMappingConfidence is the floor for keeping a competitor mapping.
	MinMappingConfidence float64
}

// DefaultPricingConfig returns the standard pricing thresholds.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		PriceChangeAlertPct:  5,
		MaxDiscountPct:       20,
		MinMappingConfidence: 0.80,
	}
}

// PricingAgent analyzes competitive positioning: competitor mapping, price
// gaps, price-change alerts, promotions, and dynamic-pricing suggestions.
type PricingAgent struct {
	cfg PricingConfig
	log *logger.Logger
}

// NewPricingAgent creates a pricing agent.
func NewPricingAgent(cfg PricingConfig) *PricingAgent {
	if cfg.PriceChangeAlertPct <= 0 {
		cfg.PriceChangeAlertPct = 5
	}
	if cfg.MaxDiscountPct <= 0 {
		cfg.MaxDiscountPct = 20
	}
	if cfg.MinMappingConfidence <= 0 {
		cfg.MinMappingConfidence = 0.80
	}
	return &PricingAgent{
		cfg: cfg,
		log: logger.Get().With("component", "pricing_agent"),
	}
}

// Type implements Agent.
func (a *PricingAgent) Type() insight.AgentType { return insight.AgentPricing }

// Analyze implements Agent.
func (a *PricingAgent) Analyze(ctx context.Context, input *Input, report *quality.Report) (*insight.DomainResult, error) {
	if len(input.Products) == 0 {
		return &insight.DomainResult{Pricing: &insight.PricingResult{
			Confidence: composeFor(0, report, input),
			Reasoning:  "insufficient data: no products to analyze",
		}}, nil
	}

	mappings := a.mapCompetitors(input.Products, input.Competitors)
	gaps := a.priceGaps(input.Products, input.Competitors, mappings)
	alerts := a.priceAlerts(input)
	promos := a.promotions(input.Products)
	suggestions := a.suggestions(input.Products, input.Competitors, mappings)

	base := a.baseConfidence(input.Competitors, mappings)
	conf := composeFor(base, report, input)

	result := &insight.PricingResult{
		Mappings:    mappings,
		Gaps:        gaps,
		Alerts:      alerts,
		Promotions:  promos,
		Suggestions: suggestions,
		Confidence:  conf,
		Reasoning: fmt.Sprintf(
			"mapped %d of %d products to competitors (%d listings); base confidence %.2f from competitor coverage and price spread",
			mappedProductCount(mappings), len(input.Products), len(input.Competitors), base),
	}

	a.log.Debugf("Pricing analysis: %d mappings, %d gaps, %d alerts, final confidence %.3f",
		len(mappings), len(gaps), len(alerts), conf.Final)

	return &insight.DomainResult{Pricing: result}, nil
}

// baseConfidence derives the agent's self-assessed certainty from competitor
// coverage and the spread of competitor prices: five or more mapped listings
// give full coverage credit, and a tight price range is trusted more than a
// wide one.
func (a *PricingAgent) baseConfidence(competitors []*catalog.CompetitorProduct, mappings []insight.CompetitorMapping) float64 {
	if len(mappings) == 0 {
		return 0
	}

	coverage := math.Min(1, float64(len(mappings))/5)

	prices := make([]float64, 0, len(competitors))
	for _, c := range competitors {
		p, _ := c.Price.Float64()
		if p > 0 {
			prices = append(prices, p)
		}
	}
	spread := 1.0
	if len(prices) >= 2 {
		m := meanOf(prices)
		if m > 0 {
			spread = 1 / (1 + stddevOf(prices)/m)
		}
	}

	return 0.5*coverage + 0.5*spread
}

// mapCompetitors links our products to competitor listings: exact normalized
// SKU matches at confidence 1.0, otherwise name similarity scaled into
// [0.5, 0.9]. Only mappings at or above the configured floor are retained.
func (a *PricingAgent) mapCompetitors(products []*catalog.Product, competitors []*catalog.CompetitorProduct) []insight.CompetitorMapping {
	bySKU := make(map[string][]*catalog.CompetitorProduct)
	for _, c := range competitors {
		if c.SKU != "" {
			key := normalizeSKU(c.SKU)
			bySKU[key] = append(bySKU[key], c)
		}
	}

	var mappings []insight.CompetitorMapping
	for _, p := range products {
		matched := false
		if p.SKU != "" {
			for _, c := range bySKU[normalizeSKU(p.SKU)] {
				mappings = append(mappings, insight.CompetitorMapping{
					ProductID:      p.ID,
					CompetitorID:   c.ID,
					CompetitorName: c.Name,
					Source:         c.Source,
					MatchMethod:    "sku_exact",
					Confidence:     1.0,
				})
				matched = true
			}
		}
		if matched {
			continue
		}

		for _, c := range competitors {
			conf := similarityConfidence(nameSimilarity(p.Name, c.Name))
			if conf >= a.cfg.MinMappingConfidence {
				mappings = append(mappings, insight.CompetitorMapping{
					ProductID:      p.ID,
					CompetitorID:   c.ID,
					CompetitorName: c.Name,
					Source:         c.Source,
					MatchMethod:    "name_similarity",
					Confidence:     conf,
				})
			}
		}
	}
	return mappings
}

// priceGaps computes competitor − ours for every retained mapping.
func (a *PricingAgent) priceGaps(products []*catalog.Product, competitors []*catalog.CompetitorProduct, mappings []insight.CompetitorMapping) []insight.PriceGap {
	productByID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}
	competitorByID := make(map[uuid.UUID]*catalog.CompetitorProduct, len(competitors))
	for _, c := range competitors {
		competitorByID[c.ID] = c
	}

	var gaps []insight.PriceGap
	for _, m := range mappings {
		p := productByID[m.ProductID]
		c := competitorByID[m.CompetitorID]
		if p == nil || c == nil || !p.Price.IsPositive() || !c.Price.IsPositive() {
			continue
		}

		gap := c.Price.Sub(p.Price)
		gapPct := gap.Div(p.Price).Mul(decimal.NewFromInt(100))

		ourPrice, _ := p.Price.Float64()
		theirPrice, _ := c.Price.Float64()
		gapF, _ := gap.Float64()
		gapPctF, _ := gapPct.Float64()

		gaps = append(gaps, insight.PriceGap{
			ProductID:       p.ID,
			ProductName:     p.Name,
			CompetitorID:    c.ID,
			OurPrice:        ourPrice,
			CompetitorPrice: theirPrice,
			Gap:             gapF,
			GapPct:          gapPctF,
		})
	}
	return gaps
}

// priceAlerts fires when consecutive history points for a product move more
// than the configured percent.
func (a *PricingAgent) priceAlerts(input *Input) []insight.PriceAlert {
	nameByID := make(map[uuid.UUID]string, len(input.Products))
	var order []uuid.UUID
	for _, p := range input.Products {
		nameByID[p.ID] = p.Name
		order = append(order, p.ID)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].String() < order[j].String() })

	threshold := decimal.NewFromFloat(a.cfg.PriceChangeAlertPct)

	var alerts []insight.PriceAlert
	for _, pid := range order {
		// The repository serves history newest first; alerts compare
		// consecutive points oldest to newest.
		history := make([]*catalog.PricePoint, len(input.PriceHistory[pid]))
		copy(history, input.PriceHistory[pid])
		sort.Slice(history, func(i, j int) bool {
			return history[i].RecordedAt.Before(history[j].RecordedAt)
		})
		for i := 1; i < len(history); i++ {
			prev, cur := history[i-1], history[i]
			if !prev.Price.IsPositive() {
				continue
			}

			changePct := cur.Price.Sub(prev.Price).Div(prev.Price).Mul(decimal.NewFromInt(100))
			if changePct.Abs().LessThan(threshold) {
				continue
			}

			oldP, _ := prev.Price.Float64()
			newP, _ := cur.Price.Float64()
			pct, _ := changePct.Float64()
			alerts = append(alerts, insight.PriceAlert{
				ProductID:   pid,
				ProductName: nameByID[pid],
				OldPrice:    oldP,
				NewPrice:    newP,
				ChangePct:   pct,
				ObservedAt:  cur.RecordedAt,
			})
		}
	}
	return alerts
}

// promotions lists products currently priced below their original price.
func (a *PricingAgent) promotions(products []*catalog.Product) []insight.Promotion {
	var promos []insight.Promotion
	for _, p := range products {
		if !p.OnPromotion() {
			continue
		}
		orig, _ := p.OriginalPrice.Float64()
		cur, _ := p.Price.Float64()
		promos = append(promos, insight.Promotion{
			ProductID:     p.ID,
			ProductName:   p.Name,
			OriginalPrice: orig,
			CurrentPrice:  cur,
			DiscountPct:   p.DiscountPercent(),
		})
	}
	return promos
}

// suggestions produces dynamic-pricing recommendations: above-market products
// move halfway toward the market average, below-market products are nudged to
// avg*1.05, and any suggested discount is clamped by the margin constraint.
func (a *PricingAgent) suggestions(products []*catalog.Product, competitors []*catalog.CompetitorProduct, mappings []insight.CompetitorMapping) []insight.PriceSuggestion {
	competitorByID := make(map[uuid.UUID]*catalog.CompetitorProduct, len(competitors))
	for _, c := range competitors {
		competitorByID[c.ID] = c
	}
	mappedPrices := make(map[uuid.UUID][]decimal.Decimal)
	for _, m := range mappings {
		if c := competitorByID[m.CompetitorID]; c != nil && c.Price.IsPositive() {
			mappedPrices[m.ProductID] = append(mappedPrices[m.ProductID], c.Price)
		}
	}

	two := decimal.NewFromInt(2)
	uplift := decimal.NewFromFloat(1.05)
	minFactor := decimal.NewFromFloat(1 - a.cfg.MaxDiscountPct/100)

	var suggestions []insight.PriceSuggestion
	for _, p := range products {
		prices := mappedPrices[p.ID]
		if len(prices) == 0 || !p.Price.IsPositive() {
			continue
		}

		sum := decimal.Zero
		for _, pr := range prices {
			sum = sum.Add(pr)
		}
		avg := sum.Div(decimal.NewFromInt(int64(len(prices))))

		var suggested decimal.Decimal
		var rationale string
		if p.Price.GreaterThan(avg) {
			suggested = p.Price.Sub(p.Price.Sub(avg).Div(two))
			rationale = "price above market average; move halfway toward it"
		} else {
			suggested = avg.Mul(uplift)
			rationale = "price below market average; room to capture margin"
		}

		// Margin constraint: never discount past the configured maximum.
		floor := p.Price.Mul(minFactor)
		if suggested.LessThan(floor) {
			suggested = floor
			rationale += " (clamped by margin constraint)"
		}

		curF, _ := p.Price.Float64()
		sugF, _ := suggested.Round(2).Float64()
		avgF, _ := avg.Round(2).Float64()
		suggestions = append(suggestions, insight.PriceSuggestion{
			ProductID:      p.ID,
			ProductName:    p.Name,
			CurrentPrice:   curF,
			SuggestedPrice: sugF,
			MarketAverage:  avgF,
			Rationale:      rationale,
		})
	}
	return suggestions
}

func mappedProductCount(mappings []insight.CompetitorMapping) int {
	seen := make(map[uuid.UUID]bool)
	for _, m := range mappings {
		seen[m.ProductID] = true
	}
	return len(seen)
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddevOf(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := meanOf(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}
