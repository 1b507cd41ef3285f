package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"meridian/internal/domain/insight"
	"meridian/pkg/logger"
)

// neutralConfidence is the defined default when no agent produced a result.
const neutralConfidence = 0.5

// Synthesizer merges agent results into one structured report. Summaries are
// templated from the already-computed numbers, never generated, so the same
// results always produce the same report text.
type Synthesizer struct {
	log *logger.Logger
}

// NewSynthesizer creates a result synthesizer.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{log: logger.Get().With("component", "synthesizer")}
}

// Synthesize builds the terminal report for one query. Results are keyed by
// agent identity, never by position. Failed agents contribute a data-quality
// warning instead of a confidence value.
func (s *Synthesizer) Synthesize(queryID, tenantID uuid.UUID, queryText string, intent Intent, results []insight.AgentResult, qc *QualityContext) *insight.StructuredReport {
	report := &insight.StructuredReport{
		QueryID:    queryID,
		TenantID:   tenantID,
		QueryText:  queryText,
		Intent:     string(intent),
		KeyMetrics: make(map[string]interface{}),
		CreatedAt:  time.Now().UTC(),
	}

	byAgent := make(map[insight.AgentType]insight.AgentResult, len(results))
	for _, r := range results {
		byAgent[r.Agent] = r
	}

	var fragments []string
	var confidences []float64

	if r, ok := byAgent[insight.AgentPricing]; ok {
		if r.Success && r.Payload != nil && r.Payload.Pricing != nil {
			p := r.Payload.Pricing
			report.Pricing = p
			fragments = append(fragments, s.pricingFragment(p))
			s.pricingMetrics(report, p)
			report.ActionItems = append(report.ActionItems, pricingActions(p)...)
			confidences = append(confidences, p.Confidence.Final)
		} else {
			report.DataQualityWarnings = append(report.DataQualityWarnings,
				fmt.Sprintf("pricing analysis unavailable (%s): %s", r.State, r.Error))
		}
	}

	if r, ok := byAgent[insight.AgentSentiment]; ok {
		if r.Success && r.Payload != nil && r.Payload.Sentiment != nil {
			se := r.Payload.Sentiment
			report.Sentiment = se
			fragments = append(fragments, s.sentimentFragment(se))
			s.sentimentMetrics(report, se)
			report.ActionItems = append(report.ActionItems, sentimentActions(se)...)
			confidences = append(confidences, se.Confidence.Final)
		} else {
			report.DataQualityWarnings = append(report.DataQualityWarnings,
				fmt.Sprintf("sentiment analysis unavailable (%s): %s", r.State, r.Error))
		}
	}

	if r, ok := byAgent[insight.AgentForecast]; ok {
		if r.Success && r.Payload != nil && r.Payload.Forecast != nil {
			f := r.Payload.Forecast
			report.Forecast = f
			fragments = append(fragments, s.forecastFragment(f))
			s.forecastMetrics(report, f)
			report.ActionItems = append(report.ActionItems, forecastActions(f)...)
			confidences = append(confidences, f.Confidence.Final)
		} else {
			report.DataQualityWarnings = append(report.DataQualityWarnings,
				fmt.Sprintf("demand forecast unavailable (%s): %s", r.State, r.Error))
		}
	}

	if qc != nil && qc.Products != nil {
		report.QualityReport = qc.Products
		for i := range qc.Products.Anomalies {
			a := &qc.Products.Anomalies[i]
			report.DataQualityWarnings = append(report.DataQualityWarnings,
				fmt.Sprintf("%s anomaly (%s severity): %s", a.Type, a.Severity, a.Description))
		}
	}

	if len(confidences) == 0 {
		report.ExecutiveSummary = "No analysis could be completed for this query; the underlying data or agents were unavailable."
		report.OverallConfidence = neutralConfidence
	} else {
		report.ExecutiveSummary = strings.Join(fragments, " ")
		report.OverallConfidence = insight.Round3(meanFloat(confidences))
	}

	sort.Strings(report.DataQualityWarnings)

	s.log.Debugf("Synthesized report %s: %d/%d agents contributed, overall confidence %.3f",
		queryID, len(confidences), len(results), report.OverallConfidence)

	return report
}

func (s *Synthesizer) pricingFragment(p *insight.PricingResult) string {
	return fmt.Sprintf("Pricing: mapped %s against competitors, found %s and %s; %s running.",
		plural(len(p.Mappings), "listing"),
		plural(len(p.Gaps), "price gap"),
		plural(len(p.Alerts), "recent price alert"),
		plural(len(p.Promotions), "promotion"))
}

func (s *Synthesizer) sentimentFragment(se *insight.SentimentResult) string {
	return fmt.Sprintf("Sentiment: %s overall across %s (%d positive, %d negative); %s and %s surfaced.",
		se.AggregateLabel,
		plural(len(se.Reviews), "review"),
		se.PositiveCount, se.NegativeCount,
		plural(len(se.FeatureRequests), "feature request"),
		plural(len(se.Complaints), "complaint pattern"))
}

func (s *Synthesizer) forecastFragment(f *insight.ForecastResult) string {
	seasonNote := "no weekly pattern"
	if f.Seasonal {
		seasonNote = "a weekly pattern"
	}
	return fmt.Sprintf("Forecast: projected demand for the next %s with %s; %s raised.",
		plural(len(f.Points), "day"),
		seasonNote,
		plural(len(f.Alerts), "inventory alert"))
}

func (s *Synthesizer) pricingMetrics(report *insight.StructuredReport, p *insight.PricingResult) {
	report.KeyMetrics["competitor_mappings"] = len(p.Mappings)
	report.KeyMetrics["price_gaps"] = len(p.Gaps)
	report.KeyMetrics["price_alerts"] = len(p.Alerts)
	report.KeyMetrics["active_promotions"] = len(p.Promotions)
	if len(p.Gaps) > 0 {
		var sum float64
		for _, g := range p.Gaps {
			sum += g.GapPct
		}
		report.KeyMetrics["avg_price_gap_pct"] = insight.Round3(sum / float64(len(p.Gaps)))
	}
}

func (s *Synthesizer) sentimentMetrics(report *insight.StructuredReport, se *insight.SentimentResult) {
	report.KeyMetrics["reviews_analyzed"] = len(se.Reviews)
	report.KeyMetrics["aggregate_sentiment"] = insight.Round3(se.Aggregate)
	report.KeyMetrics["sentiment_label"] = string(se.AggregateLabel)
	report.KeyMetrics["topic_clusters"] = len(se.Topics)
}

func (s *Synthesizer) forecastMetrics(report *insight.StructuredReport, f *insight.ForecastResult) {
	report.KeyMetrics["forecast_days"] = len(f.Points)
	report.KeyMetrics["seasonal"] = f.Seasonal
	if len(f.Points) > 0 {
		var total float64
		for _, pt := range f.Points {
			total += pt.PredictedUnits
		}
		report.KeyMetrics["predicted_units_total"] = insight.Round3(total)
	}
}

func pricingActions(p *insight.PricingResult) []string {
	var items []string
	for _, sg := range p.Suggestions {
		items = append(items, fmt.Sprintf("Reprice %s from %s to %s (%s)",
			sg.ProductName,
			humanize.CommafWithDigits(sg.CurrentPrice, 2),
			humanize.CommafWithDigits(sg.SuggestedPrice, 2),
			sg.Rationale))
	}
	for _, a := range p.Alerts {
		items = append(items, fmt.Sprintf("Review the %.1f%% price move on %s (%s)",
			a.ChangePct, a.ProductName, humanize.Time(a.ObservedAt)))
	}
	return items
}

func sentimentActions(se *insight.SentimentResult) []string {
	var items []string
	if se.AggregateLabel == insight.SentimentNegative {
		items = append(items, fmt.Sprintf("Investigate negative sentiment: %d of %d reviews are negative",
			se.NegativeCount, len(se.Reviews)))
	}
	if len(se.Complaints) > 0 {
		items = append(items, fmt.Sprintf("Address %s found in reviews", plural(len(se.Complaints), "recurring complaint")))
	}
	if len(se.FeatureRequests) > 0 {
		items = append(items, fmt.Sprintf("Evaluate %s from customers", plural(len(se.FeatureRequests), "feature request")))
	}
	return items
}

func forecastActions(f *insight.ForecastResult) []string {
	var items []string
	for _, a := range f.Alerts {
		items = append(items, a.Message)
	}
	return items
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), noun)
}

func meanFloat(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
