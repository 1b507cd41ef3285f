package insight

import (
	"math"
	"time"

	"github.com/google/uuid"

	"meridian/internal/domain/quality"
)

// AgentType enumerates the closed set of domain analysis agents
type AgentType string

const (
	AgentPricing   AgentType = "pricing"
	AgentSentiment AgentType = "sentiment"
	AgentForecast  AgentType = "forecast"
)

// Valid reports whether the agent type is known.
func (t AgentType) Valid() bool {
	switch t {
	case AgentPricing, AgentSentiment, AgentForecast:
		return true
	}
	return false
}

// AllAgentTypes returns every known agent type.
func AllAgentTypes() []AgentType {
	return []AgentType{AgentPricing, AgentSentiment, AgentForecast}
}

// ConfidenceComposition explains how a final confidence value was derived.
// Ephemeral: attached to results as metadata, never persisted on its own.
type ConfidenceComposition struct {
	Base           float64 `json:"base"`
	QualityScore   float64 `json:"quality_score"`
	AnomalyPenalty float64 `json:"anomaly_penalty"`
	Final          float64 `json:"final"`
}

// Round3 rounds to three decimal places.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Clamp01 clamps to the unit interval.
func Clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// ComposeConfidence applies the multiplicative confidence law:
// final = clamp(base * qualityScore * anomalyPenalty, 0, 1), rounded to 3 decimals.
func ComposeConfidence(base, qualityScore, anomalyPenalty float64) ConfidenceComposition {
	final := Round3(Clamp01(base * qualityScore * anomalyPenalty))
	return ConfidenceComposition{
		Base:           base,
		QualityScore:   qualityScore,
		AnomalyPenalty: anomalyPenalty,
		Final:          final,
	}
}

// CompetitorMapping links one of our products to a competitor listing
type CompetitorMapping struct {
	ProductID      uuid.UUID `json:"product_id"`
	CompetitorID   uuid.UUID `json:"competitor_id"`
	CompetitorName string    `json:"competitor_name"`
	Source         string    `json:"source"`
	MatchMethod    string    `json:"match_method"` // sku_exact or name_similarity
	Confidence     float64   `json:"confidence"`
}

// PriceGap compares our price against one mapped competitor listing
type PriceGap struct {
	ProductID       uuid.UUID `json:"product_id"`
	ProductName     string    `json:"product_name"`
	CompetitorID    uuid.UUID `json:"competitor_id"`
	OurPrice        float64   `json:"our_price"`
	CompetitorPrice float64   `json:"competitor_price"`
	Gap             float64   `json:"gap"`     // competitor - ours
	GapPct          float64   `json:"gap_pct"` // relative to our price
}

// PriceAlert fires when consecutive history points differ beyond a threshold
type PriceAlert struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	OldPrice    float64   `json:"old_price"`
	NewPrice    float64   `json:"new_price"`
	ChangePct   float64   `json:"change_pct"`
	ObservedAt  time.Time `json:"observed_at"`
}

// Promotion describes a currently discounted product
type Promotion struct {
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	OriginalPrice float64   `json:"original_price"`
	CurrentPrice  float64   `json:"current_price"`
	DiscountPct   float64   `json:"discount_pct"`
}

// PriceSuggestion is a dynamic-pricing recommendation for one product
type PriceSuggestion struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	CurrentPrice   float64   `json:"current_price"`
	SuggestedPrice float64   `json:"suggested_price"`
	MarketAverage  float64   `json:"market_average"`
	Rationale      string    `json:"rationale"`
}

// PricingResult is the pricing agent's payload
type PricingResult struct {
	Mappings    []CompetitorMapping   `json:"mappings"`
	Gaps        []PriceGap            `json:"gaps"`
	Alerts      []PriceAlert          `json:"alerts"`
	Promotions  []Promotion           `json:"promotions"`
	Suggestions []PriceSuggestion     `json:"suggestions"`
	Confidence  ConfidenceComposition `json:"confidence"`
	Reasoning   string                `json:"reasoning"`
}

// SentimentLabel classifies one review
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// ReviewSentiment is the classified sentiment of a single review
type ReviewSentiment struct {
	ReviewID   uuid.UUID      `json:"review_id"`
	Label      SentimentLabel `json:"label"`
	Score      float64        `json:"score"` // classifier confidence [0,1]
	Rating     int            `json:"rating"`
}

// TopicCluster groups reviews sharing a theme
type TopicCluster struct {
	Keywords    []string `json:"keywords"`
	MemberCount int      `json:"member_count"`
	SampleTexts []string `json:"sample_texts"`
}

// SentimentResult is the sentiment agent's payload
type SentimentResult struct {
	Aggregate       float64               `json:"aggregate"` // [-1, 1]
	AggregateLabel  SentimentLabel        `json:"aggregate_label"`
	PositiveCount   int                   `json:"positive_count"`
	NegativeCount   int                   `json:"negative_count"`
	NeutralCount    int                   `json:"neutral_count"`
	Reviews         []ReviewSentiment     `json:"reviews"`
	Topics          []TopicCluster        `json:"topics"`
	FeatureRequests []string              `json:"feature_requests"`
	Complaints      []string              `json:"complaints"`
	Confidence      ConfidenceComposition `json:"confidence"`
	Reasoning       string                `json:"reasoning"`
}

// DemandPoint is one forecasted day of demand
type DemandPoint struct {
	Date           time.Time `json:"date"`
	PredictedUnits float64   `json:"predicted_units"`
	LowerBound     float64   `json:"lower_bound"`
	UpperBound     float64   `json:"upper_bound"`
}

// InventoryAlert warns about projected stock issues
type InventoryAlert struct {
	ProductID    uuid.UUID `json:"product_id"`
	Kind         string    `json:"kind"` // stockout_risk or overstock
	Message      string    `json:"message"`
	DaysOfCover  float64   `json:"days_of_cover"`
}

// ForecastResult is the forecast agent's payload
type ForecastResult struct {
	Points          []DemandPoint         `json:"points"`
	Seasonal        bool                  `json:"seasonal"`
	SeasonalityNote string                `json:"seasonality_note"`
	Alerts          []InventoryAlert      `json:"alerts"`
	Confidence      ConfidenceComposition `json:"confidence"`
	Reasoning       string                `json:"reasoning"`
}

// DomainResult is the union of agent payloads; exactly one field is set,
// matching the producing agent.
type DomainResult struct {
	Pricing   *PricingResult   `json:"pricing,omitempty"`
	Sentiment *SentimentResult `json:"sentiment,omitempty"`
	Forecast  *ForecastResult  `json:"forecast,omitempty"`
}

// FinalConfidence returns the composed confidence of whichever payload is set.
func (d *DomainResult) FinalConfidence() (float64, bool) {
	switch {
	case d == nil:
		return 0, false
	case d.Pricing != nil:
		return d.Pricing.Confidence.Final, true
	case d.Sentiment != nil:
		return d.Sentiment.Confidence.Final, true
	case d.Forecast != nil:
		return d.Forecast.Confidence.Final, true
	}
	return 0, false
}

// TaskState tracks a plan task through execution
type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
	TaskTimedOut  TaskState = "timed_out"
)

// AgentResult is the outcome of one plan task.
// Collected unordered; consumers key by Agent, never by position.
type AgentResult struct {
	Agent    AgentType     `json:"agent"`
	State    TaskState     `json:"state"`
	Success  bool          `json:"success"`
	Payload  *DomainResult `json:"payload,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// StructuredReport is the terminal, caller-facing aggregate for one query.
// Immutable after synthesis.
type StructuredReport struct {
	QueryID             uuid.UUID              `json:"query_id"`
	TenantID            uuid.UUID              `json:"tenant_id"`
	QueryText           string                 `json:"query_text"`
	Intent              string                 `json:"intent"`
	ExecutiveSummary    string                 `json:"executive_summary"`
	KeyMetrics          map[string]interface{} `json:"key_metrics"`
	Pricing             *PricingResult         `json:"pricing,omitempty"`
	Sentiment           *SentimentResult       `json:"sentiment,omitempty"`
	Forecast            *ForecastResult        `json:"forecast,omitempty"`
	QualityReport       *quality.Report        `json:"quality_report,omitempty"`
	ActionItems         []string               `json:"action_items"`
	DataQualityWarnings []string               `json:"data_quality_warnings"`
	OverallConfidence   float64                `json:"overall_confidence"` // [0,1]
	CreatedAt           time.Time              `json:"created_at"`
}
