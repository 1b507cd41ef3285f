package quality

import (
	"time"

	"github.com/google/uuid"
)

// Severity classifies how damaging an anomaly is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// PenaltyFactor returns the multiplicative confidence penalty for this severity.
// Unknown severities are treated as critical so a bad value can only deflate.
func (s Severity) PenaltyFactor() float64 {
	switch s {
	case SeverityLow:
		return 0.95
	case SeverityMedium:
		return 0.85
	case SeverityHigh:
		return 0.70
	case SeverityCritical:
		return 0.50
	default:
		return 0.50
	}
}

// Valid reports whether the severity is one of the known values.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Anomaly is a flagged irregularity in a record batch.
// Immutable once produced by a detector.
type Anomaly struct {
	Type             string      `json:"type"`
	Severity         Severity    `json:"severity"`
	Description      string      `json:"description"`
	AffectedEntities []uuid.UUID `json:"affected_entities"` // empty for batch-level anomalies
	Confidence       float64     `json:"confidence"`        // [0,1]
}

// Affects reports whether the anomaly names the given entity.
// Batch-level anomalies (no affected entities) affect everything.
func (a *Anomaly) Affects(entityID uuid.UUID) bool {
	if len(a.AffectedEntities) == 0 {
		return true
	}
	for _, id := range a.AffectedEntities {
		if id == entityID {
			return true
		}
	}
	return false
}

// DimensionName identifies one of the five quality dimensions
type DimensionName string

const (
	DimCompleteness DimensionName = "completeness"
	DimValidity     DimensionName = "validity"
	DimFreshness    DimensionName = "freshness"
	DimConsistency  DimensionName = "consistency"
	DimAccuracy     DimensionName = "accuracy"
)

// Dimension is the scored result for one quality dimension
type Dimension struct {
	Name        DimensionName `json:"name"`
	Score       float64       `json:"score"` // [0,1]
	IssuesCount int           `json:"issues_count"`
	Details     string        `json:"details"`
}

// MissingField describes systematically absent data and its impact
type MissingField struct {
	Field          string `json:"field"`
	Impact         string `json:"impact"`
	AffectedCount  int    `json:"affected_count"`
	Recommendation string `json:"recommendation"`
}

// Report is the full quality assessment of one record batch.
// Built fresh per assessment call and never cached across differing inputs.
type Report struct {
	OverallScore     float64        `json:"overall_score"` // [0,1], rounded to 3 decimals
	Dimensions       []Dimension    `json:"dimensions"`    // always the five dimensions
	Anomalies        []Anomaly      `json:"anomalies"`
	MissingData      []MissingField `json:"missing_data"`
	Recommendations  []string       `json:"recommendations"`
	EntitiesAssessed int            `json:"entities_assessed"`
	Timestamp        time.Time      `json:"timestamp"`
}

// AnomalyPenalty returns the worst (minimum) penalty among anomalies affecting
// the given entity, or 1.0 when none match. A nil entity filter considers all
// anomalies in the report.
func (r *Report) AnomalyPenalty(entityID *uuid.UUID) float64 {
	penalty := 1.0
	for i := range r.Anomalies {
		if entityID != nil && !r.Anomalies[i].Affects(*entityID) {
			continue
		}
		if f := r.Anomalies[i].Severity.PenaltyFactor(); f < penalty {
			penalty = f
		}
	}
	return penalty
}

// Dimension returns the named dimension, or nil when absent.
func (r *Report) Dimension(name DimensionName) *Dimension {
	for i := range r.Dimensions {
		if r.Dimensions[i].Name == name {
			return &r.Dimensions[i]
		}
	}
	return nil
}
