package assessment

import (
	"math"
	"time"

	"meridian/internal/domain/quality"
)

// Dimension weights for product batches. Review weights differ slightly
// (reviews trade some completeness weight for accuracy).
var productWeights = map[quality.DimensionName]float64{
	quality.DimCompleteness: 0.25,
	quality.DimValidity:     0.25,
	quality.DimFreshness:    0.15,
	quality.DimConsistency:  0.20,
	quality.DimAccuracy:     0.15,
}

var reviewWeights = map[quality.DimensionName]float64{
	quality.DimCompleteness: 0.20,
	quality.DimValidity:     0.25,
	quality.DimFreshness:    0.15,
	quality.DimConsistency:  0.20,
	quality.DimAccuracy:     0.20,
}

// Config tunes assessor thresholds. Zero values fall back to defaults.
type Config struct {
	ProductFreshnessWindow time.Duration
	ReviewFreshnessWindow  time.Duration
	PriceOutlierZScore     float64
	PriceOutlierHighZScore float64
	OutOfStockRateLimit    float64
}

// DefaultConfig returns the standard assessor thresholds.
func DefaultConfig() Config {
	return Config{
		ProductFreshnessWindow: 30 * 24 * time.Hour,
		ReviewFreshnessWindow:  90 * 24 * time.Hour,
		PriceOutlierZScore:     3.0,
		PriceOutlierHighZScore: 4.0,
		OutOfStockRateLimit:    0.5,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ProductFreshnessWindow <= 0 {
		c.ProductFreshnessWindow = d.ProductFreshnessWindow
	}
	if c.ReviewFreshnessWindow <= 0 {
		c.ReviewFreshnessWindow = d.ReviewFreshnessWindow
	}
	if c.PriceOutlierZScore <= 0 {
		c.PriceOutlierZScore = d.PriceOutlierZScore
	}
	if c.PriceOutlierHighZScore <= 0 {
		c.PriceOutlierHighZScore = d.PriceOutlierHighZScore
	}
	if c.OutOfStockRateLimit <= 0 {
		c.OutOfStockRateLimit = d.OutOfStockRateLimit
	}
	return c
}

// overallScore computes the weighted mean of dimension scores, rounded to 3 decimals.
func overallScore(dims []quality.Dimension, weights map[quality.DimensionName]float64) float64 {
	var weighted, total float64
	for _, d := range dims {
		w := weights[d.Name]
		weighted += d.Score * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return round3(weighted / total)
}

// emptyReport is the soft-failure result for an empty batch: zero scores,
// one recommendation, never an error.
func emptyReport(weights map[quality.DimensionName]float64, recommendation string) *quality.Report {
	dims := make([]quality.Dimension, 0, len(weights))
	for _, name := range dimensionOrder {
		if _, ok := weights[name]; !ok {
			continue
		}
		dims = append(dims, quality.Dimension{Name: name, Score: 0, Details: "no records to assess"})
	}
	return &quality.Report{
		OverallScore:     0,
		Dimensions:       dims,
		Anomalies:        nil,
		Recommendations:  []string{recommendation},
		EntitiesAssessed: 0,
		Timestamp:        time.Now().UTC(),
	}
}

// dimensionOrder keeps report output deterministic.
var dimensionOrder = []quality.DimensionName{
	quality.DimCompleteness,
	quality.DimValidity,
	quality.DimFreshness,
	quality.DimConsistency,
	quality.DimAccuracy,
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
