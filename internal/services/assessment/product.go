package assessment

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"meridian/internal/domain/catalog"
	"meridian/internal/domain/quality"
	"meridian/pkg/logger"
)

// AccuracyHeuristic flags a single suspicious pattern on a product.
// The built-in set is deliberately pluggable: individual rules (round
// prices in particular) are market-dependent.
type AccuracyHeuristic struct {
	Name  string
	Check func(p *catalog.Product) bool
}

// DefaultProductHeuristics returns the standard accuracy red flags.
func DefaultProductHeuristics() []AccuracyHeuristic {
	generic := map[string]bool{
		"test": true, "product": true, "item": true,
		"sample": true, "new product": true, "untitled": true,
	}
	return []AccuracyHeuristic{
		{
			Name: "generic_name",
			Check: func(p *catalog.Product) bool {
				return generic[strings.ToLower(strings.TrimSpace(p.Name))]
			},
		},
		{
			Name: "round_price",
			Check: func(p *catalog.Product) bool {
				price, _ := p.Price.Float64()
				if price <= 0 {
					return false
				}
				return price == math.Trunc(price) && math.Mod(price, 100) == 0
			},
		},
	}
}

// ProductAssessor scores product batches across the five quality dimensions
// and runs the statistical anomaly detectors.
type ProductAssessor struct {
	cfg        Config
	heuristics []AccuracyHeuristic
	log        *logger.Logger
}

// NewProductAssessor creates a product assessor with the given thresholds.
func NewProductAssessor(cfg Config) *ProductAssessor {
	return &ProductAssessor{
		cfg:        cfg.withDefaults(),
		heuristics: DefaultProductHeuristics(),
		log:        logger.Get().With("component", "product_assessor"),
	}
}

// WithHeuristics replaces the accuracy heuristic list.
func (a *ProductAssessor) WithHeuristics(hs []AccuracyHeuristic) *ProductAssessor {
	a.heuristics = hs
	return a
}

// Assess scores a product batch. An empty batch yields a zero-score report
// with a single recommendation, never an error. Two calls over an unchanged
// batch produce identical scores and anomalies (timestamp aside).
func (a *ProductAssessor) Assess(products []*catalog.Product) *quality.Report {
	if len(products) == 0 {
		return emptyReport(productWeights, "no products available; import catalog data before requesting analysis")
	}

	now := time.Now().UTC()
	dims := []quality.Dimension{
		a.scoreCompleteness(products),
		a.scoreValidity(products),
		a.scoreFreshness(products, now),
		a.scoreConsistency(products),
		a.scoreAccuracy(products),
	}

	report := &quality.Report{
		OverallScore:     overallScore(dims, productWeights),
		Dimensions:       dims,
		Anomalies:        a.detectAnomalies(products),
		MissingData:      a.missingData(products),
		Recommendations:  a.recommendations(dims),
		EntitiesAssessed: len(products),
		Timestamp:        now,
	}

	a.log.Debugf("Assessed %d products: overall=%.3f anomalies=%d",
		len(products), report.OverallScore, len(report.Anomalies))
	return report
}

// Completeness: fraction of expected fields present, averaged per record.
func (a *ProductAssessor) scoreCompleteness(products []*catalog.Product) quality.Dimension {
	// required + optional field presence checks
	checks := []func(p *catalog.Product) bool{
		func(p *catalog.Product) bool { return p.SKU != "" },
		func(p *catalog.Product) bool { return p.Name != "" },
		func(p *catalog.Product) bool { return p.Price.IsPositive() },
		func(p *catalog.Product) bool { return p.Currency != "" },
		func(p *catalog.Product) bool { return p.Category != "" },
		func(p *catalog.Product) bool { return p.Description != "" },
		func(p *catalog.Product) bool { return p.Brand != "" },
		func(p *catalog.Product) bool { return p.ImageURL != "" },
	}

	var sum float64
	issues := 0
	for _, p := range products {
		present := 0
		for _, check := range checks {
			if check(p) {
				present++
			} else {
				issues++
			}
		}
		sum += float64(present) / float64(len(checks))
	}

	return quality.Dimension{
		Name:        quality.DimCompleteness,
		Score:       round3(sum / float64(len(products))),
		IssuesCount: issues,
		Details:     fmt.Sprintf("%d missing field values across %d products", issues, len(products)),
	}
}

// Validity: structural checks; issues accumulate per violation.
func (a *ProductAssessor) scoreValidity(products []*catalog.Product) quality.Dimension {
	const checksPerRecord = 4
	issues := 0
	for _, p := range products {
		if !p.Price.IsPositive() {
			issues++
		}
		if len(p.SKU) < 3 {
			issues++
		}
		if len(p.Currency) != 3 {
			issues++
		}
		if p.Inventory < 0 {
			issues++
		}
	}

	total := len(products) * checksPerRecord
	return quality.Dimension{
		Name:        quality.DimValidity,
		Score:       round3(1 - ratio(issues, total)),
		IssuesCount: issues,
		Details:     fmt.Sprintf("%d structural violations in %d checks", issues, total),
	}
}

// Freshness: fraction of records updated within the configured window.
func (a *ProductAssessor) scoreFreshness(products []*catalog.Product, now time.Time) quality.Dimension {
	cutoff := now.Add(-a.cfg.ProductFreshnessWindow)
	fresh := 0
	for _, p := range products {
		if p.UpdatedAt.After(cutoff) {
			fresh++
		}
	}
	stale := len(products) - fresh
	return quality.Dimension{
		Name:        quality.DimFreshness,
		Score:       round3(ratio(fresh, len(products))),
		IssuesCount: stale,
		Details:     fmt.Sprintf("%d products not updated in %s", stale, a.cfg.ProductFreshnessWindow),
	}
}

// Consistency: duplicate SKU or duplicate normalized name detection.
func (a *ProductAssessor) scoreConsistency(products []*catalog.Product) quality.Dimension {
	bySKU := make(map[string]int)
	byName := make(map[string]int)
	for _, p := range products {
		if p.SKU != "" {
			bySKU[normalizeSKU(p.SKU)]++
		}
		if p.Name != "" {
			byName[strings.ToLower(strings.TrimSpace(p.Name))]++
		}
	}

	dupes := 0
	for _, p := range products {
		if p.SKU != "" && bySKU[normalizeSKU(p.SKU)] > 1 {
			dupes++
			continue
		}
		if p.Name != "" && byName[strings.ToLower(strings.TrimSpace(p.Name))] > 1 {
			dupes++
		}
	}

	return quality.Dimension{
		Name:        quality.DimConsistency,
		Score:       round3(1 - ratio(dupes, len(products))),
		IssuesCount: dupes,
		Details:     fmt.Sprintf("%d products share a SKU or name with another record", dupes),
	}
}

// Accuracy: pluggable heuristic red flags.
func (a *ProductAssessor) scoreAccuracy(products []*catalog.Product) quality.Dimension {
	if len(a.heuristics) == 0 {
		return quality.Dimension{Name: quality.DimAccuracy, Score: 1, Details: "no accuracy heuristics configured"}
	}

	flagged := 0
	for _, p := range products {
		for _, h := range a.heuristics {
			if h.Check(p) {
				flagged++
			}
		}
	}

	total := len(products) * len(a.heuristics)
	return quality.Dimension{
		Name:        quality.DimAccuracy,
		Score:       round3(1 - ratio(flagged, total)),
		IssuesCount: flagged,
		Details:     fmt.Sprintf("%d heuristic red flags in %d checks", flagged, total),
	}
}

func (a *ProductAssessor) detectAnomalies(products []*catalog.Product) []quality.Anomaly {
	var anomalies []quality.Anomaly
	anomalies = append(anomalies, a.detectPriceOutliers(products)...)
	anomalies = append(anomalies, a.detectOutOfStock(products)...)
	return anomalies
}

// detectPriceOutliers flags products whose price deviates from the batch by
// more than the configured z-score. Requires at least 3 records for the
// statistics to mean anything.
func (a *ProductAssessor) detectPriceOutliers(products []*catalog.Product) []quality.Anomaly {
	if len(products) < 3 {
		return nil
	}

	prices := make([]float64, len(products))
	for i, p := range products {
		prices[i], _ = p.Price.Float64()
	}

	var anomalies []quality.Anomaly
	for i, p := range products {
		z := peerZScore(prices, i)
		if z < a.cfg.PriceOutlierZScore {
			continue
		}

		severity := quality.SeverityMedium
		if z >= a.cfg.PriceOutlierHighZScore {
			severity = quality.SeverityHigh
		}
		anomalies = append(anomalies, quality.Anomaly{
			Type:             "price_outlier",
			Severity:         severity,
			Description:      fmt.Sprintf("price %.2f of %q deviates %.1f standard deviations from the batch", prices[i], p.Name, z),
			AffectedEntities: []uuid.UUID{p.ID},
			Confidence:       math.Min(0.95, z/5),
		})
	}
	return anomalies
}

// detectOutOfStock fires when more than half the batch has zero inventory.
func (a *ProductAssessor) detectOutOfStock(products []*catalog.Product) []quality.Anomaly {
	if len(products) < 3 {
		return nil
	}

	var out []uuid.UUID
	for _, p := range products {
		if p.Inventory == 0 {
			out = append(out, p.ID)
		}
	}

	rate := ratio(len(out), len(products))
	if rate <= a.cfg.OutOfStockRateLimit {
		return nil
	}

	return []quality.Anomaly{{
		Type:             "high_out_of_stock_rate",
		Severity:         quality.SeverityHigh,
		Description:      fmt.Sprintf("%.0f%% of products have zero inventory", rate*100),
		AffectedEntities: out,
		Confidence:       0.9,
	}}
}

func (a *ProductAssessor) missingData(products []*catalog.Product) []quality.MissingField {
	fields := []struct {
		name    string
		impact  string
		rec     string
		present func(p *catalog.Product) bool
	}{
		{"description", "weakens matching and buyer conversion analysis", "backfill product descriptions", func(p *catalog.Product) bool { return p.Description != "" }},
		{"brand", "weakens competitor mapping precision", "populate brand attributes", func(p *catalog.Product) bool { return p.Brand != "" }},
		{"category", "prevents category-scoped competitor comparison", "assign categories to all products", func(p *catalog.Product) bool { return p.Category != "" }},
	}

	var missing []quality.MissingField
	for _, f := range fields {
		count := 0
		for _, p := range products {
			if !f.present(p) {
				count++
			}
		}
		if count > 0 {
			missing = append(missing, quality.MissingField{
				Field:          f.name,
				Impact:         f.impact,
				AffectedCount:  count,
				Recommendation: f.rec,
			})
		}
	}
	return missing
}

func (a *ProductAssessor) recommendations(dims []quality.Dimension) []string {
	var recs []string
	for _, d := range dims {
		if d.Score >= 0.8 {
			continue
		}
		switch d.Name {
		case quality.DimCompleteness:
			recs = append(recs, "fill in missing product fields to improve analysis coverage")
		case quality.DimValidity:
			recs = append(recs, "fix structural issues (prices, SKUs, currency codes, inventory)")
		case quality.DimFreshness:
			recs = append(recs, "refresh stale product records; pricing analysis degrades on old data")
		case quality.DimConsistency:
			recs = append(recs, "deduplicate products sharing SKUs or names")
		case quality.DimAccuracy:
			recs = append(recs, "review products flagged by accuracy heuristics")
		}
	}
	sort.Strings(recs)
	return recs
}

// normalizeSKU lowercases and strips separators so cosmetic SKU variants compare equal.
func normalizeSKU(sku string) string {
	s := strings.ToLower(strings.TrimSpace(sku))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}
