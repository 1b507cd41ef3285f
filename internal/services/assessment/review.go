package assessment

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"meridian/internal/domain/quality"
	"meridian/internal/domain/review"
	"meridian/pkg/logger"
)

// Minimum cohort sizes for the statistical review detectors.
const (
	surgeMinReviews        = 10
	polarizationMinReviews = 5
)

// Small lexicon used only for the rating-vs-text consistency check. The
// full sentiment classification goes through the pluggable classifier; this
// check just needs an obvious-contradiction signal.
var (
	strongPositive = []string{"great", "excellent", "love", "amazing", "perfect", "wonderful", "fantastic", "best"}
	strongNegative = []string{"terrible", "awful", "hate", "horrible", "worst", "broken", "useless", "scam", "refund"}
)

// ReviewAssessor scores review batches and runs the review anomaly detectors.
type ReviewAssessor struct {
	cfg Config
	log *logger.Logger
}

// NewReviewAssessor creates a review assessor with the given thresholds.
func NewReviewAssessor(cfg Config) *ReviewAssessor {
	return &ReviewAssessor{
		cfg: cfg.withDefaults(),
		log: logger.Get().With("component", "review_assessor"),
	}
}

// Assess scores a review batch. Empty input yields a zero-score report with
// one recommendation, never an error.
func (a *ReviewAssessor) Assess(reviews []*review.Review) *quality.Report {
	if len(reviews) == 0 {
		return emptyReport(reviewWeights, "no reviews available; sentiment analysis requires customer reviews")
	}

	now := time.Now().UTC()
	dims := []quality.Dimension{
		a.scoreCompleteness(reviews),
		a.scoreValidity(reviews),
		a.scoreFreshness(reviews, now),
		a.scoreConsistency(reviews),
		a.scoreAccuracy(reviews),
	}

	report := &quality.Report{
		OverallScore:     overallScore(dims, reviewWeights),
		Dimensions:       dims,
		Anomalies:        a.detectAnomalies(reviews, now),
		Recommendations:  a.recommendations(dims),
		EntitiesAssessed: len(reviews),
		Timestamp:        now,
	}

	a.log.Debugf("Assessed %d reviews: overall=%.3f anomalies=%d",
		len(reviews), report.OverallScore, len(report.Anomalies))
	return report
}

func (a *ReviewAssessor) scoreCompleteness(reviews []*review.Review) quality.Dimension {
	checks := []func(r *review.Review) bool{
		func(r *review.Review) bool { return r.Rating != 0 },
		func(r *review.Review) bool { return r.Text != "" },
		func(r *review.Review) bool { return r.Title != "" },
		func(r *review.Review) bool { return r.Author != "" },
		func(r *review.Review) bool { return r.ProductID != uuid.Nil },
	}

	var sum float64
	issues := 0
	for _, r := range reviews {
		present := 0
		for _, check := range checks {
			if check(r) {
				present++
			} else {
				issues++
			}
		}
		sum += float64(present) / float64(len(checks))
	}

	return quality.Dimension{
		Name:        quality.DimCompleteness,
		Score:       round3(sum / float64(len(reviews))),
		IssuesCount: issues,
		Details:     fmt.Sprintf("%d missing field values across %d reviews", issues, len(reviews)),
	}
}

func (a *ReviewAssessor) scoreValidity(reviews []*review.Review) quality.Dimension {
	const checksPerRecord = 3
	issues := 0
	for _, r := range reviews {
		if r.Rating < 1 || r.Rating > 5 {
			issues++
		}
		if len(strings.TrimSpace(r.Text)) < 3 {
			issues++
		}
		if r.CreatedAt.After(time.Now().Add(time.Hour)) {
			issues++
		}
	}

	total := len(reviews) * checksPerRecord
	return quality.Dimension{
		Name:        quality.DimValidity,
		Score:       round3(1 - ratio(issues, total)),
		IssuesCount: issues,
		Details:     fmt.Sprintf("%d structural violations in %d checks", issues, total),
	}
}

func (a *ReviewAssessor) scoreFreshness(reviews []*review.Review, now time.Time) quality.Dimension {
	cutoff := now.Add(-a.cfg.ReviewFreshnessWindow)
	fresh := 0
	for _, r := range reviews {
		if r.CreatedAt.After(cutoff) {
			fresh++
		}
	}
	stale := len(reviews) - fresh
	return quality.Dimension{
		Name:        quality.DimFreshness,
		Score:       round3(ratio(fresh, len(reviews))),
		IssuesCount: stale,
		Details:     fmt.Sprintf("%d reviews older than %s", stale, a.cfg.ReviewFreshnessWindow),
	}
}

// Consistency: rating contradicting obvious text sentiment.
func (a *ReviewAssessor) scoreConsistency(reviews []*review.Review) quality.Dimension {
	mismatches := 0
	for _, r := range reviews {
		text := strings.ToLower(r.Title + " " + r.Text)
		pos := containsAny(text, strongPositive)
		neg := containsAny(text, strongNegative)
		if r.Rating >= 4 && neg && !pos {
			mismatches++
		}
		if r.Rating <= 2 && pos && !neg {
			mismatches++
		}
	}

	return quality.Dimension{
		Name:        quality.DimConsistency,
		Score:       round3(1 - ratio(mismatches, len(reviews))),
		IssuesCount: mismatches,
		Details:     fmt.Sprintf("%d reviews whose rating contradicts their text", mismatches),
	}
}

// Accuracy: spam flag, excessive caps, repeated character runs.
func (a *ReviewAssessor) scoreAccuracy(reviews []*review.Review) quality.Dimension {
	const checksPerRecord = 3
	issues := 0
	for _, r := range reviews {
		if r.Flagged {
			issues++
		}
		if excessiveCaps(r.Text) {
			issues++
		}
		if hasRepeatedRun(r.Text, 4) {
			issues++
		}
	}

	total := len(reviews) * checksPerRecord
	return quality.Dimension{
		Name:        quality.DimAccuracy,
		Score:       round3(1 - ratio(issues, total)),
		IssuesCount: issues,
		Details:     fmt.Sprintf("%d spam signals in %d checks", issues, total),
	}
}

func (a *ReviewAssessor) detectAnomalies(reviews []*review.Review, now time.Time) []quality.Anomaly {
	byProduct := make(map[uuid.UUID][]*review.Review)
	var order []uuid.UUID
	for _, r := range reviews {
		if _, seen := byProduct[r.ProductID]; !seen {
			order = append(order, r.ProductID)
		}
		byProduct[r.ProductID] = append(byProduct[r.ProductID], r)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].String() < order[j].String() })

	var anomalies []quality.Anomaly
	for _, pid := range order {
		group := byProduct[pid]
		if a := detectReviewSurge(pid, group, now); a != nil {
			anomalies = append(anomalies, *a)
		}
		if a := detectRatingPolarization(pid, group); a != nil {
			anomalies = append(anomalies, *a)
		}
	}
	return anomalies
}

// detectReviewSurge flags a product receiving more than half its reviews
// within the last seven days. Needs at least 10 reviews.
func detectReviewSurge(productID uuid.UUID, reviews []*review.Review, now time.Time) *quality.Anomaly {
	if len(reviews) < surgeMinReviews {
		return nil
	}

	cutoff := now.Add(-7 * 24 * time.Hour)
	recent := 0
	for _, r := range reviews {
		if r.CreatedAt.After(cutoff) {
			recent++
		}
	}
	if ratio(recent, len(reviews)) <= 0.5 {
		return nil
	}

	return &quality.Anomaly{
		Type:             "review_surge",
		Severity:         quality.SeverityMedium,
		Description:      fmt.Sprintf("%d of %d reviews arrived within the last 7 days", recent, len(reviews)),
		AffectedEntities: []uuid.UUID{productID},
		Confidence:       0.7,
	}
}

// detectRatingPolarization flags a product whose ratings concentrate at the
// extremes. Needs at least 5 reviews.
func detectRatingPolarization(productID uuid.UUID, reviews []*review.Review) *quality.Anomaly {
	if len(reviews) < polarizationMinReviews {
		return nil
	}

	extreme := 0
	for _, r := range reviews {
		if r.IsExtreme() {
			extreme++
		}
	}
	if ratio(extreme, len(reviews)) <= 0.8 {
		return nil
	}

	return &quality.Anomaly{
		Type:             "rating_polarization",
		Severity:         quality.SeverityLow,
		Description:      fmt.Sprintf("%d of %d ratings are 1 or 5 stars", extreme, len(reviews)),
		AffectedEntities: []uuid.UUID{productID},
		Confidence:       0.6,
	}
}

func (a *ReviewAssessor) recommendations(dims []quality.Dimension) []string {
	var recs []string
	for _, d := range dims {
		if d.Score >= 0.8 {
			continue
		}
		switch d.Name {
		case quality.DimCompleteness:
			recs = append(recs, "collect fuller review metadata (titles, authors)")
		case quality.DimValidity:
			recs = append(recs, "reject reviews with out-of-range ratings or empty text at intake")
		case quality.DimFreshness:
			recs = append(recs, "solicit recent reviews; sentiment reflects old feedback")
		case quality.DimConsistency:
			recs = append(recs, "audit reviews whose rating contradicts their text")
		case quality.DimAccuracy:
			recs = append(recs, "tighten spam filtering on the review intake")
		}
	}
	sort.Strings(recs)
	return recs
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// excessiveCaps reports whether more than 60% of the letters are uppercase.
// Short texts are ignored to avoid flagging acronyms.
func excessiveCaps(text string) bool {
	letters, upper := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters >= 20 && float64(upper)/float64(letters) > 0.6
}

// hasRepeatedRun reports whether any character repeats n or more times in a row.
func hasRepeatedRun(text string, n int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}
