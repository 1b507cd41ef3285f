package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"meridian/internal/domain/insight"
)

// Route is the router's verdict for one query text
type Route struct {
	Mode           Mode
	RequiredAgents []insight.AgentType
	UseCache       bool
	CacheKey       string
}

// Keyword sets for deterministic routing. Matching is substring-based over
// the lowercased query, so "prices" matches "price".
var (
	deepKeywords = []string{
		"comprehensive", "detailed", "deep", "full report", "everything",
		"complete analysis", "in depth", "in-depth", "thorough",
	}
	pricingKeywords = []string{
		"price", "pricing", "competitor", "discount", "promotion",
		"margin", "undercut", "cheaper", "expensive",
	}
	sentimentKeywords = []string{
		"review", "sentiment", "feedback", "rating", "complaint",
		"customer", "satisfaction", "unhappy",
	}
	forecastKeywords = []string{
		"forecast", "demand", "inventory", "stock", "predict",
		"trend", "next week", "next month", "restock", "sales",
	}
)

// Router is a pure function over query text: deterministic keyword matching,
// no model calls, no side effects.
type Router struct{}

// NewRouter creates the query router.
func NewRouter() *Router {
	return &Router{}
}

// Route decides the execution mode, candidate agents, and cache policy for
// a query. Caching applies only to quick mode; deep reports are considered
// too volatile to reuse.
func (r *Router) Route(tenantID uuid.UUID, text string) Route {
	lower := strings.ToLower(text)

	mode := ModeQuick
	if matchesAny(lower, deepKeywords) {
		mode = ModeDeep
	}

	var agents []insight.AgentType
	if matchesAny(lower, pricingKeywords) {
		agents = append(agents, insight.AgentPricing)
	}
	if matchesAny(lower, sentimentKeywords) {
		agents = append(agents, insight.AgentSentiment)
	}
	if matchesAny(lower, forecastKeywords) {
		agents = append(agents, insight.AgentForecast)
	}

	// A query naming no domain gets the complete treatment.
	if len(agents) == 0 {
		agents = insight.AllAgentTypes()
		mode = ModeDeep
	}

	route := Route{
		Mode:           mode,
		RequiredAgents: agents,
	}
	if mode == ModeQuick {
		route.UseCache = true
		route.CacheKey = CacheKey(tenantID, lower)
	}
	return route
}

// CacheKey derives a stable report cache key from the tenant and the
// normalized query text. Tenant id is part of the key so cached reports can
// never leak across tenants.
func CacheKey(tenantID uuid.UUID, normalizedText string) string {
	sum := sha256.Sum256([]byte(tenantID.String() + ":" + normalizedText))
	return "report:" + hex.EncodeToString(sum[:])
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
