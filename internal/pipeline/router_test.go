package pipeline

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"meridian/internal/domain/insight"
)

func TestRouter_PricingQuery(t *testing.T) {
	r := NewRouter()

	route := r.Route(uuid.New(), "How do my prices compare with competitors?")

	assert.Equal(t, ModeQuick, route.Mode)
	assert.Equal(t, []insight.AgentType{insight.AgentPricing}, route.RequiredAgents)
	assert.True(t, route.UseCache)
	assert.NotEmpty(t, route.CacheKey)
}

func TestRouter_DeepKeywordSwitchesMode(t *testing.T) {
	r := NewRouter()

	route := r.Route(uuid.New(), "Give me a comprehensive review of customer feedback")

	assert.Equal(t, ModeDeep, route.Mode)
	assert.Contains(t, route.RequiredAgents, insight.AgentSentiment)
	// Deep reports are never cached.
	assert.False(t, route.UseCache)
	assert.Empty(t, route.CacheKey)
}

func TestRouter_NoKeywordsGetsEverything(t *testing.T) {
	r := NewRouter()

	route := r.Route(uuid.New(), "How is my shop doing?")

	assert.Equal(t, ModeDeep, route.Mode)
	assert.Equal(t, insight.AllAgentTypes(), route.RequiredAgents)
}

func TestRouter_Deterministic(t *testing.T) {
	r := NewRouter()
	tenant := uuid.New()

	a := r.Route(tenant, "price check")
	b := r.Route(tenant, "price check")
	assert.Equal(t, a, b)
}

func TestCacheKey_TenantScoped(t *testing.T) {
	text := "price check"
	k1 := CacheKey(uuid.New(), text)
	k2 := CacheKey(uuid.New(), text)

	assert.NotEqual(t, k1, k2)
	assert.Contains(t, k1, "report:")
}
