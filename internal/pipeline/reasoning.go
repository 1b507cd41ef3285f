package pipeline

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"meridian/internal/domain/insight"
	"meridian/pkg/logger"
)

// Intent classifies what the user is asking for
type Intent string

const (
	IntentPricing       Intent = "pricing"
	IntentSentiment     Intent = "sentiment"
	IntentForecast      Intent = "forecast"
	IntentQuality       Intent = "quality"
	IntentComprehensive Intent = "comprehensive"
	IntentGeneral       Intent = "general"
)

// Parameters are structured values extracted from the query text
type Parameters struct {
	// HorizonDays is the forecast window requested in the query, zero when
	// the query names none.
	HorizonDays int `json:"horizon_days,omitempty"`

	// Keywords are the intent-bearing tokens that matched, kept for the
	// report's explanation.
	Keywords []string `json:"keywords,omitempty"`
}

// EngineConfig carries the per-mode task budgets
type EngineConfig struct {
	QuickTaskTimeout time.Duration
	DeepTaskTimeout  time.Duration
}

// Engine turns query text into an intent and a validated execution plan.
// Classification is keyword scoring; the engine's real contract is that
// every plan it returns passes Validate.
type Engine struct {
	cfg EngineConfig
	log *logger.Logger
}

// NewEngine creates a reasoning engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.QuickTaskTimeout <= 0 {
		cfg.QuickTaskTimeout = 10 * time.Second
	}
	if cfg.DeepTaskTimeout <= 0 {
		cfg.DeepTaskTimeout = 45 * time.Second
	}
	return &Engine{
		cfg: cfg,
		log: logger.Get().With("component", "reasoning_engine"),
	}
}

var intentKeywords = map[Intent][]string{
	IntentPricing:       pricingKeywords,
	IntentSentiment:     sentimentKeywords,
	IntentForecast:      forecastKeywords,
	IntentQuality:       {"quality", "data quality", "anomaly", "anomalies", "data issues", "reliable"},
	IntentComprehensive: deepKeywords,
}

var horizonPattern = regexp.MustCompile(`(\d+)\s*(day|week|month)s?`)

// Understand classifies the query into an intent and extracts parameters.
// The highest-scoring keyword set wins; ties break in a fixed order so the
// result is deterministic.
func (e *Engine) Understand(text string) (Intent, Parameters) {
	lower := strings.ToLower(text)

	scores := make(map[Intent]int)
	var matched []string
	for intent, keywords := range intentKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				scores[intent]++
				matched = append(matched, kw)
			}
		}
	}
	sort.Strings(matched)

	params := Parameters{
		HorizonDays: parseHorizon(lower),
		Keywords:    matched,
	}

	if len(scores) == 0 {
		return IntentGeneral, params
	}

	order := []Intent{IntentComprehensive, IntentQuality, IntentPricing, IntentSentiment, IntentForecast}
	best, bestScore := IntentGeneral, 0
	for _, intent := range order {
		if scores[intent] > bestScore {
			best, bestScore = intent, scores[intent]
		}
	}

	// Multiple domains scoring means the user wants the full picture.
	domains := 0
	for _, intent := range []Intent{IntentPricing, IntentSentiment, IntentForecast} {
		if scores[intent] > 0 {
			domains++
		}
	}
	if domains >= 2 {
		best = IntentComprehensive
	}

	return best, params
}

// SelectAgents maps an intent to the agents that should run. Quality,
// comprehensive, and general intents need the full picture.
func (e *Engine) SelectAgents(intent Intent, _ Parameters) []insight.AgentType {
	switch intent {
	case IntentPricing:
		return []insight.AgentType{insight.AgentPricing}
	case IntentSentiment:
		return []insight.AgentType{insight.AgentSentiment}
	case IntentForecast:
		return []insight.AgentType{insight.AgentForecast}
	}
	return insight.AllAgentTypes()
}

// Plan builds a validated execution plan over the union of the router's and
// the engine's agent suggestions. Agents never read each other's output, so
// all tasks land in a single parallel group.
func (e *Engine) Plan(queryID uuid.UUID, text string, intent Intent, params Parameters, mode Mode, routerAgents []insight.AgentType) (*ExecutionPlan, error) {
	agents := unionAgents(routerAgents, e.SelectAgents(intent, params))

	timeout := e.cfg.QuickTaskTimeout
	if mode == ModeDeep {
		timeout = e.cfg.DeepTaskTimeout
	}

	tasks := make([]Task, 0, len(agents))
	group := make([]uuid.UUID, 0, len(agents))
	for _, agent := range agents {
		t := Task{ID: uuid.New(), Agent: agent, Timeout: timeout}
		tasks = append(tasks, t)
		group = append(group, t.ID)
	}

	plan := &ExecutionPlan{
		QueryID:        queryID,
		QueryText:      text,
		Intent:         intent,
		Mode:           mode,
		Tasks:          tasks,
		ParallelGroups: [][]uuid.UUID{group},
		// One concurrent group: the budget is the slowest task, not the sum.
		EstimatedDuration: timeout,
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	e.log.Debugf("Planned query %s: intent=%s mode=%s agents=%d", queryID, intent, mode, len(tasks))
	return plan, nil
}

// unionAgents merges two suggestion sets preserving the canonical agent order.
func unionAgents(a, b []insight.AgentType) []insight.AgentType {
	want := make(map[insight.AgentType]bool, len(a)+len(b))
	for _, t := range a {
		want[t] = true
	}
	for _, t := range b {
		want[t] = true
	}

	var out []insight.AgentType
	for _, t := range insight.AllAgentTypes() {
		if want[t] {
			out = append(out, t)
		}
	}
	return out
}

// parseHorizon extracts "next 30 days" style windows, normalized to days.
func parseHorizon(lower string) int {
	m := horizonPattern.FindStringSubmatch(lower)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0
	}
	switch m[2] {
	case "week":
		return n * 7
	case "month":
		return n * 30
	}
	return n
}
