package pipeline

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/insight"
	"meridian/pkg/errors"
)

func testEngine() *Engine {
	return NewEngine(EngineConfig{
		QuickTaskTimeout: 10 * time.Second,
		DeepTaskTimeout:  45 * time.Second,
	})
}

func TestUnderstand_SingleDomain(t *testing.T) {
	e := testEngine()

	intent, _ := e.Understand("why did my average rating drop?")
	assert.Equal(t, IntentSentiment, intent)

	intent, _ = e.Understand("am I priced above competitors?")
	assert.Equal(t, IntentPricing, intent)

	intent, _ = e.Understand("predict demand for next month")
	assert.Equal(t, IntentForecast, intent)
}

func TestUnderstand_MultipleDomainsBecomesComprehensive(t *testing.T) {
	e := testEngine()

	intent, _ := e.Understand("how do reviews affect my pricing?")
	assert.Equal(t, IntentComprehensive, intent)
}

func TestUnderstand_NoKeywords(t *testing.T) {
	e := testEngine()

	intent, params := e.Understand("hello there")
	assert.Equal(t, IntentGeneral, intent)
	assert.Zero(t, params.HorizonDays)
}

func TestUnderstand_HorizonExtraction(t *testing.T) {
	e := testEngine()

	_, params := e.Understand("forecast demand for the next 30 days")
	assert.Equal(t, 30, params.HorizonDays)

	_, params = e.Understand("predict sales for 2 weeks")
	assert.Equal(t, 14, params.HorizonDays)

	_, params = e.Understand("demand over the next 3 months")
	assert.Equal(t, 90, params.HorizonDays)
}

func TestSelectAgents(t *testing.T) {
	e := testEngine()

	assert.Equal(t, []insight.AgentType{insight.AgentPricing}, e.SelectAgents(IntentPricing, Parameters{}))
	assert.Equal(t, insight.AllAgentTypes(), e.SelectAgents(IntentComprehensive, Parameters{}))
	assert.Equal(t, insight.AllAgentTypes(), e.SelectAgents(IntentGeneral, Parameters{}))
	assert.Equal(t, insight.AllAgentTypes(), e.SelectAgents(IntentQuality, Parameters{}))
}

func TestPlan_UnionOfSuggestions(t *testing.T) {
	e := testEngine()
	queryID := uuid.New()

	plan, err := e.Plan(queryID, "price check", IntentPricing, Parameters{}, ModeQuick,
		[]insight.AgentType{insight.AgentSentiment})
	require.NoError(t, err)

	// Router suggested sentiment, engine suggested pricing: both run.
	require.Len(t, plan.Tasks, 2)
	agents := map[insight.AgentType]bool{}
	for _, task := range plan.Tasks {
		agents[task.Agent] = true
		assert.Equal(t, 10*time.Second, task.Timeout)
	}
	assert.True(t, agents[insight.AgentPricing])
	assert.True(t, agents[insight.AgentSentiment])

	require.NoError(t, plan.Validate())
	require.Len(t, plan.ParallelGroups, 1)
	assert.Len(t, plan.ParallelGroups[0], 2)
	assert.Equal(t, 10*time.Second, plan.EstimatedDuration)
}

func TestPlan_DeepModeTimeout(t *testing.T) {
	e := testEngine()

	plan, err := e.Plan(uuid.New(), "everything", IntentComprehensive, Parameters{}, ModeDeep, nil)
	require.NoError(t, err)

	require.Len(t, plan.Tasks, 3)
	for _, task := range plan.Tasks {
		assert.Equal(t, 45*time.Second, task.Timeout)
	}
}

func TestPlanValidate_RejectsBadPlans(t *testing.T) {
	queryID := uuid.New()

	empty := &ExecutionPlan{QueryID: queryID}
	assert.True(t, errors.Is(empty.Validate(), errors.ErrPlanRejected))

	unknown := &ExecutionPlan{
		QueryID: queryID,
		Tasks:   []Task{{ID: uuid.New(), Agent: "astrology", Timeout: time.Second}},
	}
	assert.True(t, errors.Is(unknown.Validate(), errors.ErrUnknownAgent))

	t1 := Task{ID: uuid.New(), Agent: insight.AgentPricing, Timeout: time.Second}
	t2 := Task{ID: uuid.New(), Agent: insight.AgentPricing, Timeout: time.Second}
	duplicate := &ExecutionPlan{
		QueryID:        queryID,
		Tasks:          []Task{t1, t2},
		ParallelGroups: [][]uuid.UUID{{t1.ID, t2.ID}},
	}
	assert.True(t, errors.Is(duplicate.Validate(), errors.ErrPlanRejected))

	ungrouped := &ExecutionPlan{
		QueryID:        queryID,
		Tasks:          []Task{t1},
		ParallelGroups: nil,
	}
	assert.True(t, errors.Is(ungrouped.Validate(), errors.ErrPlanRejected))
}
