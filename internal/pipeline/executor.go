package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"meridian/internal/agents"
	"meridian/internal/domain/insight"
	"meridian/internal/domain/quality"
	"meridian/pkg/errors"
	"meridian/pkg/logger"
)

// QualityContext carries the per-batch quality reports for one query.
// Pricing and forecast judge against the product assessment, sentiment
// against the review assessment.
type QualityContext struct {
	Products *quality.Report
	Reviews  *quality.Report
}

// For returns the report relevant to the given agent.
func (q *QualityContext) For(agent insight.AgentType) *quality.Report {
	if q == nil {
		return nil
	}
	if agent == insight.AgentSentiment {
		return q.Reviews
	}
	return q.Products
}

// Executor runs execution plans against the agent registry. Tasks within a
// parallel group start concurrently; groups run one after another. A task's
// failure or timeout never aborts its siblings.
type Executor struct {
	registry *agents.Registry
	log      *logger.Logger
}

// NewExecutor creates an executor over the given registry.
func NewExecutor(registry *agents.Registry) *Executor {
	return &Executor{
		registry: registry,
		log:      logger.Get().With("component", "executor"),
	}
}

// Execute runs the plan and returns one AgentResult per task, in no
// particular order. The error is non-nil only when every task failed;
// partial failure is reported through the individual results.
func (e *Executor) Execute(ctx context.Context, plan *ExecutionPlan, input *agents.Input, qc *QualityContext) ([]insight.AgentResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	e.log.Infof("Executing plan %s: %d tasks in %d groups (mode=%s)",
		plan.QueryID, len(plan.Tasks), len(plan.ParallelGroups), plan.Mode)

	results := make([]insight.AgentResult, 0, len(plan.Tasks))
	for _, group := range plan.ParallelGroups {
		results = append(results, e.runGroup(ctx, plan, group, input, qc)...)
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	e.log.Infof("Plan %s complete: %d/%d tasks succeeded (duration: %v)",
		plan.QueryID, succeeded, len(results), time.Since(start))

	if succeeded == 0 {
		return results, errors.Wrapf(errors.ErrAllTasksFailed, "plan %s", plan.QueryID)
	}
	return results, nil
}

// runGroup starts every task of one parallel group and waits for the whole
// group before returning.
func (e *Executor) runGroup(ctx context.Context, plan *ExecutionPlan, group []uuid.UUID, input *agents.Input, qc *QualityContext) []insight.AgentResult {
	var wg sync.WaitGroup
	ch := make(chan insight.AgentResult, len(group))

	for _, taskID := range group {
		task, ok := plan.Task(taskID)
		if !ok {
			continue // Validate already rejects this; belt and braces
		}

		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			ch <- e.runTask(ctx, t, input, qc)
		}(task)
	}

	wg.Wait()
	close(ch)

	results := make([]insight.AgentResult, 0, len(group))
	for r := range ch {
		results = append(results, r)
	}
	return results
}

// runTask drives one task through pending → running → terminal state. The
// agent call runs in its own goroutine so a stuck agent marks the task
// timed_out without holding up the group.
func (e *Executor) runTask(ctx context.Context, task Task, input *agents.Input, qc *QualityContext) insight.AgentResult {
	result := insight.AgentResult{Agent: task.Agent, State: insight.TaskPending}

	agent, ok := e.registry.Get(task.Agent)
	if !ok {
		result.State = insight.TaskFailed
		result.Error = errors.Wrapf(errors.ErrUnknownAgent, "%s", task.Agent).Error()
		return result
	}

	taskCtx, cancel := context.WithTimeout(ctx, task.Timeout)
	defer cancel()

	result.State = insight.TaskRunning
	start := time.Now()

	type outcome struct {
		payload *insight.DomainResult
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		payload, err := agent.Analyze(taskCtx, input, qc.For(task.Agent))
		done <- outcome{payload, err}
	}()

	select {
	case o := <-done:
		result.Duration = time.Since(start)
		if o.err != nil {
			e.log.Errorf("Agent %s failed: %v (duration: %v)", task.Agent, o.err, result.Duration)
			result.State = insight.TaskFailed
			result.Error = o.err.Error()
			return result
		}
		result.State = insight.TaskSucceeded
		result.Success = true
		result.Payload = o.payload
		e.log.Debugf("Agent %s completed (duration: %v)", task.Agent, result.Duration)
		return result

	case <-taskCtx.Done():
		result.Duration = time.Since(start)
		e.log.Warnf("Agent %s timed out after %v", task.Agent, task.Timeout)
		result.State = insight.TaskTimedOut
		result.Error = errors.Wrapf(errors.ErrTaskTimeout, "agent %s after %v", task.Agent, task.Timeout).Error()
		return result
	}
}
