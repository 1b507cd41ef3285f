package pipeline

import (
	"time"

	"github.com/google/uuid"

	"meridian/internal/domain/insight"
	"meridian/pkg/errors"
)

// Mode selects how much work a query is worth
type Mode string

const (
	ModeQuick Mode = "quick"
	ModeDeep  Mode = "deep"
)

// Task is one agent invocation inside a plan
type Task struct {
	ID      uuid.UUID         `json:"id"`
	Agent   insight.AgentType `json:"agent"`
	Timeout time.Duration     `json:"timeout"`
}

// ExecutionPlan is the ordered, grouped set of agent tasks for one query.
// Built once by the reasoning engine and read-only during execution.
type ExecutionPlan struct {
	QueryID           uuid.UUID     `json:"query_id"`
	QueryText         string        `json:"query_text"`
	Intent            Intent        `json:"intent"`
	Mode              Mode          `json:"mode"`
	Tasks             []Task        `json:"tasks"`
	ParallelGroups    [][]uuid.UUID `json:"parallel_groups"`
	EstimatedDuration time.Duration `json:"estimated_duration"`
}

// Task returns the task with the given id.
func (p *ExecutionPlan) Task(id uuid.UUID) (Task, bool) {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Validate checks the plan's internal consistency: at least one task, every
// agent known and appearing in exactly one task, and the parallel groups
// forming an exact partition of the task set.
func (p *ExecutionPlan) Validate() error {
	if len(p.Tasks) == 0 {
		return errors.Wrapf(errors.ErrPlanRejected, "plan %s has no tasks", p.QueryID)
	}

	seenAgents := make(map[insight.AgentType]bool, len(p.Tasks))
	taskIDs := make(map[uuid.UUID]bool, len(p.Tasks))
	for _, t := range p.Tasks {
		if !t.Agent.Valid() {
			return errors.Wrapf(errors.ErrUnknownAgent, "plan %s task %s references agent %q", p.QueryID, t.ID, t.Agent)
		}
		if seenAgents[t.Agent] {
			return errors.Wrapf(errors.ErrPlanRejected, "plan %s has duplicate tasks for agent %s", p.QueryID, t.Agent)
		}
		if t.Timeout <= 0 {
			return errors.Wrapf(errors.ErrPlanRejected, "plan %s task %s has no timeout", p.QueryID, t.ID)
		}
		seenAgents[t.Agent] = true
		taskIDs[t.ID] = true
	}

	grouped := make(map[uuid.UUID]bool, len(p.Tasks))
	for _, group := range p.ParallelGroups {
		for _, id := range group {
			if !taskIDs[id] {
				return errors.Wrapf(errors.ErrPlanRejected, "plan %s group references unknown task %s", p.QueryID, id)
			}
			if grouped[id] {
				return errors.Wrapf(errors.ErrPlanRejected, "plan %s task %s appears in multiple groups", p.QueryID, id)
			}
			grouped[id] = true
		}
	}
	if len(grouped) != len(p.Tasks) {
		return errors.Wrapf(errors.ErrPlanRejected, "plan %s groups cover %d of %d tasks", p.QueryID, len(grouped), len(p.Tasks))
	}

	return nil
}
