package job

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks an analysis job through its lifecycle
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// AnalysisJob records the status of one pipeline query.
// Jobs live in an explicit store keyed by job id; nothing holds them in
// package-level state.
type AnalysisJob struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	QueryText string    `json:"query_text"`
	Status    Status    `json:"status"`
	ReportID  uuid.UUID `json:"report_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
