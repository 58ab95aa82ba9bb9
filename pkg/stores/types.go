package stores

import (
	"time"
)

// RunStatus represents the lifecycle state of a validation run.
type RunStatus string

const (
	// RunStatusRunning means the pipeline is still executing.
	RunStatusRunning RunStatus = "running"

	// RunStatusValid means the run completed with zero error findings.
	RunStatusValid RunStatus = "valid"

	// RunStatusInvalid means the run completed with error findings.
	RunStatusInvalid RunStatus = "invalid"

	// RunStatusFailed means the pipeline aborted before a report was
	// produced (parse, bind, or assemble failure).
	RunStatusFailed RunStatus = "failed"
)

// ValidationRun is one recorded pipeline execution.
type ValidationRun struct {
	// ID is the run's UUID, shared with telemetry and logs.
	ID string `json:"id"`

	// Source names the template that was validated.
	Source string `json:"source"`

	// Region and Partition are the resolved deployment target, empty
	// when binding failed before resolution.
	Region    string `json:"region,omitempty"`
	Partition string `json:"partition,omitempty"`

	Status RunStatus `json:"status"`

	// Error holds the pipeline error message for failed runs.
	Error *string `json:"error,omitempty"`

	// ErrorCount and WarningCount summarize the report without loading
	// findings.
	ErrorCount   int `json:"error_count"`
	WarningCount int `json:"warning_count"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// FindingRecord is one persisted validation finding.
type FindingRecord struct {
	ID       int64  `json:"id"`
	RunID    string `json:"run_id"`
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Section  string `json:"section,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}
