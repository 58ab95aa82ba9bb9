package policy

import (
	"time"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for warnings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for violations that should block the configuration.
	SeverityError Severity = "error"
)

// Policy represents a policy rule with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// Metadata contains additional policy metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Violation represents a single policy violation.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// Section is the configuration section header the violation
	// refers to, when the policy names one.
	Section string `json:"section,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`

	// DetectedAt is when the violation was detected.
	DetectedAt time.Time `json:"detected_at"`
}

// Result represents the outcome of evaluating all enabled policies
// against one resolved configuration.
type Result struct {
	// Allowed indicates whether any error-severity violation fired.
	Allowed bool `json:"allowed"`

	// Violations lists error-severity violations.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists warning- and info-severity violations.
	Warnings []Violation `json:"warnings,omitempty"`

	// EvaluatedPolicies lists the names of policies that were evaluated.
	EvaluatedPolicies []string `json:"evaluated_policies"`

	// EvaluatedAt is when the evaluation occurred.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// Duration is how long the evaluation took.
	Duration time.Duration `json:"duration"`
}

// Input is the document handed to Rego as input.
type Input struct {
	// Sections holds the resolved configuration keyed by section
	// header, e.g. "cluster default" -> {"scheduler": "slurm"}.
	Sections map[string]map[string]string `json:"sections"`

	// Context carries evaluation metadata the policies can branch on.
	Context *Context `json:"context"`
}

// Context provides metadata for policy evaluation.
type Context struct {
	// Region is the resolved aws_region_name, if any.
	Region string `json:"region,omitempty"`

	// Partition is the region class derived from Region.
	Partition string `json:"partition,omitempty"`

	// Source identifies the template the configuration came from.
	Source string `json:"source,omitempty"`

	// Timestamp is when the evaluation is occurring.
	Timestamp time.Time `json:"timestamp"`
}
