package engine

import (
	"errors"
	"fmt"

	"github.com/clusterline/clusterline/pkg/config"
	"github.com/clusterline/clusterline/pkg/template"
)

// Phase names a pipeline stage for error attribution.
type Phase string

const (
	// PhaseBind is variable binding.
	PhaseBind Phase = "bind"

	// PhaseAssemble covers template parsing and section assembly; a
	// malformed template surfaces here.
	PhaseAssemble Phase = "assemble"

	// PhaseValidate is cross-reference validation. Findings are report
	// data, not errors; this phase only errors on internal failure.
	PhaseValidate Phase = "validate"

	// PhaseEmit is rendering the resolved configuration.
	PhaseEmit Phase = "emit"
)

// PipelineError attributes a failure to a pipeline phase. Bind and
// assemble failures carry exactly one underlying cause: those phases stop
// at the first error because a malformed input cannot be meaningfully
// continued.
type PipelineError struct {
	// Phase is the stage that failed.
	Phase Phase `json:"phase"`

	// Message is the human-readable summary.
	Message string `json:"message"`

	// Err is the underlying cause.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Phase, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Phase, e.Message)
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

func newPhaseError(phase Phase, message string, err error) *PipelineError {
	return &PipelineError{Phase: phase, Message: message, Err: err}
}

// PhaseOf extracts the failing phase from an error chain.
func PhaseOf(err error) (Phase, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Phase, true
	}
	return "", false
}

// IsBindError reports whether the failure came from variable binding.
func IsBindError(err error) bool {
	var be *config.BindError
	return errors.As(err, &be)
}

// IsAssembleError reports whether the failure came from template parsing
// or assembly.
func IsAssembleError(err error) bool {
	var ae *config.AssembleError
	if errors.As(err, &ae) {
		return true
	}
	var pe *template.ParseError
	return errors.As(err, &pe)
}
