package validate

import (
	"fmt"
	"time"
)

// Kind classifies a validation finding.
type Kind string

const (
	// KindReference is a dangling cross-section reference.
	KindReference Kind = "reference"

	// KindEnum is a value outside its allowed enumeration.
	KindEnum Kind = "enum"

	// KindRange is a numeric value outside provider bounds, or not a
	// number at all.
	KindRange Kind = "range"

	// KindFormat is a value failing a lexical pattern (resource IDs,
	// ARNs, URIs, embedded JSON).
	KindFormat Kind = "format"

	// KindPolicy is an organizational policy violation merged in from
	// the policy engine.
	KindPolicy Kind = "policy"
)

// Severity grades a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding is a single validation result.
type Finding struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`

	// Section is the header of the section the finding applies to.
	Section string `json:"section,omitempty"`

	// Field is the offending key within the section.
	Field string `json:"field,omitempty"`

	Message string `json:"message"`
}

// String renders the finding for human output.
func (f Finding) String() string {
	loc := f.Field
	if f.Section != "" && f.Field != "" {
		loc = fmt.Sprintf("[%s] %s", f.Section, f.Field)
	} else if f.Section != "" {
		loc = fmt.Sprintf("[%s]", f.Section)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s", f.Kind, loc, f.Message)
}

// Report is the outcome of validating one configuration. A report is
// always produced; findings are accumulated, never short-circuited, so an
// empty Errors slice is the signal that the configuration is safe to hand
// to provisioning.
type Report struct {
	// Source names the validated configuration.
	Source string `json:"source"`

	GeneratedAt time.Time `json:"generated_at"`

	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

// Valid reports whether the configuration passed with no errors.
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

// ErrorsOfKind returns the error findings with the given kind.
func (r *Report) ErrorsOfKind(kind Kind) []Finding {
	var out []Finding
	for _, f := range r.Errors {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

func (r *Report) addError(kind Kind, section, field, format string, args ...interface{}) {
	r.Errors = append(r.Errors, Finding{
		Kind:     kind,
		Severity: SeverityError,
		Section:  section,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (r *Report) addWarning(severity Severity, kind Kind, section, field, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, Finding{
		Kind:     kind,
		Severity: severity,
		Section:  section,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}
