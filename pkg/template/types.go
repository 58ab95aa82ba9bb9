package template

import (
	"regexp"
	"strings"
)

// markerPattern matches ${name} substitution markers within a value.
var markerPattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Position locates a template element for error reporting.
type Position struct {
	// Source is the template source name (file path or "inline").
	Source string `json:"source"`

	// Line is the 1-indexed line number.
	Line int `json:"line"`
}

// Guard is the predicate attached to a conditional branch.
// Exactly one of RegionPrefix or Var is set; a nil *Guard is the else branch.
type Guard struct {
	// RegionPrefix selects the branch when the bound region starts with
	// this prefix (from `region ~ cn-*`).
	RegionPrefix string `json:"region_prefix,omitempty"`

	// Var selects the branch when the named variable is bound to a
	// non-empty value (from `%if custom_cookbook`).
	Var string `json:"var,omitempty"`
}

// KeyLine is a single `key = value` template line. The value may contain
// ${name} markers.
type KeyLine struct {
	Name  string   `json:"name"`
	Value string   `json:"value"`
	Pos   Position `json:"pos"`
}

// Markers returns the marker names referenced by the line's value, in order
// of appearance.
func (l KeyLine) Markers() []string {
	var names []string
	for _, m := range markerPattern.FindAllStringSubmatch(l.Value, -1) {
		names = append(names, m[1])
	}
	return names
}

// Branch is one arm of a conditional block. A nil Guard marks the else arm.
type Branch struct {
	Guard *Guard    `json:"guard,omitempty"`
	Lines []KeyLine `json:"lines"`
}

// Conditional is a %if/%elif/%else/%endif block. Branches are evaluated in
// declaration order and exactly one (or none, when every guard fails and no
// else arm exists) contributes lines to the resolved section.
type Conditional struct {
	Branches []Branch `json:"branches"`
	Pos      Position `json:"pos"`
}

// HasElse reports whether the block ends with an unguarded arm.
func (c *Conditional) HasElse() bool {
	return len(c.Branches) > 0 && c.Branches[len(c.Branches)-1].Guard == nil
}

// Entry is one element of a section body: either a plain key line or a
// conditional block. Exactly one field is non-nil.
type Entry struct {
	Key  *KeyLine     `json:"key,omitempty"`
	Cond *Conditional `json:"cond,omitempty"`
}

// SectionTemplate is a named group of entries. The header keyword is the
// section kind; an optional second token names the instance, as in
// `[cluster default]` or `[vpc parallelcluster-vpc]`.
type SectionTemplate struct {
	// Kind is the section keyword: global, aws, cluster, vpc.
	Kind string `json:"kind"`

	// Name is the instance name following the keyword, empty for
	// singleton sections like [global].
	Name string `json:"name,omitempty"`

	Entries []Entry  `json:"entries"`
	Pos     Position `json:"pos"`
}

// Header reconstructs the bracketed header text without brackets.
func (s *SectionTemplate) Header() string {
	if s.Name == "" {
		return s.Kind
	}
	return s.Kind + " " + s.Name
}

// Template is a parsed configuration template.
type Template struct {
	// Source is where the template came from.
	Source string `json:"source"`

	Sections []*SectionTemplate `json:"sections"`
}

// VarSpec describes one variable the template expects from the binder.
type VarSpec struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Default  string `json:"default,omitempty"`
}

// Placeholders returns every marker name referenced anywhere in the
// template, in first-appearance order, without duplicates.
func (t *Template) Placeholders() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(line KeyLine) {
		for _, n := range line.Markers() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	for _, sec := range t.Sections {
		for _, e := range sec.Entries {
			if e.Key != nil {
				add(*e.Key)
				continue
			}
			for _, br := range e.Cond.Branches {
				for _, line := range br.Lines {
					add(line)
				}
			}
		}
	}
	return names
}

// Schema derives the variable schema implied by the template. Markers on
// unconditional or region-guarded lines are required; markers that only
// appear under a presence guard are optional, as are the presence-guard
// variables themselves. Region guards imply a required "region" variable.
// Names listed in builtins are computed by the resolver and excluded.
func (t *Template) Schema(builtins ...string) []VarSpec {
	builtin := make(map[string]bool, len(builtins))
	for _, b := range builtins {
		builtin[b] = true
	}

	type state struct {
		required bool
		seen     bool
	}
	vars := make(map[string]*state)
	var order []string
	mark := func(name string, required bool) {
		if builtin[name] {
			return
		}
		st, ok := vars[name]
		if !ok {
			st = &state{}
			vars[name] = st
			order = append(order, name)
		}
		st.seen = true
		// Required wins over optional regardless of appearance order.
		st.required = st.required || required
	}

	for _, sec := range t.Sections {
		for _, e := range sec.Entries {
			if e.Key != nil {
				for _, n := range e.Key.Markers() {
					mark(n, true)
				}
				continue
			}
			for _, br := range e.Cond.Branches {
				presence := br.Guard != nil && br.Guard.Var != ""
				if br.Guard != nil {
					if br.Guard.Var != "" {
						mark(br.Guard.Var, false)
					} else {
						mark("region", true)
					}
				}
				for _, line := range br.Lines {
					for _, n := range line.Markers() {
						mark(n, !presence)
					}
				}
			}
		}
	}

	specs := make([]VarSpec, 0, len(order))
	for _, name := range order {
		specs = append(specs, VarSpec{Name: name, Required: vars[name].required})
	}
	return specs
}

// HasMarkers reports whether any substitution marker or conditional block
// remains in the template. A fully resolved configuration parses back into
// a template for which this is false.
func (t *Template) HasMarkers() bool {
	for _, sec := range t.Sections {
		for _, e := range sec.Entries {
			if e.Cond != nil {
				return true
			}
			if strings.Contains(e.Key.Value, "${") && markerPattern.MatchString(e.Key.Value) {
				return true
			}
		}
	}
	return false
}

// Section returns the section with the given kind and name, or nil.
func (t *Template) Section(kind, name string) *SectionTemplate {
	for _, sec := range t.Sections {
		if sec.Kind == kind && sec.Name == name {
			return sec
		}
	}
	return nil
}
