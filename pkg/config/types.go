package config

import (
	"fmt"
)

// Section kinds appearing in cluster configurations.
const (
	SectionGlobal  = "global"
	SectionAWS     = "aws"
	SectionCluster = "cluster"
	SectionVPC     = "vpc"
)

// Keys with cross-section or provider-level meaning.
const (
	KeyClusterTemplate = "cluster_template"
	KeyVPCSettings     = "vpc_settings"
	KeyRegionName      = "aws_region_name"
)

// KV is one resolved key/value pair. Order within a section is the
// template's declaration order.
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Section is a named group of resolved settings. Keys are unique within a
// section.
type Section struct {
	// Kind is the section keyword (global, aws, cluster, vpc).
	Kind string `json:"kind"`

	// Name is the instance name, empty for singleton sections.
	Name string `json:"name,omitempty"`

	keys  []KV
	index map[string]int
}

// NewSection creates an empty section.
func NewSection(kind, name string) *Section {
	return &Section{Kind: kind, Name: name, index: make(map[string]int)}
}

// Header returns the section header text without brackets.
func (s *Section) Header() string {
	if s.Name == "" {
		return s.Kind
	}
	return s.Kind + " " + s.Name
}

// Append adds a key, rejecting duplicates within the section.
func (s *Section) Append(key, value string) error {
	if _, exists := s.index[key]; exists {
		return &AssembleError{
			Kind:    AssembleDuplicateKey,
			Section: s.Header(),
			Key:     key,
			Message: fmt.Sprintf("key %q appears twice in section [%s]", key, s.Header()),
		}
	}
	s.index[key] = len(s.keys)
	s.keys = append(s.keys, KV{Key: key, Value: value})
	return nil
}

// Get returns the value for a key and whether it is present.
func (s *Section) Get(key string) (string, bool) {
	i, ok := s.index[key]
	if !ok {
		return "", false
	}
	return s.keys[i].Value, true
}

// Keys returns the section's pairs in declaration order. The returned
// slice must not be mutated.
func (s *Section) Keys() []KV {
	return s.keys
}

// Len returns the number of keys in the section.
func (s *Section) Len() int {
	return len(s.keys)
}

// ResolvedConfig is a fully resolved configuration: an ordered sequence of
// sections with no remaining substitution markers. The active cluster is
// whichever [cluster <name>] section global.cluster_template points at;
// the reference is checked by pkg/validate, not here.
type ResolvedConfig struct {
	// Source names the template this configuration was resolved from.
	Source string `json:"source"`

	Sections []*Section `json:"sections"`
}

// Section returns the section with the given kind and name, or nil.
func (c *ResolvedConfig) Section(kind, name string) *Section {
	for _, s := range c.Sections {
		if s.Kind == kind && s.Name == name {
			return s
		}
	}
	return nil
}

// SectionsOfKind returns every section of the given kind in order.
func (c *ResolvedConfig) SectionsOfKind(kind string) []*Section {
	var out []*Section
	for _, s := range c.Sections {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// ActiveClusterName returns global.cluster_template, or "" when the global
// section or the key is missing.
func (c *ResolvedConfig) ActiveClusterName() string {
	global := c.Section(SectionGlobal, "")
	if global == nil {
		return ""
	}
	name, _ := global.Get(KeyClusterTemplate)
	return name
}

// ActiveCluster resolves the active-cluster pointer, returning nil when it
// dangles.
func (c *ResolvedConfig) ActiveCluster() *Section {
	name := c.ActiveClusterName()
	if name == "" {
		return nil
	}
	return c.Section(SectionCluster, name)
}

// Map flattens the configuration into header -> key -> value. Ordering is
// lost; intended for policy input and comparisons in tests.
func (c *ResolvedConfig) Map() map[string]map[string]string {
	out := make(map[string]map[string]string, len(c.Sections))
	for _, s := range c.Sections {
		kv := make(map[string]string, len(s.keys))
		for _, pair := range s.keys {
			kv[pair.Key] = pair.Value
		}
		out[s.Header()] = kv
	}
	return out
}

// BindErrorKind classifies binder failures.
type BindErrorKind string

const (
	// BindMissingRequired means a required variable had no input and no
	// default.
	BindMissingRequired BindErrorKind = "missing_required"
)

// BindError reports the first variable-binding failure. Binding stops at
// the first error.
type BindError struct {
	Kind    BindErrorKind `json:"kind"`
	Name    string        `json:"name"`
	Message string        `json:"message"`
}

// Error implements the error interface.
func (e *BindError) Error() string {
	return e.Message
}

// AssembleErrorKind classifies assembly failures.
type AssembleErrorKind string

const (
	// AssembleDuplicateKey means a key appeared twice within one section.
	AssembleDuplicateKey AssembleErrorKind = "duplicate_key"

	// AssembleUnresolvedMarker means a ${name} marker had no bound value.
	AssembleUnresolvedMarker AssembleErrorKind = "unresolved_marker"
)

// AssembleError reports the first template-assembly failure.
type AssembleError struct {
	Kind    AssembleErrorKind `json:"kind"`
	Section string            `json:"section,omitempty"`
	Key     string            `json:"key,omitempty"`
	Message string            `json:"message"`
}

// Error implements the error interface.
func (e *AssembleError) Error() string {
	return e.Message
}
