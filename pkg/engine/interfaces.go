package engine

import (
	"context"

	"github.com/clusterline/clusterline/pkg/config"
	"github.com/clusterline/clusterline/pkg/template"
	"github.com/clusterline/clusterline/pkg/validate"
)

// Binder collects named variables against a template's schema.
type Binder interface {
	Bind(raw map[string]string, schema []template.VarSpec) (map[string]string, error)
}

// Resolver computes the builtin placeholder values from the bound region
// and feature flags.
type Resolver interface {
	Resolve(region string, flags config.FeatureFlags) map[string]string
}

// Assembler merges resolved values into ordered sections.
type Assembler interface {
	Assemble(tpl *template.Template, vars, builtins map[string]string) (*config.ResolvedConfig, error)
}

// Validator produces the validation report for a resolved configuration.
// Implementations must accumulate findings rather than short-circuit.
type Validator interface {
	Validate(ctx context.Context, cfg *config.ResolvedConfig) *validate.Report
}

// The default implementations delegate to the pure functions in
// pkg/config; they exist so tests can substitute a stage.

type stdBinder struct{}

func (stdBinder) Bind(raw map[string]string, schema []template.VarSpec) (map[string]string, error) {
	return config.Bind(raw, schema)
}

type stdResolver struct{}

func (stdResolver) Resolve(region string, flags config.FeatureFlags) map[string]string {
	return config.Resolve(region, flags)
}

type stdAssembler struct{}

func (stdAssembler) Assemble(tpl *template.Template, vars, builtins map[string]string) (*config.ResolvedConfig, error) {
	return config.Assemble(tpl, vars, builtins)
}
