package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clusterline/clusterline/pkg/template"
)

// EnvVarPrefix is the prefix for environment-sourced variables:
// CLUSTERLINE_VAR_REGION binds the variable "region".
const EnvVarPrefix = "CLUSTERLINE_VAR_"

// Bind resolves raw inputs against a variable schema. For each schema
// entry the raw input wins, then the declared default; a required variable
// with neither fails immediately with a BindError. Raw inputs naming
// variables outside the schema are ignored: callers merge broad sources
// (CLUSTERLINE_VAR_* environment, shared profiles) that legitimately carry
// bindings a given template never uses.
func Bind(raw map[string]string, schema []template.VarSpec) (map[string]string, error) {
	bound := make(map[string]string, len(schema))

	for _, spec := range schema {
		if v, ok := raw[spec.Name]; ok && v != "" {
			bound[spec.Name] = v
			continue
		}
		if spec.Default != "" {
			bound[spec.Name] = spec.Default
			continue
		}
		if spec.Required {
			return nil, &BindError{
				Kind:    BindMissingRequired,
				Name:    spec.Name,
				Message: fmt.Sprintf("required variable %q is not set", spec.Name),
			}
		}
	}

	return bound, nil
}

// VarsFile is the on-disk shape of a variables profile.
type VarsFile struct {
	// Variables are name -> value bindings.
	Variables map[string]string `yaml:"variables"`

	// Defaults are applied only when neither the file's variables nor a
	// higher-precedence source binds the name.
	Defaults map[string]string `yaml:"defaults,omitempty"`
}

// LoadVarsFile reads a YAML variables profile.
func LoadVarsFile(path string) (*VarsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vars file %s: %w", path, err)
	}
	var vf VarsFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("failed to parse vars file %s: %w", path, err)
	}
	return &vf, nil
}

// EnvVars extracts CLUSTERLINE_VAR_* bindings from an environment in the
// os.Environ() form. Names are lowercased: CLUSTERLINE_VAR_KEY_NAME binds
// "key_name".
func EnvVars(environ []string) map[string]string {
	out := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvVarPrefix) {
			continue
		}
		out[strings.ToLower(strings.TrimPrefix(name, EnvVarPrefix))] = value
	}
	return out
}

// MergeRawVars layers variable sources in increasing precedence: vars-file
// defaults, vars-file variables, environment, explicit flags. Empty values
// do not override earlier non-empty ones.
func MergeRawVars(file *VarsFile, env, flags map[string]string) map[string]string {
	merged := make(map[string]string)
	layer := func(src map[string]string) {
		for k, v := range src {
			if v != "" {
				merged[k] = v
			}
		}
	}
	if file != nil {
		layer(file.Defaults)
		layer(file.Variables)
	}
	layer(env)
	layer(flags)
	return merged
}
