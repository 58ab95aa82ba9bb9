package config

import (
	"fmt"
	"strings"

	"github.com/clusterline/clusterline/pkg/template"
)

// Assemble evaluates a template against bound variables and builtin
// placeholder values, producing the resolved configuration. Section and
// key order follow the template. The first failure (duplicate key,
// unresolvable marker) aborts assembly.
func Assemble(tpl *template.Template, vars, builtins map[string]string) (*ResolvedConfig, error) {
	values := make(map[string]string, len(vars)+len(builtins))
	for k, v := range vars {
		values[k] = v
	}
	for k, v := range builtins {
		values[k] = v
	}
	region := vars[VarRegion]

	cfg := &ResolvedConfig{Source: tpl.Source}
	for _, st := range tpl.Sections {
		sec := NewSection(st.Kind, st.Name)
		for _, entry := range st.Entries {
			for _, line := range selectLines(entry, region, vars) {
				value, err := substitute(line, sec.Header(), values)
				if err != nil {
					return nil, err
				}
				if err := sec.Append(line.Name, value); err != nil {
					return nil, err
				}
			}
		}
		cfg.Sections = append(cfg.Sections, sec)
	}
	return cfg, nil
}

// selectLines picks the lines an entry contributes: a plain key line as
// is, a conditional's first matching branch. With no match and no else arm
// the block contributes nothing; the implicit else is empty.
func selectLines(entry template.Entry, region string, vars map[string]string) []template.KeyLine {
	if entry.Key != nil {
		return []template.KeyLine{*entry.Key}
	}
	for _, br := range entry.Cond.Branches {
		if guardHolds(br.Guard, region, vars) {
			return br.Lines
		}
	}
	return nil
}

// guardHolds evaluates one branch guard. nil is the else arm and always
// holds.
func guardHolds(g *template.Guard, region string, vars map[string]string) bool {
	switch {
	case g == nil:
		return true
	case g.RegionPrefix != "":
		return strings.HasPrefix(region, g.RegionPrefix)
	default:
		return vars[g.Var] != ""
	}
}

// substitute replaces every ${name} marker in the line's value. Binding is
// checked upstream, so a missing value here means the template references
// a marker outside its own schema.
func substitute(line template.KeyLine, section string, values map[string]string) (string, error) {
	result := line.Value
	for _, name := range line.Markers() {
		v, ok := values[name]
		if !ok {
			return "", &AssembleError{
				Kind:    AssembleUnresolvedMarker,
				Section: section,
				Key:     line.Name,
				Message: fmt.Sprintf("%s:%d: no value for marker ${%s} in key %q",
					line.Pos.Source, line.Pos.Line, name, line.Name),
			}
		}
		result = strings.ReplaceAll(result, "${"+name+"}", v)
	}
	return result, nil
}
