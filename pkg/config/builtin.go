package config

import (
	_ "embed"

	"github.com/clusterline/clusterline/pkg/template"
)

// builtinTemplate is the stock single-cluster template shipped with the
// tool, in the provisioning tool's own grammar.
//
//go:embed cluster.ini.tmpl
var builtinTemplate []byte

// BuiltinTemplateSource is the source name reported for the embedded
// reference template.
const BuiltinTemplateSource = "builtin:cluster"

// BuiltinTemplate parses the embedded reference template.
func BuiltinTemplate() (*template.Template, error) {
	return template.Parse(BuiltinTemplateSource, builtinTemplate)
}

// SchemaForTemplate derives the binder schema for a template. Beyond the
// markers the template itself references, resolution needs the region
// whenever a builtin placeholder is involved, and accepts the optional
// node-package variable whenever ${extra_json} is used, since that
// variable reaches the output only through the resolver.
func SchemaForTemplate(tpl *template.Template) []template.VarSpec {
	specs := tpl.Schema(BuiltinNames()...)

	usesPartition := false
	usesExtraJSON := false
	for _, name := range tpl.Placeholders() {
		switch name {
		case BuiltinPartition:
			usesPartition = true
		case BuiltinExtraJSON:
			usesExtraJSON = true
		}
	}

	if usesPartition || usesExtraJSON {
		specs = ensureVar(specs, VarRegion, true)
	}
	if usesExtraJSON {
		specs = ensureVar(specs, VarCustomNodeURL, false)
	}
	return specs
}

// ensureVar adds the variable to the schema, or upgrades it to required.
func ensureVar(specs []template.VarSpec, name string, required bool) []template.VarSpec {
	for i := range specs {
		if specs[i].Name == name {
			specs[i].Required = specs[i].Required || required
			return specs
		}
	}
	return append(specs, template.VarSpec{Name: name, Required: required})
}
