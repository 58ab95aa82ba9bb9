// Package config resolves cluster-configuration templates into concrete,
// ordered section/key configurations.
//
// Resolution is split into three pure stages, matching the pipeline in
// pkg/engine: binding collects named variables against the template's
// schema, the resolver turns the bound region and optional features into
// builtin placeholder values, and the assembler evaluates guards and
// substitutes markers to produce a ResolvedConfig. Emission renders a
// ResolvedConfig back into the [section] / key = value grammar that the
// provisioning collaborator consumes.
package config
