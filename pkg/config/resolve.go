package config

import (
	"encoding/json"
	"strings"
)

// Partition is an AWS partition, the region class inferred from a region
// name's prefix. The enumeration is closed: classification always yields
// exactly one member, with PartitionAWS as the authoritative default.
type Partition string

const (
	// PartitionAWS is the standard commercial partition.
	PartitionAWS Partition = "aws"

	// PartitionChina covers cn-* regions.
	PartitionChina Partition = "aws-cn"

	// PartitionGovCloud covers us-gov-* regions.
	PartitionGovCloud Partition = "aws-us-gov"
)

// ClassifyRegion maps a region name to its partition. Prefixes are tested
// in fixed priority order; anything unmatched is the standard partition,
// so there is no fallthrough failure path.
func ClassifyRegion(region string) Partition {
	switch {
	case strings.HasPrefix(region, "cn-"):
		return PartitionChina
	case strings.HasPrefix(region, "us-gov-"):
		return PartitionGovCloud
	default:
		return PartitionAWS
	}
}

// Variable names with special meaning to the resolver.
const (
	// VarRegion is the bound region the partition is classified from.
	VarRegion = "region"

	// VarCustomNodeURL optionally points at a custom node package; when
	// set it is injected into extra_json.
	VarCustomNodeURL = "custom_node_url"

	// VarCustomCookbook optionally points at a custom Chef cookbook; the
	// template guards the custom_chef_cookbook key on its presence.
	VarCustomCookbook = "custom_cookbook"
)

// Builtin placeholder names computed by the resolver rather than bound by
// the caller.
const (
	// BuiltinPartition is the ${partition} placeholder.
	BuiltinPartition = "partition"

	// BuiltinExtraJSON is the ${extra_json} placeholder.
	BuiltinExtraJSON = "extra_json"
)

// BuiltinNames lists the resolver-computed placeholders, for excluding
// them from template-derived schemas.
func BuiltinNames() []string {
	return []string{BuiltinPartition, BuiltinExtraJSON}
}

// FeatureFlags are the optional-feature inputs to resolution. The two
// features are independent; setting both simply enables both.
type FeatureFlags struct {
	// CustomNodeURL is the custom node package location, empty when the
	// feature is off.
	CustomNodeURL string `json:"custom_node_url,omitempty"`

	// CustomCookbook is the custom Chef cookbook location, empty when the
	// feature is off.
	CustomCookbook string `json:"custom_cookbook,omitempty"`
}

// FlagsFromVars extracts the feature flags from bound variables.
func FlagsFromVars(vars map[string]string) FeatureFlags {
	return FeatureFlags{
		CustomNodeURL:  vars[VarCustomNodeURL],
		CustomCookbook: vars[VarCustomCookbook],
	}
}

// Resolve computes the builtin placeholder values for a region and feature
// set. It is a pure function: the partition depends only on the region
// prefix and extra_json only on the node-package flag.
func Resolve(region string, flags FeatureFlags) map[string]string {
	return map[string]string{
		BuiltinPartition: string(ClassifyRegion(region)),
		BuiltinExtraJSON: extraJSON(flags),
	}
}

// extraJSON renders the extra_json value. The custom_node_package field is
// present exactly when the node-package feature is on; without it the
// value is an empty object, never an empty string.
func extraJSON(flags FeatureFlags) string {
	payload := map[string]map[string]string{}
	if flags.CustomNodeURL != "" {
		payload["cluster"] = map[string]string{
			"custom_node_package": flags.CustomNodeURL,
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		// A map[string]map[string]string cannot fail to marshal.
		return "{}"
	}
	return string(data)
}
