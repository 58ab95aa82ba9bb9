package policy

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		govPartitionPolicy(),
		spotPricingPolicy(),
		sectionNamingPolicy(),
		capacityHygienePolicy(),
	}
}

// govPartitionPolicy restricts GovCloud clusters to hardened settings.
func govPartitionPolicy() Policy {
	return Policy{
		Name:        "gov-partition-restrictions",
		Description: "Restricts clusters in the aws-us-gov partition to private networking and approved operating systems",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"partition", "compliance"},
		Rego: `package clusterline.policies.gov

import rego.v1

approved_gov_os := ["alinux2", "centos7", "centos8"]

deny contains violation if {
	input.context.partition == "aws-us-gov"
	some header, section in input.sections
	startswith(header, "cluster ")

	section.use_public_ips == "true"
	violation := {
		"message": sprintf("section [%s]: public instance IPs are not permitted in the aws-us-gov partition", [header]),
		"severity": "error",
		"section": header,
	}
}

deny contains violation if {
	input.context.partition == "aws-us-gov"
	some header, section in input.sections
	startswith(header, "cluster ")

	os := section.base_os
	not os in approved_gov_os
	violation := {
		"message": sprintf("section [%s]: base_os '%s' is not approved for the aws-us-gov partition", [header, os]),
		"severity": "error",
		"section": header,
	}
}`,
	}
}

// spotPricingPolicy flags spot settings that contradict the cluster type.
func spotPricingPolicy() Policy {
	return Policy{
		Name:        "spot-pricing",
		Description: "Flags spot_price settings on on-demand clusters and missing bids on spot clusters",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"cost", "capacity"},
		Rego: `package clusterline.policies.spot

import rego.v1

deny contains violation if {
	some header, section in input.sections
	startswith(header, "cluster ")

	section.spot_price
	section.cluster_type != "spot"
	violation := {
		"message": sprintf("section [%s]: spot_price is ignored unless cluster_type is 'spot'", [header]),
		"severity": "warning",
		"section": header,
	}
}

deny contains violation if {
	some header, section in input.sections
	startswith(header, "cluster ")

	section.cluster_type == "spot"
	not section.spot_price
	violation := {
		"message": sprintf("section [%s]: spot cluster without spot_price bids at the on-demand price cap", [header]),
		"severity": "info",
		"section": header,
	}
}`,
	}
}

// sectionNamingPolicy enforces naming conventions on named sections.
func sectionNamingPolicy() Policy {
	return Policy{
		Name:        "section-naming",
		Description: "Enforces lowercase alphanumeric-and-hyphen names on cluster and vpc sections",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"naming", "conventions"},
		Rego: `package clusterline.policies.naming

import rego.v1

named_kinds := ["cluster", "vpc", "ebs", "efs", "scaling"]

deny contains violation if {
	some header, _ in input.sections
	parts := split(header, " ")
	count(parts) == 2
	parts[0] in named_kinds

	name := parts[1]
	not regex.match("^[a-z0-9][a-z0-9-]*[a-z0-9]$", name)
	violation := {
		"message": sprintf("section [%s]: name '%s' must be lowercase letters, digits, and interior hyphens", [header, name]),
		"severity": "error",
		"section": header,
	}
}

deny contains violation if {
	some header, _ in input.sections
	parts := split(header, " ")
	count(parts) == 2
	parts[0] in named_kinds

	count(parts[1]) > 30
	violation := {
		"message": sprintf("section [%s]: name exceeds 30 characters", [header]),
		"severity": "error",
		"section": header,
	}
}`,
	}
}

// capacityHygienePolicy reviews fleet sizing on resolved clusters.
func capacityHygienePolicy() Policy {
	return Policy{
		Name:        "capacity-hygiene",
		Description: "Warns about fleet sizes that need a capacity review before submission",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"capacity", "cost"},
		Rego: `package clusterline.policies.capacity

import rego.v1

max_reviewed_queue := 100

deny contains violation if {
	some header, section in input.sections
	startswith(header, "cluster ")

	to_number(section.max_queue_size) > max_reviewed_queue
	violation := {
		"message": sprintf("section [%s]: max_queue_size %s exceeds %d and needs a capacity review", [header, section.max_queue_size, max_reviewed_queue]),
		"severity": "warning",
		"section": header,
	}
}

deny contains violation if {
	some header, section in input.sections
	startswith(header, "cluster ")

	section.maintain_initial_size == "true"
	to_number(section.initial_queue_size) == 0
	violation := {
		"message": sprintf("section [%s]: maintain_initial_size has no effect with an initial_queue_size of 0", [header]),
		"severity": "info",
		"section": header,
	}
}`,
	}
}
