// Package policy provides organizational policy evaluation for resolved
// cluster configurations using Open Policy Agent (OPA) and Rego.
//
// Policies run after structural validation succeeds: they see the fully
// resolved section map, not the template, so they can reason about the
// final values an operator would submit. Built-in policies cover
// partition restrictions, capacity hygiene, and naming conventions;
// site-specific policies are loaded from .rego or .json files.
//
// A policy package declares violations through a "deny" set:
//
//	package clusterline.policies.capacity
//
//	import rego.v1
//
//	deny contains violation if {
//		to_number(input.sections["cluster default"].max_queue_size) > 100
//		violation := {
//			"message": "queue larger than 100 instances needs a capacity review",
//			"severity": "warning",
//		}
//	}
//
// Each element of the set is either a plain string message or an object
// with message, severity, and section keys. Violations at error severity
// mark the evaluation as not allowed.
package policy
