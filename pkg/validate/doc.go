// Package validate performs structural and lexical validation of resolved
// cluster configurations: referential integrity between sections, value
// enumerations, numeric bounds, and resource-ID and ARN formats.
//
// Validation is purely local. It never calls the cloud provider; whether a
// referenced subnet or AMI actually exists is the provisioning system's
// concern. All findings are accumulated into a single report so a user can
// fix every problem in one pass.
package validate
