// Package stores persists validation run history.
//
// The only implementation is an embedded SQLite database (modernc.org's
// pure-Go driver, so clusterline stays cgo-free). Schema changes ship as
// embedded migrations applied with golang-migrate on startup.
//
// A run row records the template source, resolved region and partition,
// timing, and final status. Findings are stored per run in a child table
// so `clusterline history show` can replay a past report without
// re-resolving the template.
package stores
