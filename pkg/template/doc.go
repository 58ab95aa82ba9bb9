// Package template models parameterized cluster-configuration templates.
// A template is an ordered sequence of sections ([global], [aws],
// [cluster <name>], [vpc <name>]) whose key = value lines may contain
// ${name} substitution markers and may be guarded by %if/%elif/%else/%endif
// blocks. Guards test either the region prefix (region ~ us-gov-*) or the
// presence of an optional variable (custom_cookbook).
//
// The package only parses and inspects templates; substitution and guard
// evaluation live in pkg/config.
package template
