// Package engine orchestrates the resolution pipeline: variable binding,
// conditional resolution, section assembly, and cross-reference
// validation, in that order, over one immutable input snapshot.
//
// A pipeline run is a pure computation apart from telemetry: it reads its
// own input and allocates its own output, so independent runs are safe to
// execute concurrently. BatchScheduler does exactly that for many
// templates at once, with each failure isolated to its own task.
package engine
