// Package runcoord enforces single-flight pipeline execution. It owns the
// Idle/Running state machine, issues the run identity every stage log line
// and artifact is tagged with, aggregates per-stage timings, and holds a file
// lock so only one process can run the pipeline against a state directory.
package runcoord
