// Package logging assembles structured slog loggers and formatting helpers
// used across the highlight pipeline.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code automatically tags
// log lines with the active run identifier and stage name. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
