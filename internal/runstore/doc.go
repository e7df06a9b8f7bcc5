// Package runstore persists the history of pipeline runs in a SQLite
// database under the state directory. Each completed run records its
// identity, outcome, selection statistics, and per-stage timings so past
// compilations can be inspected from the CLI.
package runstore
