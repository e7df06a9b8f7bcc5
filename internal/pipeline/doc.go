// Package pipeline orchestrates one highlight compilation run: load scored
// segment candidates, score them (cache-checked), select clips, pack parts,
// and write the resulting metadata under a run-scoped output directory. Every
// run executes under the single-flight coordinator and is recorded in the run
// history store.
package pipeline
