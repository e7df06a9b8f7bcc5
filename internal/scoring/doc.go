// Package scoring assigns each candidate segment a composite interestingness
// score. Local signals rank the candidates, the top slice is batched to the
// external semantic judge (scatter/gather with bounded concurrency), and the
// final score is a weighted combination of whatever signals are available.
// Judge failures degrade affected segments to local-only scoring; they never
// abort the stage.
package scoring
