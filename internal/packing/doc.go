// Package packing decides whether a selection releases as one compilation or
// several timed parts. The split decision is derived from the actual selected
// duration, never from the source recording's length, so a long session with
// little surviving content is not split needlessly. Parts partition the
// selection exactly and carry a premiere schedule and a generated title.
package packing
