// Package segment defines the candidate time windows flowing through the
// highlight pipeline and the Selection aggregate produced by clip selection.
package segment
