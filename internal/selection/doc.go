// Package selection picks the duration- and spacing-constrained subset of
// scored segments that maximizes total interest: greedy accept in score order
// with overlap suppression, a gap-merge pass for perceived continuity, and a
// single bounded threshold-relaxation retry when too little content survives.
package selection
