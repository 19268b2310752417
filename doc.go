// Package gridsense computes linear sensitivities of DC transmission
// network models: PTDF rows, contingency-compensated rows, loss factors,
// and flow and LMP evaluations, the quantities a lazy-constraint
// transmission optimizer asks for between solves.
//
// Everything is organized under three subpackages:
//
//	grid/   - validated network snapshots, entity types & index bijections
//	factor/ - sparse matrices, reduced susceptance assembly & LU solves
//	sensi/  - the sensitivity engine: row caches, compensators, limits,
//	          flow/loss/LMP evaluators
//
// Typical flow: freeze a grid.Network from your case data, build one
// sensi.Engine per optimization solve, then query rows and bulk
// evaluations as the constraint loop demands them. See the sensi package
// examples.
package gridsense
