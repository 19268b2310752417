// Package factor assembles the sparse linear-algebra artifacts of the DC
// network model and factors the reduced susceptance matrix.
//
// Given a grid.Network snapshot, Build produces:
//
//   - A: the reduced (reference-bus-eliminated) susceptance matrix,
//     (n_bus−1)×(n_bus−1), delivered as a ready Factorization;
//   - BdA: the branch incidence-times-susceptance matrix,
//     n_branch×(n_bus−1), such that flow ≈ BdA·θ + constants;
//   - GdA: the loss-linearization analogue of BdA (zero under a flat
//     base point);
//   - the interface aggregation of BdA for monitored interfaces.
//
// Orientation convention: the reduced incidence vector of a branch is
// e_to − e_from, so a positive injection downstream of a radial branch
// produces a positive flow on it.
//
// The Factorization wraps gonum's dense LU and exposes forward and
// transpose solves plus a cumulative solve counter. Build is a pure
// function of the snapshot; it fails with ErrSingular when the reduced
// matrix cannot be factored (disconnected or islanded topology), which is
// fatal and propagates to the caller.
package factor
