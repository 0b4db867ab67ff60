// Package sampler implements learnable point-cloud subsampling: given a
// batch of dense point sets, it produces a reduced set of sampled points
// plus, for each sampled point, a local neighborhood of grouped points.
//
// Responsibilities: per-point score generation through a shared feature
// transform, soft-to-hard selection via a straight-through relaxed
// categorical draw, top-k neighborhood grouping, and the variant-specific
// refinements (radius query, multi-scale slicing).
// Key types: Net, Config, Result.
//
// The package is forward-only. Training-mode calls return both the hard
// one-hot selection used for the forward value and the soft relaxed sample
// a gradient-carrying harness would differentiate through; parameter
// updates are the harness's concern.
package sampler
