package sampler

import (
	"github.com/banshee-data/pointstruct/tensor"
)

// refineByRadius rebuilds grouped indices so that neighbors farther than
// radius from their slot's anchor collapse to the anchor index itself, the
// padding-by-repetition policy of a ball query. The anchor is each slot's
// rank-0 point. Inputs are never mutated.
//
// The squared-distance comparison is the inclusion rule; any other per-point
// predicate can replace it while keeping the collapse policy.
func refineByRadius(coords *tensor.Dense, sampledIdx, groupedIdx *tensor.Ints, radius float64) *tensor.Ints {
	batch, slots, n := groupedIdx.Dim(0), groupedIdx.Dim(1), groupedIdx.Dim(2)
	anchors := tensor.Gather(coords, sampledIdx)   // (B, s, 3)
	neighbors := tensor.Gather(coords, groupedIdx) // (B, s, n, 3)

	out := groupedIdx.Clone()
	r2 := radius * radius
	for b := 0; b < batch; b++ {
		for s := 0; s < slots; s++ {
			ax := anchors.At(b, s, 0)
			ay := anchors.At(b, s, 1)
			az := anchors.At(b, s, 2)
			anchor := sampledIdx.At(b, s)
			for j := 0; j < n; j++ {
				dx := neighbors.At(b, s, j, 0) - ax
				dy := neighbors.At(b, s, j, 1) - ay
				dz := neighbors.At(b, s, j, 2) - az
				if dx*dx+dy*dy+dz*dz > r2 {
					out.Set(anchor, b, s, j)
				}
			}
		}
	}
	return out
}
