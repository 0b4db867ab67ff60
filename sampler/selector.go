package sampler

import (
	"math"
	"math/rand"

	"github.com/banshee-data/pointstruct/tensor"
)

// gumbelEps keeps the double logarithm away from log(0).
const gumbelEps = 1e-20

// relaxedSelect draws one relaxed categorical sample per (batch, slot) row
// of q and straight-through-hardens it. The hard result is exactly one-hot
// per row and is the forward value; the soft result is the Gumbel-softmax
// distribution a gradient-carrying harness would differentiate through. The
// squashed scores serve directly as logits.
func relaxedSelect(q *tensor.Dense, temperature float64, rng *rand.Rand) (hard, soft *tensor.Dense) {
	noisy := tensor.New(q.Shape()...)
	dst := noisy.Data()
	for i, v := range q.Data() {
		u := rng.Float64()
		g := -math.Log(-math.Log(u+gumbelEps) + gumbelEps)
		dst[i] = (v + g) / temperature
	}
	soft = tensor.Softmax(noisy, q.Rank()-1)
	return onehotRows(soft), soft
}

// onehotRows returns a tensor whose rows along the last axis are one-hot at
// each row's first maximum.
func onehotRows(x *tensor.Dense) *tensor.Dense {
	m := x.Dim(x.Rank() - 1)
	rows := x.Len() / m
	out := tensor.New(x.Shape()...)
	for r := 0; r < rows; r++ {
		row := x.Data()[r*m : (r+1)*m]
		best := 0
		for i, v := range row {
			if v > row[best] {
				best = i
			}
		}
		out.Data()[r*m+best] = 1
	}
	return out
}
