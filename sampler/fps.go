package sampler

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/banshee-data/pointstruct/tensor"
)

// FarthestPoint selects k spread-out point indices per batch element by
// iterative farthest-point selection, the classic heuristic subsampler this
// package's learnable scoring replaces. It is kept as a comparison baseline.
//
// The walk starts at a point drawn from rng (index 0 when rng is nil) and
// repeatedly adds the point farthest from everything chosen so far. Batch
// elements are independent and run concurrently.
func FarthestPoint(coords *tensor.Dense, k int, rng *rand.Rand) (*tensor.Ints, error) {
	if coords == nil || coords.Rank() != 3 || coords.Dim(2) != 3 {
		return nil, fmt.Errorf("coordinates must have shape (batch, points, 3)")
	}
	batch, m := coords.Dim(0), coords.Dim(1)
	if k <= 0 || k > m {
		return nil, fmt.Errorf("farthest-point count %d out of range for %d points", k, m)
	}

	// Draw all start indices before fanning out so results do not depend on
	// goroutine scheduling.
	starts := make([]int, batch)
	if rng != nil {
		for b := range starts {
			starts[b] = rng.Intn(m)
		}
	}

	out := tensor.NewInts(batch, k)
	var wg sync.WaitGroup
	for b := 0; b < batch; b++ {
		wg.Add(1)
		go func(b int) {
			defer wg.Done()
			pts := coords.Data()[b*m*3 : (b+1)*m*3]
			idx := out.Data()[b*k : (b+1)*k]
			minDist := make([]float64, m)
			for i := range minDist {
				minDist[i] = math.MaxFloat64
			}
			cur := starts[b]
			for step := 0; step < k; step++ {
				idx[step] = cur
				cx, cy, cz := pts[cur*3], pts[cur*3+1], pts[cur*3+2]
				next, far := cur, -1.0
				for p := 0; p < m; p++ {
					dx := pts[p*3] - cx
					dy := pts[p*3+1] - cy
					dz := pts[p*3+2] - cz
					if d := dx*dx + dy*dy + dz*dz; d < minDist[p] {
						minDist[p] = d
					}
					if minDist[p] > far {
						next, far = p, minDist[p]
					}
				}
				cur = next
			}
		}(b)
	}
	wg.Wait()
	return out, nil
}
