package sampler

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/pointstruct/tensor"
)

// indexCoverage reports the fraction of distinct input points referenced by
// the grouped indices, averaged over the batch. Values near zero mean the
// sample slots piled onto few points; values near one mean the grouping
// spans the whole cloud.
func indexCoverage(grouped *tensor.Ints, numPoints int) float64 {
	batch := grouped.Dim(0)
	per := grouped.Len() / batch
	ratios := make([]float64, batch)
	marks := make([]bool, numPoints)
	for b := 0; b < batch; b++ {
		for i := range marks {
			marks[i] = false
		}
		distinct := 0
		for _, p := range grouped.Data()[b*per : (b+1)*per] {
			if !marks[p] {
				marks[p] = true
				distinct++
			}
		}
		ratios[b] = float64(distinct) / float64(numPoints)
	}
	return stat.Mean(ratios, nil)
}
