package sampler

import (
	"github.com/banshee-data/pointstruct/tensor"
)

// sliceScales produces one neighborhood tensor per scale by taking the first
// n slots of the shared neighborhood along the neighbor axis. Every scale is
// a prefix of the same descending-score ordering, so smaller scales are
// strict subsets of larger ones.
func sliceScales(grouped *tensor.Dense, scales []int) []*tensor.Dense {
	out := make([]*tensor.Dense, len(scales))
	for i, n := range scales {
		out[i] = tensor.SlicePrefix(grouped, 2, n)
	}
	return out
}

// sampleMultiScale groups one shared top-k neighborhood (k = largest scale)
// and slices it per scale. The sampled point comes from the smallest scale's
// rank 0 and the sampled feature from the largest scale's rank 0; the
// asymmetry is intentional and preserved.
func (n *Net) sampleMultiScale(q, coords, feats *tensor.Dense, train bool) *Result {
	scales := n.cfg.Scales
	shared := tensor.TopK(q, scales[len(scales)-1]) // (B, s, max scale)
	groupedPoints := tensor.Gather(coords, shared)

	res := &Result{
		GroupedIndices:       shared,
		GroupedPointsByScale: sliceScales(groupedPoints, scales),
		Weights:              q,
		Coverage:             indexCoverage(shared, coords.Dim(1)),
	}
	if feats != nil {
		res.GroupedFeaturesByScale = sliceScales(tensor.Gather(feats, shared), scales)
	}

	if !train {
		res.SampledPoints = tensor.IndexAxis(res.GroupedPointsByScale[0], 2, 0)
		if feats != nil {
			last := len(res.GroupedFeaturesByScale) - 1
			res.SampledFeatures = tensor.IndexAxis(res.GroupedFeaturesByScale[last], 2, 0)
		}
		return res
	}

	hard, soft := relaxedSelect(q, n.cfg.temperature(), n.rng)
	res.Weights, res.SoftWeights = hard, soft
	res.SampledPoints = tensor.MatMulBatched(hard, coords)
	if feats != nil {
		res.SampledFeatures = tensor.MatMulBatched(hard, feats)
		for i, g := range res.GroupedFeaturesByScale {
			res.GroupedFeaturesByScale[i] = tensor.ReplaceAxis(g, 2, 0, res.SampledFeatures)
		}
	}
	return res
}
