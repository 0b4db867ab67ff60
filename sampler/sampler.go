package sampler

import (
	"fmt"
	"math/rand"

	"github.com/banshee-data/pointstruct/internal/monitoring"
	"github.com/banshee-data/pointstruct/tensor"
)

// Result carries the outputs of one forward pass. Field presence depends on
// the variant and the inputs: feature outputs are nil when the call carried
// no features, the index pair is the radius variant's whole contract, and
// the by-scale slices belong to the multi-scale variant.
type Result struct {
	// SampledPoints holds the representative point per sample slot (B, s, 3).
	// Nil for the radius variant, which reports indices only.
	SampledPoints *tensor.Dense

	// GroupedPoints holds each slot's neighborhood (B, s, n, 3). Populated
	// by the learnable variant only.
	GroupedPoints *tensor.Dense

	// SampledFeatures (B, s, d) and GroupedFeatures (B, s, n, d) mirror the
	// point outputs for the feature tensor; nil when the call had none.
	SampledFeatures *tensor.Dense
	GroupedFeatures *tensor.Dense

	// Weights is the selection matrix (B, s, m): the squashed scores when
	// evaluating, the hard one-hot straight-through sample when training.
	// Nil for the radius variant.
	Weights *tensor.Dense

	// SoftWeights is the relaxed sample behind Weights during training, the
	// gradient path of the straight-through estimator. Nil when evaluating.
	SoftWeights *tensor.Dense

	// SampledIndices (B, s) and GroupedIndices (B, s, n) report which points
	// were chosen. SampledIndices is populated by the radius variant; for
	// the multi-scale variant GroupedIndices holds the shared neighborhood
	// at the largest scale.
	SampledIndices *tensor.Ints
	GroupedIndices *tensor.Ints

	// GroupedPointsByScale and GroupedFeaturesByScale are the multi-scale
	// neighborhoods, parallel to Config.Scales.
	GroupedPointsByScale   []*tensor.Dense
	GroupedFeaturesByScale []*tensor.Dense

	// Coverage is the fraction of distinct input points referenced by the
	// grouped indices, averaged over the batch.
	Coverage float64
}

// Net is the subsampling engine. Construction fixes the layer stack and
// variant; every forward call treats the parameters as read-only, so calls
// are safe to interleave with an external optimizer mutating weights between
// them.
type Net struct {
	cfg  Config
	mlp  *featureTransform
	head *scoreHead
	rng  *rand.Rand
}

// New validates cfg and builds the full layer stack upfront from the width
// list. Configuration errors are construction failures; callers fix the
// config rather than retry.
func New(cfg Config) (*Net, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sampler config: %w", err)
	}
	rng := cfg.rng()
	mlp := newFeatureTransform(cfg.descriptorChannels(), cfg.Widths, cfg.GlobalFeature, rng)
	head := newScoreHead(mlp.outWidth(), cfg.NumSamples, cfg.Variant, rng)
	return &Net{cfg: cfg, mlp: mlp, head: head, rng: rng}, nil
}

// Config returns the construction configuration.
func (n *Net) Config() Config { return n.cfg }

// Sample runs one forward pass. coords must be (B, m, 3); feats may be nil
// or (B, m, d) with matching batch and point dims. train enables the
// straight-through relaxed selection path and batch statistics in the
// normalization layers.
//
// The preconditions numSamples < m and neighborLimit < m abort the call
// before any computation.
func (n *Net) Sample(coords, feats *tensor.Dense, train bool) (*Result, error) {
	if coords == nil || coords.Rank() != 3 || coords.Dim(2) != 3 {
		return nil, fmt.Errorf("coordinates must have shape (batch, points, 3)")
	}
	m := coords.Dim(1)
	if n.cfg.NumSamples >= m {
		return nil, fmt.Errorf("sample count %d must be less than input point count %d", n.cfg.NumSamples, m)
	}
	if limit := n.cfg.neighborLimit(); limit >= m {
		return nil, fmt.Errorf("neighbor limit %d must be less than input point count %d", limit, m)
	}
	if feats != nil && (feats.Rank() != 3 || feats.Dim(0) != coords.Dim(0) || feats.Dim(1) != m) {
		return nil, fmt.Errorf("features %v do not match coordinates %v", feats.Shape(), coords.Shape())
	}

	x := coords
	if n.cfg.Variant == VariantLearnable {
		x = SphericalDescriptor(coords)
	}
	q := n.head.score(n.mlp.apply(x, train))

	var res *Result
	switch n.cfg.Variant {
	case VariantLearnable:
		res = n.sampleLearnable(q, coords, feats, train)
	case VariantRadius:
		res = n.sampleRadius(q, coords)
	case VariantMultiScale:
		res = n.sampleMultiScale(q, coords, feats, train)
	}
	monitoring.Logf("sampler: %s grouped %d slots over %d points, index coverage %.4f",
		n.cfg.Variant, n.cfg.NumSamples, m, res.Coverage)
	return res, nil
}

// sampleLearnable selects each slot's top neighbors by logistic score. When
// training, the sampled point/feature is the straight-through weighted
// combination and the grouped features are rebuilt with that sampled feature
// in slot zero, keeping a gradient path into the full neighborhood.
func (n *Net) sampleLearnable(q, coords, feats *tensor.Dense, train bool) *Result {
	grouped := tensor.TopK(q, n.cfg.NeighborLimit) // (B, s, n)
	res := &Result{
		GroupedIndices: grouped,
		GroupedPoints:  tensor.Gather(coords, grouped),
		Weights:        q,
		Coverage:       indexCoverage(grouped, coords.Dim(1)),
	}
	if feats != nil {
		res.GroupedFeatures = tensor.Gather(feats, grouped)
	}

	if !train {
		res.SampledPoints = tensor.IndexAxis(res.GroupedPoints, 2, 0)
		if feats != nil {
			res.SampledFeatures = tensor.IndexAxis(res.GroupedFeatures, 2, 0)
		}
		return res
	}

	hard, soft := relaxedSelect(q, n.cfg.temperature(), n.rng)
	res.Weights, res.SoftWeights = hard, soft
	res.SampledPoints = tensor.MatMulBatched(hard, coords)
	if feats != nil {
		res.SampledFeatures = tensor.MatMulBatched(hard, feats)
		res.GroupedFeatures = tensor.ReplaceAxis(res.GroupedFeatures, 2, 0, res.SampledFeatures)
	}
	return res
}

// sampleRadius reports indices only: the heuristic grouping performs no
// learnable transform on features, so its contract is the index pair. The
// anchor of each slot is its rank-0 point; neighbors outside the radius
// collapse onto it.
func (n *Net) sampleRadius(q, coords *tensor.Dense) *Result {
	grouped := tensor.TopK(q, n.cfg.NeighborLimit) // (B, s, n)
	sampled := tensor.IndexAxisInts(grouped, 2, 0) // (B, s)
	refined := refineByRadius(coords, sampled, grouped, n.cfg.Radius)
	return &Result{
		SampledIndices: sampled,
		GroupedIndices: refined,
		Coverage:       indexCoverage(refined, coords.Dim(1)),
	}
}
