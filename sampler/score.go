package sampler

import (
	"math/rand"

	"github.com/banshee-data/pointstruct/tensor"
)

// scoreHead maps point embeddings to the score matrix Q (B, s, m): one score
// per (sample slot, input point) pair.
type scoreHead struct {
	proj    *linear
	variant Variant
}

func newScoreHead(in, numSamples int, variant Variant, rng *rand.Rand) *scoreHead {
	return &scoreHead{proj: newLinear(in, numSamples, rng), variant: variant}
}

// score projects embeddings (B, m, w) to slot scores and lays them out as
// (B, s, m). The learnable variant bounds every entry in (0, 1) with a
// logistic squash; the heuristic variants normalize each point's scores to a
// distribution across sample slots.
func (h *scoreHead) score(emb *tensor.Dense) *tensor.Dense {
	raw := tensor.TransposeBatched(h.proj.apply(emb)) // (B, s, m)
	if h.variant == VariantLearnable {
		return tensor.Sigmoid(raw)
	}
	return tensor.Softmax(raw, 1)
}
