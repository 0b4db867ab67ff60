package sampler

import (
	"math"
	"math/rand"

	"github.com/banshee-data/pointstruct/tensor"
)

// linear is a biasless projection applied to the channel-last axis.
type linear struct {
	w       *tensor.Dense // (in, out)
	in, out int
}

// newLinear draws He-initialized weights from rng.
func newLinear(in, out int, rng *rand.Rand) *linear {
	w := tensor.New(in, out)
	std := math.Sqrt(2.0 / float64(in))
	data := w.Data()
	for i := range data {
		data[i] = rng.NormFloat64() * std
	}
	return &linear{w: w, in: in, out: out}
}

// apply projects x (B, m, in) to (B, m, out). The batch and point dims are
// flattened together so one shared weight matrix serves every point row.
func (l *linear) apply(x *tensor.Dense) *tensor.Dense {
	batch, m := x.Dim(0), x.Dim(1)
	flat := x.Reshape(batch*m, l.in)
	return tensor.MatMul(flat, l.w).Reshape(batch, m, l.out)
}

// batchNorm normalizes each channel using statistics pooled across the batch
// and point dimensions together: a (B, m, C) input is a population of B*m
// samples per channel. Pooling over points, not only over batch elements, is
// what makes one shared layer stack see comparable activations regardless of
// cloud size.
type batchNorm struct {
	gain     []float64
	bias     []float64
	runMean  []float64
	runVar   []float64
	momentum float64
	eps      float64
}

func newBatchNorm(channels int) *batchNorm {
	bn := &batchNorm{
		gain:     make([]float64, channels),
		bias:     make([]float64, channels),
		runMean:  make([]float64, channels),
		runVar:   make([]float64, channels),
		momentum: 0.1,
		eps:      1e-5,
	}
	for c := range bn.gain {
		bn.gain[c] = 1
		bn.runVar[c] = 1
	}
	return bn
}

// apply normalizes x channelwise. Training normalizes with the current
// pooled statistics and folds them into the running estimates; evaluation
// normalizes with the running estimates alone.
func (bn *batchNorm) apply(x *tensor.Dense, train bool) *tensor.Dense {
	channels := len(bn.gain)
	rows := x.Len() / channels
	out := tensor.New(x.Shape()...)
	src, dst := x.Data(), out.Data()

	mean, variance := bn.runMean, bn.runVar
	if train {
		mean = make([]float64, channels)
		variance = make([]float64, channels)
		for r := 0; r < rows; r++ {
			for c := 0; c < channels; c++ {
				mean[c] += src[r*channels+c]
			}
		}
		for c := range mean {
			mean[c] /= float64(rows)
		}
		for r := 0; r < rows; r++ {
			for c := 0; c < channels; c++ {
				d := src[r*channels+c] - mean[c]
				variance[c] += d * d
			}
		}
		for c := range variance {
			variance[c] /= float64(rows)
		}
		bn.fold(mean, variance, rows)
	}

	for c := 0; c < channels; c++ {
		scale := bn.gain[c] / math.Sqrt(variance[c]+bn.eps)
		shift := bn.bias[c] - mean[c]*scale
		for r := 0; r < rows; r++ {
			dst[r*channels+c] = src[r*channels+c]*scale + shift
		}
	}
	return out
}

// fold merges fresh batch statistics into the running estimates. The running
// variance keeps the unbiased form while normalization uses the biased one.
func (bn *batchNorm) fold(mean, variance []float64, rows int) {
	unbias := 1.0
	if rows > 1 {
		unbias = float64(rows) / float64(rows-1)
	}
	for c := range bn.runMean {
		bn.runMean[c] = (1-bn.momentum)*bn.runMean[c] + bn.momentum*mean[c]
		bn.runVar[c] = (1-bn.momentum)*bn.runVar[c] + bn.momentum*variance[c]*unbias
	}
}

// featureTransform is the shared per-point embedding stack: repeated
// biasless projection, batch normalization and rectification, with an
// optional global max feature appended before the caller's score projection.
type featureTransform struct {
	stages []transformStage
	width  int
	global bool
}

type transformStage struct {
	proj *linear
	norm *batchNorm
}

// newFeatureTransform builds the complete stack upfront from the full width
// list; nothing is appended afterwards.
func newFeatureTransform(in int, widths []int, global bool, rng *rand.Rand) *featureTransform {
	ft := &featureTransform{
		stages: make([]transformStage, 0, len(widths)),
		width:  widths[len(widths)-1],
		global: global,
	}
	prev := in
	for _, w := range widths {
		ft.stages = append(ft.stages, transformStage{
			proj: newLinear(prev, w, rng),
			norm: newBatchNorm(w),
		})
		prev = w
	}
	return ft
}

// outWidth returns the channel width handed to the score projection. The
// global feature doubles it.
func (ft *featureTransform) outWidth() int {
	if ft.global {
		return ft.width * 2
	}
	return ft.width
}

// apply embeds descriptors (B, m, in) into (B, m, outWidth()).
func (ft *featureTransform) apply(x *tensor.Dense, train bool) *tensor.Dense {
	for _, st := range ft.stages {
		x = tensor.ReLU(st.norm.apply(st.proj.apply(x), train))
	}
	if ft.global {
		x = appendGlobalMax(x)
	}
	return x
}

// appendGlobalMax concatenates each batch element's per-channel maximum
// across points onto every point row, doubling the channel width.
func appendGlobalMax(x *tensor.Dense) *tensor.Dense {
	batch, m, c := x.Dim(0), x.Dim(1), x.Dim(2)
	mx := tensor.MaxAxis(x, 1) // (B, C)
	tiled := tensor.New(batch, m, c)
	for b := 0; b < batch; b++ {
		row := mx.Data()[b*c : (b+1)*c]
		for p := 0; p < m; p++ {
			copy(tiled.Data()[(b*m+p)*c:(b*m+p+1)*c], row)
		}
	}
	return tensor.ConcatLast(x, tiled)
}
