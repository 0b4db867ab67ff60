package sampler

import (
	"math"
	"math/rand"
	"testing"

	"github.com/banshee-data/pointstruct/tensor"
)

func TestLinear_SharedAcrossPoints(t *testing.T) {
	l := &linear{w: tensor.FromSlice([]float64{1, 0, 2, 0, 1, 3}, 2, 3), in: 2, out: 3}
	x := tensor.FromSlice([]float64{
		1, 2, // batch 0, point 0
		0, 1, // batch 0, point 1
		3, 0, // batch 1, point 0
		1, 1, // batch 1, point 1
	}, 2, 2, 2)

	y := l.apply(x)
	if y.Dim(0) != 2 || y.Dim(1) != 2 || y.Dim(2) != 3 {
		t.Fatalf("unexpected shape %v", y.Shape())
	}
	want := []float64{
		1, 2, 8,
		0, 1, 3,
		3, 0, 6,
		1, 1, 5,
	}
	for i, w := range want {
		if math.Abs(y.Data()[i]-w) > 1e-12 {
			t.Errorf("element %d = %v, want %v", i, y.Data()[i], w)
		}
	}
}

func TestNewLinear_SeededInit(t *testing.T) {
	a := newLinear(4, 8, rand.New(rand.NewSource(5)))
	b := newLinear(4, 8, rand.New(rand.NewSource(5)))
	for i, v := range a.w.Data() {
		if b.w.Data()[i] != v {
			t.Fatalf("same seed produced different weights at %d", i)
		}
	}
}

func TestBatchNorm_PoolsBatchAndPointsJointly(t *testing.T) {
	// One channel, two batch elements of two points: the statistics
	// population is all four rows together, not two rows per batch element.
	bn := newBatchNorm(1)
	x := tensor.FromSlice([]float64{1, 3, 5, 7}, 2, 2, 1)

	y := bn.apply(x, true)

	mean := 4.0
	variance := 5.0 // biased: ((1-4)^2+(3-4)^2+(5-4)^2+(7-4)^2)/4
	for i, v := range x.Data() {
		want := (v - mean) / math.Sqrt(variance+1e-5)
		if math.Abs(y.Data()[i]-want) > 1e-9 {
			t.Fatalf("row %d normalized to %v, want %v (pooled stats)", i, y.Data()[i], want)
		}
	}
}

func TestBatchNorm_PerChannelStatistics(t *testing.T) {
	// Two channels with different spreads must normalize independently.
	bn := newBatchNorm(2)
	x := tensor.FromSlice([]float64{
		1, 100,
		3, 300,
	}, 1, 2, 2)

	y := bn.apply(x, true)

	// Channel 0: mean 2, var 1. Channel 1: mean 200, var 10000.
	if math.Abs(y.At(0, 0, 0)-(-1)) > 1e-4 || math.Abs(y.At(0, 1, 0)-1) > 1e-4 {
		t.Errorf("channel 0 normalized wrong: %v %v", y.At(0, 0, 0), y.At(0, 1, 0))
	}
	if math.Abs(y.At(0, 0, 1)-(-1)) > 1e-4 || math.Abs(y.At(0, 1, 1)-1) > 1e-4 {
		t.Errorf("channel 1 normalized wrong: %v %v", y.At(0, 0, 1), y.At(0, 1, 1))
	}
}

func TestBatchNorm_RunningStatsUsedInEval(t *testing.T) {
	bn := newBatchNorm(1)
	train := tensor.FromSlice([]float64{1, 3, 5, 7}, 1, 4, 1)
	bn.apply(train, true)

	// One training fold: mean 0.9*0 + 0.1*4, variance 0.9*1 + 0.1*(5*4/3).
	wantMean := 0.4
	wantVar := 0.9 + 0.1*5.0*4.0/3.0
	if math.Abs(bn.runMean[0]-wantMean) > 1e-9 {
		t.Fatalf("running mean %v, want %v", bn.runMean[0], wantMean)
	}
	if math.Abs(bn.runVar[0]-wantVar) > 1e-9 {
		t.Fatalf("running variance %v, want %v", bn.runVar[0], wantVar)
	}

	eval := tensor.FromSlice([]float64{2}, 1, 1, 1)
	y := bn.apply(eval, false)
	want := (2 - wantMean) / math.Sqrt(wantVar+1e-5)
	if math.Abs(y.At(0, 0, 0)-want) > 1e-9 {
		t.Errorf("eval output %v, want %v from running stats", y.At(0, 0, 0), want)
	}
}

func TestBatchNorm_EvalDoesNotMutateRunningStats(t *testing.T) {
	bn := newBatchNorm(1)
	before := bn.runMean[0]
	bn.apply(tensor.FromSlice([]float64{9, 9}, 1, 2, 1), false)
	if bn.runMean[0] != before {
		t.Error("eval pass changed running statistics")
	}
}

func TestFeatureTransform_OutputShapeAndRectification(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ft := newFeatureTransform(5, []int{8, 16}, false, rng)
	if ft.outWidth() != 16 {
		t.Fatalf("outWidth = %d, want 16", ft.outWidth())
	}

	x := tensor.New(2, 10, 5)
	for i := range x.Data() {
		x.Data()[i] = rng.NormFloat64()
	}
	y := ft.apply(x, true)
	if y.Dim(0) != 2 || y.Dim(1) != 10 || y.Dim(2) != 16 {
		t.Fatalf("unexpected shape %v", y.Shape())
	}
	for i, v := range y.Data() {
		if v < 0 {
			t.Fatalf("element %d negative after rectification: %v", i, v)
		}
	}
}

func TestFeatureTransform_GlobalFeatureDoublesWidth(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ft := newFeatureTransform(3, []int{4, 6}, true, rng)
	if ft.outWidth() != 12 {
		t.Fatalf("outWidth = %d, want 12", ft.outWidth())
	}

	x := tensor.New(1, 5, 3)
	for i := range x.Data() {
		x.Data()[i] = rng.NormFloat64()
	}
	y := ft.apply(x, true)
	if y.Dim(2) != 12 {
		t.Fatalf("unexpected channel width %d", y.Dim(2))
	}

	// The appended half of every point row is the per-channel max over
	// points, identical across points within a batch element.
	for c := 6; c < 12; c++ {
		first := y.At(0, 0, c)
		for p := 1; p < 5; p++ {
			if y.At(0, p, c) != first {
				t.Fatalf("global channel %d varies across points", c)
			}
		}
		// And it must dominate the per-point half of its channel.
		for p := 0; p < 5; p++ {
			if y.At(0, p, c-6) > first {
				t.Fatalf("global channel %d below a per-point value", c)
			}
		}
	}
}

func TestAppendGlobalMax_Values(t *testing.T) {
	x := tensor.FromSlice([]float64{
		1, 10,
		5, 2,
		3, 4,
	}, 1, 3, 2)
	y := appendGlobalMax(x)
	if y.Dim(2) != 4 {
		t.Fatalf("unexpected shape %v", y.Shape())
	}
	for p := 0; p < 3; p++ {
		if y.At(0, p, 2) != 5 || y.At(0, p, 3) != 10 {
			t.Fatalf("point %d global channels (%v, %v), want (5, 10)", p, y.At(0, p, 2), y.At(0, p, 3))
		}
	}
}
