package tensor

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMatMulBatched_TwoBatches(t *testing.T) {
	// Batch 0 is an identity product, batch 1 a known 2x2 multiply.
	a := FromSlice([]float64{
		1, 0, 0, 1, // batch 0: I
		1, 2, 3, 4, // batch 1
	}, 2, 2, 2)
	b := FromSlice([]float64{
		5, 6, 7, 8,
		5, 6, 7, 8,
	}, 2, 2, 2)

	got := MatMulBatched(a, b)
	want := []float64{
		5, 6, 7, 8,
		19, 22, 43, 50,
	}
	for i, w := range want {
		if !almostEqual(got.Data()[i], w, 1e-12) {
			t.Errorf("element %d = %v, want %v", i, got.Data()[i], w)
		}
	}
}

func TestMatMulBatched_ShapeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for inner dimension mismatch")
		}
	}()
	MatMulBatched(New(1, 2, 3), New(1, 2, 3))
}

func TestMatMul_Known(t *testing.T) {
	a := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	b := FromSlice([]float64{7, 8, 9, 10, 11, 12}, 3, 2)
	got := MatMul(a, b)
	want := []float64{58, 64, 139, 154}
	for i, w := range want {
		if !almostEqual(got.Data()[i], w, 1e-12) {
			t.Errorf("element %d = %v, want %v", i, got.Data()[i], w)
		}
	}
}

func TestGather_SelectsRows(t *testing.T) {
	// Two batches of three 2-vectors.
	src := FromSlice([]float64{
		10, 11, 20, 21, 30, 31,
		40, 41, 50, 51, 60, 61,
	}, 2, 3, 2)
	idx := IntsFromSlice([]int{2, 0, 1, 1}, 2, 2)

	got := Gather(src, idx)
	if got.Rank() != 3 || got.Dim(0) != 2 || got.Dim(1) != 2 || got.Dim(2) != 2 {
		t.Fatalf("unexpected shape %v", got.Shape())
	}
	want := []float64{
		30, 31, 10, 11,
		50, 51, 50, 51,
	}
	for i, w := range want {
		if got.Data()[i] != w {
			t.Errorf("element %d = %v, want %v", i, got.Data()[i], w)
		}
	}
}

func TestGather_NestedIndexShape(t *testing.T) {
	// Index shape (1, 2, 2) against source (1, 4, 3) yields (1, 2, 2, 3).
	src := New(1, 4, 3)
	for p := 0; p < 4; p++ {
		for c := 0; c < 3; c++ {
			src.Set(float64(10*p+c), 0, p, c)
		}
	}
	idx := IntsFromSlice([]int{3, 1, 0, 2}, 1, 2, 2)

	got := Gather(src, idx)
	if got.Rank() != 4 || got.Dim(3) != 3 {
		t.Fatalf("unexpected shape %v", got.Shape())
	}
	if got.At(0, 0, 0, 0) != 30 || got.At(0, 0, 1, 2) != 12 || got.At(0, 1, 1, 0) != 20 {
		t.Errorf("gathered wrong rows: %v", got.Data())
	}
}

func TestGather_IndexOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range index")
		}
	}()
	Gather(New(1, 3, 2), IntsFromSlice([]int{3}, 1, 1))
}

func TestTopK_DescendingOrder(t *testing.T) {
	x := FromSlice([]float64{0.1, 0.9, 0.5, 0.3}, 1, 4)
	got := TopK(x, 3)
	want := []int{1, 2, 3}
	for i, w := range want {
		if got.Data()[i] != w {
			t.Errorf("position %d = %d, want %d", i, got.Data()[i], w)
		}
	}
}

func TestTopK_TiesBreakByIndex(t *testing.T) {
	x := FromSlice([]float64{0.5, 0.5, 0.5, 0.5}, 1, 4)
	got := TopK(x, 4)
	for i := 0; i < 4; i++ {
		if got.Data()[i] != i {
			t.Errorf("tied values must keep ascending index order, got %v", got.Data())
			break
		}
	}
}

func TestTopK_PerRow(t *testing.T) {
	x := FromSlice([]float64{
		1, 3, 2,
		9, 7, 8,
	}, 2, 3)
	got := TopK(x, 2)
	want := []int{1, 2, 0, 2}
	for i, w := range want {
		if got.Data()[i] != w {
			t.Errorf("position %d = %d, want %d", i, got.Data()[i], w)
		}
	}
}

func TestTopK_KOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for k larger than axis")
		}
	}()
	TopK(New(1, 3), 4)
}

func TestSigmoid_KnownValues(t *testing.T) {
	x := FromSlice([]float64{0, 100, -100}, 3)
	got := Sigmoid(x)
	if !almostEqual(got.Data()[0], 0.5, 1e-12) {
		t.Errorf("sigmoid(0) = %v, want 0.5", got.Data()[0])
	}
	if !almostEqual(got.Data()[1], 1, 1e-12) {
		t.Errorf("sigmoid(100) = %v, want ~1", got.Data()[1])
	}
	if !almostEqual(got.Data()[2], 0, 1e-12) {
		t.Errorf("sigmoid(-100) = %v, want ~0", got.Data()[2])
	}
}

func TestReLU_ClampsNegatives(t *testing.T) {
	x := FromSlice([]float64{-2, -0.5, 0, 0.5, 2}, 5)
	got := ReLU(x)
	want := []float64{0, 0, 0, 0.5, 2}
	for i, w := range want {
		if got.Data()[i] != w {
			t.Errorf("element %d = %v, want %v", i, got.Data()[i], w)
		}
	}
}

func TestSoftmax_LastAxisSumsToOne(t *testing.T) {
	x := FromSlice([]float64{1, 2, 3, -1, 0, 1}, 2, 3)
	got := Softmax(x, 1)
	for r := 0; r < 2; r++ {
		sum := 0.0
		for c := 0; c < 3; c++ {
			sum += got.At(r, c)
		}
		if !almostEqual(sum, 1, 1e-12) {
			t.Errorf("row %d sums to %v, want 1", r, sum)
		}
	}
	// Both rows have the same spacing, so the distributions match.
	for c := 0; c < 3; c++ {
		if !almostEqual(got.At(0, c), got.At(1, c), 1e-12) {
			t.Errorf("shift invariance violated at column %d", c)
		}
	}
}

func TestSoftmax_MiddleAxis(t *testing.T) {
	// Normalizing (1, 2, 2) along axis 1 must sum over that axis.
	x := FromSlice([]float64{1, 5, 3, 5}, 1, 2, 2)
	got := Softmax(x, 1)
	for i := 0; i < 2; i++ {
		sum := got.At(0, 0, i) + got.At(0, 1, i)
		if !almostEqual(sum, 1, 1e-12) {
			t.Errorf("inner position %d sums to %v, want 1", i, sum)
		}
	}
	if got.At(0, 0, 0) >= got.At(0, 1, 0) {
		t.Errorf("larger logit must win: %v vs %v", got.At(0, 0, 0), got.At(0, 1, 0))
	}
	if !almostEqual(got.At(0, 0, 1), 0.5, 1e-12) {
		t.Errorf("equal logits must split evenly, got %v", got.At(0, 0, 1))
	}
}

func TestSoftmax_LargeLogitsStable(t *testing.T) {
	x := FromSlice([]float64{1000, 1001, 1002}, 1, 3)
	got := Softmax(x, 1)
	if HasNaN(got) {
		t.Fatal("softmax overflowed on large logits")
	}
	sum := got.At(0, 0) + got.At(0, 1) + got.At(0, 2)
	if !almostEqual(sum, 1, 1e-12) {
		t.Errorf("sum = %v, want 1", sum)
	}
}

func TestMaxAxis_ReducesCorrectAxis(t *testing.T) {
	x := FromSlice([]float64{
		1, 8, 3,
		4, 5, 6,
	}, 1, 2, 3)
	got := MaxAxis(x, 1)
	if got.Rank() != 2 || got.Dim(0) != 1 || got.Dim(1) != 3 {
		t.Fatalf("unexpected shape %v", got.Shape())
	}
	want := []float64{4, 8, 6}
	for i, w := range want {
		if got.Data()[i] != w {
			t.Errorf("element %d = %v, want %v", i, got.Data()[i], w)
		}
	}
}

func TestConcatLast_JoinsChannels(t *testing.T) {
	a := FromSlice([]float64{1, 2, 3, 4}, 2, 2)
	b := FromSlice([]float64{5, 6}, 2, 1)
	got := ConcatLast(a, b)
	want := []float64{1, 2, 5, 3, 4, 6}
	if got.Dim(1) != 3 {
		t.Fatalf("unexpected shape %v", got.Shape())
	}
	for i, w := range want {
		if got.Data()[i] != w {
			t.Errorf("element %d = %v, want %v", i, got.Data()[i], w)
		}
	}
}

func TestTransposeBatched_SwapsAxes(t *testing.T) {
	x := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 1, 2, 3)
	got := TransposeBatched(x)
	if got.Dim(1) != 3 || got.Dim(2) != 2 {
		t.Fatalf("unexpected shape %v", got.Shape())
	}
	if got.At(0, 2, 1) != 6 || got.At(0, 0, 1) != 4 {
		t.Errorf("transpose wrong: %v", got.Data())
	}
}

func TestSlicePrefix_ShrinksAxis(t *testing.T) {
	x := FromSlice([]float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
	}, 1, 2, 4)
	got := SlicePrefix(x, 2, 2)
	if got.Dim(2) != 2 {
		t.Fatalf("unexpected shape %v", got.Shape())
	}
	want := []float64{1, 2, 5, 6}
	for i, w := range want {
		if got.Data()[i] != w {
			t.Errorf("element %d = %v, want %v", i, got.Data()[i], w)
		}
	}
}

func TestIndexAxis_DropsAxis(t *testing.T) {
	x := FromSlice([]float64{
		1, 2,
		3, 4,
		5, 6,
	}, 1, 3, 2)
	got := IndexAxis(x, 1, 0)
	if got.Rank() != 2 || got.Dim(0) != 1 || got.Dim(1) != 2 {
		t.Fatalf("unexpected shape %v", got.Shape())
	}
	if got.At(0, 0) != 1 || got.At(0, 1) != 2 {
		t.Errorf("selected wrong slice: %v", got.Data())
	}
}

func TestReplaceAxis_CopiesWithoutMutating(t *testing.T) {
	x := FromSlice([]float64{
		1, 2,
		3, 4,
	}, 1, 2, 2)
	v := FromSlice([]float64{9, 9}, 1, 2)
	got := ReplaceAxis(x, 1, 0, v)

	if got.At(0, 0, 0) != 9 || got.At(0, 0, 1) != 9 {
		t.Errorf("slot not replaced: %v", got.Data())
	}
	if got.At(0, 1, 0) != 3 || got.At(0, 1, 1) != 4 {
		t.Errorf("untouched slot changed: %v", got.Data())
	}
	if x.At(0, 0, 0) != 1 {
		t.Errorf("ReplaceAxis mutated its input")
	}
}

func TestHasNaN(t *testing.T) {
	if HasNaN(FromSlice([]float64{1, 2, 3}, 3)) {
		t.Error("false positive")
	}
	if !HasNaN(FromSlice([]float64{1, math.NaN(), 3}, 3)) {
		t.Error("false negative")
	}
}
