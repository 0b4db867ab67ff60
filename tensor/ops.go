package tensor

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// MatMulBatched multiplies a (B, r, k) by b (B, k, c), returning (B, r, c).
// Each batch element is an independent matrix product; they are computed
// concurrently since the outputs are disjoint.
func MatMulBatched(a, b *Dense) *Dense {
	if a.Rank() != 3 || b.Rank() != 3 {
		panic(fmt.Sprintf("tensor: MatMulBatched requires rank-3 inputs, got %v x %v", a.shape, b.shape))
	}
	if a.Dim(0) != b.Dim(0) || a.Dim(2) != b.Dim(1) {
		panic(fmt.Sprintf("tensor: MatMulBatched shape mismatch %v x %v", a.shape, b.shape))
	}
	batch, r, k := a.Dim(0), a.Dim(1), a.Dim(2)
	c := b.Dim(2)
	out := New(batch, r, c)

	var wg sync.WaitGroup
	for i := 0; i < batch; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			am := mat.NewDense(r, k, a.data[i*r*k:(i+1)*r*k])
			bm := mat.NewDense(k, c, b.data[i*k*c:(i+1)*k*c])
			om := mat.NewDense(r, c, out.data[i*r*c:(i+1)*r*c])
			om.Mul(am, bm)
		}(i)
	}
	wg.Wait()
	return out
}

// MatMul multiplies a (r, k) by b (k, c), returning (r, c). The weight
// matrices of the feature transform are unbatched, so this is the kernel for
// applying one shared projection to every point row.
func MatMul(a, b *Dense) *Dense {
	if a.Rank() != 2 || b.Rank() != 2 {
		panic(fmt.Sprintf("tensor: MatMul requires rank-2 inputs, got %v x %v", a.shape, b.shape))
	}
	if a.Dim(1) != b.Dim(0) {
		panic(fmt.Sprintf("tensor: MatMul shape mismatch %v x %v", a.shape, b.shape))
	}
	r, k, c := a.Dim(0), a.Dim(1), b.Dim(1)
	out := New(r, c)
	om := mat.NewDense(r, c, out.data)
	om.Mul(mat.NewDense(r, k, a.data), mat.NewDense(k, c, b.data))
	return out
}

// Gather selects rows of src (B, N, C) along the point dimension. idx may
// have any shape (B, ...); the result has shape (B, ..., C) with each index
// replaced by the addressed C-vector. Index values must lie in [0, N).
func Gather(src *Dense, idx *Ints) *Dense {
	if src.Rank() != 3 {
		panic(fmt.Sprintf("tensor: Gather source must be rank 3, got %v", src.shape))
	}
	if idx.Rank() < 1 || idx.Dim(0) != src.Dim(0) {
		panic(fmt.Sprintf("tensor: Gather batch mismatch, source %v vs indices %v", src.shape, idx.shape))
	}
	batch, n, c := src.Dim(0), src.Dim(1), src.Dim(2)
	outShape := append(append([]int(nil), idx.shape...), c)
	out := New(outShape...)

	per := idx.Len() / batch
	for b := 0; b < batch; b++ {
		srcBase := b * n * c
		for j := 0; j < per; j++ {
			p := idx.data[b*per+j]
			if p < 0 || p >= n {
				panic(fmt.Sprintf("tensor: Gather index %d out of range [0,%d)", p, n))
			}
			copy(out.data[(b*per+j)*c:(b*per+j+1)*c], src.data[srcBase+p*c:srcBase+(p+1)*c])
		}
	}
	return out
}

// TopK returns, for every row along the last axis of x, the indices of the k
// largest values in descending order. Ties are broken by ascending index, so
// the result is deterministic for a fixed input.
func TopK(x *Dense, k int) *Ints {
	m := x.Dim(x.Rank() - 1)
	if k <= 0 || k > m {
		panic(fmt.Sprintf("tensor: TopK k=%d out of range for axis size %d", k, m))
	}
	rows := x.Len() / m
	outShape := append([]int(nil), x.shape[:x.Rank()-1]...)
	outShape = append(outShape, k)
	out := NewInts(outShape...)

	order := make([]int, m)
	for r := 0; r < rows; r++ {
		row := x.data[r*m : (r+1)*m]
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(i, j int) bool {
			a, b := order[i], order[j]
			if row[a] != row[b] {
				return row[a] > row[b]
			}
			return a < b
		})
		copy(out.data[r*k:(r+1)*k], order[:k])
	}
	return out
}

// Sigmoid applies the logistic function elementwise, returning a new tensor.
func Sigmoid(x *Dense) *Dense {
	out := New(x.shape...)
	for i, v := range x.data {
		out.data[i] = 1 / (1 + math.Exp(-v))
	}
	return out
}

// ReLU applies max(0, v) elementwise, returning a new tensor.
func ReLU(x *Dense) *Dense {
	out := New(x.shape...)
	for i, v := range x.data {
		if v > 0 {
			out.data[i] = v
		}
	}
	return out
}

// Softmax normalizes x along the given axis, returning a new tensor. The
// usual max-subtraction guards against overflow.
func Softmax(x *Dense, axis int) *Dense {
	outer, n, inner := axisSpans(x.shape, axis)
	out := New(x.shape...)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o * n * inner
			maxv := math.Inf(-1)
			for j := 0; j < n; j++ {
				if v := x.data[base+j*inner+i]; v > maxv {
					maxv = v
				}
			}
			sum := 0.0
			for j := 0; j < n; j++ {
				e := math.Exp(x.data[base+j*inner+i] - maxv)
				out.data[base+j*inner+i] = e
				sum += e
			}
			for j := 0; j < n; j++ {
				out.data[base+j*inner+i] /= sum
			}
		}
	}
	return out
}

// MaxAxis reduces x along the given axis, keeping the per-position maximum.
// The result drops the reduced axis.
func MaxAxis(x *Dense, axis int) *Dense {
	outer, n, inner := axisSpans(x.shape, axis)
	outShape := append(append([]int(nil), x.shape[:axis]...), x.shape[axis+1:]...)
	out := New(outShape...)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			maxv := math.Inf(-1)
			base := o * n * inner
			for j := 0; j < n; j++ {
				if v := x.data[base+j*inner+i]; v > maxv {
					maxv = v
				}
			}
			out.data[o*inner+i] = maxv
		}
	}
	return out
}

// ConcatLast concatenates a and b along the last axis. All leading dimensions
// must match.
func ConcatLast(a, b *Dense) *Dense {
	if a.Rank() != b.Rank() || !sameShape(a.shape[:a.Rank()-1], b.shape[:b.Rank()-1]) {
		panic(fmt.Sprintf("tensor: ConcatLast shape mismatch %v vs %v", a.shape, b.shape))
	}
	ca, cb := a.Dim(a.Rank()-1), b.Dim(b.Rank()-1)
	outShape := append([]int(nil), a.shape[:a.Rank()-1]...)
	outShape = append(outShape, ca+cb)
	out := New(outShape...)
	rows := a.Len() / ca
	for r := 0; r < rows; r++ {
		copy(out.data[r*(ca+cb):r*(ca+cb)+ca], a.data[r*ca:(r+1)*ca])
		copy(out.data[r*(ca+cb)+ca:(r+1)*(ca+cb)], b.data[r*cb:(r+1)*cb])
	}
	return out
}

// TransposeBatched swaps the last two axes of a rank-3 tensor: (B, r, c)
// becomes (B, c, r).
func TransposeBatched(x *Dense) *Dense {
	if x.Rank() != 3 {
		panic(fmt.Sprintf("tensor: TransposeBatched requires rank 3, got %v", x.shape))
	}
	batch, r, c := x.Dim(0), x.Dim(1), x.Dim(2)
	out := New(batch, c, r)
	for b := 0; b < batch; b++ {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				out.data[(b*c+j)*r+i] = x.data[(b*r+i)*c+j]
			}
		}
	}
	return out
}

// SlicePrefix copies the first n positions along the given axis: the result
// has the same shape with that axis shrunk to n.
func SlicePrefix(x *Dense, axis, n int) *Dense {
	if n <= 0 || n > x.Dim(axis) {
		panic(fmt.Sprintf("tensor: SlicePrefix n=%d out of range for axis %d (size %d)", n, axis, x.Dim(axis)))
	}
	outer, full, inner := axisSpans(x.shape, axis)
	outShape := append([]int(nil), x.shape...)
	outShape[axis] = n
	out := New(outShape...)
	for o := 0; o < outer; o++ {
		srcBase := o * full * inner
		dstBase := o * n * inner
		copy(out.data[dstBase:dstBase+n*inner], x.data[srcBase:srcBase+n*inner])
	}
	return out
}

// IndexAxis selects position i along the given axis, dropping that axis from
// the result shape.
func IndexAxis(x *Dense, axis, i int) *Dense {
	if i < 0 || i >= x.Dim(axis) {
		panic(fmt.Sprintf("tensor: IndexAxis i=%d out of range for axis %d (size %d)", i, axis, x.Dim(axis)))
	}
	outer, n, inner := axisSpans(x.shape, axis)
	outShape := append(append([]int(nil), x.shape[:axis]...), x.shape[axis+1:]...)
	out := New(outShape...)
	for o := 0; o < outer; o++ {
		copy(out.data[o*inner:(o+1)*inner], x.data[(o*n+i)*inner:(o*n+i)*inner+inner])
	}
	return out
}

// ReplaceAxis returns a copy of x with position i along the given axis
// replaced by v. v must have x's shape with that axis removed. The input is
// never mutated; neighborhoods that substitute their leading slot therefore
// cannot alias previously returned tensors.
func ReplaceAxis(x *Dense, axis, i int, v *Dense) *Dense {
	if i < 0 || i >= x.Dim(axis) {
		panic(fmt.Sprintf("tensor: ReplaceAxis i=%d out of range for axis %d (size %d)", i, axis, x.Dim(axis)))
	}
	wantShape := append(append([]int(nil), x.shape[:axis]...), x.shape[axis+1:]...)
	if !sameShape(v.shape, wantShape) {
		panic(fmt.Sprintf("tensor: ReplaceAxis value shape %v, want %v", v.shape, wantShape))
	}
	outer, n, inner := axisSpans(x.shape, axis)
	out := x.Clone()
	for o := 0; o < outer; o++ {
		copy(out.data[(o*n+i)*inner:(o*n+i)*inner+inner], v.data[o*inner:(o+1)*inner])
	}
	return out
}

// IndexAxisInts selects position i along the given axis of an index tensor,
// dropping that axis from the result shape.
func IndexAxisInts(x *Ints, axis, i int) *Ints {
	if i < 0 || i >= x.Dim(axis) {
		panic(fmt.Sprintf("tensor: IndexAxisInts i=%d out of range for axis %d (size %d)", i, axis, x.Dim(axis)))
	}
	outer, n, inner := axisSpans(x.shape, axis)
	outShape := append(append([]int(nil), x.shape[:axis]...), x.shape[axis+1:]...)
	out := NewInts(outShape...)
	for o := 0; o < outer; o++ {
		copy(out.data[o*inner:(o+1)*inner], x.data[(o*n+i)*inner:(o*n+i)*inner+inner])
	}
	return out
}

// HasNaN reports whether any element is NaN.
func HasNaN(x *Dense) bool {
	for _, v := range x.data {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// axisSpans decomposes shape around the given axis into the product of
// leading dimensions, the axis size, and the product of trailing dimensions.
func axisSpans(shape []int, axis int) (outer, n, inner int) {
	if axis < 0 || axis >= len(shape) {
		panic(fmt.Sprintf("tensor: axis %d out of range for shape %v", axis, shape))
	}
	outer, inner = 1, 1
	for d := 0; d < axis; d++ {
		outer *= shape[d]
	}
	for d := axis + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	return outer, shape[axis], inner
}
