// Package tensor provides the small set of dense-tensor primitives used by
// the point sampling pipeline: row-major float64 tensors of arbitrary rank,
// integer index tensors, and the batched operations (matrix multiply, gather,
// top-k, reductions) the sampler is built from.
//
// Matrix kernels delegate to gonum's mat package through zero-copy views over
// the flat backing storage. Shape violations are programmer errors and panic,
// matching gonum's convention; input validation that depends on runtime data
// belongs to the caller.
package tensor

import (
	"fmt"
)

// Dense is a row-major tensor of float64 values.
// The zero value is not usable; construct with New or FromSlice.
type Dense struct {
	shape []int
	data  []float64
}

// New returns a zero-filled tensor with the given shape.
// All dimensions must be positive.
func New(shape ...int) *Dense {
	n := checkShape(shape)
	return &Dense{shape: append([]int(nil), shape...), data: make([]float64, n)}
}

// FromSlice wraps data in a tensor with the given shape. The slice is used
// directly as backing storage, not copied; its length must equal the shape
// product.
func FromSlice(data []float64, shape ...int) *Dense {
	n := checkShape(shape)
	if len(data) != n {
		panic(fmt.Sprintf("tensor: data length %d does not match shape %v (want %d)", len(data), shape, n))
	}
	return &Dense{shape: append([]int(nil), shape...), data: data}
}

// Shape returns the tensor dimensions. The returned slice must not be
// modified.
func (t *Dense) Shape() []int { return t.shape }

// Rank returns the number of dimensions.
func (t *Dense) Rank() int { return len(t.shape) }

// Dim returns the size of dimension i.
func (t *Dense) Dim(i int) int { return t.shape[i] }

// Len returns the total number of elements.
func (t *Dense) Len() int { return len(t.data) }

// Data returns the backing slice in row-major order. Mutating it mutates the
// tensor.
func (t *Dense) Data() []float64 { return t.data }

// At returns the element at the given multi-index.
func (t *Dense) At(idx ...int) float64 {
	return t.data[t.offset(idx)]
}

// Set stores v at the given multi-index.
func (t *Dense) Set(v float64, idx ...int) {
	t.data[t.offset(idx)] = v
}

// Clone returns a deep copy.
func (t *Dense) Clone() *Dense {
	out := &Dense{shape: append([]int(nil), t.shape...), data: make([]float64, len(t.data))}
	copy(out.data, t.data)
	return out
}

// Reshape returns a tensor sharing this tensor's storage with a new shape.
// The shape product must match the current element count.
func (t *Dense) Reshape(shape ...int) *Dense {
	n := checkShape(shape)
	if n != len(t.data) {
		panic(fmt.Sprintf("tensor: cannot reshape %v (len %d) to %v (len %d)", t.shape, len(t.data), shape, n))
	}
	return &Dense{shape: append([]int(nil), shape...), data: t.data}
}

func (t *Dense) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index rank %d does not match tensor rank %d", len(idx), len(t.shape)))
	}
	off := 0
	for d, i := range idx {
		if i < 0 || i >= t.shape[d] {
			panic(fmt.Sprintf("tensor: index %d out of range for dimension %d (size %d)", i, d, t.shape[d]))
		}
		off = off*t.shape[d] + i
	}
	return off
}

// stride returns the number of elements spanned by one step of dimension d.
func (t *Dense) stride(d int) int {
	s := 1
	for i := d + 1; i < len(t.shape); i++ {
		s *= t.shape[i]
	}
	return s
}

// Ints is a row-major tensor of integer indices, used to address the point
// dimension of a Dense tensor.
type Ints struct {
	shape []int
	data  []int
}

// NewInts returns a zero-filled index tensor with the given shape.
func NewInts(shape ...int) *Ints {
	n := checkShape(shape)
	return &Ints{shape: append([]int(nil), shape...), data: make([]int, n)}
}

// IntsFromSlice wraps data in an index tensor with the given shape. The slice
// is used directly as backing storage.
func IntsFromSlice(data []int, shape ...int) *Ints {
	n := checkShape(shape)
	if len(data) != n {
		panic(fmt.Sprintf("tensor: data length %d does not match shape %v (want %d)", len(data), shape, n))
	}
	return &Ints{shape: append([]int(nil), shape...), data: data}
}

// Shape returns the index tensor dimensions. The returned slice must not be
// modified.
func (t *Ints) Shape() []int { return t.shape }

// Rank returns the number of dimensions.
func (t *Ints) Rank() int { return len(t.shape) }

// Dim returns the size of dimension i.
func (t *Ints) Dim(i int) int { return t.shape[i] }

// Len returns the total number of elements.
func (t *Ints) Len() int { return len(t.data) }

// Data returns the backing slice in row-major order.
func (t *Ints) Data() []int { return t.data }

// At returns the element at the given multi-index.
func (t *Ints) At(idx ...int) int {
	return t.data[t.offsetInts(idx)]
}

// Set stores v at the given multi-index.
func (t *Ints) Set(v int, idx ...int) {
	t.data[t.offsetInts(idx)] = v
}

// Clone returns a deep copy.
func (t *Ints) Clone() *Ints {
	out := &Ints{shape: append([]int(nil), t.shape...), data: make([]int, len(t.data))}
	copy(out.data, t.data)
	return out
}

func (t *Ints) offsetInts(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index rank %d does not match tensor rank %d", len(idx), len(t.shape)))
	}
	off := 0
	for d, i := range idx {
		if i < 0 || i >= t.shape[d] {
			panic(fmt.Sprintf("tensor: index %d out of range for dimension %d (size %d)", i, d, t.shape[d]))
		}
		off = off*t.shape[d] + i
	}
	return off
}

func checkShape(shape []int) int {
	if len(shape) == 0 {
		panic("tensor: empty shape")
	}
	n := 1
	for d, s := range shape {
		if s <= 0 {
			panic(fmt.Sprintf("tensor: dimension %d must be positive, got %d", d, s))
		}
		n *= s
	}
	return n
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
