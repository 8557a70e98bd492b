package tensor

import "fmt"

// Tensor is a dense row-major tensor over a flat slice.
//
// The filter gradient is a Tensor of shape [nfilter, filter_size, nchannel]
// and the delta map one of shape [nsample, nfilter].
type Tensor[T Float] struct {
	shape   Shape
	strides []int
	data    []T
}

// New allocates a zero-filled tensor.
func New[T Float](shape Shape) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Tensor[T]{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		data:    make([]T, shape.NumElements()),
	}, nil
}

// FromSlice wraps data without copying it. The caller keeps ownership of the
// slice; writes through the tensor are visible to the caller and vice versa.
func FromSlice[T Float](data []T, shape Shape) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	return &Tensor[T]{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		data:    data,
	}, nil
}

// Shape returns the tensor's shape.
func (t *Tensor[T]) Shape() Shape {
	return t.shape
}

// Strides returns the row-major strides.
func (t *Tensor[T]) Strides() []int {
	return t.strides
}

// DType returns the tensor's data type.
func (t *Tensor[T]) DType() DataType {
	return DataTypeOf[T]()
}

// NumElements returns the total number of elements.
func (t *Tensor[T]) NumElements() int {
	return len(t.data)
}

// Data returns the backing slice.
func (t *Tensor[T]) Data() []T {
	return t.data
}

// Offset converts a multi-index into a flat offset.
// Panics if the index rank or any coordinate is out of range.
func (t *Tensor[T]) Offset(idx ...int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index rank %d, shape %v", len(idx), t.shape))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, t.shape))
		}
		off += v * t.strides[i]
	}
	return off
}

// At returns the element at idx.
func (t *Tensor[T]) At(idx ...int) T {
	return t.data[t.Offset(idx...)]
}

// Set stores v at idx.
func (t *Tensor[T]) Set(v T, idx ...int) {
	t.data[t.Offset(idx...)] = v
}

// Zero resets every element to zero.
func (t *Tensor[T]) Zero() {
	clear(t.data)
}

// Clone returns a deep copy.
func (t *Tensor[T]) Clone() *Tensor[T] {
	data := make([]T, len(t.data))
	copy(data, t.data)
	return &Tensor[T]{
		shape:   t.shape.Clone(),
		strides: append([]int(nil), t.strides...),
		data:    data,
	}
}

// Scale multiplies every element by c in place.
func (t *Tensor[T]) Scale(c T) {
	for i := range t.data {
		t.data[i] *= c
	}
}

// AddInPlace adds other element-wise into t.
func (t *Tensor[T]) AddInPlace(other *Tensor[T]) error {
	if !t.shape.Equal(other.shape) {
		return fmt.Errorf("shape mismatch: %v vs %v", t.shape, other.shape)
	}
	for i, v := range other.data {
		t.data[i] += v
	}
	return nil
}

// Float64s returns a float64 copy of the data.
func (t *Tensor[T]) Float64s() []float64 {
	out := make([]float64, len(t.data))
	for i, v := range t.data {
		out[i] = float64(v)
	}
	return out
}
