// Package seqconv describes the inputs of the sequence-convolution filter
// gradient: a buffer of categorical sample codes, the upstream delta map and
// the boundaries of the sequences packed into the buffer.
//
// The gradient is computed in two launches. The dense pass treats the whole
// buffer as one sequence; the correction pass then removes the terms whose
// window crossed a segment boundary. Backends in internal/backend implement
// both launches.
package seqconv

import (
	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

// Problem bundles the read-only inputs of one backward call.
// None of its buffers are modified by a backend.
type Problem[T tensor.Float] struct {
	Samples    []uint8           // One code per position; codes >= NChannel are padding.
	Delta      *tensor.Tensor[T] // Shape [nsample, nfilter].
	Segments   Segments          // Exclusive segment ends; last equals nsample.
	FilterSize int
	NChannel   int
}

// NSample returns the sample buffer length.
func (p *Problem[T]) NSample() int {
	return len(p.Samples)
}

// NFilter returns the filter count implied by the delta map.
func (p *Problem[T]) NFilter() int {
	if p.Delta == nil || len(p.Delta.Shape()) != 2 {
		return 0
	}
	return p.Delta.Shape()[1]
}

// GradShape returns the filter-gradient shape [nfilter, filter_size, nchannel].
func (p *Problem[T]) GradShape() tensor.Shape {
	return tensor.Shape{p.NFilter(), p.FilterSize, p.NChannel}
}

// NewGrad allocates a zeroed gradient matching p.
func (p *Problem[T]) NewGrad() (*tensor.Tensor[T], error) {
	if err := p.validateShapes(); err != nil {
		return nil, err
	}
	return tensor.New[T](p.GradShape())
}

// Validate checks every precondition of a full backward call.
func (p *Problem[T]) Validate() error {
	if err := p.validateShapes(); err != nil {
		return err
	}
	return p.Segments.Validate(p.NSample())
}

// ValidateDense checks the preconditions of the dense pass alone, which
// ignores segment boundaries, and the gradient shape.
func (p *Problem[T]) ValidateDense(grad *tensor.Tensor[T]) error {
	if err := p.validateShapes(); err != nil {
		return err
	}
	return p.validateGrad(grad)
}

// ValidateWithGrad checks Validate and the gradient shape.
func (p *Problem[T]) ValidateWithGrad(grad *tensor.Tensor[T]) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return p.validateGrad(grad)
}

func (p *Problem[T]) validateShapes() error {
	if p.FilterSize <= 0 {
		return argError("filter_size", "%d (must be > 0)", p.FilterSize)
	}
	if p.NChannel <= 0 || p.NChannel > MaxChannels {
		return argError("nchannel", "%d (must be in [1, %d])", p.NChannel, MaxChannels)
	}
	if len(p.Samples) == 0 {
		return argError("samples", "empty sample buffer")
	}
	if p.Delta == nil {
		return argError("delta", "missing delta map")
	}
	shape := p.Delta.Shape()
	if len(shape) != 2 {
		return argError("delta", "shape %v is not [nsample, nfilter]", shape)
	}
	if shape[0] != len(p.Samples) {
		return argError("delta", "shape %v has %d rows, want nsample %d", shape, shape[0], len(p.Samples))
	}
	return nil
}

func (p *Problem[T]) validateGrad(grad *tensor.Tensor[T]) error {
	if grad == nil {
		return argError("grad", "missing filter gradient")
	}
	if want := p.GradShape(); !grad.Shape().Equal(want) {
		return argError("grad", "shape %v, want %v", grad.Shape(), want)
	}
	return nil
}

// Slice returns the sub-problem covering segment k alone, sharing no memory
// with p. Used to check the packed result against independent runs.
func (p *Problem[T]) Slice(k int) (*Problem[T], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if k < 0 || k >= len(p.Segments) {
		return nil, argError("segment", "index %d out of range [0, %d)", k, len(p.Segments))
	}
	lo, hi := p.Segments.Start(k), p.Segments[k]
	nfilter := p.NFilter()

	samples := make([]uint8, hi-lo)
	copy(samples, p.Samples[lo:hi])
	rows := make([]T, (hi-lo)*nfilter)
	copy(rows, p.Delta.Data()[lo*nfilter:hi*nfilter])
	delta, err := tensor.FromSlice(rows, tensor.Shape{hi - lo, nfilter})
	if err != nil {
		return nil, err
	}
	return &Problem[T]{
		Samples:    samples,
		Delta:      delta,
		Segments:   Single(hi - lo),
		FilterSize: p.FilterSize,
		NChannel:   p.NChannel,
	}, nil
}
