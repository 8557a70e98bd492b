package seqconv

import "github.com/RodgersLuo/DeepBind-code/internal/tensor"

// Backend runs the filter-gradient kernels on float32 buffers.
//
// Every method accumulates into grad and never zeroes it; the caller owns the
// zeroing policy of a backward episode. Preconditions are checked before any
// parallel work starts and reported as ErrInvalidArgument. A Backend must not
// be called concurrently on the same grad.
type Backend interface {
	// Name returns a short backend identifier for logs.
	Name() string

	// DenseBackward accumulates the sliding-window gradient as though the
	// whole sample buffer were one sequence.
	DenseBackward(grad *tensor.Tensor[float32], p *Problem[float32]) error

	// SegmentCorrection subtracts the terms DenseBackward produced for windows
	// that cross a segment boundary. grad must already hold the dense result.
	SegmentCorrection(grad *tensor.Tensor[float32], p *Problem[float32]) error

	// Backward runs DenseBackward, waits for it to complete, then runs
	// SegmentCorrection.
	Backward(grad *tensor.Tensor[float32], p *Problem[float32]) error
}
