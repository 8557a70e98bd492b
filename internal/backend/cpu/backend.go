// Package cpu implements the filter-gradient kernels on goroutines.
package cpu

import (
	"github.com/RodgersLuo/DeepBind-code/internal/parallel"
	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

// CPUBackend runs both kernels as tiled parallel-for launches.
type CPUBackend struct {
	tiling seqconv.Tiling
	par    parallel.Config
}

// Compile-time check that CPUBackend implements seqconv.Backend.
var _ seqconv.Backend = (*CPUBackend)(nil)

// New creates a CPU backend with the default tiling and one worker per CPU.
func New() *CPUBackend {
	return &CPUBackend{
		tiling: seqconv.DefaultTiling(),
		par:    parallel.TileConfig(),
	}
}

// NewWithConfig creates a CPU backend with explicit launch geometry.
func NewWithConfig(tiling seqconv.Tiling, par parallel.Config) (*CPUBackend, error) {
	if err := tiling.Validate(); err != nil {
		return nil, err
	}
	return &CPUBackend{tiling: tiling, par: par}, nil
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Tiling returns the launch geometry.
func (cpu *CPUBackend) Tiling() seqconv.Tiling {
	return cpu.tiling
}

// Parallel returns the worker configuration.
func (cpu *CPUBackend) Parallel() parallel.Config {
	return cpu.par
}

// DenseBackward implements seqconv.Backend.
func (cpu *CPUBackend) DenseBackward(grad *tensor.Tensor[float32], p *seqconv.Problem[float32]) error {
	return DenseBackward(grad, p, cpu.tiling, cpu.par)
}

// SegmentCorrection implements seqconv.Backend.
func (cpu *CPUBackend) SegmentCorrection(grad *tensor.Tensor[float32], p *seqconv.Problem[float32]) error {
	return SegmentCorrection(grad, p, cpu.tiling, cpu.par)
}

// Backward implements seqconv.Backend.
func (cpu *CPUBackend) Backward(grad *tensor.Tensor[float32], p *seqconv.Problem[float32]) error {
	return Backward(grad, p, cpu.tiling, cpu.par)
}
