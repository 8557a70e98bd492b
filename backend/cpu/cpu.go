// Copyright 2025 The DeepBind-code Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/RodgersLuo/DeepBind-code/internal/backend/cpu"
	"github.com/RodgersLuo/DeepBind-code/internal/parallel"
	"github.com/RodgersLuo/DeepBind-code/seqconv"
	"github.com/RodgersLuo/DeepBind-code/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements seqconv.Backend.
var _ seqconv.Backend = (*Backend)(nil)

// ParallelConfig controls how tiles are spread over goroutines.
type ParallelConfig = parallel.Config

// DefaultParallelConfig uses one worker per CPU.
func DefaultParallelConfig() ParallelConfig {
	return parallel.TileConfig()
}

// New creates a new CPU backend with the default tiling.
//
// Example:
//
//	backend := cpu.New()
//	grad, _ := problem.NewGrad()
//	if err := backend.Backward(grad, problem); err != nil {
//	    log.Fatal(err)
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with explicit launch geometry.
func NewWithConfig(tiling seqconv.Tiling, par ParallelConfig) (*Backend, error) {
	return internalcpu.NewWithConfig(tiling, par)
}

// DenseBackward is the generic dense kernel, usable with float64 gradients.
func DenseBackward[T tensor.Float](grad *tensor.Tensor[T], p *seqconv.Problem[T], tiling seqconv.Tiling, par ParallelConfig) error {
	return internalcpu.DenseBackward(grad, p, tiling, par)
}

// SegmentCorrection is the generic correction kernel.
func SegmentCorrection[T tensor.Float](grad *tensor.Tensor[T], p *seqconv.Problem[T], tiling seqconv.Tiling, par ParallelConfig) error {
	return internalcpu.SegmentCorrection(grad, p, tiling, par)
}

// Backward runs DenseBackward then SegmentCorrection.
func Backward[T tensor.Float](grad *tensor.Tensor[T], p *seqconv.Problem[T], tiling seqconv.Tiling, par ParallelConfig) error {
	return internalcpu.Backward(grad, p, tiling, par)
}
