// Copyright 2025 The DeepBind-code Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package seqconv describes the filter-weight gradient of a 1-D convolution
// over many variable-length sequences packed into one buffer.
//
// A Problem holds the packed samples (one channel code per position), the
// delta map of the layer above, the segment boundaries and the filter
// geometry. A Backend accumulates the filter gradient
//
//	grad[f][t][q] += Σ_i delta[i][f] · [samples[i+t] == q]
//
// where windows never read across a segment boundary. Codes >= nchannel,
// including InvalidChannel, contribute nothing.
package seqconv

import (
	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
	"github.com/RodgersLuo/DeepBind-code/tensor"
)

// InvalidChannel is the sentinel channel code.
const InvalidChannel = seqconv.InvalidChannel

// MaxChannels is the largest supported nchannel.
const MaxChannels = seqconv.MaxChannels

// ErrInvalidArgument is matched by every precondition failure.
var ErrInvalidArgument = seqconv.ErrInvalidArgument

// ArgumentError names the argument at fault in a precondition failure.
type ArgumentError = seqconv.ArgumentError

// Problem is one packed filter-gradient computation.
type Problem[T tensor.Float] = seqconv.Problem[T]

// Segments lists the exclusive end offset of every packed sequence.
type Segments = seqconv.Segments

// Tiling sets the launch geometry of both kernels.
type Tiling = seqconv.Tiling

// Backend computes float32 filter gradients.
type Backend = seqconv.Backend

// DefaultTiling returns the geometry used when none is configured.
func DefaultTiling() Tiling {
	return seqconv.DefaultTiling()
}

// Single returns the boundary list of one unsegmented sequence.
func Single(nsample int) Segments {
	return seqconv.Single(nsample)
}

// FromLengths converts per-sequence lengths to a boundary list.
func FromLengths(lengths ...int) (Segments, error) {
	return seqconv.FromLengths(lengths...)
}
