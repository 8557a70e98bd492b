//go:build windows

// Copyright 2025 The DeepBind-code Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for the filter-gradient kernels.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	if err := gpu.Backward(grad, problem); err != nil {
//	    log.Fatal(err)
//	}
package webgpu

import (
	internalwebgpu "github.com/RodgersLuo/DeepBind-code/internal/backend/webgpu"
	"github.com/RodgersLuo/DeepBind-code/seqconv"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements seqconv.Backend.
var _ seqconv.Backend = (*Backend)(nil)

// New creates a new WebGPU backend.
//
// Call Release() when done to free GPU resources.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// NewWithTiling creates a WebGPU backend with explicit launch geometry.
func NewWithTiling(tiling seqconv.Tiling) (*Backend, error) {
	return internalwebgpu.NewWithTiling(tiling)
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
