// Copyright 2025 The DeepBind-code Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for the filter-gradient kernels.
//
// # Overview
//
// Both kernels are tiled parallel-for launches:
//   - Dense pass over (sample tile, filter tile) tasks
//   - Correction pass over (segment block, filter tile) tasks
//   - Task-local accumulators merged with atomic float adds
//   - Float32 and Float64 support
//
// # Basic Usage
//
//	backend := cpu.New()
//	grad, err := problem.NewGrad()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := backend.Backward(grad, problem); err != nil {
//	    log.Fatal(err)
//	}
package cpu
