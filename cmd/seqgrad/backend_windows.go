//go:build windows

package main

import (
	"fmt"

	"github.com/RodgersLuo/DeepBind-code/internal/backend/webgpu"
	"github.com/RodgersLuo/DeepBind-code/internal/config"
	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
)

func openWebGPU(cfg config.Config) (seqconv.Backend, func(), error) {
	if !webgpu.IsAvailable() {
		return nil, nil, fmt.Errorf("webgpu backend: no adapter available")
	}
	tiling, err := cfg.TilingOrDefault()
	if err != nil {
		return nil, nil, err
	}
	b, err := webgpu.NewWithTiling(tiling)
	if err != nil {
		return nil, nil, fmt.Errorf("webgpu backend: %w", err)
	}
	return b, b.Release, nil
}
