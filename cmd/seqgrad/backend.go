package main

import (
	"fmt"
	"strings"

	"github.com/RodgersLuo/DeepBind-code/internal/backend/cpu"
	"github.com/RodgersLuo/DeepBind-code/internal/config"
	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
)

// openBackend returns the named backend and a function releasing it.
func openBackend(name string, cfg config.Config) (seqconv.Backend, func(), error) {
	switch strings.ToLower(name) {
	case "", "cpu":
		tiling, err := cfg.TilingOrDefault()
		if err != nil {
			return nil, nil, err
		}
		b, err := cpu.NewWithConfig(tiling, cfg.ParallelConfig())
		if err != nil {
			return nil, nil, err
		}
		return b, func() {}, nil
	case "webgpu", "gpu":
		return openWebGPU(cfg)
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want cpu or webgpu)", name)
	}
}
