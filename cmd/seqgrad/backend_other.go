//go:build !windows

package main

import (
	"errors"

	"github.com/RodgersLuo/DeepBind-code/internal/config"
	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
)

func openWebGPU(config.Config) (seqconv.Backend, func(), error) {
	return nil, nil, errors.New("webgpu backend is only built on windows")
}
