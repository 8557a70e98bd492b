package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/sys/cpu"
)

// version is set via -ldflags "-X main.version=...".
var version = "v0.1.0-dev"

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version and CPU information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Printf("seqgrad %s\n", version)
			fmt.Printf("go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			fmt.Printf("cpus:     %d\n", runtime.NumCPU())
			fmt.Printf("features: %s\n", cpuFeatures())
			return nil
		},
	}
}

// cpuFeatures lists the SIMD extensions relevant to the scatter loops.
func cpuFeatures() string {
	var feats []string
	add := func(ok bool, name string) {
		if ok {
			feats = append(feats, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE41, "sse4.1")
		add(cpu.X86.HasAVX, "avx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasFMA, "fma")
		add(cpu.X86.HasAVX512F, "avx512f")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "asimd")
		add(cpu.ARM64.HasFPHP, "fphp")
		add(cpu.ARM64.HasSVE, "sve")
	}
	if len(feats) == 0 {
		return "none detected"
	}
	return strings.Join(feats, " ")
}
