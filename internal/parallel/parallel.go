// Package parallel provides the data-parallel execution helpers used by the
// filter-gradient kernels.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

// TileConfig is DefaultConfig tuned for coarse work items such as kernel
// tiles, where a single item already amortizes a goroutine.
func TileConfig() Config {
	cfg := DefaultConfig()
	cfg.MinChunkSize = 1
	return cfg
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
// For returns only after every f(i) has returned, so it doubles as a full
// completion barrier between two launches.
func For(n int, f func(i int), cfg Config) {
	workers := max(cfg.NumWorkers, 1)
	if !cfg.Enabled || workers == 1 || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+workers-1)/workers, cfg.MinChunkSize, 1)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForGrid runs f over every cell of a rows x cols launch grid.
// Kernels use it for (sample tile, filter tile) and
// (boundary block, filter tile) grids.
func ForGrid(rows, cols int, f func(r, c int), cfg Config) {
	if rows <= 0 || cols <= 0 {
		return
	}
	For(rows*cols, func(k int) {
		f(k/cols, k%cols)
	}, cfg)
}
