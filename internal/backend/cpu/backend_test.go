package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodgersLuo/DeepBind-code/internal/parallel"
	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
)

func TestCPUBackend_New(t *testing.T) {
	backend := New()
	require.NotNil(t, backend)
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, seqconv.DefaultTiling(), backend.Tiling())
	assert.Equal(t, parallel.TileConfig(), backend.Parallel())
}

func TestCPUBackend_NewWithConfig(t *testing.T) {
	tiling := seqconv.Tiling{SampleTile: 64, FilterTile: 8, SegmentBlock: 4}
	par := parallel.Config{Enabled: false, NumWorkers: 1}

	backend, err := NewWithConfig(tiling, par)
	require.NoError(t, err)
	assert.Equal(t, tiling, backend.Tiling())
	assert.Equal(t, par, backend.Parallel())

	_, err = NewWithConfig(seqconv.Tiling{SampleTile: 1, FilterTile: 1, SegmentBlock: -1}, par)
	assert.ErrorIs(t, err, seqconv.ErrInvalidArgument)
}

func TestTileAccumulator(t *testing.T) {
	// Two filters, filter size 2, three channels: rows of four slots.
	acc := newTileAccumulator[float32](2, 2, 3)
	acc.scatter(1, 0, []uint8{2, seqconv.InvalidChannel}, 1.5)
	acc.scatter(0, 1, []uint8{7}, 9) // sentinel: discarded

	grad := make([]float32, 3*2*3)
	acc.mergeInto(grad, 1)

	want := make([]float32, len(grad))
	want[(2*2+0)*3+2] = 1.5 // global filter 2, offset 0, channel 2
	assert.Equal(t, want, grad)
}
