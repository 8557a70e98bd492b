package cpu

import (
	"github.com/RodgersLuo/DeepBind-code/internal/parallel"
	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

// DenseBackward accumulates the unsegmented filter gradient into grad.
//
// Algorithm: one-hot correlation of the samples with the delta map.
//   - For each filter f, offset t and channel q:
//   - grad[f, t, q] += Σ_i delta[i, f] · [samples[i+t] == q]
//   - over every window start i with i+t < nsample
//
// The sample axis is cut into tiling.SampleTile tiles and the filter axis into
// tiling.FilterTile tiles. Each (sample tile, filter tile) task loads its
// samples plus a filter_size-1 apron, scatters into a local accumulator and
// merges it into grad with atomic adds. Segment boundaries are ignored.
func DenseBackward[T tensor.Float](grad *tensor.Tensor[T], p *seqconv.Problem[T], tiling seqconv.Tiling, cfg parallel.Config) error {
	if err := tiling.Validate(); err != nil {
		return err
	}
	if err := p.ValidateDense(grad); err != nil {
		return err
	}
	denseBackward(grad.Data(), p.Samples, p.Delta.Data(), p.NFilter(), p.FilterSize, p.NChannel, tiling, cfg)
	return nil
}

// denseBackward is the launch body. Inputs are assumed valid.
//
//nolint:gocognit // tile loops are inherent to the kernel
func denseBackward[T tensor.Float](
	grad []T, samples []uint8, delta []T,
	nfilter, filterSize, nchannel int,
	tiling seqconv.Tiling, cfg parallel.Config,
) {
	nsample := len(samples)
	apron := filterSize - 1

	parallel.ForGrid(tiling.SampleTiles(nsample), tiling.FilterTiles(nfilter), func(st, ft int) {
		s0, s1 := seqconv.Span(st, tiling.SampleTile, nsample)
		f0, f1 := seqconv.Span(ft, tiling.FilterTile, nfilter)

		// Load: tile plus apron, sentinel past nsample.
		window := make([]uint8, s1-s0+apron)
		loadWindow(window, samples, s0)
		acc := newTileAccumulator[T](f1-f0, filterSize, nchannel)

		// Compute: scatter delta[i, f] into the slots named by the window at i.
		for i := s0; i < s1; i++ {
			codes := window[i-s0 : i-s0+filterSize]
			row := delta[i*nfilter+f0 : i*nfilter+f1]
			for fl, d := range row {
				acc.scatter(fl, 0, codes, d)
			}
		}

		acc.mergeInto(grad, f0)
	}, cfg)
}
