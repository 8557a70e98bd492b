package cpu

import (
	"github.com/RodgersLuo/DeepBind-code/internal/parallel"
	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

// SegmentCorrection subtracts from grad the contributions DenseBackward made
// through windows that start in one segment and read past its end.
//
// Algorithm: for each boundary j1 with previous boundary j0:
//   - every window start o in [max(j1-filter_size+1, j0), j1)
//   - every over-read position o2 in [j1, min(o+filter_size, nsample))
//   - grad[f, o2-o, samples[o2]] -= delta[o, f]
//
// grad must already hold the completed dense result. Tasks cover
// tiling.SegmentBlock boundaries and one filter tile each.
func SegmentCorrection[T tensor.Float](grad *tensor.Tensor[T], p *seqconv.Problem[T], tiling seqconv.Tiling, cfg parallel.Config) error {
	if err := tiling.Validate(); err != nil {
		return err
	}
	if err := p.ValidateWithGrad(grad); err != nil {
		return err
	}
	segmentCorrection(grad.Data(), p.Samples, p.Delta.Data(), p.Segments, p.NFilter(), p.FilterSize, p.NChannel, tiling, cfg)
	return nil
}

// segmentCorrection is the launch body. Inputs are assumed valid.
//
//nolint:gocognit // boundary/window/filter loops are inherent to the kernel
func segmentCorrection[T tensor.Float](
	grad []T, samples []uint8, delta []T, segments seqconv.Segments,
	nfilter, filterSize, nchannel int,
	tiling seqconv.Tiling, cfg parallel.Config,
) {
	apron := filterSize - 1
	if apron == 0 {
		return
	}

	parallel.ForGrid(tiling.SegmentBlocks(len(segments)), tiling.FilterTiles(nfilter), func(bk, ft int) {
		b0, b1 := seqconv.Span(bk, tiling.SegmentBlock, len(segments))
		f0, f1 := seqconv.Span(ft, tiling.FilterTile, nfilter)

		spill := make([]uint8, apron)
		acc := newTileAccumulator[T](f1-f0, filterSize, nchannel)

		for k := b0; k < b1; k++ {
			j1 := segments[k]

			// Load: the samples the dense pass wrongly read after j1.
			loadWindow(spill, samples, j1)

			for o := max(j1-apron, segments.Start(k)); o < j1; o++ {
				over := spill[:o+filterSize-j1]
				row := delta[o*nfilter+f0 : o*nfilter+f1]
				for fl, d := range row {
					acc.scatter(fl, j1-o, over, -d)
				}
			}
		}

		acc.mergeInto(grad, f0)
	}, cfg)
}

// Backward runs DenseBackward, waits for every dense task, then runs
// SegmentCorrection. Preconditions are checked once up front.
func Backward[T tensor.Float](grad *tensor.Tensor[T], p *seqconv.Problem[T], tiling seqconv.Tiling, cfg parallel.Config) error {
	if err := tiling.Validate(); err != nil {
		return err
	}
	if err := p.ValidateWithGrad(grad); err != nil {
		return err
	}
	denseBackward(grad.Data(), p.Samples, p.Delta.Data(), p.NFilter(), p.FilterSize, p.NChannel, tiling, cfg)
	// parallel.ForGrid has returned: every dense merge is visible here.
	segmentCorrection(grad.Data(), p.Samples, p.Delta.Data(), p.Segments, p.NFilter(), p.FilterSize, p.NChannel, tiling, cfg)
	return nil
}
