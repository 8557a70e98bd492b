package seqconv

// InvalidChannel is the sentinel code written into scratch slots that fall
// outside the sample buffer. Any code >= nchannel contributes nothing, and
// MaxChannels keeps this one out of the valid range.
const InvalidChannel uint8 = 0xFF

// MaxChannels is the largest supported nchannel.
const MaxChannels = int(InvalidChannel)

// Tiling sets the launch geometry of both kernels.
type Tiling struct {
	SampleTile   int // Sample positions per dense task.
	FilterTile   int // Filters per task, both kernels.
	SegmentBlock int // Boundaries per correction task.
}

// DefaultTiling returns the geometry used when none is configured.
func DefaultTiling() Tiling {
	return Tiling{
		SampleTile:   256,
		FilterTile:   16,
		SegmentBlock: 32,
	}
}

// Validate checks that every tile extent is positive.
func (t Tiling) Validate() error {
	if t.SampleTile <= 0 {
		return argError("tiling", "sample tile %d (must be > 0)", t.SampleTile)
	}
	if t.FilterTile <= 0 {
		return argError("tiling", "filter tile %d (must be > 0)", t.FilterTile)
	}
	if t.SegmentBlock <= 0 {
		return argError("tiling", "segment block %d (must be > 0)", t.SegmentBlock)
	}
	return nil
}

// SampleTiles returns the number of dense tiles along the sample axis.
func (t Tiling) SampleTiles(nsample int) int {
	return ceilDiv(nsample, t.SampleTile)
}

// FilterTiles returns the number of tiles along the filter axis.
func (t Tiling) FilterTiles(nfilter int) int {
	return ceilDiv(nfilter, t.FilterTile)
}

// SegmentBlocks returns the number of correction tasks along the boundary axis.
func (t Tiling) SegmentBlocks(nsegment int) int {
	return ceilDiv(nsegment, t.SegmentBlock)
}

// Span returns the clamped half-open range [lo, hi) covered by tile k of
// the given size over n items.
func Span(k, size, n int) (lo, hi int) {
	lo = k * size
	return lo, min(lo+size, n)
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}
