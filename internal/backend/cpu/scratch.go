package cpu

import (
	"github.com/RodgersLuo/DeepBind-code/internal/parallel"
	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

// loadWindow copies samples[start:start+len(dst)] into dst and fills the part
// past the end of the buffer with the sentinel code.
func loadWindow(dst, samples []uint8, start int) {
	n := 0
	if start < len(samples) {
		n = copy(dst, samples[start:])
	}
	for i := n; i < len(dst); i++ {
		dst[i] = seqconv.InvalidChannel
	}
}

// tileAccumulator is the task-local filter-gradient tile.
//
// Layout is [filter][offset][nchannel+1]. The extra slot of every row absorbs
// sentinel codes (clamped with min) and is dropped by mergeInto, so the
// scatter loop needs no branch on invalid codes.
type tileAccumulator[T tensor.Float] struct {
	slots      []T
	filterSize int
	nchannel   int
	row        int
}

func newTileAccumulator[T tensor.Float](nfilter, filterSize, nchannel int) *tileAccumulator[T] {
	row := nchannel + 1
	return &tileAccumulator[T]{
		slots:      make([]T, nfilter*filterSize*row),
		filterSize: filterSize,
		nchannel:   nchannel,
		row:        row,
	}
}

// scatter adds v at offset t of local filter fl for every code in codes,
// i.e. codes[k] lands in offset t+k.
func (a *tileAccumulator[T]) scatter(fl, t int, codes []uint8, v T) {
	base := (fl*a.filterSize + t) * a.row
	for k, code := range codes {
		a.slots[base+k*a.row+min(int(code), a.nchannel)] += v
	}
}

// mergeInto atomically adds the tile into grad, whose first local filter is
// global filter f0. Sentinel slots are skipped.
func (a *tileAccumulator[T]) mergeInto(grad []T, f0 int) {
	nfilter := len(a.slots) / (a.filterSize * a.row)
	width := a.filterSize * a.nchannel
	for fl := 0; fl < nfilter; fl++ {
		dst := grad[(f0+fl)*width : (f0+fl+1)*width]
		for t := 0; t < a.filterSize; t++ {
			src := a.slots[(fl*a.filterSize+t)*a.row:]
			parallel.Accumulate(dst[t*a.nchannel:(t+1)*a.nchannel], src[:a.nchannel])
		}
	}
}
