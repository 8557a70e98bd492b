package parallel

import (
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

// AddFloat32 atomically adds v to *addr with a compare-and-swap loop on the
// IEEE-754 bit pattern.
func AddFloat32(addr *float32, v float32) {
	//nolint:gosec // float32 and uint32 share size and alignment
	p := (*uint32)(unsafe.Pointer(addr))
	for {
		old := atomic.LoadUint32(p)
		next := math.Float32bits(math.Float32frombits(old) + v)
		if atomic.CompareAndSwapUint32(p, old, next) {
			return
		}
	}
}

// AddFloat64 atomically adds v to *addr.
func AddFloat64(addr *float64, v float64) {
	//nolint:gosec // float64 and uint64 share size and alignment
	p := (*uint64)(unsafe.Pointer(addr))
	for {
		old := atomic.LoadUint64(p)
		next := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(p, old, next) {
			return
		}
	}
}

// Add atomically adds v to *addr for either float width.
func Add[T tensor.Float](addr *T, v T) {
	switch p := any(addr).(type) {
	case *float32:
		AddFloat32(p, any(v).(float32))
	case *float64:
		AddFloat64(p, any(v).(float64))
	}
}

// Accumulate atomically adds src[i] into dst[i] for every non-zero src[i].
// Zero entries are skipped so untouched slots cost no CAS traffic.
// Panics if src is longer than dst.
func Accumulate[T tensor.Float](dst, src []T) {
	dst = dst[:len(src)]
	for i, v := range src {
		if v != 0 {
			Add(&dst[i], v)
		}
	}
}
