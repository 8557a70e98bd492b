package reference

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

// Tolerance defines acceptable numeric drift between a kernel and the oracle.
// An element passes when |got-want| <= Abs + Rel*|want|.
type Tolerance struct {
	Abs float64 `json:"abs" yaml:"abs"`
	Rel float64 `json:"rel" yaml:"rel"`
}

// DefaultTolerance returns the parity target for a gradient element type.
// Summation order differs between tilings, so float32 gets a loose bound.
func DefaultTolerance(dt tensor.DataType) Tolerance {
	if dt == tensor.Float64 {
		return Tolerance{Abs: 1e-9, Rel: 1e-9}
	}
	return Tolerance{Abs: 1e-4, Rel: 1e-4}
}

// Report summarizes a comparison.
type Report struct {
	N             int     `json:"n"`
	Mismatches    int     `json:"mismatches"`
	MaxAbs        float64 `json:"max_abs"`
	MaxRel        float64 `json:"max_rel"`
	FirstMismatch int     `json:"first_mismatch"` // -1 when none
	OK            bool    `json:"ok"`
}

// Compare checks got against want element-wise.
func Compare(got, want []float64, tol Tolerance) (Report, error) {
	if len(got) != len(want) {
		return Report{}, fmt.Errorf("reference: length mismatch: got %d, want %d", len(got), len(want))
	}
	r := Report{N: len(got), FirstMismatch: -1}
	if len(got) == 0 {
		r.OK = true
		return r, nil
	}

	diff := floats.SubTo(make([]float64, len(got)), got, want)
	r.MaxAbs = floats.Norm(diff, math.Inf(1))
	for i, d := range diff {
		d = math.Abs(d)
		scale := math.Abs(want[i])
		if scale > 0 {
			r.MaxRel = math.Max(r.MaxRel, d/scale)
		}
		if d > tol.Abs+tol.Rel*scale {
			r.Mismatches++
			if r.FirstMismatch < 0 {
				r.FirstMismatch = i
			}
		}
	}
	r.OK = r.Mismatches == 0
	return r, nil
}

// String formats the report for logs.
func (r Report) String() string {
	if r.OK {
		return fmt.Sprintf("ok: %d elements, max abs %.3g, max rel %.3g", r.N, r.MaxAbs, r.MaxRel)
	}
	return fmt.Sprintf("%d/%d mismatches (first at %d), max abs %.3g, max rel %.3g",
		r.Mismatches, r.N, r.FirstMismatch, r.MaxAbs, r.MaxRel)
}

// ToFloat64 widens a gradient buffer for comparison.
func ToFloat64[T tensor.Float](xs []T) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = float64(v)
	}
	return out
}
