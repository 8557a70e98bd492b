// Package reference computes filter gradients the slow, obvious way so the
// tiled kernels can be checked against it.
package reference

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

// Dense returns the unsegmented gradient, flattened as [nfilter][filter_size][nchannel].
//
// Algorithm: im2col.
//   - X[i, t*nchannel+q] = 1 when samples[i+t] == q (and i+t < nsample)
//   - G = Deltaᵀ · X, so G[f] is the gradient of filter f
func Dense[T tensor.Float](p *seqconv.Problem[T]) ([]float64, error) {
	if _, err := p.NewGrad(); err != nil {
		return nil, err
	}
	nsample, nfilter := p.NSample(), p.NFilter()
	width := p.FilterSize * p.NChannel

	x := mat.NewDense(nsample, width, nil)
	for i := 0; i < nsample; i++ {
		for t := 0; t < p.FilterSize && i+t < nsample; t++ {
			if q := int(p.Samples[i+t]); q < p.NChannel {
				x.Set(i, t*p.NChannel+q, 1)
			}
		}
	}
	d := mat.NewDense(nsample, nfilter, p.Delta.Float64s())

	g := mat.NewDense(nfilter, width, nil)
	g.Mul(d.T(), x)
	return flatten(g), nil
}

// PerSegment returns Σ Dense(segment k) over every segment, each run from a
// fresh zero gradient. This is the gradient a packed buffer must reproduce.
func PerSegment[T tensor.Float](p *seqconv.Problem[T]) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out := make([]float64, p.GradShape().NumElements())
	for k := range p.Segments {
		sub, err := p.Slice(k)
		if err != nil {
			return nil, err
		}
		g, err := Dense(sub)
		if err != nil {
			return nil, err
		}
		floats.Add(out, g)
	}
	return out, nil
}

// Loop returns the segmented gradient from a direct loop over window starts,
// filters and offsets, without tiling or matrices.
func Loop[T tensor.Float](p *seqconv.Problem[T]) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	nfilter := p.NFilter()
	delta := p.Delta.Data()
	out := make([]float64, p.GradShape().NumElements())
	for k := range p.Segments {
		lo, hi := p.Segments.Start(k), p.Segments[k]
		for i := lo; i < hi; i++ {
			for f := 0; f < nfilter; f++ {
				for t := 0; t < p.FilterSize && i+t < hi; t++ {
					if q := int(p.Samples[i+t]); q < p.NChannel {
						out[(f*p.FilterSize+t)*p.NChannel+q] += float64(delta[i*nfilter+f])
					}
				}
			}
		}
	}
	return out, nil
}

func flatten(m *mat.Dense) []float64 {
	raw := m.RawMatrix()
	out := make([]float64, 0, raw.Rows*raw.Cols)
	for r := 0; r < raw.Rows; r++ {
		out = append(out, raw.Data[r*raw.Stride:r*raw.Stride+raw.Cols]...)
	}
	return out
}
