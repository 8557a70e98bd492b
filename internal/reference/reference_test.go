package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

func problem(t *testing.T, samples []uint8, delta []float64, nfilter int, segments seqconv.Segments) *seqconv.Problem[float64] {
	t.Helper()
	d, err := tensor.FromSlice(delta, tensor.Shape{len(samples), nfilter})
	require.NoError(t, err)
	return &seqconv.Problem[float64]{
		Samples:    samples,
		Delta:      d,
		Segments:   segments,
		FilterSize: 2,
		NChannel:   3,
	}
}

func TestDense_HandComputed(t *testing.T) {
	// samples: 0 1 2 1, filter_size 2, one filter, delta 1 2 3 4
	p := problem(t, []uint8{0, 1, 2, 1}, []float64{1, 2, 3, 4}, 1, seqconv.Single(4))

	got, err := Dense(p)
	require.NoError(t, err)

	// t=0: q0 <- 1, q1 <- 2+4, q2 <- 3
	// t=1: windows 0..2 read samples 1..3: q1 <- 1+3, q2 <- 2
	want := []float64{
		1, 6, 3,
		0, 4, 2,
	}
	assert.Equal(t, want, got)

	loop, err := Loop(p)
	require.NoError(t, err)
	assert.Equal(t, want, loop)
}

func TestDense_SentinelContributesNothing(t *testing.T) {
	p := problem(t, []uint8{0, 3, 255, 1}, []float64{1, 1, 1, 1}, 1, seqconv.Single(4))

	got, err := Dense(p)
	require.NoError(t, err)
	want := []float64{
		1, 1, 0,
		0, 1, 0,
	}
	assert.Equal(t, want, got)
}

func TestPerSegment_MatchesLoop(t *testing.T) {
	p := problem(t,
		[]uint8{0, 1, 2, 1, 0, 2},
		[]float64{1, -1, 2, -2, 3, -3, 4, -4, 5, -5, 6, -6},
		2, seqconv.Segments{2, 3, 6})

	per, err := PerSegment(p)
	require.NoError(t, err)
	loop, err := Loop(p)
	require.NoError(t, err)

	rep, err := Compare(per, loop, Tolerance{Abs: 1e-12})
	require.NoError(t, err)
	assert.True(t, rep.OK, rep.String())

	dense, err := Dense(p)
	require.NoError(t, err)
	assert.NotEqual(t, dense, per, "packed segments must differ from one long sequence")
}

func TestReference_RejectsInvalid(t *testing.T) {
	p := problem(t, []uint8{0, 1}, []float64{1, 1}, 1, seqconv.Segments{1})
	_, err := PerSegment(p)
	assert.ErrorIs(t, err, seqconv.ErrInvalidArgument)
	_, err = Loop(p)
	assert.ErrorIs(t, err, seqconv.ErrInvalidArgument)

	p.FilterSize = 0
	_, err = Dense(p)
	assert.ErrorIs(t, err, seqconv.ErrInvalidArgument)
}

func TestCompare(t *testing.T) {
	rep, err := Compare([]float64{1, 2, 3.1}, []float64{1, 2, 3}, Tolerance{Abs: 0.01})
	require.NoError(t, err)
	assert.False(t, rep.OK)
	assert.Equal(t, 1, rep.Mismatches)
	assert.Equal(t, 2, rep.FirstMismatch)
	assert.InDelta(t, 0.1, rep.MaxAbs, 1e-12)

	rep, err = Compare([]float64{100.5}, []float64{100}, Tolerance{Rel: 0.01})
	require.NoError(t, err)
	assert.True(t, rep.OK)

	_, err = Compare([]float64{1}, nil, Tolerance{})
	assert.Error(t, err)

	rep, err = Compare(nil, nil, Tolerance{})
	require.NoError(t, err)
	assert.True(t, rep.OK)
}

func TestDefaultTolerance(t *testing.T) {
	assert.Less(t, DefaultTolerance(tensor.Float64).Abs, DefaultTolerance(tensor.Float32).Abs)
	assert.Equal(t, []float64{1, 2.5}, ToFloat64([]float32{1, 2.5}))
}
