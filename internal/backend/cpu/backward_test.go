package cpu

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodgersLuo/DeepBind-code/internal/parallel"
	"github.com/RodgersLuo/DeepBind-code/internal/reference"
	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

// tilings exercised by the property tests: degenerate tiles, tiles that do
// not divide the axes, and the defaults.
var tilings = []seqconv.Tiling{
	{SampleTile: 1, FilterTile: 1, SegmentBlock: 1},
	{SampleTile: 3, FilterTile: 2, SegmentBlock: 2},
	{SampleTile: 7, FilterTile: 4, SegmentBlock: 5},
	seqconv.DefaultTiling(),
}

func parallelConfigs() map[string]parallel.Config {
	par := parallel.TileConfig()
	par.Enabled = true
	par.NumWorkers = 4
	return map[string]parallel.Config{
		"sequential": {Enabled: false},
		"parallel":   par,
	}
}

// randomProblem packs sequences of the given lengths into one buffer.
// About one code in ten is a sentinel.
func randomProblem[T tensor.Float](t *testing.T, rng *rand.Rand, lengths []int, nfilter, filterSize, nchannel int) *seqconv.Problem[T] {
	t.Helper()
	segments, err := seqconv.FromLengths(lengths...)
	require.NoError(t, err)
	nsample := segments[len(segments)-1]

	samples := make([]uint8, nsample)
	for i := range samples {
		if rng.Intn(10) == 0 {
			samples[i] = uint8(nchannel + rng.Intn(256-nchannel))
		} else {
			samples[i] = uint8(rng.Intn(nchannel))
		}
	}
	delta, err := tensor.New[T](tensor.Shape{nsample, nfilter})
	require.NoError(t, err)
	for i := range delta.Data() {
		delta.Data()[i] = T(rng.NormFloat64())
	}
	return &seqconv.Problem[T]{
		Samples:    samples,
		Delta:      delta,
		Segments:   segments,
		FilterSize: filterSize,
		NChannel:   nchannel,
	}
}

func onesProblem(t *testing.T, samples []uint8, segments seqconv.Segments, filterSize, nchannel int) *seqconv.Problem[float32] {
	t.Helper()
	delta, err := tensor.New[float32](tensor.Shape{len(samples), 1})
	require.NoError(t, err)
	for i := range delta.Data() {
		delta.Data()[i] = 1
	}
	return &seqconv.Problem[float32]{
		Samples:    samples,
		Delta:      delta,
		Segments:   segments,
		FilterSize: filterSize,
		NChannel:   nchannel,
	}
}

func requireClose[T tensor.Float](t *testing.T, want []float64, got []T) {
	t.Helper()
	rep, err := reference.Compare(reference.ToFloat64(got), want, reference.DefaultTolerance(tensor.DataTypeOf[T]()))
	require.NoError(t, err)
	require.True(t, rep.OK, rep.String())
}

// TestDenseBackward_WorkedExample checks nsample=10, filter_size=3,
// nchannel=4, one filter and an all-ones delta map against a direct count.
func TestDenseBackward_WorkedExample(t *testing.T) {
	samples := []uint8{0, 1, 2, 3, 0, 1, 2, 3, 0, 1}
	p := onesProblem(t, samples, seqconv.Single(10), 3, 4)

	grad, err := p.NewGrad()
	require.NoError(t, err)
	require.NoError(t, New().DenseBackward(grad, p))

	for ti := 0; ti < 3; ti++ {
		for q := 0; q < 4; q++ {
			count := 0
			for i := 0; i+ti < len(samples); i++ {
				if int(samples[i+ti]) == q {
					count++
				}
			}
			assert.Equal(t, float32(count), grad.At(0, ti, q), "t=%d q=%d", ti, q)
		}
	}
}

// TestDenseBackward_WorkedExampleFullWindows restricts the worked example to
// full windows i in [0, 7] by zeroing the delta rows of the last two starts.
func TestDenseBackward_WorkedExampleFullWindows(t *testing.T) {
	samples := []uint8{3, 1, 2, 0, 0, 1, 2, 3, 2, 1}
	p := onesProblem(t, samples, seqconv.Single(10), 3, 4)
	p.Delta.Data()[8] = 0
	p.Delta.Data()[9] = 0

	grad, err := p.NewGrad()
	require.NoError(t, err)
	require.NoError(t, New().DenseBackward(grad, p))

	for ti := 0; ti < 3; ti++ {
		for q := 0; q < 4; q++ {
			count := 0
			for i := 0; i <= 7; i++ {
				if int(samples[i+ti]) == q {
					count++
				}
			}
			assert.Equal(t, float32(count), grad.At(0, ti, q), "t=%d q=%d", ti, q)
		}
	}
}

// TestBackward_TwoPackedSequences packs two length-5 sequences with a
// boundary at 5: the result is two independent convolutions, not one.
func TestBackward_TwoPackedSequences(t *testing.T) {
	samples := []uint8{0, 1, 2, 3, 1, 2, 2, 0, 3, 1}
	packed := onesProblem(t, samples, seqconv.Segments{5, 10}, 3, 4)

	grad, err := packed.NewGrad()
	require.NoError(t, err)
	require.NoError(t, New().Backward(grad, packed))

	sum, err := packed.NewGrad()
	require.NoError(t, err)
	for k := range packed.Segments {
		sub, err := packed.Slice(k)
		require.NoError(t, err)
		part, err := sub.NewGrad()
		require.NoError(t, err)
		require.NoError(t, New().DenseBackward(part, sub))
		require.NoError(t, sum.AddInPlace(part))
	}
	assert.Equal(t, sum.Data(), grad.Data())

	whole := onesProblem(t, samples, seqconv.Single(10), 3, 4)
	long, err := whole.NewGrad()
	require.NoError(t, err)
	require.NoError(t, New().Backward(long, whole))
	assert.NotEqual(t, long.Data(), grad.Data())

	// The windows starting at 3 and 4 read samples 5 and 6 (codes 2, 2).
	assert.Equal(t, long.At(0, 2, 2)-2, grad.At(0, 2, 2))
	assert.Equal(t, long.At(0, 1, 2)-1, grad.At(0, 1, 2))
}

func TestSegmentCorrection_SingleSegmentIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := randomProblem[float32](t, rng, []int{97}, 5, 6, 4)

	grad, err := p.NewGrad()
	require.NoError(t, err)
	require.NoError(t, New().DenseBackward(grad, p))
	before := grad.Clone()

	require.NoError(t, New().SegmentCorrection(grad, p))
	assert.Equal(t, before.Data(), grad.Data())
}

func TestBackward_SegmentDecomposition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	lengths := []int{1, 2, 40, 3, 1, 1, 17, 64, 2, 9}

	for name, par := range parallelConfigs() {
		for _, tiling := range tilings {
			t.Run(fmt.Sprintf("%s/%d-%d-%d", name, tiling.SampleTile, tiling.FilterTile, tiling.SegmentBlock), func(t *testing.T) {
				p := randomProblem[float32](t, rng, lengths, 7, 5, 4)
				want, err := reference.PerSegment(p)
				require.NoError(t, err)

				grad, err := p.NewGrad()
				require.NoError(t, err)
				require.NoError(t, Backward(grad, p, tiling, par))
				requireClose(t, want, grad.Data())
			})
		}
	}
}

func TestBackward_Float64(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	p := randomProblem[float64](t, rng, []int{30, 4, 1, 25}, 3, 8, 5)

	want, err := reference.Loop(p)
	require.NoError(t, err)

	grad, err := p.NewGrad()
	require.NoError(t, err)
	require.NoError(t, Backward(grad, p, seqconv.Tiling{SampleTile: 8, FilterTile: 2, SegmentBlock: 3}, parallel.TileConfig()))
	requireClose(t, want, grad.Data())
}

func TestDenseBackward_MatchesIm2col(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	p := randomProblem[float64](t, rng, []int{50, 50, 33}, 9, 4, 4)

	want, err := reference.Dense(p)
	require.NoError(t, err)

	grad, err := p.NewGrad()
	require.NoError(t, err)
	require.NoError(t, DenseBackward(grad, p, seqconv.Tiling{SampleTile: 16, FilterTile: 4, SegmentBlock: 1}, parallel.TileConfig()))
	requireClose(t, want, grad.Data())
}

func TestLinearity(t *testing.T) {
	type kernel func(*tensor.Tensor[float64], *seqconv.Problem[float64], seqconv.Tiling, parallel.Config) error
	kernels := map[string]kernel{
		"Backward":          Backward[float64],
		"DenseBackward":     DenseBackward[float64],
		"SegmentCorrection": SegmentCorrection[float64],
	}

	rng := rand.New(rand.NewSource(5))
	p := randomProblem[float64](t, rng, []int{20, 3, 31}, 4, 6, 4)
	const c = -2.5

	scaled := *p
	scaled.Delta = p.Delta.Clone()
	scaled.Delta.Scale(c)

	for name, run := range kernels {
		t.Run(name, func(t *testing.T) {
			base, err := p.NewGrad()
			require.NoError(t, err)
			require.NoError(t, run(base, p, seqconv.DefaultTiling(), parallel.TileConfig()))
			assert.True(t, slices.ContainsFunc(base.Data(), func(v float64) bool { return v != 0 }))

			got, err := scaled.NewGrad()
			require.NoError(t, err)
			require.NoError(t, run(got, &scaled, seqconv.DefaultTiling(), parallel.TileConfig()))

			base.Scale(c)
			requireClose(t, base.Float64s(), got.Data())
		})
	}
}

func TestBackward_AccumulatesWithoutZeroing(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	p := randomProblem[float32](t, rng, []int{12, 12, 5, 40}, 3, 4, 4)
	b := New()

	once, err := p.NewGrad()
	require.NoError(t, err)
	require.NoError(t, b.Backward(once, p))

	twice, err := p.NewGrad()
	require.NoError(t, err)
	require.NoError(t, b.Backward(twice, p))
	require.NoError(t, b.Backward(twice, p))

	once.Scale(2)
	requireClose(t, once.Float64s(), twice.Data())
}

func TestBackward_SentinelInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	p := randomProblem[float32](t, rng, []int{25, 6, 30}, 3, 5, 4)

	grad, err := p.NewGrad()
	require.NoError(t, err)
	require.NoError(t, New().Backward(grad, p))

	// Rewriting every sentinel to another sentinel value changes nothing.
	other := *p
	other.Samples = append([]uint8(nil), p.Samples...)
	for i, code := range other.Samples {
		if int(code) >= p.NChannel {
			other.Samples[i] = seqconv.InvalidChannel - uint8(i%3)
		}
	}
	regrad, err := other.NewGrad()
	require.NoError(t, err)
	require.NoError(t, New().Backward(regrad, &other))
	assert.Equal(t, grad.Data(), regrad.Data())

	// A buffer holding only sentinels yields a zero gradient.
	for i := range other.Samples {
		other.Samples[i] = uint8(p.NChannel)
	}
	zero, err := other.NewGrad()
	require.NoError(t, err)
	require.NoError(t, New().Backward(zero, &other))
	for _, v := range zero.Data() {
		assert.Zero(t, v)
	}
}

func TestBackward_FilterSizeOne(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	p := randomProblem[float32](t, rng, []int{3, 1, 8}, 2, 1, 4)

	want, err := reference.Loop(p)
	require.NoError(t, err)
	grad, err := p.NewGrad()
	require.NoError(t, err)
	require.NoError(t, New().Backward(grad, p))
	requireClose(t, want, grad.Data())
}

func TestBackward_RejectsBeforeLaunch(t *testing.T) {
	rng := rand.New(rand.NewSource(19))
	p := randomProblem[float32](t, rng, []int{10, 10}, 2, 3, 4)
	grad, err := p.NewGrad()
	require.NoError(t, err)

	p.Segments = seqconv.Segments{10, 5, 20}
	err = New().Backward(grad, p)
	require.ErrorIs(t, err, seqconv.ErrInvalidArgument)
	err = New().SegmentCorrection(grad, p)
	require.ErrorIs(t, err, seqconv.ErrInvalidArgument)
	for _, v := range grad.Data() {
		assert.Zero(t, v)
	}

	// The dense pass ignores boundaries but still checks shapes.
	require.NoError(t, New().DenseBackward(grad, p))
	bad, err := tensor.New[float32](tensor.Shape{2, 3, 5})
	require.NoError(t, err)
	assert.ErrorIs(t, New().DenseBackward(bad, p), seqconv.ErrInvalidArgument)

	_, err = NewWithConfig(seqconv.Tiling{}, parallel.TileConfig())
	assert.ErrorIs(t, err, seqconv.ErrInvalidArgument)
}

func TestLoadWindow(t *testing.T) {
	dst := make([]uint8, 4)
	loadWindow(dst, []uint8{1, 2, 3}, 1)
	assert.Equal(t, []uint8{2, 3, seqconv.InvalidChannel, seqconv.InvalidChannel}, dst)

	loadWindow(dst, []uint8{1, 2, 3}, 3)
	assert.Equal(t, []uint8{255, 255, 255, 255}, dst)
}

func BenchmarkBackward(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	lengths := make([]int, 256)
	for i := range lengths {
		lengths[i] = 101
	}
	segments, _ := seqconv.FromLengths(lengths...)
	nsample := segments[len(segments)-1]
	samples := make([]uint8, nsample)
	for i := range samples {
		samples[i] = uint8(rng.Intn(4))
	}
	delta, _ := tensor.New[float32](tensor.Shape{nsample, 16})
	for i := range delta.Data() {
		delta.Data()[i] = float32(rng.NormFloat64())
	}
	p := &seqconv.Problem[float32]{Samples: samples, Delta: delta, Segments: segments, FilterSize: 24, NChannel: 4}
	grad, _ := p.NewGrad()
	backend := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		grad.Zero()
		if err := backend.Backward(grad, p); err != nil {
			b.Fatal(err)
		}
	}
}
