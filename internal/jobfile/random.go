package jobfile

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
)

// Shape describes a random job.
type Shape struct {
	Lengths      []int   // Length of every packed sequence.
	NFilter      int
	FilterSize   int
	NChannel     int
	SentinelRate float64 // Probability that a sample is a sentinel code.
}

// Validate checks that the shape describes a job Problem would accept.
func (s Shape) Validate() error {
	if len(s.Lengths) == 0 {
		return invalid("segments", "no sequence lengths")
	}
	for k, n := range s.Lengths {
		if n <= 0 {
			return invalid("segments", "sequence %d has length %d (must be > 0)", k, n)
		}
	}
	if s.NFilter <= 0 {
		return invalid("nfilter", "%d (must be > 0)", s.NFilter)
	}
	if s.FilterSize <= 0 {
		return invalid("filter_size", "%d (must be > 0)", s.FilterSize)
	}
	if s.NChannel <= 0 || s.NChannel > seqconv.MaxChannels {
		return invalid("nchannel", "%d (must be in [1, %d])", s.NChannel, seqconv.MaxChannels)
	}
	if s.SentinelRate < 0 || s.SentinelRate > 1 {
		return invalid("sentinel_rate", "%g (must be in [0, 1])", s.SentinelRate)
	}
	return nil
}

// UniformShape packs nsegment sequences of equal length, spreading any
// remainder over the first sequences.
func UniformShape(nsample, nsegment, nfilter, filterSize, nchannel int) (Shape, error) {
	if nsegment <= 0 || nsample < nsegment {
		return Shape{}, invalid("segments", "cannot split %d samples into %d sequences", nsample, nsegment)
	}
	lengths := make([]int, nsegment)
	for k := range lengths {
		lengths[k] = nsample / nsegment
		if k < nsample%nsegment {
			lengths[k]++
		}
	}
	s := Shape{Lengths: lengths, NFilter: nfilter, FilterSize: filterSize, NChannel: nchannel}
	if err := s.Validate(); err != nil {
		return Shape{}, err
	}
	return s, nil
}

// Random generates a job of the given shape. Delta values are standard normal.
// Negative extents are clamped to zero, so an invalid shape yields a job that
// Problem rejects.
func Random(rng *rand.Rand, s Shape) *Job {
	nsample := 0
	segments := make([]int, len(s.Lengths))
	for k, n := range s.Lengths {
		nsample += max(n, 0)
		segments[k] = nsample
	}
	nfilter := max(s.NFilter, 0)

	samples := make([]int, nsample)
	for i := range samples {
		if s.SentinelRate > 0 && rng.Float64() < s.SentinelRate && s.NChannel >= 0 && s.NChannel < 256 {
			samples[i] = s.NChannel + rng.Intn(256-s.NChannel)
			continue
		}
		samples[i] = rng.Intn(max(s.NChannel, 1))
	}

	delta := make([]float32, nsample*nfilter)
	for i := range delta {
		delta[i] = float32(rng.NormFloat64())
	}

	return &Job{
		ID:         uuid.NewString(),
		FilterSize: s.FilterSize,
		NChannel:   s.NChannel,
		NFilter:    s.NFilter,
		Samples:    samples,
		Delta:      delta,
		Segments:   segments,
	}
}
