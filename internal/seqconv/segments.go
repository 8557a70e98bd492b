package seqconv

// Segments lists the exclusive end offset of every sequence packed into one
// sample buffer. A valid list is strictly increasing and ends at nsample.
type Segments []int

// Single returns the boundary list of a buffer holding one sequence.
func Single(nsample int) Segments {
	return Segments{nsample}
}

// FromLengths builds a boundary list from per-sequence lengths.
func FromLengths(lengths ...int) (Segments, error) {
	if len(lengths) == 0 {
		return nil, argError("segments", "no sequence lengths")
	}
	out := make(Segments, len(lengths))
	end := 0
	for i, n := range lengths {
		if n <= 0 {
			return nil, argError("segments", "sequence %d has length %d (must be > 0)", i, n)
		}
		end += n
		out[i] = end
	}
	return out, nil
}

// Lengths returns the length of every segment.
func (s Segments) Lengths() []int {
	out := make([]int, len(s))
	for k := range s {
		out[k] = s[k] - s.Start(k)
	}
	return out
}

// Start returns the first offset of segment k, i.e. the previous boundary
// or 0 for the first segment.
func (s Segments) Start(k int) int {
	if k == 0 {
		return 0
	}
	return s[k-1]
}

// Validate checks that the list partitions [0, nsample).
func (s Segments) Validate(nsample int) error {
	if len(s) == 0 {
		return argError("segments", "empty boundary list")
	}
	prev := 0
	for k, b := range s {
		if b <= prev {
			return argError("segments", "boundary %d at offset %d does not exceed previous boundary %d", k, b, prev)
		}
		if b > nsample {
			return argError("segments", "boundary %d at offset %d exceeds nsample %d", k, b, nsample)
		}
		prev = b
	}
	if prev != nsample {
		return argError("segments", "segment lengths sum to %d, want nsample %d", prev, nsample)
	}
	return nil
}
