// Package jobfile reads and writes filter-gradient jobs and their results.
//
// A job is a JSON document holding one packed sample buffer, its delta map and
// segment boundaries:
//
//	{"id": "...", "filter_size": 3, "nchannel": 4, "nfilter": 2,
//	 "samples": [0, 1, 2, ...], "delta": [...], "segments": [5, 10]}
//
// samples are integer codes in [0, 255]; codes >= nchannel are sentinels.
// delta is row-major [nsample][nfilter]. Omitted segments mean one sequence.
package jobfile

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/RodgersLuo/DeepBind-code/internal/reference"
	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

// Job is the input document.
type Job struct {
	ID         string    `json:"id,omitempty"`
	FilterSize int       `json:"filter_size"`
	NChannel   int       `json:"nchannel"`
	NFilter    int       `json:"nfilter"`
	Samples    []int     `json:"samples"`
	Delta      []float32 `json:"delta"`
	Segments   []int     `json:"segments,omitempty"`
}

// Result is the output document of a gradient run.
type Result struct {
	ID        string    `json:"id"`
	Backend   string    `json:"backend"`
	Shape     []int     `json:"shape"`
	Grad      []float32 `json:"grad"`
	ElapsedMS float64   `json:"elapsed_ms"`
}

// CheckReport is the output document of a parity check.
type CheckReport struct {
	ID        string              `json:"id"`
	Backend   string              `json:"backend"`
	Tolerance reference.Tolerance `json:"tolerance"`
	reference.Report
}

// Problem converts the job into a validated kernel problem. The returned
// problem shares Delta with the job.
func (j *Job) Problem() (*seqconv.Problem[float32], error) {
	if j.NFilter <= 0 {
		return nil, invalid("nfilter", "%d (must be > 0)", j.NFilter)
	}
	nsample := len(j.Samples)
	if len(j.Delta) != nsample*j.NFilter {
		return nil, invalid("delta", "%d values, want nsample*nfilter = %d*%d", len(j.Delta), nsample, j.NFilter)
	}

	samples := make([]uint8, nsample)
	for i, code := range j.Samples {
		if code < 0 || code > 255 {
			return nil, invalid("samples", "code %d at %d is outside [0, 255]", code, i)
		}
		samples[i] = uint8(code)
	}

	segments := seqconv.Segments(j.Segments)
	if len(segments) == 0 {
		segments = seqconv.Single(nsample)
	}

	var delta *tensor.Tensor[float32]
	if nsample > 0 {
		var err error
		delta, err = tensor.FromSlice(j.Delta, tensor.Shape{nsample, j.NFilter})
		if err != nil {
			return nil, invalid("delta", "%v", err)
		}
	}

	p := &seqconv.Problem[float32]{
		Samples:    samples,
		Delta:      delta,
		Segments:   segments,
		FilterSize: j.FilterSize,
		NChannel:   j.NChannel,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func invalid(arg, format string, args ...any) error {
	return &seqconv.ArgumentError{Arg: arg, Details: fmt.Sprintf(format, args...)}
}

// Decode reads one job. Unknown fields are rejected and a missing id is
// replaced with a fresh UUID.
func Decode(r io.Reader) (*Job, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var j Job
	if err := dec.Decode(&j); err != nil {
		return nil, fmt.Errorf("jobfile: decode: %w", err)
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return &j, nil
}

// Encode writes v as indented JSON.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("jobfile: encode: %w", err)
	}
	return nil
}

// Load decodes the job stored at path.
func Load(path string) (*Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("jobfile: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Save encodes v to path, replacing any existing file.
func Save(path string, v any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("jobfile: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("jobfile: %w", cerr)
		}
	}()
	return Encode(f, v)
}
