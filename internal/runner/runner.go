// Package runner drives a backend over jobs for the CLI and the HTTP server.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RodgersLuo/DeepBind-code/internal/jobfile"
	"github.com/RodgersLuo/DeepBind-code/internal/logger"
	"github.com/RodgersLuo/DeepBind-code/internal/metrics"
	"github.com/RodgersLuo/DeepBind-code/internal/reference"
	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

// ErrMismatch is returned by Check when the backend disagrees with the
// reference beyond tolerance.
var ErrMismatch = errors.New("gradient mismatch")

// Runner executes jobs on one backend.
type Runner struct {
	backend seqconv.Backend
	tol     reference.Tolerance
}

// New creates a runner. tol is the parity bound used by Check.
func New(backend seqconv.Backend, tol reference.Tolerance) *Runner {
	return &Runner{backend: backend, tol: tol}
}

// Backend returns the backend jobs run on.
func (r *Runner) Backend() seqconv.Backend {
	return r.backend
}

// Run computes the filter gradient of job into a fresh zero tensor.
func (r *Runner) Run(ctx context.Context, job *jobfile.Job) (*jobfile.Result, error) {
	name := r.backend.Name()
	p, err := job.Problem()
	if err != nil {
		metrics.ObserveJob(name, metrics.OutcomeInvalid, 0, 0)
		return nil, err
	}
	grad, err := p.NewGrad()
	if err != nil {
		metrics.ObserveJob(name, metrics.OutcomeInvalid, 0, 0)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		metrics.ObserveJob(name, metrics.OutcomeCancelled, 0, 0)
		return nil, err
	}

	start := time.Now()
	if err := r.backend.Backward(grad, p); err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, seqconv.ErrInvalidArgument) {
			outcome = metrics.OutcomeInvalid
		}
		metrics.ObserveJob(name, outcome, 0, 0)
		return nil, fmt.Errorf("runner: %s backward: %w", name, err)
	}
	elapsed := time.Since(start)
	metrics.ObserveJob(name, metrics.OutcomeOK, p.NSample(), elapsed)

	logger.FromContext(ctx).Info("filter gradient",
		"job", job.ID,
		"backend", r.backend.Name(),
		"nsample", p.NSample(),
		"nfilter", p.NFilter(),
		"segments", len(p.Segments),
		"elapsed", elapsed,
	)
	return &jobfile.Result{
		ID:        job.ID,
		Backend:   r.backend.Name(),
		Shape:     grad.Shape(),
		Grad:      grad.Data(),
		ElapsedMS: milliseconds(elapsed),
	}, nil
}

// Check runs job and compares the result with reference.PerSegment.
// A report is returned even on mismatch, together with ErrMismatch.
func (r *Runner) Check(ctx context.Context, job *jobfile.Job) (*jobfile.CheckReport, error) {
	res, err := r.Run(ctx, job)
	if err != nil {
		return nil, err
	}
	p, err := job.Problem()
	if err != nil {
		return nil, err
	}
	want, err := reference.PerSegment(p)
	if err != nil {
		return nil, err
	}
	rep, err := reference.Compare(reference.ToFloat64(res.Grad), want, r.tol)
	if err != nil {
		return nil, err
	}

	report := &jobfile.CheckReport{ID: job.ID, Backend: res.Backend, Tolerance: r.tol, Report: rep}
	metrics.ObserveCheck(res.Backend, rep.OK)
	log := logger.FromContext(ctx).With("job", job.ID, "backend", res.Backend)
	if !rep.OK {
		log.Warn("parity check failed", "report", rep.String())
		return report, fmt.Errorf("runner: %w: %s", ErrMismatch, rep.String())
	}
	log.Info("parity check passed", "max_abs", rep.MaxAbs, "max_rel", rep.MaxRel)
	return report, nil
}

// BenchReport holds the mean wall time of each phase over the repeats.
type BenchReport struct {
	ID         string        `json:"id"`
	Backend    string        `json:"backend"`
	NSample    int           `json:"nsample"`
	NFilter    int           `json:"nfilter"`
	Segments   int           `json:"segments"`
	Repeat     int           `json:"repeat"`
	Dense      time.Duration `json:"dense_ns"`
	Correction time.Duration `json:"correction_ns"`
}

// Total is the mean time of one full backward call.
func (b *BenchReport) Total() time.Duration {
	return b.Dense + b.Correction
}

// SamplesPerSecond is the dense throughput.
func (b *BenchReport) SamplesPerSecond() float64 {
	if b.Total() <= 0 {
		return 0
	}
	return float64(b.NSample) / b.Total().Seconds()
}

// String formats the report for terminals.
func (b *BenchReport) String() string {
	return fmt.Sprintf("%s: nsample=%d nfilter=%d segments=%d repeat=%d dense=%s correction=%s total=%s (%.3g samples/s)",
		b.Backend, b.NSample, b.NFilter, b.Segments, b.Repeat, b.Dense, b.Correction, b.Total(), b.SamplesPerSecond())
}

// Bench times the two kernels separately over repeat runs. ctx is checked
// between launches, so a cancelled benchmark stops after the current kernel.
func (r *Runner) Bench(ctx context.Context, job *jobfile.Job, repeat int) (*BenchReport, error) {
	if repeat <= 0 {
		return nil, fmt.Errorf("runner: repeat must be positive, got %d", repeat)
	}
	p, err := job.Problem()
	if err != nil {
		return nil, err
	}
	grad, err := p.NewGrad()
	if err != nil {
		return nil, err
	}

	var dense, correction time.Duration
	for range repeat {
		grad.Zero()
		d, err := r.timed(ctx, grad, p, metrics.KernelDense, r.backend.DenseBackward)
		if err != nil {
			return nil, err
		}
		c, err := r.timed(ctx, grad, p, metrics.KernelCorrection, r.backend.SegmentCorrection)
		if err != nil {
			return nil, err
		}
		dense += d
		correction += c
	}

	rep := &BenchReport{
		ID:         job.ID,
		Backend:    r.backend.Name(),
		NSample:    p.NSample(),
		NFilter:    p.NFilter(),
		Segments:   len(p.Segments),
		Repeat:     repeat,
		Dense:      dense / time.Duration(repeat),
		Correction: correction / time.Duration(repeat),
	}
	logger.FromContext(ctx).Info("benchmark",
		"job", job.ID,
		"backend", rep.Backend,
		"nsample", rep.NSample,
		"nfilter", rep.NFilter,
		"dense", rep.Dense,
		"correction", rep.Correction,
	)
	return rep, nil
}

type launch func(grad *tensor.Tensor[float32], p *seqconv.Problem[float32]) error

func (r *Runner) timed(ctx context.Context, grad *tensor.Tensor[float32], p *seqconv.Problem[float32], kernel string, fn launch) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	start := time.Now()
	if err := fn(grad, p); err != nil {
		return 0, fmt.Errorf("runner: %s %s: %w", r.backend.Name(), kernel, err)
	}
	elapsed := time.Since(start)
	metrics.ObserveKernel(r.backend.Name(), kernel, elapsed)
	return elapsed, nil
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
