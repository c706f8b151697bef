// Package montecarlo implements plain Monte Carlo integration over an
// axis-aligned hyperrectangle with batched sampling.
package montecarlo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"gointegral/domain/integration"
	"gointegral/internal/errors"
	"gointegral/ports"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultSamples   = 1_000_000
	DefaultBatchSize = 500_000
)

// Config holds the solver parameters for one run.
type Config struct {
	Samples   int
	BatchSize int
	// Seed is used only when Seeded is set; otherwise each run draws a fresh seed.
	Seed    uint64
	Seeded  bool
	Workers int

	Progress integration.ProgressReporter
	Streams  ports.RNGPort
	Logger   *slog.Logger
}

// Solver is the stochastic integrator. It is safe to reuse across runs.
type Solver struct {
	cfg    Config
	logger *slog.Logger
}

var _ ports.Solver = (*Solver)(nil)

// New validates cfg and returns a solver.
func New(cfg Config) (*Solver, error) {
	if cfg.Samples <= 0 {
		return nil, errors.ValidationErrorf("sample count must be positive, got %d", cfg.Samples)
	}
	if cfg.BatchSize <= 0 {
		return nil, errors.ValidationErrorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.Workers < 0 {
		return nil, errors.ValidationErrorf("worker count must be positive, got %d", cfg.Workers)
	}
	if cfg.Streams == nil {
		cfg.Streams = PCGStreams{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Solver{cfg: cfg, logger: logger.With("component", "montecarlo")}, nil
}

// Plan splits samples into batches of at most batchSize. The sizes always sum
// to samples.
func Plan(samples, batchSize int) []int {
	if samples <= 0 || batchSize <= 0 {
		return nil
	}
	plan := make([]int, 0, (samples+batchSize-1)/batchSize)
	for remaining := samples; remaining > 0; {
		n := min(batchSize, remaining)
		plan = append(plan, n)
		remaining -= n
	}
	return plan
}

// batchJob is one disjoint slice of the sample budget.
type batchJob struct {
	index  int
	offset int
	size   int
}

func jobsFor(plan []int) []batchJob {
	jobs := make([]batchJob, len(plan))
	offset := 0
	for i, n := range plan {
		jobs[i] = batchJob{index: i, offset: offset, size: n}
		offset += n
	}
	return jobs
}

// Integrate estimates the integral of f over bounds.
func (s *Solver) Integrate(ctx context.Context, f integration.BatchFunc, bounds integration.Bounds) (integration.Estimate, error) {
	if f == nil {
		return integration.Estimate{}, errors.ValidationError("integrand must not be nil")
	}
	if err := bounds.Validate(); err != nil {
		return integration.Estimate{}, err
	}

	plan := Plan(s.cfg.Samples, s.cfg.BatchSize)
	seed := s.cfg.Seed
	if !s.cfg.Seeded {
		seed = rand.Uint64()
	}

	s.logger.Debug("sampling started",
		"samples", s.cfg.Samples,
		"batches", len(plan),
		"batch_size", s.cfg.BatchSize,
		"workers", s.cfg.Workers,
		"dimension", bounds.Dimension())

	var (
		total accumulator
		err   error
	)
	if s.cfg.Workers > 1 && len(plan) > 1 {
		total, err = s.integrateParallel(ctx, f, bounds, plan, seed)
	} else {
		total, err = s.integrateSequential(ctx, f, bounds, plan, seed)
	}
	if err != nil {
		return integration.Estimate{}, err
	}

	volume := bounds.Volume()
	value := volume * total.mean()
	errEst := volume * math.Sqrt(total.variance()/float64(total.n))
	if !isFinite(value) || !isFinite(errEst) {
		return integration.Estimate{}, errors.PrecisionError(fmt.Sprintf(
			"estimate is not finite after %d samples (value %v, error %v): sums overflowed", total.n, value, errEst))
	}
	return integration.Estimate{
		Value:         value,
		ErrorEstimate: errEst,
		Evaluations:   total.n,
	}, nil
}

func (s *Solver) integrateSequential(ctx context.Context, f integration.BatchFunc, bounds integration.Bounds, plan []int, seed uint64) (accumulator, error) {
	w := newWorkspace(plan[0], bounds.Dimension())
	var total accumulator
	processed := 0

	for _, job := range jobsFor(plan) {
		if err := ctx.Err(); err != nil {
			return accumulator{}, errors.Wrapf(err, "monte carlo cancelled after %d of %d samples", processed, s.cfg.Samples)
		}
		acc, err := s.runBatch(f, bounds, job, seed, w)
		if err != nil {
			return accumulator{}, err
		}
		total = total.merge(acc)
		processed += job.size

		if err := s.report(processed, job.index, len(plan)); err != nil {
			return accumulator{}, err
		}
	}
	return total, nil
}

func (s *Solver) report(processed, index, batches int) error {
	if s.cfg.Progress == nil {
		return nil
	}
	fraction := float64(processed) / float64(s.cfg.Samples)
	return s.cfg.Progress.Progress(fraction, fmt.Sprintf("batch %d/%d: %d/%d samples", index+1, batches, processed, s.cfg.Samples))
}

// workspace is the per-goroutine sample buffer, reused across batches.
type workspace struct {
	points  *mat.Dense
	scratch []float64
	row     []float64
}

func newWorkspace(maxBatch, dim int) *workspace {
	return &workspace{
		points:  mat.NewDense(maxBatch, dim, nil),
		scratch: make([]float64, maxBatch),
		row:     make([]float64, dim),
	}
}

// runBatch draws, evaluates and accumulates one batch.
func (s *Solver) runBatch(f integration.BatchFunc, bounds integration.Bounds, job batchJob, seed uint64, w *workspace) (accumulator, error) {
	dim := bounds.Dimension()
	points := w.points.Slice(0, job.size, 0, dim).(*mat.Dense)

	src := s.cfg.Streams.Stream(seed, job.index)
	axes := make([]distuv.Uniform, dim)
	for j, iv := range bounds {
		axes[j] = distuv.Uniform{Min: iv.Min, Max: iv.Max, Src: src}
	}
	for i := 0; i < job.size; i++ {
		for j := range axes {
			points.Set(i, j, axes[j].Rand())
		}
	}

	values, err := f(points)
	if err != nil {
		return accumulator{}, errors.EvaluationError(
			fmt.Sprintf("function evaluation failed in batch %d (samples %d to %d)", job.index, job.offset, job.offset+job.size-1), err)
	}
	if len(values) != job.size {
		return accumulator{}, errors.ValidationErrorf("function returned %d values for a batch of %d points", len(values), job.size)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			mat.Row(w.row, i, points)
			return accumulator{}, errors.PrecisionError(fmt.Sprintf(
				"function produced non-finite value %v in batch %d at sample %d, point %v",
				v, job.index, job.offset+i, w.row))
		}
	}
	return accumulate(values, w.scratch), nil
}
