package app

import (
	"math"

	"gointegral/domain/core"
	"gointegral/domain/integration"
	"gointegral/internal/config"
	"gointegral/internal/errors"
)

// RunOptions are the resolved solver parameters for one run. Each solver
// reads only the fields it understands.
type RunOptions struct {
	Samples   int
	BatchSize int
	Seed      uint64
	Seeded    bool
	Workers   int

	Tolerance      float64
	MaxDepth       int
	MaxEvaluations int
	Rule           string

	Progress integration.ProgressReporter
	// RunID labels the run's log lines; a fresh one is generated when empty.
	RunID core.RunID
}

// RunOption overrides one default for a single run.
type RunOption func(*RunOptions)

// WithSamples sets the Monte Carlo sample count.
func WithSamples(n int) RunOption {
	return func(o *RunOptions) { o.Samples = n }
}

// WithBatchSize sets the number of points evaluated per Monte Carlo batch.
func WithBatchSize(n int) RunOption {
	return func(o *RunOptions) { o.BatchSize = n }
}

// WithSeed makes Monte Carlo sampling reproducible.
func WithSeed(seed uint64) RunOption {
	return func(o *RunOptions) {
		o.Seed = seed
		o.Seeded = true
	}
}

// WithWorkers spreads Monte Carlo batches over n goroutines.
func WithWorkers(n int) RunOption {
	return func(o *RunOptions) { o.Workers = n }
}

// WithTolerance sets the absolute error goal of adaptive quadrature.
func WithTolerance(tol float64) RunOption {
	return func(o *RunOptions) { o.Tolerance = tol }
}

// WithMaxDepth caps the quadrature subdivision depth.
func WithMaxDepth(depth int) RunOption {
	return func(o *RunOptions) { o.MaxDepth = depth }
}

// WithMaxEvaluations caps the number of quadrature integrand evaluations.
func WithMaxEvaluations(n int) RunOption {
	return func(o *RunOptions) { o.MaxEvaluations = n }
}

// WithRule selects the quadrature rule pair by name.
func WithRule(name string) RunOption {
	return func(o *RunOptions) { o.Rule = name }
}

// WithProgress receives one report per Monte Carlo batch.
func WithProgress(p integration.ProgressReporter) RunOption {
	return func(o *RunOptions) { o.Progress = p }
}

// WithRunID labels the run with a caller-chosen identifier.
func WithRunID(id core.RunID) RunOption {
	return func(o *RunOptions) { o.RunID = id }
}

func resolveOptions(defaults config.EngineConfig, opts []RunOption) RunOptions {
	o := RunOptions{
		Samples:        defaults.Samples,
		BatchSize:      defaults.BatchSize,
		Workers:        defaults.Workers,
		Tolerance:      defaults.Tolerance,
		MaxDepth:       defaults.MaxDepth,
		MaxEvaluations: defaults.MaxEvaluations,
		Rule:           defaults.Rule,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func (o RunOptions) validate() error {
	switch {
	case o.Samples <= 0:
		return errors.ValidationErrorf("samples must be positive, got %d", o.Samples)
	case o.BatchSize <= 0:
		return errors.ValidationErrorf("batch size must be positive, got %d", o.BatchSize)
	case o.Workers <= 0:
		return errors.ValidationErrorf("workers must be positive, got %d", o.Workers)
	case !(o.Tolerance > 0) || math.IsInf(o.Tolerance, 0):
		return errors.ValidationErrorf("tolerance must be a positive finite number, got %g", o.Tolerance)
	case o.MaxDepth <= 0:
		return errors.ValidationErrorf("max depth must be positive, got %d", o.MaxDepth)
	case o.MaxEvaluations <= 0:
		return errors.ValidationErrorf("max evaluations must be positive, got %d", o.MaxEvaluations)
	}
	return nil
}
