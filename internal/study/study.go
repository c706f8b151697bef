// Package study runs Monte Carlo convergence studies: repeated seeded trials
// at increasing sample counts, summarised per level with a fitted log-log
// slope of error against sample count.
package study

import (
	"context"
	"math"

	"gointegral/app"
	"gointegral/domain/integration"
	"gointegral/internal/errors"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Config describes one study.
type Config struct {
	Name      string
	Samples   []int
	Trials    int
	Seed      uint64
	BatchSize int
	Workers   int

	// Exact is the reference value, used when HasExact is set.
	Exact    float64
	HasExact bool
}

// Level summarises the trials at one sample count.
type Level struct {
	Samples int
	Trials  int

	MeanValue   float64
	StdDevValue float64
	ValueP05    float64
	ValueP95    float64

	MeanErrorEstimate float64
	// MeanAbsError is NaN without a reference value.
	MeanAbsError float64
	MeanSeconds  float64
}

// Report is the outcome of a study.
type Report struct {
	Name      string
	Method    string
	Bounds    integration.Bounds
	Exact     float64
	HasExact  bool
	Levels    []Level
	Evaluated int

	// ReportedSlope fits log(mean error estimate) against log(samples);
	// ObservedSlope fits the spread of the trial values. Both are NaN when
	// the fit is undefined. Plain Monte Carlo converges with slope -1/2.
	ReportedSlope float64
	ObservedSlope float64
}

// Validate checks the study parameters.
func (c Config) Validate() error {
	if len(c.Samples) == 0 {
		return errors.ValidationError("study needs at least one sample count")
	}
	for _, n := range c.Samples {
		if n <= 0 {
			return errors.ValidationErrorf("sample counts must be positive, got %d", n)
		}
	}
	if c.Trials <= 0 {
		return errors.ValidationErrorf("trials must be positive, got %d", c.Trials)
	}
	return nil
}

// Run executes every trial through engine. Trial t at level i uses seed
// Seed + i*Trials + t, so a study is reproducible and no two trials share a
// stream.
func Run(ctx context.Context, engine *app.Engine, f integration.BatchFunc, bounds integration.Bounds, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	report := &Report{
		Name:     cfg.Name,
		Method:   app.MethodMonteCarlo,
		Bounds:   bounds.Clone(),
		Exact:    cfg.Exact,
		HasExact: cfg.HasExact,
		Levels:   make([]Level, 0, len(cfg.Samples)),
	}

	for i, n := range cfg.Samples {
		values := make([]float64, cfg.Trials)
		errs := make([]float64, cfg.Trials)
		absErrs := make([]float64, cfg.Trials)
		seconds := make([]float64, cfg.Trials)

		for t := 0; t < cfg.Trials; t++ {
			opts := []app.RunOption{
				app.WithSamples(n),
				app.WithSeed(cfg.Seed + uint64(i*cfg.Trials+t)),
			}
			if cfg.BatchSize > 0 {
				opts = append(opts, app.WithBatchSize(cfg.BatchSize))
			}
			if cfg.Workers > 0 {
				opts = append(opts, app.WithWorkers(cfg.Workers))
			}

			res, err := engine.Run(ctx, f, bounds, app.MethodMonteCarlo, opts...)
			if err != nil {
				return nil, errors.Wrapf(err, "trial %d at %d samples", t+1, n)
			}
			values[t] = res.Value()
			errs[t] = res.ErrorEstimate()
			absErrs[t] = math.Abs(res.Value() - cfg.Exact)
			seconds[t] = res.ExecutionTime()
			report.Evaluated += res.Evaluations()
		}

		level, err := summarize(n, values, errs, absErrs, seconds, cfg.HasExact)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to summarise %d samples", n)
		}
		report.Levels = append(report.Levels, level)
	}

	report.ReportedSlope = logLogSlope(report.Levels, func(l Level) float64 { return l.MeanErrorEstimate })
	report.ObservedSlope = logLogSlope(report.Levels, func(l Level) float64 { return l.StdDevValue })
	return report, nil
}

func summarize(n int, values, errs, absErrs, seconds []float64, hasExact bool) (Level, error) {
	level := Level{Samples: n, Trials: len(values), MeanAbsError: math.NaN()}

	var err error
	if level.MeanValue, err = stats.Mean(values); err != nil {
		return level, err
	}
	if level.StdDevValue, err = stats.StandardDeviation(values); err != nil {
		return level, err
	}
	if level.ValueP05, err = stats.PercentileNearestRank(values, 5); err != nil {
		return level, err
	}
	if level.ValueP95, err = stats.PercentileNearestRank(values, 95); err != nil {
		return level, err
	}
	if level.MeanErrorEstimate, err = stats.Mean(errs); err != nil {
		return level, err
	}
	if level.MeanSeconds, err = stats.Mean(seconds); err != nil {
		return level, err
	}
	if hasExact {
		if level.MeanAbsError, err = stats.Mean(absErrs); err != nil {
			return level, err
		}
	}
	return level, nil
}

// logLogSlope fits log(metric) = a + b*log(samples) and returns b.
func logLogSlope(levels []Level, metric func(Level) float64) float64 {
	if len(levels) < 2 {
		return math.NaN()
	}
	xs := make([]float64, len(levels))
	ys := make([]float64, len(levels))
	for i, l := range levels {
		m := metric(l)
		if !(m > 0) {
			return math.NaN()
		}
		xs[i] = math.Log(float64(l.Samples))
		ys[i] = math.Log(m)
	}
	if xs[0] == xs[len(xs)-1] {
		return math.NaN()
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope
}
