// Package app hosts the integration engine: the single entry point that
// validates a request, dispatches it to a registered solver and freezes the
// outcome into a Result.
package app

import (
	"context"
	"log/slog"
	"math"
	"time"

	"gointegral/domain/core"
	"gointegral/domain/integration"
	"gointegral/domain/manifold"
	"gointegral/internal/config"
	"gointegral/internal/errors"
	"gointegral/internal/metrics"
)

// Engine runs integrations. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	defaults config.EngineConfig
	logger   *slog.Logger
	metrics  *metrics.Recorder
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for run events. The default discards them.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records every run on r.
func WithMetrics(r *metrics.Recorder) EngineOption {
	return func(e *Engine) { e.metrics = r }
}

// WithDefaults replaces the built-in run defaults, typically with the
// engine section of a loaded config.
func WithDefaults(defaults config.EngineConfig) EngineOption {
	return func(e *Engine) { e.defaults = defaults }
}

// NewEngine creates an engine
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		defaults: config.Defaults().Engine,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "engine")
	return e
}

// Methods lists the registered method names in sorted order.
func (e *Engine) Methods() []string {
	return append([]string(nil), methodNames...)
}

// Run integrates f over bounds with the named method. The integrand, the
// bounds and every option are validated before f is first called.
func (e *Engine) Run(ctx context.Context, f integration.BatchFunc, bounds integration.Bounds, method string, opts ...RunOption) (integration.Result, error) {
	if f == nil {
		return integration.Result{}, errors.ValidationError("integrand must not be nil")
	}
	if err := bounds.Validate(); err != nil {
		return integration.Result{}, err
	}
	o := resolveOptions(e.defaults, opts)
	if err := o.validate(); err != nil {
		return integration.Result{}, err
	}
	name, factory, err := lookupMethod(method)
	if err != nil {
		return integration.Result{}, err
	}

	runID := o.RunID
	if runID.IsEmpty() {
		runID = core.NewRunID()
	}
	logger := e.logger.With("run_id", runID.String(), "method", name, "dimension", bounds.Dimension())

	solver, err := factory(o, logger)
	if err != nil {
		return integration.Result{}, err
	}

	logger.Debug("integration started", "bounds", bounds.String())
	start := time.Now()
	est, err := solver.Integrate(ctx, f, bounds)
	elapsed := time.Since(start)

	if err != nil {
		e.metrics.ObserveRun(name, 0, elapsed, err)
		logger.Error("integration failed",
			"error", err,
			"code", errors.GetCode(err),
			"elapsed", elapsed)
		return integration.Result{}, err
	}

	result, err := integration.NewResult(name, est, bounds.Dimension(), elapsed)
	if err != nil {
		e.metrics.ObserveRun(name, est.Evaluations, elapsed, err)
		return integration.Result{}, errors.Wrap(err, "solver produced an invalid result")
	}

	e.metrics.ObserveRun(name, result.Evaluations(), elapsed, nil)
	logger.Info("integration finished",
		"value", result.Value(),
		"error_estimate", result.ErrorEstimate(),
		"evaluations", result.Evaluations(),
		"elapsed", elapsed)
	return result, nil
}

// Validation compares an integration of a manifold's indicator with its
// closed-form volume.
type Validation struct {
	Result   integration.Result
	Exact    float64
	AbsError float64
}

// RelError is the absolute error relative to the exact volume.
func (v Validation) RelError() float64 {
	if v.Exact == 0 {
		return math.Inf(1)
	}
	return v.AbsError / math.Abs(v.Exact)
}

// WithinError reports whether the observed error is inside k reported
// error estimates.
func (v Validation) WithinError(k float64) bool {
	return v.AbsError <= k*v.Result.ErrorEstimate()
}

// Validate estimates the volume of p by integrating its indicator over its
// bounding box and checks it against the analytic volume.
func (e *Engine) Validate(ctx context.Context, p manifold.Predicate, method string, opts ...RunOption) (Validation, error) {
	if p == nil {
		return Validation{}, errors.ValidationError("manifold must not be nil")
	}
	exact, ok := p.AnalyticVolume()
	if !ok {
		return Validation{}, errors.ValidationError("manifold has no analytic volume to validate against")
	}

	result, err := e.Run(ctx, manifold.Indicator(p), p.BoundingBox(), method, opts...)
	if err != nil {
		return Validation{}, err
	}
	return Validation{
		Result:   result,
		Exact:    exact,
		AbsError: math.Abs(result.Value() - exact),
	}, nil
}
