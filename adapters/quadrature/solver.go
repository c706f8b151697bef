// Package quadrature implements deterministic adaptive integration by
// recursive bisection with an embedded pair of tensor-product rules.
package quadrature

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gointegral/domain/integration"
	"gointegral/internal/errors"
	"gointegral/ports"
)

const (
	DefaultMaxDepth       = 30
	DefaultTolerance      = 1.49e-8
	DefaultMaxEvaluations = 5_000_000
)

// Config holds the subdivision budget and accuracy goal.
type Config struct {
	MaxDepth       int
	Tolerance      float64
	MaxEvaluations int
	Rule           string
	Logger         *slog.Logger
}

// Solver is the adaptive quadrature integrator.
type Solver struct {
	cfg    Config
	rule   Rule
	logger *slog.Logger
}

var _ ports.Solver = (*Solver)(nil)

// New validates cfg and returns a solver.
func New(cfg Config) (*Solver, error) {
	if cfg.MaxDepth <= 0 {
		return nil, errors.ValidationErrorf("max subdivision depth must be positive, got %d", cfg.MaxDepth)
	}
	if !(cfg.Tolerance > 0) || math.IsInf(cfg.Tolerance, 0) {
		return nil, errors.ValidationErrorf("absolute error tolerance must be positive, got %g", cfg.Tolerance)
	}
	if cfg.MaxEvaluations <= 0 {
		return nil, errors.ValidationErrorf("evaluation budget must be positive, got %d", cfg.MaxEvaluations)
	}
	rule, err := LookupRule(cfg.Rule)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Solver{cfg: cfg, rule: rule, logger: logger.With("component", "quadrature", "rule", rule.Name())}, nil
}

// Integrate presents the batched integrand as a point function, one call per
// quadrature node, and integrates it.
func (s *Solver) Integrate(ctx context.Context, f integration.BatchFunc, bounds integration.Bounds) (integration.Estimate, error) {
	if f == nil {
		return integration.Estimate{}, errors.ValidationError("integrand must not be nil")
	}
	return s.IntegratePoint(ctx, f.AtPoint(), bounds)
}

// IntegratePoint integrates a point function over bounds.
func (s *Solver) IntegratePoint(ctx context.Context, f integration.PointFunc, bounds integration.Bounds) (integration.Estimate, error) {
	if f == nil {
		return integration.Estimate{}, errors.ValidationError("integrand must not be nil")
	}
	if err := bounds.Validate(); err != nil {
		return integration.Estimate{}, err
	}

	dim := bounds.Dimension()
	perRegion := s.rule.NodesPerRegion(dim)
	if perRegion > s.cfg.MaxEvaluations {
		return integration.Estimate{}, errors.ValidationErrorf(
			"rule %s needs %d evaluations per region in %d dimensions, above the budget of %d",
			s.rule.Name(), perRegion, dim, s.cfg.MaxEvaluations)
	}

	run := &subdivision{
		solver:    s,
		f:         f,
		perRegion: perRegion,
		widths:    bounds.Widths(),
		x:         make([]float64, dim),
		idx:       make([]int, dim),
		half:      make([]float64, dim),
		centre:    make([]float64, dim),
	}
	if err := run.cancelled(ctx); err != nil {
		return integration.Estimate{}, err
	}
	root := bounds.Clone()
	high, low, err := run.estimate(root)
	if err != nil {
		return integration.Estimate{}, err
	}
	value, errEst, err := run.refine(ctx, root, high, low, 0, s.cfg.MaxEvaluations-perRegion)
	if err != nil {
		return integration.Estimate{}, err
	}

	if run.unconverged > 0 {
		s.logger.Warn("tolerance not met in some regions",
			"regions", run.regions,
			"unconverged", run.unconverged,
			"error_estimate", errEst,
			"tolerance", s.cfg.Tolerance)
	}
	s.logger.Debug("subdivision finished",
		"regions", run.regions,
		"evaluations", run.evaluations,
		"max_depth_reached", run.deepest)

	return integration.Estimate{
		Value:         value,
		ErrorEstimate: errEst,
		Evaluations:   run.evaluations,
	}, nil
}

// subdivision is the mutable state of one IntegratePoint call.
type subdivision struct {
	solver    *Solver
	f         integration.PointFunc
	perRegion int
	// widths of the root region, for the volume share of a sub-region.
	widths []float64

	evaluations int
	regions     int
	unconverged int
	deepest     int

	x, half, centre []float64
	idx             []int
}

func (r *subdivision) cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "quadrature cancelled after %d evaluations", r.evaluations)
	}
	return nil
}

// share is the fraction of the root volume covered by region. It is taken
// axis by axis so that it stays exact when the volumes themselves underflow.
func (r *subdivision) share(region integration.Bounds) float64 {
	out := 1.0
	for j, iv := range region {
		out *= iv.Width() / r.widths[j]
	}
	return out
}

// refine accepts an already estimated region or bisects it along its longest
// axis while the local error misses its share of the tolerance. budget is the
// number of evaluations the region's descendants may still spend. Both halves
// are estimated before either is refined; the half with the larger error is
// refined first and gets a part of the budget proportional to its error,
// whatever it leaves unspent passes to the other half.
func (r *subdivision) refine(ctx context.Context, region integration.Bounds, high, low float64, depth, budget int) (float64, float64, error) {
	if err := r.cancelled(ctx); err != nil {
		return 0, 0, err
	}
	r.regions++
	r.deepest = max(r.deepest, depth)

	localErr := math.Abs(high - low)
	if localErr <= r.solver.cfg.Tolerance*r.share(region) {
		return high, localErr, nil
	}
	if depth >= r.solver.cfg.MaxDepth || budget < 2*r.perRegion {
		r.unconverged++
		return high, localErr, nil
	}

	var halves [2]child
	halves[0].region, halves[1].region = region.Bisect(region.LongestAxis())
	for i := range halves {
		h, l, err := r.estimate(halves[i].region)
		if err != nil {
			return 0, 0, err
		}
		halves[i].high, halves[i].low = h, l
	}
	budget -= 2 * r.perRegion

	first, second := &halves[0], &halves[1]
	if second.err() > first.err() {
		first, second = second, first
	}
	firstBudget := budget / 2
	if total := first.err() + second.err(); total > 0 && !math.IsInf(total, 0) {
		firstBudget = int(float64(budget) * (first.err() / total))
	}

	spent := r.evaluations
	v1, e1, err := r.refine(ctx, first.region, first.high, first.low, depth+1, firstBudget)
	if err != nil {
		return 0, 0, err
	}
	spent = r.evaluations - spent
	v2, e2, err := r.refine(ctx, second.region, second.high, second.low, depth+1, budget-spent)
	if err != nil {
		return 0, 0, err
	}
	return v1 + v2, e1 + e2, nil
}

// child is an estimated half of a bisected region.
type child struct {
	region    integration.Bounds
	high, low float64
}

func (c *child) err() float64 { return math.Abs(c.high - c.low) }

// estimate applies both tensor-product rules to region.
func (r *subdivision) estimate(region integration.Bounds) (float64, float64, error) {
	rule := r.solver.rule
	dim := len(region)
	scale := 1.0
	for j, iv := range region {
		r.half[j] = 0.5 * iv.Width()
		r.centre[j] = iv.Mid()
		r.idx[j] = 0
		scale *= r.half[j]
	}

	var high, low float64
	for {
		wh, wl := 1.0, 1.0
		for j, k := range r.idx {
			wh *= rule.high[k]
			wl *= rule.low[k]
			r.x[j] = r.centre[j] + r.half[j]*rule.nodes[k]
		}

		if wh != 0 || wl != 0 {
			v, err := r.f(r.x)
			r.evaluations++
			if err != nil {
				if errors.Is(err, errors.ErrValidation) {
					return 0, 0, err
				}
				return 0, 0, errors.ConvergenceError("adaptive quadrature aborted",
					errors.EvaluationError(fmt.Sprintf("function evaluation failed at %v", r.x), err))
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, 0, errors.ConvergenceError("adaptive quadrature aborted",
					errors.PrecisionError(fmt.Sprintf("function produced non-finite value %v at %v", v, r.x)))
			}
			high += wh * v
			low += wl * v
		}

		// Advance the odometer over the node grid.
		j := 0
		for ; j < dim; j++ {
			r.idx[j]++
			if r.idx[j] < rule.Size() {
				break
			}
			r.idx[j] = 0
		}
		if j == dim {
			break
		}
	}
	return high * scale, low * scale, nil
}
